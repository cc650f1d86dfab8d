package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-dashboard/internal/charts"
	"ecommerce-dashboard/internal/models"
)

const csvHeader = "Temporada,Preço,Nota,Desconto,Gênero,Qtd_Vendidos_Cod,Qtd_Vendidos\n"

func createTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listings.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testProducts() []models.Product {
	return []models.Product{
		{Season: "Verão", Price: 100, Rating: 4.5, Discount: 10, Gender: "Masculino", SoldQuantityCode: "10", SoldQuantity: 10},
		{Season: "Inverno", Price: 150, Rating: 4.0, Discount: 5, Gender: "Feminino", SoldQuantityCode: "5", SoldQuantity: 5},
		{Season: "Verão", Price: 80, Rating: math.NaN(), Discount: 0, Gender: "Feminino", SoldQuantityCode: "x", SoldQuantity: math.NaN()},
	}
}

func TestNewStore(t *testing.T) {
	s := NewStore()
	require.NotNil(t, s)
	assert.NotNil(t, s.logger, "logger should default to slog.Default")
	assert.Empty(t, s.Rows())
	assert.Empty(t, s.Seasons())
	assert.Equal(t, []string{}, s.DefaultSelection())
}

func TestStore_SetData(t *testing.T) {
	s := NewStore()
	s.SetData(testProducts())

	assert.Len(t, s.Rows(), 3)
	assert.Equal(t, []string{"Verão", "Inverno"}, s.Seasons())
	assert.Equal(t, []string{"Verão"}, s.DefaultSelection())

	stats := s.Stats()
	assert.Equal(t, 3, stats["record_count"])
	assert.Equal(t, 2, stats["seasons"])
	assert.Equal(t, 1, stats["missing_sold_quantity"])
}

func TestStore_SeasonsIsACopy(t *testing.T) {
	s := NewStore()
	s.SetData(testProducts())

	seasons := s.Seasons()
	seasons[0] = "changed"
	assert.Equal(t, "Verão", s.Seasons()[0])
}

func TestStore_Load_ValidData(t *testing.T) {
	f := createTempCSV(t, csvHeader+
		"Verão,100.5,4.5,10,Masculino,10,10\n"+
		"Inverno,150,4.0,5,Feminino,5,5\n"+
		"Outono,80,3.5,0,Masculino,abc,\n")

	s := NewStore()
	require.NoError(t, s.Load(context.Background(), f))

	rows := s.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Verão", "Inverno", "Outono"}, s.Seasons())

	assert.Equal(t, models.Product{
		Season: "Verão", Price: 100.5, Rating: 4.5, Discount: 10,
		Gender: "Masculino", SoldQuantityCode: "10", SoldQuantity: 10,
	}, rows[0])
	assert.Equal(t, "abc", rows[2].SoldQuantityCode)
	assert.True(t, math.IsNaN(rows[2].SoldQuantity), "non-numeric code should be missing")
	assert.False(t, rows[2].HasSoldQuantity())
	assert.Equal(t, f, s.Stats()["source"])
}

func TestStore_Load_ColumnOrderAndBOM(t *testing.T) {
	f := createTempCSV(t, "\ufeffGênero,Qtd_Vendidos_Cod,Temporada,Nota,Preço,Desconto\n"+
		"Feminino,7,Primavera,4.1,55,15\n")

	s := NewStore()
	require.NoError(t, s.Load(context.Background(), f))

	rows := s.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Primavera", rows[0].Season)
	assert.Equal(t, 55.0, rows[0].Price)
	assert.Equal(t, 7.0, rows[0].SoldQuantity)
}

func TestStore_Load_InvalidData(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{name: "empty file", csv: ""},
		{name: "header only", csv: csvHeader},
		{name: "missing quantity code", csv: "Temporada,Preço,Nota,Desconto,Gênero\nVerão,1,2,3,Masculino\n"},
		{name: "missing season", csv: "Preço,Nota,Desconto,Gênero,Qtd_Vendidos_Cod\n1,2,3,Masculino,4\n"},
		{name: "ragged row", csv: csvHeader + "Verão,1,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			err := s.Load(context.Background(), createTempCSV(t, tt.csv))
			assert.Error(t, err)
			assert.Empty(t, s.Rows())
		})
	}
}

func TestStore_Load_MissingFile(t *testing.T) {
	s := NewStore()
	err := s.Load(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadProducts_ManyBatches(t *testing.T) {
	var b strings.Builder
	b.WriteString(csvHeader)
	n := batchSize*2 + 17
	for i := 0; i < n; i++ {
		season := "Verão"
		if i%2 == 1 {
			season = "Inverno"
		}
		fmt.Fprintf(&b, "%s,%d,4,0,Feminino,%d,\n", season, i, i)
	}

	rows, err := ReadProducts(context.Background(), strings.NewReader(b.String()))
	require.NoError(t, err)
	require.Len(t, rows, n)
	for i, p := range rows {
		if p.SoldQuantity != float64(i) {
			t.Fatalf("row %d out of order: sold quantity %v", i, p.SoldQuantity)
		}
	}
}

func TestReadProducts_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadProducts(ctx, strings.NewReader(csvHeader+"Verão,1,2,3,Masculino,4,4\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSoldQuantity(t *testing.T) {
	tests := []struct {
		code string
		want float64
	}{
		{"10", 10},
		{" 3 ", 3},
		{"2.5", 2.5},
		{"0", 0},
		{"", math.NaN()},
		{"abc", math.NaN()},
		{"1,5", math.NaN()},
		{"NaN", math.NaN()},
		{"inf", math.NaN()},
		{"+Inf", math.NaN()},
		{"-Infinity", math.NaN()},
		{"1e309", math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := SoldQuantity(tt.code)
			if math.IsNaN(tt.want) {
				assert.True(t, math.IsNaN(got), "SoldQuantity(%q) = %v, want NaN", tt.code, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadProducts_NonFiniteAsMissing(t *testing.T) {
	csv := csvHeader +
		"Verão,inf,4,5,Feminino,3,3\n" +
		"Verão,120,Infinity,5,Masculino,-inf,0\n" +
		"Verão,90,3.5,2,Masculino,2,2\n"

	rows, err := ReadProducts(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.True(t, math.IsNaN(rows[0].Price))
	assert.True(t, math.IsNaN(rows[1].Rating))
	assert.False(t, rows[1].HasSoldQuantity())

	v := newTestViewBuilder(rows)
	var dash charts.Dashboard
	require.NotPanics(t, func() { dash = v.Render(context.Background(), []string{"Verão"}) })
	assert.Equal(t, 3, dash.Rows)

	_, err = json.Marshal(dash)
	assert.NoError(t, err)
	_, err = json.Marshal(dash.Figures())
	assert.NoError(t, err)
}

func TestDistinctSeasons(t *testing.T) {
	rows := []models.Product{
		{Season: "Inverno"}, {Season: ""}, {Season: "Verão"}, {Season: "Inverno"}, {Season: "Outono"},
	}
	assert.Equal(t, []string{"Inverno", "Verão", "Outono"}, DistinctSeasons(rows))
	assert.Equal(t, []string{}, DistinctSeasons(nil))
}

func TestStore_Cache(t *testing.T) {
	f := createTempCSV(t, csvHeader+"Verão,100,4.5,10,Masculino,10,10\n")
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(f, old, old))

	cacheDir := filepath.Join(t.TempDir(), "cache")
	first := NewStore(WithCacheDir(cacheDir))
	require.NoError(t, first.Load(context.Background(), f))

	_, err := os.Stat(first.getCacheFilename(f))
	require.NoError(t, err, "cache file should be written")

	// Rewrite the file but keep it older than the cache: the cached table wins.
	require.NoError(t, os.WriteFile(f, []byte(csvHeader+"Inverno,1,1,1,Feminino,1,1\n"), 0o644))
	require.NoError(t, os.Chtimes(f, old, old))

	second := NewStore(WithCacheDir(cacheDir))
	require.NoError(t, second.Load(context.Background(), f))
	assert.Equal(t, first.Rows(), second.Rows())
	assert.Equal(t, []string{"Verão"}, second.Seasons())

	// A newer file invalidates the cache.
	now := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(f, now, now))

	third := NewStore(WithCacheDir(cacheDir))
	require.NoError(t, third.Load(context.Background(), f))
	assert.Equal(t, []string{"Inverno"}, third.Seasons())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore()
	s.SetData(testProducts())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Rows()
			_ = s.Seasons()
			_ = s.DefaultSelection()
			_ = s.Stats()
		}()
	}
	wg.Wait()
}

func TestStore_StatsDuringLoad(t *testing.T) {
	f := createTempCSV(t, csvHeader+"Verão,100,4.5,10,Masculino,10,10\n")
	s := NewStore()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, s.Load(context.Background(), f))
	}()
	for i := 0; i < 10; i++ {
		_ = s.Stats()
	}
	wg.Wait()

	assert.Equal(t, f, s.Stats()["source"])
}
