package services

import (
	"context"
	"encoding/gob"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/sync/errgroup"

	"ecommerce-dashboard/internal/models"
)

const (
	batchSize    = 10000
	maxWorkers   = 10
	cacheVersion = "v1"
)

// snapshot is the gob-encoded form of a parsed table.
type snapshot struct {
	Rows         []models.Product
	Seasons      []string
	LastModified time.Time
}

// Store holds the listings table. It is written once by Load (or SetData)
// and only read afterwards.
type Store struct {
	mu       sync.RWMutex
	rows     []models.Product
	seasons  []string
	loadedAt time.Time
	csvPath  string
	cacheDir string
	logger   *slog.Logger
}

type StoreOption func(*Store)

// WithCacheDir enables the parsed-table cache in dir.
func WithCacheDir(dir string) StoreOption {
	return func(s *Store) { s.cacheDir = dir }
}

func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) SetData(rows []models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = rows
	s.seasons = DistinctSeasons(rows)
	s.loadedAt = time.Now()
}

func (s *Store) Load(ctx context.Context, filename string) error {
	s.mu.Lock()
	s.csvPath = filename
	s.mu.Unlock()

	info, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("stat csv: %w", err)
	}

	if s.cacheDir != "" {
		if cached, err := s.loadFromCache(filename); err == nil && info.ModTime().Before(cached.LastModified) {
			s.mu.Lock()
			s.rows, s.seasons, s.loadedAt = cached.Rows, cached.Seasons, time.Now()
			s.mu.Unlock()
			s.logger.Info("loaded from cache", "records", len(cached.Rows))
			return nil
		}
	}

	start := time.Now()
	s.logger.Info("processing CSV file", "filename", filename)

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	rows, err := ReadProducts(ctx, file)
	if err != nil {
		return fmt.Errorf("process csv: %w", err)
	}
	s.SetData(rows)

	if s.cacheDir != "" {
		if err := s.saveToCache(filename); err != nil {
			s.logger.Warn("failed to save cache", "error", err)
		}
	}

	duration := time.Since(start)
	s.logger.Info("csv processing complete",
		"records", len(rows),
		"seasons", len(s.Seasons()),
		"duration", duration)

	return nil
}

// ReadProducts decodes a listings CSV. Every column is read as text and
// numeric fields are coerced per row, so a bad cell yields NaN rather than
// an error.
func ReadProducts(ctx context.Context, r io.Reader) ([]models.Product, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("read csv: %w", df.Err)
	}

	names := make(map[string]string, df.Ncol())
	for _, name := range df.Names() {
		names[strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")] = name
	}
	columns := make(map[string][]string, len(models.RequiredColumns))
	for _, col := range models.RequiredColumns {
		name, ok := names[col]
		if !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
		columns[col] = df.Col(name).Records()
	}

	n := df.Nrow()
	if n == 0 {
		return nil, fmt.Errorf("no data rows")
	}

	rows := make([]models.Product, n)
	var g errgroup.Group
	g.SetLimit(maxWorkers)

	for start := 0; start < n; start += batchSize {
		end := min(start+batchSize, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				rows[i] = parseProduct(columns, i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return rows, nil
}

func parseProduct(columns map[string][]string, i int) models.Product {
	code := columns[models.ColSoldQuantityCode][i]
	return models.Product{
		Season:           strings.TrimSpace(columns[models.ColSeason][i]),
		Price:            ParseDecimal(columns[models.ColPrice][i]),
		Rating:           ParseDecimal(columns[models.ColRating][i]),
		Discount:         ParseDecimal(columns[models.ColDiscount][i]),
		Gender:           strings.TrimSpace(columns[models.ColGender][i]),
		SoldQuantityCode: code,
		SoldQuantity:     SoldQuantity(code),
	}
}

// ParseDecimal reads a finite number, returning NaN when s is not one.
// Spellings such as "inf" or "Infinity" count as missing.
func ParseDecimal(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

// SoldQuantity derives the numeric sold quantity from its raw code.
func SoldQuantity(code string) float64 {
	return ParseDecimal(code)
}

// DistinctSeasons returns the seasons in the order they first appear.
func DistinctSeasons(rows []models.Product) []string {
	seen := make(map[string]struct{})
	seasons := make([]string, 0)
	for _, p := range rows {
		if p.Season == "" {
			continue
		}
		if _, ok := seen[p.Season]; ok {
			continue
		}
		seen[p.Season] = struct{}{}
		seasons = append(seasons, p.Season)
	}
	return seasons
}

// Cache management
func (s *Store) getCacheFilename(csvPath string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(csvPath)
	return fmt.Sprintf("%s/%s_%s.gob", s.cacheDir, name, cacheVersion)
}

func (s *Store) saveToCache(csvPath string) error {
	if err := os.MkdirAll(s.cacheDir, 0755); err != nil {
		return err
	}

	file, err := os.Create(s.getCacheFilename(csvPath))
	if err != nil {
		return err
	}
	defer file.Close()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return gob.NewEncoder(file).Encode(snapshot{
		Rows:         s.rows,
		Seasons:      s.seasons,
		LastModified: time.Now(),
	})
}

func (s *Store) loadFromCache(csvPath string) (*snapshot, error) {
	file, err := os.Open(s.getCacheFilename(csvPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var data snapshot
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (s *Store) Rows() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rows
}

func (s *Store) Seasons() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.seasons)
}

// DefaultSelection is the first season, or nothing for an empty table.
func (s *Store) DefaultSelection() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.seasons) == 0 {
		return []string{}
	}
	return []string{s.seasons[0]}
}

// Utility method for monitoring
func (s *Store) Stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	missing := 0
	for _, p := range s.rows {
		if !p.HasSoldQuantity() {
			missing++
		}
	}

	return map[string]any{
		"record_count":          len(s.rows),
		"seasons":               len(s.seasons),
		"missing_sold_quantity": missing,
		"source":                s.csvPath,
		"last_loaded":           s.loadedAt,
	}
}
