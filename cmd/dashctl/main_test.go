package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = "Temporada,Preço,Nota,Desconto,Gênero,Qtd_Vendidos_Cod,Qtd_Vendidos\n" +
	"Verão,100,4.5,10,Masculino,10,10\n" +
	"Inverno,150,4.0,5,Feminino,5,5\n" +
	"Verão,80,3.5,0,Feminino,3,3\n"

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listings.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeasonsCommand(t *testing.T) {
	out, err := run(t, "seasons", writeSample(t))
	require.NoError(t, err)
	assert.Equal(t, "Verão\nInverno\n", out)
}

func TestRenderCommand(t *testing.T) {
	csv := writeSample(t)

	tests := []struct {
		name     string
		args     []string
		wantRows int
	}{
		{"default selection", nil, 2},
		{"explicit season", []string{"--season", "Inverno"}, 1},
		{"all seasons", []string{"--all"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"render", csv}, tt.args...)...)
			require.NoError(t, err)

			var dash struct {
				Rows int `json:"rows"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &dash))
			assert.Equal(t, tt.wantRows, dash.Rows)
		})
	}
}

func TestPNGCommand(t *testing.T) {
	csv := writeSample(t)
	out := filepath.Join(t.TempDir(), "bar.png")

	_, err := run(t, "png", csv, "--kind", "bar", "--all", "--out", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	_, err = run(t, "png", csv, "--kind", "donut")
	assert.Error(t, err)

	_, err = run(t, "png", csv, "--kind", "heatmap", "--all", "--out", filepath.Join(t.TempDir(), "h.png"))
	assert.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	csv := writeSample(t)
	out := filepath.Join(t.TempDir(), "dash.xlsx")

	_, err := run(t, "export", csv, "--season", "Verão", "--out", out)
	require.NoError(t, err)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Dados")
	require.NoError(t, err)
	assert.Len(t, rows, 3, "header plus two Verão rows")
}

func TestMissingFile(t *testing.T) {
	_, err := run(t, "seasons", filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}
