package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecommerce-dashboard/internal/config"
	"ecommerce-dashboard/internal/middleware"
	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/observability"
	"ecommerce-dashboard/internal/services"
)

// Test helper to create a view builder over a small listings table
func newTestViews() *services.ViewBuilder {
	store := services.NewStore()
	store.SetData([]models.Product{
		{Season: "Verão", Price: 100, Rating: 4.5, Discount: 10, Gender: "Masculino", SoldQuantityCode: "10", SoldQuantity: 10},
		{Season: "Inverno", Price: 150, Rating: 4.0, Discount: 5, Gender: "Feminino", SoldQuantityCode: "5", SoldQuantity: 5},
		{Season: "Verão", Price: 80, Rating: 3.5, Discount: 0, Gender: "Feminino", SoldQuantityCode: "3", SoldQuantity: 3},
	})
	return services.NewViewBuilder(store, nil)
}

func testConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{
			EnableRateLimit: false,
			RateLimitRPS:    100,
			RateLimitBurst:  10,
			AllowedOrigins:  []string{"http://localhost:8050"},
		},
	}
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig()
	limiter := middleware.NewRateLimiter(cfg.Security)
	t.Cleanup(limiter.Stop)
	return newHandler(newTestViews(), cfg, logger, observability.NewMetrics(), limiter)
}

func TestServer_Routes(t *testing.T) {
	handler := newTestHandler(t)

	tests := []struct {
		path           string
		expectedStatus int
		contentType    string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/api/seasons", http.StatusOK, "application/json"},
		{"/api/charts?season=Ver%C3%A3o", http.StatusOK, "application/json"},
		{"/api/charts/bar.png?season=Ver%C3%A3o", http.StatusOK, "image/png"},
		{"/api/export.xlsx?season=Inverno", http.StatusOK, "spreadsheetml"},
		{"/health", http.StatusOK, "application/json"},
		{"/admin/stats", http.StatusOK, "application/json"},
		{"/metrics", http.StatusOK, "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)

			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), tt.contentType)
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

			if tt.contentType == "application/json" {
				var result any
				assert.NoError(t, json.NewDecoder(w.Body).Decode(&result), "invalid json")
			}
		})
	}
}

func TestServer_ChartsResponse(t *testing.T) {
	handler := newTestHandler(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/charts?season=Ver%C3%A3o&season=Inverno", nil)
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			Rows int `json:"rows"`
			Bar  struct {
				Series []struct {
					Labels []string  `json:"labels"`
					Y      []float64 `json:"y"`
				} `json:"series"`
			} `json:"bar"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

	assert.True(t, response.Success)
	assert.Equal(t, 3, response.Data.Rows)
	require.Len(t, response.Data.Bar.Series, 2)
	assert.Equal(t, []string{"Verão"}, response.Data.Bar.Series[0].Labels)
	assert.Equal(t, []float64{13}, response.Data.Bar.Series[0].Y)
	assert.Equal(t, []string{"Inverno"}, response.Data.Bar.Series[1].Labels)
	assert.Equal(t, []float64{5}, response.Data.Bar.Series[1].Y)
}

func TestServer_SSERoutes(t *testing.T) {
	handler := newTestHandler(t)

	signals := url.QueryEscape(`{"seasons":["Inverno"]}`)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/sse/charts?datastar="+signals, nil)

	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	body := w.Body.String()
	assert.Contains(t, body, "datastar-patch-signals")
	assert.Contains(t, body, `"charts"`)
	assert.Contains(t, body, "1 produtos em Inverno")
}

func TestServer_HandleHealth(t *testing.T) {
	handler := newTestHandler(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, true, response["success"])

	healthData, ok := response["data"].(map[string]any)
	require.True(t, ok, "expected health data in response")
	assert.Equal(t, "healthy", healthData["status"])
	assert.Contains(t, healthData, "timestamp")
}

func TestServer_Metrics(t *testing.T) {
	handler := newTestHandler(t)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/seasons", nil))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := w.Body.String()
	assert.Contains(t, body, "dashboard_http_requests_total")
	assert.Contains(t, body, `route="/api/seasons"`)
}

func TestServer_ErrorHandling(t *testing.T) {
	handler := newTestHandler(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodPost, "/api/charts", http.StatusMethodNotAllowed},
		{http.MethodPut, "/", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/health", http.StatusMethodNotAllowed},
		{http.MethodPatch, "/api/seasons", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
		{http.MethodGet, "/api/charts/donut.png", http.StatusBadRequest},
		{http.MethodGet, "/api/charts/heatmap.png?season=Inverno", http.StatusBadRequest},
		{http.MethodGet, "/api/charts/pie.png", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(tt.method, tt.path, nil)

			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestDashboardTemplate(t *testing.T) {
	views := newTestViews()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	newDashboardHandler(views.Store())(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, cacheMaxAge, w.Header().Get("Cache-Control"))

	body := w.Body.String()
	assert.Contains(t, body, "Dashboard Interativo - E-commerce")
	assert.Contains(t, body, "Selecione as temporadas")
	assert.Contains(t, body, "id_selecao_temporada")

	for _, id := range []string{"grafico_barras", "grafico_dispersao", "grafico_histograma", "grafico_calor", "grafico_pizza"} {
		assert.Contains(t, body, `id="`+id+`"`)
	}
	for _, season := range []string{"Verão", "Inverno"} {
		assert.True(t, strings.Contains(body, season), "dashboard should list season %q", season)
	}
}
