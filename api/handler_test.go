package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aluiziolira/go-price-compare/config"
	"github.com/aluiziolira/go-price-compare/models"
	"github.com/aluiziolira/go-price-compare/pipeline"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeComparer struct {
	result *models.ComparisonResult
	err    error
	names  []string
}

func (f *fakeComparer) Compare(_ context.Context, name string) (*models.ComparisonResult, error) {
	f.names = append(f.names, name)
	if f.err != nil {
		return nil, f.err
	}
	if strings.TrimSpace(name) == "" {
		return nil, pipeline.ErrEmptyQuery
	}
	return f.result, nil
}

func newTestRouter(t *testing.T, comparer Comparer, registry *prometheus.Registry) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.DefaultConfig()
	cfg.Server.AllowedOrigins = []string{"http://localhost:3000", "chrome-extension://*"}
	return SetupRouter(cfg, NewHandler(comparer, logger), registry, logger)
}

func sampleResult() *models.ComparisonResult {
	results := []models.Offer{
		{Site: "FragranceNet", Price: models.Float(89.99), Size: models.String("100ml"), PricePerML: models.Float(0.9), URL: "https://a.test/1", StockStatus: "In Stock"},
		{Site: "FragranceX", Price: models.Float(79.95), Size: models.String("100ml"), PricePerML: models.Float(0.8), URL: "https://b.test/2", StockStatus: "In Stock"},
	}
	return &models.ComparisonResult{
		PerfumeName: "Sauvage",
		Results:     results,
		BestDeal:    &results[1],
	}
}

func doRequest(router *gin.Engine, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRootAndHealth(t *testing.T) {
	router := newTestRouter(t, &fakeComparer{}, nil)

	w := doRequest(router, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Perfume Price Comparator API"}`, w.Body.String())

	w = doRequest(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestSearchSuccess(t *testing.T) {
	comparer := &fakeComparer{result: sampleResult()}
	router := newTestRouter(t, comparer, nil)

	w := doRequest(router, http.MethodPost, "/search", `{"name":"Sauvage"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Sauvage"}, comparer.names)

	var body struct {
		PerfumeName string         `json:"perfume_name"`
		Results     []models.Offer `json:"results"`
		BestDeal    *models.Offer  `json:"best_deal"`
		Degraded    bool           `json:"degraded"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Sauvage", body.PerfumeName)
	assert.Len(t, body.Results, 2)
	require.NotNil(t, body.BestDeal)
	assert.Equal(t, "FragranceX", body.BestDeal.Site)
	assert.False(t, body.Degraded)
}

func TestSearchEncodesAbsentFieldsAsNull(t *testing.T) {
	comparer := &fakeComparer{result: &models.ComparisonResult{
		PerfumeName: "Sauvage",
		Results:     []models.Offer{{Site: "FragranceShop", URL: "https://c.test/3", StockStatus: "In Stock"}},
	}}
	router := newTestRouter(t, comparer, nil)

	w := doRequest(router, http.MethodPost, "/search", `{"name":"Sauvage"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"perfume_name": "Sauvage",
		"results": [{
			"site": "FragranceShop",
			"price": null,
			"size": null,
			"price_per_ml": null,
			"url": "https://c.test/3",
			"stock_status": "In Stock",
			"image_url": null
		}],
		"best_deal": null,
		"degraded": false
	}`, w.Body.String())
}

func TestSearchBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing body", body: ""},
		{name: "invalid json", body: `{"name":`},
		{name: "missing name", body: `{}`},
		{name: "blank name", body: `{"name":"   "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &fakeComparer{result: sampleResult()}, nil)
			w := doRequest(router, http.MethodPost, "/search", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"detail":"Perfume name is required"}`, w.Body.String())
		})
	}
}

func TestSearchCanceled(t *testing.T) {
	router := newTestRouter(t, &fakeComparer{err: context.Canceled}, nil)
	w := doRequest(router, http.MethodPost, "/search", `{"name":"Sauvage"}`, nil)
	assert.Equal(t, statusClientClosedRequest, w.Code)
}

func TestSearchInternalError(t *testing.T) {
	router := newTestRouter(t, &fakeComparer{err: errors.New("boom")}, nil)
	w := doRequest(router, http.MethodPost, "/search", `{"name":"Sauvage"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "detail")
}

func TestMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "pricecompare_test_total", Help: "test"})
	registry.MustRegister(counter)
	counter.Inc()

	router := newTestRouter(t, &fakeComparer{}, registry)
	w := doRequest(router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pricecompare_test_total 1")

	router = newTestRouter(t, &fakeComparer{}, nil)
	w = doRequest(router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
