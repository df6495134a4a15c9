package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"gofinemap/adapters/memory"
	"gofinemap/app"
	"gofinemap/domain/susie"
	"gofinemap/internal/simulate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	svc := app.NewFitService(memory.NewFitRepository(), nil, 2)
	return NewServer(svc, nil)
}

func fitRequestBody(t *testing.T) []byte {
	t.Helper()
	cfg := simulate.Config{
		NumVariables:  50,
		NumEffects:    1,
		SampleSize:    200,
		RefSampleSize: 100,
		EffectSize:    0.6,
		Rho:           0.8,
		BlockSize:     25,
	}
	ds, err := simulate.Generate(cfg, rand.New(rand.NewSource(4)))
	require.NoError(t, err)

	rows := make([][]float64, cfg.NumVariables)
	for i := range rows {
		rows[i] = make([]float64, cfg.NumVariables)
		for j := range rows[i] {
			rows[i][j] = ds.R.At(i, j)
		}
	}
	opts := susie.DefaultOptions()
	opts.SampleSize = cfg.SampleSize
	body, err := json.Marshal(FitRequest{
		Z:         ds.Z,
		R:         rows,
		NumLayers: 5,
		Options:   &opts,
	})
	require.NoError(t, err)
	return body
}

func doRequest(t *testing.T, srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := doRequest(t, testServer(t), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestCreateFitRoundTrip(t *testing.T) {
	srv := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/fits", fitRequestBody(t))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created susie.FitResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Len(t, created.PIP, 50)

	rec = doRequest(t, srv, http.MethodGet, fmt.Sprintf("/api/fits/%s", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, fmt.Sprintf("/api/fits/%s/summary", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary susie.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Len(t, summary.PIP, 50)

	rec = doRequest(t, srv, http.MethodGet, "/api/fits", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []susie.FitResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)
}

func TestCreateFitRejectsMalformedBody(t *testing.T) {
	rec := doRequest(t, testServer(t), http.MethodPost, "/api/fits", []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateFitRejectsRaggedMatrix(t *testing.T) {
	body, err := json.Marshal(FitRequest{
		Z:         []float64{1, 2},
		R:         [][]float64{{1, 0.5}, {0.5}},
		NumLayers: 2,
	})
	require.NoError(t, err)

	rec := doRequest(t, testServer(t), http.MethodPost, "/api/fits", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateFitRejectsEmptyZ(t *testing.T) {
	body, err := json.Marshal(FitRequest{Z: nil, R: nil, NumLayers: 2})
	require.NoError(t, err)

	rec := doRequest(t, testServer(t), http.MethodPost, "/api/fits", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetFitNotFound(t *testing.T) {
	rec := doRequest(t, testServer(t), http.MethodGet, "/api/fits/unknown-id", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDemoFitRejectsUnknownScenario(t *testing.T) {
	body, err := json.Marshal(DemoRequest{Scenario: "bogus", Seed: 1})
	require.NoError(t, err)

	rec := doRequest(t, testServer(t), http.MethodPost, "/api/fits/demo", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bogus")
}

func TestFitReportAndExport(t *testing.T) {
	srv := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/fits", fitRequestBody(t))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created susie.FitResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doRequest(t, srv, http.MethodGet, fmt.Sprintf("/api/fits/%s/report", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<table")

	rec = doRequest(t, srv, http.MethodGet, fmt.Sprintf("/api/fits/%s/export", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.NotEmpty(t, rec.Body.Bytes())
}
