package ui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gofinemap/adapters/export"
	"gofinemap/adapters/report"
	"gofinemap/domain/core"
	"gofinemap/domain/susie"
	"gofinemap/internal/simulate"

	"gonum.org/v1/gonum/mat"
)

// FitRequest is the JSON body for POST /api/fits
type FitRequest struct {
	Z         []float64      `json:"z"`
	R         [][]float64    `json:"r"`
	NumLayers int            `json:"l"`
	Options   *susie.Options `json:"options,omitempty"`
}

// DemoRequest is the JSON body for POST /api/fits/demo. Scenario selects
// which correlation matrix feeds the fit: "insample" uses the analysis
// panel's own LD, "mismatch" swaps in an independent reference panel, and
// "regularized" additionally shrinks that panel toward the z-scores.
type DemoRequest struct {
	Scenario  string `json:"scenario"`
	Seed      int64  `json:"seed"`
	NumLayers int    `json:"l"`
}

// handleCreateFit runs a fit on posted summary statistics
func (s *Server) handleCreateFit(w http.ResponseWriter, r *http.Request) {
	var req FitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON body: %w", err))
		return
	}
	if req.NumLayers <= 0 {
		req.NumLayers = 10
	}
	opts := susie.DefaultOptions()
	if req.Options != nil {
		opts = *req.Options
	}

	p := len(req.Z)
	if p == 0 {
		writeError(w, http.StatusBadRequest, core.NewInvalidInputError("z", "empty vector"))
		return
	}
	if len(req.R) != p {
		writeError(w, http.StatusBadRequest, core.ErrDimensionMismatch)
		return
	}
	rMat := mat.NewDense(p, p, nil)
	for i, row := range req.R {
		if len(row) != p {
			writeError(w, http.StatusBadRequest, core.ErrDimensionMismatch)
			return
		}
		for j, v := range row {
			rMat.Set(i, j, v)
		}
	}

	result, err := s.fitService.FitRSS(r.Context(), req.Z, rMat, req.NumLayers, opts)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// handleDemoFit generates a synthetic dataset and fits it
func (s *Server) handleDemoFit(w http.ResponseWriter, r *http.Request) {
	var req DemoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON body: %w", err))
		return
	}
	if req.NumLayers <= 0 {
		req.NumLayers = 10
	}
	if req.Seed == 0 {
		req.Seed = 1
	}

	stream, err := s.rng.Stream(r.Context(), "demo", req.Scenario, req.Seed)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	cfg := simulate.DefaultConfig()
	ds, err := simulate.Generate(cfg, stream)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	opts := susie.DefaultOptions()
	opts.SampleSize = cfg.SampleSize
	ld := ds.R
	switch req.Scenario {
	case "", "insample":
	case "mismatch":
		ld = ds.RefR
	case "regularized":
		ld = ds.RefR
		opts.ZLDWeight = 1 / float64(cfg.RefSampleSize)
	default:
		writeError(w, http.StatusBadRequest,
			fmt.Errorf("unknown scenario %q", req.Scenario))
		return
	}

	result, err := s.fitService.FitRSS(r.Context(), ds.Z, ld, req.NumLayers, opts)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"true_effects": ds.TrueEffects,
		"result":       result,
	})
}

// handleListFits returns recent persisted fits
func (s *Server) handleListFits(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	fits, err := s.fitService.ListFits(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, fits)
}

// handleGetFit returns one persisted fit in full
func (s *Server) handleGetFit(w http.ResponseWriter, r *http.Request) {
	result, ok := s.loadFit(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleFitSummary returns the PIP/credible-set projection of a fit
func (s *Server) handleFitSummary(w http.ResponseWriter, r *http.Request) {
	result, ok := s.loadFit(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.fitService.Summarize(result))
}

// handleFitReport serves the rendered HTML report of a fit
func (s *Server) handleFitReport(w http.ResponseWriter, r *http.Request) {
	result, ok := s.loadFit(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(report.HTML(result))
}

// handleFitExport streams a spreadsheet of PIP and credible sets
func (s *Server) handleFitExport(w http.ResponseWriter, r *http.Request) {
	result, ok := s.loadFit(w, r)
	if !ok {
		return
	}
	buf, err := export.FitWorkbook(result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=fit-%s.xlsx", result.ID.String()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// loadFit fetches the fit named in the URL, writing the error response on
// failure.
func (s *Server) loadFit(w http.ResponseWriter, r *http.Request) (*susie.FitResult, bool) {
	id := core.FitID(chi.URLParam(r, "id"))
	result, err := s.fitService.GetFit(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return nil, false
	}
	return result, true
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case core.IsNotFoundError(err):
		return http.StatusNotFound
	case core.IsInvalidInputError(err), core.IsInconsistencyError(err):
		return http.StatusBadRequest
	case core.IsInstabilityError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
