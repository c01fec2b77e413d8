package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"transitvet/domain/core"
	"transitvet/internal/errors"
	"transitvet/models"
	"transitvet/ports"
)

// Uploads larger than this are rejected before parsing
const maxUploadBytes = 64 << 20

// handleHealth reports liveness and which artifact versions are loaded
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":       "ok",
		"model_loaded": s.scoring.Loaded(),
	}
	if s.scoring.Loaded() {
		resp["model_version"] = s.scoring.ModelVersion()
		resp["classes"] = s.scoring.Meta().ClassNames
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handlePredict scores a single candidate given as a JSON object mapping
// feature names to numbers. A candidate the pipeline rejects is not an
// HTTP error: the response carries the result explaining the rejection
// and a null prediction.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var features map[string]float64
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&features); err != nil {
		s.writeError(w, errors.InvalidInput("request body must be a JSON object of feature names to numbers"))
		return
	}
	if len(features) == 0 {
		s.writeError(w, errors.InvalidInput("no features provided"))
		return
	}

	pred, res, err := s.scoring.ScoreOne(r.Context(), features)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"prediction": pred,
		"result":     res,
	})
}

// handlePredictBatch scores a multipart CSV or XLSX upload through the
// full pipeline. The response is the BatchPrediction: the pipeline's own
// result record plus one prediction per surviving row. A structurally
// failed run (empty table, missing required columns) still answers 200
// with success=false inside the result, per the pipeline contract.
func (s *Server) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, errors.InvalidInput("multipart upload must carry a 'file' part"))
		return
	}
	defer file.Close()

	tbl, err := s.reader.ReadFrom(r.Context(), file, ports.FormatForPath(header.Filename))
	if err != nil {
		s.writeError(w, errors.Wrapf(err, "failed to parse %s", header.Filename))
		return
	}

	batch, err := s.scoring.ScoreTable(r.Context(), tbl, header.Filename)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, batch)
}

// handleReference serves a read-only view of the loaded statistics
// artifact
func (s *Server) handleReference(w http.ResponseWriter, r *http.Request) {
	snap := s.scoring.Reference()
	if snap == nil {
		s.writeError(w, errors.NotFound("reference statistics"))
		return
	}
	s.writeJSON(w, http.StatusOK, snap.Statistics())
}

// handleListRuns serves the recent pipeline run audits, newest first.
// Query parameters: kind (train|preprocess|predict), limit.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filters := ports.RunFilters{Kind: r.URL.Query().Get("kind")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			s.writeError(w, errors.InvalidInput("limit must be a positive integer"))
			return
		}
		filters.Limit = limit
	}

	runs, err := s.runs.ListRuns(r.Context(), filters)
	if err != nil {
		s.writeError(w, errors.Wrap(err, "failed to list runs"))
		return
	}
	if runs == nil {
		runs = []*models.RunRecord{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response: %v", err)
	}
}

// writeError maps an error to its HTTP status and a structured body.
// Domain not-found sentinels answer 404, invalid input 400, everything
// else 500 with the internals kept out of the body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := errors.GetCode(err)
	message := err.Error()

	switch {
	case core.IsNotFoundError(err):
		status = http.StatusNotFound
		code = errors.CodeNotFound
	case code == errors.CodeNotFound:
		status = http.StatusNotFound
	case code == errors.CodeInvalidInput:
		status = http.StatusBadRequest
	default:
		s.logger.Error("request failed: %v", err)
		message = "internal error"
	}

	s.writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{"code": code, "message": message},
	})
}
