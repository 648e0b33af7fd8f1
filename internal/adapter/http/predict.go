package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/soil-temp-model/internal/domain"
)

const maxBodyBytes = 1 << 20

type predictRequest struct {
	Station string              `json:"station"`
	Record  map[string]*float64 `json:"record"`
}

type predictResponse struct {
	Prediction float64 `json:"prediction"`
}

type batchRequest struct {
	Station string                `json:"station"`
	Records []map[string]*float64 `json:"records"`
}

type batchResponse struct {
	Predictions []float64 `json:"predictions"`
}

type errorResponse struct {
	Error      string   `json:"error"`
	Missing    []string `json:"missing,omitempty"`
	Unexpected []string `json:"unexpected,omitempty"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := decodeBody(w, r, &req); err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if req.Station == "" {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "station is required"})
		return
	}
	record, err := flatten(req.Record)
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.predictTimeout)
	defer cancel()

	y, err := s.predictor.Predict(ctx, req.Station, record)
	if err != nil {
		s.writeError(w, req.Station, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, predictResponse{Prediction: y})
}

func (s *Server) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeBody(w, r, &req); err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if req.Station == "" {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "station is required"})
		return
	}
	records := make([]map[string]float64, len(req.Records))
	for i, raw := range req.Records {
		rec, err := flatten(raw)
		if err != nil {
			sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("record %d: %v", i, err)})
			return
		}
		records[i] = rec
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.predictTimeout)
	defer cancel()

	ys, err := s.predictor.PredictBatch(ctx, req.Station, records)
	if err != nil {
		s.writeError(w, req.Station, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, batchResponse{Predictions: ys})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// flatten rejects null feature values, which JSON would otherwise decode as zero.
func flatten(raw map[string]*float64) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	var nulls []string
	for name, v := range raw {
		if v == nil {
			nulls = append(nulls, name)
			continue
		}
		out[name] = *v
	}
	if len(nulls) > 0 {
		return nil, fmt.Errorf("null values for %s", strings.Join(nulls, ", "))
	}
	return out, nil
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, station string, err error) {
	var mismatch *domain.SchemaMismatchError
	switch {
	case errors.As(err, &mismatch):
		sharedobs.WriteJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:      err.Error(),
			Missing:    mismatch.Missing,
			Unexpected: mismatch.Unexpected,
		})
	case errors.Is(err, domain.ErrNotFound):
		sharedobs.WriteJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("no model for station %q", station)})
	case errors.Is(err, context.DeadlineExceeded):
		sharedobs.WriteJSON(w, http.StatusGatewayTimeout, errorResponse{Error: "prediction timed out"})
	default:
		s.logger.Error("prediction failed", "station", station, "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
