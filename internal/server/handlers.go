package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/rshade/carbon-predict/internal/carbon"
	"github.com/rshade/carbon-predict/internal/predict"
)

// PredictionSourceHeader reports whether a prediction came from the model or
// the fallback formula. The JSON body is identical for both.
const PredictionSourceHeader = "X-Prediction-Source"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var req carbon.PredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.jsonError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	prediction, err := s.predictor.Predict(r.Context(), req)
	if err != nil {
		s.jsonError(w, predict.HTTPStatus(err), err.Error())
		return
	}

	w.Header().Set(PredictionSourceHeader, string(prediction.Source))
	s.jsonResponse(w, http.StatusOK, prediction.Result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.cfg.Version,
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write response")
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, ErrorResponse{Error: message})
}
