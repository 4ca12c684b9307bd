package web

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/mhouse/internal/domain"
	"github.com/emiliopalmerini/mhouse/internal/util"
)

type apiFeature struct {
	Name string      `json:"name"`
	Kind domain.Kind `json:"kind"`
}

type apiSchema struct {
	Features []apiFeature `json:"features"`
}

type apiEstimate struct {
	RequestID        string            `json:"request_id"`
	Price            float64           `json:"price"`
	Formatted        string            `json:"formatted"`
	DurationMS       float64           `json:"duration_ms"`
	UnseenCategories map[string]string `json:"unseen_categories,omitempty"`
}

type apiError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (s *Server) handleAPISchema(w http.ResponseWriter, r *http.Request) {
	schema, err := s.estimator.Schema(r.Context())
	if err != nil {
		s.writeAPIError(w, err)
		return
	}
	resp := apiSchema{Features: make([]apiFeature, 0, schema.Len())}
	for _, f := range schema.Features() {
		resp.Features = append(resp.Features, apiFeature{Name: f.Name, Kind: f.Kind})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleAPIPredict accepts the form fields as JSON. Omitted fields keep their
// defaults and integers are clamped like the form controls.
func (s *Server) handleAPIPredict(w http.ResponseWriter, r *http.Request) {
	in := domain.DefaultInput()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		s.writeJSON(w, http.StatusBadRequest, apiError{Message: "invalid request body: " + err.Error()})
		return
	}

	est, err := s.estimator.Estimate(r.Context(), in.Clamped())
	if err != nil {
		s.writeAPIError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, apiEstimate{
		RequestID:        est.RequestID,
		Price:            est.Price,
		Formatted:        util.FormatCurrency(est.Price),
		DurationMS:       float64(est.Duration.Microseconds()) / 1000,
		UnseenCategories: est.UnseenCategories,
	})
}

func (s *Server) writeAPIError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	if domain.IsLoadError(err) {
		status = http.StatusInternalServerError
	}
	resp := apiError{Code: string(domain.CodeOf(err)), Message: err.Error()}
	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}
