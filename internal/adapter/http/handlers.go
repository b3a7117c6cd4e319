package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/airwatch-service/internal/domain"
)

const maxRequestBytes = 64 << 10

// PredictionRequest is the optional body of POST {prefix}/predict.
type PredictionRequest struct {
	ZIPCode  string `json:"zip_code,omitempty" validate:"omitempty,len=5,numeric"`
	Location string `json:"location,omitempty"`
}

// PredictionResponse is the wire form of a decision.
type PredictionResponse struct {
	Date           string   `json:"date"`
	Location       string   `json:"location"`
	ProbUnhealthy  float64  `json:"prob_unhealthy"`
	Classification string   `json:"classification"`
	Threshold      float64  `json:"threshold"`
	Confidence     string   `json:"confidence"`
	AQICategory    string   `json:"aqi_category"`
	TopFactors     []string `json:"top_factors"`
}

// HealthResponse is returned by {prefix}/health.
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Version     string `json:"version"`
}

func newPredictionResponse(d domain.Decision) PredictionResponse {
	return PredictionResponse{
		Date:           d.TargetDate.Format("2006-01-02"),
		Location:       d.Location,
		ProbUnhealthy:  math.Round(d.Probability*1000) / 1000,
		Classification: string(d.Classification),
		Threshold:      d.Threshold,
		Confidence:     string(d.Confidence),
		AQICategory:    d.Category,
		TopFactors:     d.Factors,
	}
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	p := s.opts.APIPrefix
	writeJSON(w, http.StatusOK, map[string]string{
		"name":        "AirWatch AQI Prediction API",
		"version":     Version,
		"description": "Next-day air quality classification for New Jersey",
		"health":      p + "/health",
		"predict":     p + "/predict",
	})
}

func (s *Server) handleAPIHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		ModelLoaded: s.svc.ModelLoaded(r.Context()),
		Version:     Version,
	})
}

// handlePredict serves GET with an optional zip_code query parameter and POST
// with an optional PredictionRequest body. The body wins over the query.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	req := PredictionRequest{ZIPCode: r.URL.Query().Get("zip_code")}
	if r.Method == http.MethodPost {
		var body PredictionRequest
		if err := decodeBody(r, &body); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if body.ZIPCode != "" {
			req.ZIPCode = body.ZIPCode
		}
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	zip := req.ZIPCode
	if zip == "" {
		zip = s.opts.DefaultZIP
	}

	d, err := s.svc.PredictLocation(r.Context(), zip)
	if err != nil {
		s.writePredictionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPredictionResponse(d))
}

func (s *Server) handlePredictFeatures(w http.ResponseWriter, r *http.Request) {
	var in domain.FeatureInput
	if err := decodeBody(r, &in); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("request body is required")
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.validate.Struct(in); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	d, err := s.svc.PredictFeatures(r.Context(), in)
	if err != nil {
		s.writePredictionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPredictionResponse(d))
}

func (s *Server) handleImportance(w http.ResponseWriter, r *http.Request) {
	weights, err := s.svc.FeatureImportance(r.Context())
	if err != nil {
		s.writePredictionError(w, err)
		return
	}
	if weights == nil {
		writeError(w, http.StatusNotFound, "feature importance not available")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"features": weights})
}

func (s *Server) writePredictionError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrModelUnavailable) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.logger.Error("prediction request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "prediction error: "+err.Error())
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}
