package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/hazard-score/internal/domain"
	"github.com/couchcryptid/hazard-score/internal/pipeline"
	"github.com/go-playground/validator/v10"
)

const contentTypeGeoJSON = "application/geo+json"

type assessQuery struct {
	Lon string `validate:"required_without=Q,omitempty,longitude"`
	Lat string `validate:"required_without=Q,omitempty,latitude"`
	Q   string `validate:"omitempty,max=256"`
}

type pointQuery struct {
	Lon string `validate:"required,longitude"`
	Lat string `validate:"required,latitude"`
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	q := assessQuery{
		Lon: strings.TrimSpace(values.Get("lon")),
		Lat: strings.TrimSpace(values.Get("lat")),
		Q:   strings.TrimSpace(values.Get("q")),
	}
	if err := s.validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	var (
		a   domain.Assessment
		err error
	)
	if q.Lon != "" && q.Lat != "" {
		a, err = s.svc.Assess(r.Context(), parsePoint(q.Lon, q.Lat))
	} else {
		a, err = s.svc.AssessPlace(r.Context(), q.Q)
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	q := pointQuery{
		Lon: strings.TrimSpace(values.Get("lon")),
		Lat: strings.TrimSpace(values.Get("lat")),
	}
	if err := s.validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	fc, err := s.svc.Overlay(r.Context(), parsePoint(q.Lon, q.Lat))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	body, err := fc.MarshalJSON()
	if err != nil {
		s.logger.Error("encode overlay failed", "error", err)
		writeError(w, http.StatusInternalServerError, "encode overlay")
		return
	}
	w.Header().Set("Content-Type", contentTypeGeoJSON)
	w.WriteHeader(http.StatusOK)
	w.Write(body) //nolint:errcheck // client went away
}

// parsePoint converts already validated coordinates.
func parsePoint(lon, lat string) domain.Point {
	x, _ := strconv.ParseFloat(lon, 64)
	y, _ := strconv.ParseFloat(lat, 64)
	return domain.Point{Lon: x, Lat: y}
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrInvalidPoint):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrPlaceNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrGeocodingDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required", "required_without":
			msgs = append(msgs, fmt.Sprintf("%s is required", name))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s is too long", name))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is not a valid %s", name, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
