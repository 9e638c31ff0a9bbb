package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"plexshelf/internal/api"
	"plexshelf/internal/logging"
	"plexshelf/internal/services"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type matchListResponse struct {
	Matches []api.Match `json:"matches"`
}

type seriesListResponse struct {
	Series []api.Series `json:"series"`
}

type matchRequest struct {
	DisableFuzzy      bool `json:"disableFuzzy"`
	DisableEnrichment bool `json:"disableEnrichment"`
}

type clearRequest struct {
	Confirm bool `json:"confirm"`
}

// decodeBody reads an optional JSON body into dst. An empty body leaves dst
// at its zero value.
func decodeBody(r *http.Request, op string, dst any) error {
	if r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return services.Wrap(services.ErrValidation, "api-server", op, "invalid request body", err)
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.svc.Status(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.Scan(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decodeBody(r, "match", &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	summary, err := s.svc.RunMatching(r.Context(), api.MatchOptions{
		DisableFuzzy:      req.DisableFuzzy,
		DisableEnrichment: req.DisableEnrichment,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := s.svc.ListMatches(r.Context(), strings.TrimSpace(r.URL.Query().Get("status")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if matches == nil {
		matches = []api.Match{}
	}
	writeJSON(w, http.StatusOK, matchListResponse{Matches: matches})
}

func (s *Server) handleTransition(fn func(context.Context, int64) (api.Match, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid match id"})
			return
		}
		match, err := fn(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, match)
	}
}

func (s *Server) handleBulk(fn func(context.Context, api.BulkOptions) (api.BulkResult, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var opts api.BulkOptions
		if err := decodeBody(r, "bulk status", &opts); err != nil {
			s.writeError(w, r, err)
			return
		}
		result, err := fn(r.Context(), opts)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	series, err := s.svc.ListSeries(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if series == nil {
		series = []api.Series{}
	}
	writeJSON(w, http.StatusOK, seriesListResponse{Series: series})
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.Apply(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if err := decodeBody(r, "clear", &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if !req.Confirm {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api-server", "clear", `send {"confirm": true} to clear the database`, nil))
		return
	}
	result, err := s.svc.Clear(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// statusFor maps error markers to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrRunAlreadyInProgress):
		return http.StatusConflict
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrConfiguration):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrExternal), errors.Is(err, services.ErrLookupUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		logging.WithContext(r.Context(), s.logger).Error("api request failed", logging.Error(err), logging.Int("status", code))
	}
	writeJSON(w, code, errorBody{Error: err.Error(), Kind: services.FailureKind(err)})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
