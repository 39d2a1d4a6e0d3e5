package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/shared"
	"github.com/desertthunder/cratedig/internal/tasks"
)

// APIHandler serves the track search and download routes. It implements
// [Handler] so the router picks up all routes at once.
type APIHandler struct {
	search    *tasks.SearchEngine
	downloads *tasks.DownloadEngine
	limits    shared.SearchConfig
	logger    *log.Logger
}

// NewAPIHandler creates the API handler over the two engines.
func NewAPIHandler(search *tasks.SearchEngine, downloads *tasks.DownloadEngine, limits shared.SearchConfig, logger *log.Logger) *APIHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &APIHandler{search: search, downloads: downloads, limits: limits, logger: logger}
}

// Routes returns the path patterns this handler serves.
func (h *APIHandler) Routes() []string {
	return []string{
		"GET /{$}",
		"GET /platforms",
		"GET /search",
		"GET /search/{platform}",
		"GET /track/{source}/{id}",
		"POST /download",
		"OPTIONS /",
	}
}

// ServeHTTP dispatches to the route-specific handlers registered in Routes.
func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/":
		h.handleIndex(w, r)
	case r.URL.Path == "/platforms":
		h.handlePlatforms(w, r)
	case r.URL.Path == "/search":
		h.handleSearch(w, r)
	case r.URL.Path == "/download":
		h.handleDownload(w, r)
	case r.PathValue("platform") != "":
		h.handleSearchPlatform(w, r)
	case r.PathValue("id") != "":
		h.handleTrack(w, r)
	default:
		h.writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *APIHandler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"service":   "cratedig",
		"version":   Version,
		"platforms": h.search.AvailablePlatforms(),
		"routes": []string{
			"GET /platforms",
			"GET /search?q={query}&limit={n}",
			"GET /search/{platform}?q={query}&limit={n}",
			"GET /track/{source}/{id}",
			"POST /download",
		},
	})
}

func (h *APIHandler) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"platforms": h.search.PlatformInfo()})
}

func (h *APIHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query, limit, ok := h.searchParams(w, r)
	if !ok {
		return
	}

	sources, err := parsePlatformFilter(r.URL.Query().Get("platforms"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	response := h.search.SearchAll(r.Context(), query, limit, sources...)
	h.writeJSON(w, http.StatusOK, response)
}

// parsePlatformFilter parses the comma-separated ?platforms= value. An empty
// value means no filtering; an unknown tag is an error.
func parsePlatformFilter(raw string) ([]models.PlatformSource, error) {
	if raw == "" {
		return nil, nil
	}

	var sources []models.PlatformSource
	for _, tag := range strings.Split(raw, ",") {
		source, err := models.ParseSource(tag)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, nil
}

func (h *APIHandler) handleSearchPlatform(w http.ResponseWriter, r *http.Request) {
	source, err := models.ParseSource(r.PathValue("platform"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	query, limit, ok := h.searchParams(w, r)
	if !ok {
		return
	}

	response, err := h.search.SearchPlatform(r.Context(), source, query, limit)
	if err != nil {
		h.writeError(w, statusOf(err), err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, response)
}

func (h *APIHandler) handleTrack(w http.ResponseWriter, r *http.Request) {
	source, err := models.ParseSource(r.PathValue("source"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trackID := source.TrackID(source.StripTrackID(r.PathValue("id")))
	track, err := h.search.GetTrack(r.Context(), trackID)
	if err != nil {
		h.writeError(w, statusOf(err), err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, track)
}

func (h *APIHandler) handleDownload(w http.ResponseWriter, r *http.Request) {
	var request models.DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if request.TrackID == "" {
		h.writeError(w, http.StatusBadRequest, "track_id is required")
		return
	}

	source := request.Source
	if source == "" {
		inferred, ok := models.SourceOfTrackID(request.TrackID)
		if !ok {
			h.writeError(w, http.StatusBadRequest, "source is required when track_id carries no platform prefix")
			return
		}
		source = inferred
	}
	if _, err := models.ParseSource(string(source)); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	response, err := h.downloads.DownloadTrack(r.Context(), source, request.TrackID)
	if err != nil {
		h.writeJSON(w, statusOf(err), response)
		return
	}
	h.writeJSON(w, http.StatusOK, response)
}

// searchParams validates the q and limit query parameters, writing a 400 on
// failure. The limit falls back to the configured default and is capped at
// the configured maximum.
func (h *APIHandler) searchParams(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	query := shared.NormalizeQuery(r.URL.Query().Get("q"), 500)
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter q is required")
		return "", 0, false
	}

	limit := h.limits.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return "", 0, false
		}
		limit = parsed
	}
	if limit > h.limits.MaxLimit {
		limit = h.limits.MaxLimit
	}

	return query, limit, true
}

// statusOf maps engine errors onto HTTP status codes. Unknown platforms and
// malformed ids are the caller's fault; a missing track is a 404; everything
// else is upstream trouble.
func statusOf(err error) int {
	switch {
	case errors.Is(err, shared.ErrUnknownPlatform),
		errors.Is(err, shared.ErrInvalidTrackID),
		errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrTrackNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrPlatformUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *APIHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
