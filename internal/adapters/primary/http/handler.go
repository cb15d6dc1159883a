package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vibin/research-pipeline/internal/core/domain"
	"github.com/vibin/research-pipeline/internal/core/services"
	"github.com/vibin/research-pipeline/internal/logger"
)

const (
	serviceName    = "research-pipeline"
	serviceVersion = "1.0.0"

	maxBatchQueries = 10
)

// Handler is the HTTP handler for the research API
type Handler struct {
	service *services.ResearchService
	logger  logger.Logger
	router  *chi.Mux
}

// NewHandler creates a new HTTP handler
func NewHandler(service *services.ResearchService, log logger.Logger) *Handler {
	h := &Handler{
		service: service,
		logger:  log,
	}

	h.setupRouter()
	return h
}

// setupRouter sets up the Chi router with middleware and routes
func (h *Handler) setupRouter() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/search", func(r chi.Router) {
			r.Post("/", h.Search)
			r.Post("/tavily", h.SearchTavily)
			r.Post("/serp", h.SearchSerp)
			r.Post("/batch", h.SearchBatch)
		})

		r.Route("/research", func(r chi.Router) {
			r.Post("/", h.Research)
			r.Post("/email", h.ResearchEmail)
		})

		r.Get("/history", h.History)
	})

	h.router = r
}

// ServeHTTP implements the http.Handler interface
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// searchRequest is the request body shared by the search endpoints
type searchRequest struct {
	Query          string `json:"query"`
	MaxResults     int    `json:"max_results"`
	SearchStrategy string `json:"search_strategy,omitempty"`
	Depth          string `json:"depth,omitempty"`
}

// searchResponse is the serialized search envelope
type searchResponse struct {
	Success       bool              `json:"success"`
	Query         string            `json:"query"`
	TotalResults  int               `json:"total_results"`
	SearchTime    float64           `json:"search_time"`
	ProvidersUsed []domain.Provider `json:"providers_used"`
	AISummary     string            `json:"ai_summary,omitempty"`
	Results       []domain.Result   `json:"results"`
	Timestamp     string            `json:"timestamp,omitempty"`
	Error         string            `json:"error,omitempty"`
}

// HealthCheck handles the health check request
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// Search handles a search request using the configured default strategy,
// or the strategy named in the request body
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	h.handleSearch(w, r, "")
}

// SearchTavily handles a Tavily-only search request
func (h *Handler) SearchTavily(w http.ResponseWriter, r *http.Request) {
	h.handleSearch(w, r, domain.StrategyTavilyOnly)
}

// SearchSerp handles a SerpAPI-only search request
func (h *Handler) SearchSerp(w http.ResponseWriter, r *http.Request) {
	h.handleSearch(w, r, domain.StrategySerpOnly)
}

// handleSearch runs one search, forcing the given strategy when non-empty
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request, forced domain.Strategy) {
	started := time.Now()

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondSearchError(w, http.StatusBadRequest, "", "invalid request payload", started)
		return
	}

	query, err := domain.NewQuery(req.Query, req.MaxResults, req.Depth)
	if err != nil {
		h.respondSearchError(w, http.StatusBadRequest, req.Query, err.Error(), started)
		return
	}

	strategy := forced
	if strategy == "" {
		strategy = domain.Strategy(req.SearchStrategy)
	}

	results, err := h.service.SearchOnly(r.Context(), query, strategy)
	if err != nil {
		h.respondSearchError(w, http.StatusInternalServerError, query.Text, err.Error(), started)
		return
	}

	h.respondJSON(w, http.StatusOK, searchEnvelope(results))
}

// SearchBatch runs a search for each query in the batch and returns the
// per-query envelopes
func (h *Handler) SearchBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Queries            []string `json:"queries"`
		MaxResultsPerQuery int      `json:"max_results_per_query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request payload"})
		return
	}
	if len(req.Queries) == 0 || len(req.Queries) > maxBatchQueries {
		h.respondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "queries must contain between 1 and " + strconv.Itoa(maxBatchQueries) + " entries",
		})
		return
	}

	envelopes := make([]searchResponse, 0, len(req.Queries))
	for _, text := range req.Queries {
		started := time.Now()
		query, err := domain.NewQuery(text, req.MaxResultsPerQuery, "")
		if err != nil {
			envelopes = append(envelopes, failedSearchEnvelope(text, err.Error(), started))
			continue
		}
		results, err := h.service.SearchOnly(r.Context(), query, "")
		if err != nil {
			envelopes = append(envelopes, failedSearchEnvelope(query.Text, err.Error(), started))
			continue
		}
		envelopes = append(envelopes, searchEnvelope(results))
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"total_queries": len(envelopes),
		"results":       envelopes,
	})
}

// researchRequest is the request body for the research endpoints
type researchRequest struct {
	Query          string `json:"query"`
	MaxResults     int    `json:"max_results"`
	SearchStrategy string `json:"search_strategy,omitempty"`
	IncludeSummary *bool  `json:"include_summary,omitempty"`

	// Email fields, used by the research/email endpoint only
	Recipient      string `json:"recipient_email,omitempty"`
	EmailContext   string `json:"email_context,omitempty"`
	SubjectHint    string `json:"subject_hint,omitempty"`
	Tone           string `json:"tone,omitempty"`
	IncludeSources *bool  `json:"include_sources,omitempty"`
}

// Research handles a full research request: search plus summarization
func (h *Handler) Research(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	req, query, ok := h.decodeResearchRequest(w, r, started)
	if !ok {
		return
	}

	response := h.service.Research(r.Context(), query, domain.Strategy(req.SearchStrategy))
	h.respondEnvelope(w, response)
}

// ResearchEmail handles a research request followed by best-effort email
// draft creation
func (h *Handler) ResearchEmail(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	req, query, ok := h.decodeResearchRequest(w, r, started)
	if !ok {
		return
	}

	emailReq := domain.EmailRequest{
		ResearchQuery:  query.Text,
		Context:        req.EmailContext,
		Recipient:      req.Recipient,
		SubjectHint:    req.SubjectHint,
		Tone:           req.Tone,
		IncludeSources: req.IncludeSources == nil || *req.IncludeSources,
	}
	if err := emailReq.Normalize(); err != nil {
		h.respondEnvelope(w, domain.FailureResponse("Invalid email request", err, started))
		return
	}

	response := h.service.ResearchWithEmail(r.Context(), query, domain.Strategy(req.SearchStrategy), emailReq)
	h.respondEnvelope(w, response)
}

// History returns the most recent research runs
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	records, err := h.service.History(r.Context(), limit)
	if err != nil {
		h.respondJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"total":   len(records),
		"runs":    records,
	})
}

// decodeResearchRequest parses and validates the shared research request
// body, writing the failure envelope itself when invalid
func (h *Handler) decodeResearchRequest(w http.ResponseWriter, r *http.Request, started time.Time) (researchRequest, domain.Query, bool) {
	var req researchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondEnvelope(w, domain.FailureResponse("Invalid request payload", err, started))
		return req, domain.Query{}, false
	}

	query, err := domain.NewQuery(req.Query, req.MaxResults, "")
	if err != nil {
		h.respondEnvelope(w, domain.FailureResponse("Invalid research request", err, started))
		return req, domain.Query{}, false
	}
	if req.IncludeSummary != nil {
		query.IncludeSummary = *req.IncludeSummary
	}
	return req, query, true
}

// searchEnvelope maps the domain envelope onto the wire shape
func searchEnvelope(results *domain.SearchResults) searchResponse {
	items := results.Results
	if items == nil {
		items = []domain.Result{}
	}
	return searchResponse{
		Success:       true,
		Query:         results.Query,
		TotalResults:  results.TotalResults,
		SearchTime:    results.SearchTime,
		ProvidersUsed: results.ProvidersUsed,
		AISummary:     results.AISummary,
		Results:       items,
		Timestamp:     results.Timestamp.Format(time.RFC3339),
	}
}

func failedSearchEnvelope(query, errText string, started time.Time) searchResponse {
	return searchResponse{
		Success:    false,
		Query:      query,
		SearchTime: time.Since(started).Seconds(),
		Results:    []domain.Result{},
		Error:      errText,
	}
}

func (h *Handler) respondSearchError(w http.ResponseWriter, status int, query, errText string, started time.Time) {
	h.respondJSON(w, status, failedSearchEnvelope(query, errText, started))
}

// respondEnvelope writes an AgentResponse, mapping failure onto a 500
func (h *Handler) respondEnvelope(w http.ResponseWriter, response domain.AgentResponse) {
	status := http.StatusOK
	if !response.Success {
		status = http.StatusInternalServerError
	}
	h.respondJSON(w, status, response)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}
