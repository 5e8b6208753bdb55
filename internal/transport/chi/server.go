package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shopfeed/categorizer/internal/domain"
	analyzeruc "github.com/shopfeed/categorizer/internal/usecase/analyzer"
	batchuc "github.com/shopfeed/categorizer/internal/usecase/batch"
	cacheuc "github.com/shopfeed/categorizer/internal/usecase/cache"
	healthuc "github.com/shopfeed/categorizer/internal/usecase/health"
	resolveuc "github.com/shopfeed/categorizer/internal/usecase/resolve"
	rulesuc "github.com/shopfeed/categorizer/internal/usecase/rules"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the categorization API over HTTP.
type Server struct {
	resolve       *resolveuc.Service
	batch         *batchuc.Service
	rules         *rulesuc.Service
	analyzer      *analyzeruc.Service
	cache         *cacheuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	resolve *resolveuc.Service,
	batch *batchuc.Service,
	rules *rulesuc.Service,
	analyzer *analyzeruc.Service,
	cache *cacheuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		resolve:  resolve,
		batch:    batch,
		rules:    rules,
		analyzer: analyzer,
		cache:    cache,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, codeAlreadyExists),
		sentinelHandler(domain.ErrProtected, http.StatusConflict, codeProtected),
		sentinelHandler(domain.ErrUnknownCategory, http.StatusBadRequest, codeUnknownCategory),
		sentinelHandler(domain.ErrInvalidRule, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrLLMProviderError, http.StatusBadGateway, codeLLMProviderError),
	}
	return s
}

// Routes mounts all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.healthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/resolve", s.resolveOne)
		r.Post("/resolve/batch", s.resolveBatch)

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", s.listRules)
			r.Post("/", s.createRule)
			r.Patch("/{type}", s.updateRule)
			r.Post("/{type}/toggle", s.toggleRule)
			r.Delete("/{type}", s.deleteRule)
		})

		r.Get("/proposals", s.listProposals)
		r.Post("/proposals/accept", s.acceptProposal)

		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", s.cacheStats)
			r.Get("/{key}", s.getCacheEntry)
			r.Put("/{key}", s.correctCacheEntry)
			r.Delete("/{key}", s.deleteCacheEntry)
		})
	})
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for name, res := range report.Checks {
		checks[name] = string(res)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
}

// resolveOne handles POST /api/v1/resolve.
func (s *Server) resolveOne(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "Product title is required")
		return
	}

	result := s.resolve.Resolve(r.Context(), req.product())
	writeJSON(w, http.StatusOK, result)
}

// resolveBatch handles POST /api/v1/resolve/batch.
func (s *Server) resolveBatch(w http.ResponseWriter, r *http.Request) {
	var req batchResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Products) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "At least one product is required")
		return
	}
	if len(req.Products) > s.batch.MaxSize() {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"Batch size exceeds "+strconv.Itoa(s.batch.MaxSize()))
		return
	}
	for i, p := range req.Products {
		if strings.TrimSpace(p.Title) == "" {
			writeError(w, http.StatusBadRequest, codeValidationFailed,
				"Product title is required (item "+strconv.Itoa(i)+")")
			return
		}
	}

	products := make([]domain.Product, len(req.Products))
	for i, p := range req.Products {
		products[i] = p.product()
	}

	results := s.batch.Resolve(r.Context(), products)
	writeJSON(w, http.StatusOK, batchResolveResponse{Results: results})
}

// listRules handles GET /api/v1/rules.
func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	list, err := s.rules.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]ruleResponse, len(list))
	for i, rule := range list {
		items[i] = ruleToResponse(rule)
	}
	writeJSON(w, http.StatusOK, ruleListResponse{Items: items})
}

// createRule handles POST /api/v1/rules.
func (s *Server) createRule(w http.ResponseWriter, r *http.Request) {
	var req createRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	rule, err := s.rules.Create(r.Context(), req.ProductType, req.CategoryCode, req.Confidence)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ruleToResponse(rule))
}

// updateRule handles PATCH /api/v1/rules/{type}.
func (s *Server) updateRule(w http.ResponseWriter, r *http.Request) {
	var req updateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	rule, err := s.rules.UpdateCategory(r.Context(), chi.URLParam(r, "type"), req.CategoryCode, req.Confidence)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ruleToResponse(rule))
}

// toggleRule handles POST /api/v1/rules/{type}/toggle.
func (s *Server) toggleRule(w http.ResponseWriter, r *http.Request) {
	var req toggleRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	rule, err := s.rules.Toggle(r.Context(), chi.URLParam(r, "type"), req.Active)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ruleToResponse(rule))
}

// deleteRule handles DELETE /api/v1/rules/{type}.
func (s *Server) deleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.rules.Delete(r.Context(), chi.URLParam(r, "type")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listProposals handles GET /api/v1/proposals.
func (s *Server) listProposals(w http.ResponseWriter, r *http.Request) {
	minCount := queryInt(r, "min_count")
	minConfidence := queryFloat(r, "min_confidence")

	proposals, err := s.analyzer.Analyze(r.Context(), minCount, minConfidence)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if proposals == nil {
		proposals = []domain.RuleProposal{}
	}
	writeJSON(w, http.StatusOK, proposalListResponse{Items: proposals})
}

// acceptProposal handles POST /api/v1/proposals/accept.
func (s *Server) acceptProposal(w http.ResponseWriter, r *http.Request) {
	var req acceptProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	proposal := domain.RuleProposal{
		ProductType:   req.ProductType,
		CategoryCode:  req.CategoryCode,
		AvgConfidence: req.AvgConfidence,
	}
	rule, err := s.rules.AcceptProposal(r.Context(), proposal, req.Force)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ruleToResponse(rule))
}

// cacheStats handles GET /api/v1/cache/stats.
func (s *Server) cacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.cache.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// getCacheEntry handles GET /api/v1/cache/{key}.
func (s *Server) getCacheEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.cache.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// correctCacheEntry handles PUT /api/v1/cache/{key}.
func (s *Server) correctCacheEntry(w http.ResponseWriter, r *http.Request) {
	var req correctCacheRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	entry, err := s.cache.Correct(r.Context(), chi.URLParam(r, "key"), req.CategoryCode, req.Confidence)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// deleteCacheEntry handles DELETE /api/v1/cache/{key}.
func (s *Server) deleteCacheEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.cache.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}

func queryFloat(r *http.Request, name string) float64 {
	v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
	if err != nil {
		return 0
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel's own message, hiding wrapped detail
// from clients.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrProtected,
		domain.ErrUnknownCategory,
		domain.ErrInvalidRule,
		domain.ErrTaxonomyEmpty,
		domain.ErrLLMProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
