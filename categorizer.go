// Package categorizer is an in-process client for the product
// categorization engine: type rules, the decision cache and the
// LLM pipeline behind a single Resolve call.
package categorizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shopfeed/categorizer/internal/db"
	dbRedis "github.com/shopfeed/categorizer/internal/db/redis"
	"github.com/shopfeed/categorizer/internal/domain"
	cacherepo "github.com/shopfeed/categorizer/internal/repository/cache"
	rulesrepo "github.com/shopfeed/categorizer/internal/repository/rules"
	taxonomyrepo "github.com/shopfeed/categorizer/internal/repository/taxonomy"
	openaiLLM "github.com/shopfeed/categorizer/internal/transport/openai"
	analyzeruc "github.com/shopfeed/categorizer/internal/usecase/analyzer"
	batchuc "github.com/shopfeed/categorizer/internal/usecase/batch"
	cacheuc "github.com/shopfeed/categorizer/internal/usecase/cache"
	defineuc "github.com/shopfeed/categorizer/internal/usecase/define"
	resolveuc "github.com/shopfeed/categorizer/internal/usecase/resolve"
	retrieveuc "github.com/shopfeed/categorizer/internal/usecase/retrieve"
	rulesuc "github.com/shopfeed/categorizer/internal/usecase/rules"
	selectionuc "github.com/shopfeed/categorizer/internal/usecase/selection"
)

const defaultReadinessTimeout = 10 * time.Second

// Completer generates a completion for a prompt. Implement it to plug a
// custom LLM backend.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Client is the categorizer SDK entry point.
type Client struct {
	store       db.Store
	resolveSvc  *resolveuc.Service
	batchSvc    *batchuc.Service
	ruleSvc     *rulesuc.Service
	analyzerSvc *analyzeruc.Service
	cacheSvc    *cacheuc.Service
}

// New creates a categorizer Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{engine: defaultEngine()}
	for _, o := range opts {
		o(cfg)
	}
	cfg.engine.applyDefaults()

	if len(cfg.addrs) == 0 {
		return nil, errors.New("categorizer: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("categorizer: create redis store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("categorizer: database not ready: %w", err)
	}

	c, err := wireClient(ctx, store, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig) (*Client, error) {
	taxRepo := taxonomyrepo.New(store)
	count, err := taxRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("categorizer: count taxonomy: %w", err)
	}
	if count == 0 {
		if cfg.taxonomyFile == "" {
			return nil, errors.New(
				"categorizer: taxonomy store is empty (use WithTaxonomyFile to seed it)",
			)
		}
		if _, err := taxRepo.ImportFile(ctx, cfg.taxonomyFile); err != nil {
			return nil, fmt.Errorf("categorizer: import taxonomy: %w", err)
		}
	}
	catalog, err := taxRepo.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("categorizer: load taxonomy: %w", err)
	}

	if cfg.engine.FallbackPath == "" {
		cfg.engine.FallbackPath = rootFallbackPath(catalog)
	}

	llm := buildCompleter(cfg)

	ruleRepo := rulesrepo.New(store, cfg.engine.ProtectThreshold)
	cacheRepo := cacherepo.New(store, cfg.engine.ProtectThreshold)

	definer := defineuc.New(llm)
	retriever := retrieveuc.New(catalog, cfg.engine.PreferredRoots, cfg.engine.CandidateLimit)
	selector := selectionuc.New(llm, cfg.engine.FallbackPath)

	resolveSvc := resolveuc.New(
		ruleRepo, cacheRepo,
		definer, retriever, selector,
		catalog,
		resolveuc.Config{
			MaxAttempts:      cfg.engine.MaxAttempts,
			MinDepth:         cfg.engine.MinDepth,
			ReviewThreshold:  cfg.engine.ReviewThreshold,
			PromoteThreshold: cfg.engine.PromoteThreshold,
			FallbackPath:     cfg.engine.FallbackPath,
			AutoRules:        cfg.engine.AutoRules,
		},
	)

	return &Client{
		store:       store,
		resolveSvc:  resolveSvc,
		batchSvc:    batchuc.New(resolveSvc, cfg.engine.BatchConcurrency),
		ruleSvc:     rulesuc.New(ruleRepo, catalog),
		analyzerSvc: analyzeruc.New(cacheRepo, ruleRepo),
		cacheSvc:    cacheuc.New(cacheRepo, catalog),
	}, nil
}

// rootFallbackPath picks the alphabetically first root entry as the
// last-resort category when none is configured.
func rootFallbackPath(catalog *domain.Catalog) string {
	best := ""
	for _, e := range catalog.Entries() {
		if e.Depth() != 1 {
			continue
		}
		if best == "" || e.Path < best {
			best = e.Path
		}
	}
	return best
}

// llmCompleter is the internal agent-labeled completion contract.
type llmCompleter interface {
	Complete(ctx context.Context, agent, prompt string) (string, error)
}

// buildCompleter picks the LLM backend: a custom Completer, the OpenAI
// client, or a noop that leaves the pipeline on its heuristics.
func buildCompleter(cfg *clientConfig) llmCompleter {
	if cfg.completer != nil {
		return &completerAdapter{inner: cfg.completer}
	}
	if cfg.openAI != nil {
		return openaiLLM.NewClient(&openaiLLM.Config{
			APIKey:      cfg.openAI.APIKey,
			BaseURL:     cfg.openAI.BaseURL,
			Model:       cfg.openAI.Model,
			MaxTokens:   cfg.openAI.MaxTokens,
			Temperature: cfg.openAI.Temperature,
			Timeout:     cfg.openAI.Timeout,
			Provider:    "openai",
			Logger:      zap.NewNop(),
		})
	}
	return &noopCompleter{}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Resolve categorizes one product. It never fails: at worst it answers
// with the fallback category flagged for review.
func (c *Client) Resolve(ctx context.Context, p Product) Result {
	return fromDomainResult(c.resolveSvc.Resolve(ctx, toDomainProduct(p)))
}

// ResolveBatch categorizes products concurrently, keeping input order.
func (c *Client) ResolveBatch(ctx context.Context, products []Product) ([]Result, error) {
	if len(products) > c.batchSvc.MaxSize() {
		return nil, fmt.Errorf("categorizer: batch of %d exceeds limit %d", len(products), c.batchSvc.MaxSize())
	}
	in := make([]domain.Product, len(products))
	for i, p := range products {
		in[i] = toDomainProduct(p)
	}
	results := c.batchSvc.Resolve(ctx, in)
	out := make([]Result, len(results))
	for i, r := range results {
		out[i] = fromDomainResult(r)
	}
	return out, nil
}

// Proposals mines the decision cache for rule candidates. Non-positive
// thresholds fall back to defaults.
func (c *Client) Proposals(ctx context.Context, minCount int, minConfidence float64) ([]Proposal, error) {
	proposals, err := c.analyzerSvc.Analyze(ctx, minCount, minConfidence)
	if err != nil {
		return nil, err
	}
	out := make([]Proposal, len(proposals))
	for i, p := range proposals {
		out[i] = fromDomainProposal(p)
	}
	return out, nil
}

// Rules returns the rule management service.
func (c *Client) Rules() *RuleService {
	return &RuleService{svc: c.ruleSvc}
}

// Cache returns the decision cache management service.
func (c *Client) Cache() *CacheService {
	return &CacheService{svc: c.cacheSvc}
}

// completerAdapter wraps the public Completer to satisfy the internal
// contract; the agent label is a transport-metrics concern.
type completerAdapter struct {
	inner Completer
}

func (a *completerAdapter) Complete(ctx context.Context, _, prompt string) (string, error) {
	out, err := a.inner.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	return out, nil
}

// noopCompleter fails every completion, which drops the pipeline back to
// its heuristics: title-based definitions and first-candidate selection.
type noopCompleter struct{}

func (noopCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	return "", errors.New(
		"categorizer: llm not configured (use WithOpenAI or WithCompleter)",
	)
}
