package categorizer

import "time"

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs        []string
	password     string
	openAI       *OpenAIConfig
	completer    Completer
	taxonomyFile string
	engine       Engine
}

// OpenAIConfig configures the OpenAI-compatible inference backend used by
// the pipeline agents.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// Engine holds resolution thresholds and pipeline bounds. Zero fields keep
// their defaults.
type Engine struct {
	MaxAttempts      int
	MinDepth         int
	CandidateLimit   int
	ReviewThreshold  float64
	PromoteThreshold float64
	ProtectThreshold float64
	FallbackPath     string
	PreferredRoots   []string
	AutoRules        bool
	BatchConcurrency int
}

func defaultEngine() Engine {
	return Engine{
		MaxAttempts:      2,
		MinDepth:         3,
		CandidateLimit:   15,
		ReviewThreshold:  0.8,
		PromoteThreshold: 0.5,
		ProtectThreshold: 0.9,
		BatchConcurrency: 4,
	}
}

func (e *Engine) applyDefaults() {
	d := defaultEngine()
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = d.MaxAttempts
	}
	if e.MinDepth <= 0 {
		e.MinDepth = d.MinDepth
	}
	if e.CandidateLimit <= 0 {
		e.CandidateLimit = d.CandidateLimit
	}
	if e.ReviewThreshold <= 0 {
		e.ReviewThreshold = d.ReviewThreshold
	}
	if e.PromoteThreshold <= 0 {
		e.PromoteThreshold = d.PromoteThreshold
	}
	if e.ProtectThreshold <= 0 {
		e.ProtectThreshold = d.ProtectThreshold
	}
	if e.BatchConcurrency <= 0 {
		e.BatchConcurrency = d.BatchConcurrency
	}
}

// WithRedis sets the Redis connection.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithRedisCluster sets multiple Redis addresses.
func WithRedisCluster(addrs []string, password string) Option {
	return func(c *clientConfig) {
		c.addrs = addrs
		c.password = password
	}
}

// WithOpenAI configures the LLM backend for the pipeline agents.
func WithOpenAI(cfg OpenAIConfig) Option {
	return func(c *clientConfig) {
		c.openAI = &cfg
	}
}

// WithCompleter plugs a custom LLM backend. Takes precedence over WithOpenAI.
func WithCompleter(completer Completer) Option {
	return func(c *clientConfig) {
		c.completer = completer
	}
}

// WithTaxonomyFile imports a taxonomy file when the store holds no entries.
func WithTaxonomyFile(path string) Option {
	return func(c *clientConfig) {
		c.taxonomyFile = path
	}
}

// WithEngine overrides resolution thresholds and pipeline bounds.
func WithEngine(e Engine) Option {
	return func(c *clientConfig) {
		c.engine = e
	}
}
