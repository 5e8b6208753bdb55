package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrProtected signals an attempt to overwrite a high-confidence rule or
	// cache entry without the force flag.
	ErrProtected = errors.New("entry is protected")
	// ErrUnknownCategory signals a category code or path absent from the taxonomy.
	ErrUnknownCategory = errors.New("unknown taxonomy category")
	// ErrInvalidRule signals a malformed type rule.
	ErrInvalidRule = errors.New("invalid rule")
	// ErrTaxonomyEmpty signals that no taxonomy entries are loaded.
	ErrTaxonomyEmpty = errors.New("taxonomy is empty")
	// ErrLLMProviderError signals an inference backend failure.
	ErrLLMProviderError = errors.New("llm provider error")
)

// KeyPrefix is the datastore namespace for all categorizer keys.
const KeyPrefix = "categorizer:"
