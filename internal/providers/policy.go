package providers

import (
	"time"

	"stockmeta/internal/domain"
)

// Family selects the adapter implementation.
type Family string

const (
	FamilySchema Family = "schema"
	FamilyChat   Family = "chat"
)

// BackoffKind selects the wait schedule between Tier 1 attempts.
type BackoffKind int

const (
	// BackoffExponential waits Base * 2^attempt.
	BackoffExponential BackoffKind = iota
	// BackoffFixed always waits Base.
	BackoffFixed
	// BackoffLinear waits Base * (attempt+1).
	BackoffLinear
)

// Policy is the tunable behaviour for one provider or model.
type Policy struct {
	Family Family
	// Timeout bounds a single attempt.
	Timeout time.Duration
	// Retries is the Tier 1 budget; a credential gets Retries+1 attempts.
	Retries     int
	Backoff     BackoffKind
	BackoffBase time.Duration
	Concurrency int
	// PreDelay is waited once before the first attempt of an item.
	PreDelay   time.Duration
	SystemRole bool
	// RequiresCredential rejects a run up front when the pool is empty.
	RequiresCredential bool
}

type policyEntry struct {
	base   Policy
	models map[string]func(*Policy)
}

var policies = map[domain.Provider]policyEntry{
	domain.ProviderGemini: {
		base: Policy{
			Family:      FamilySchema,
			Timeout:     90 * time.Second,
			Retries:     5,
			Backoff:     BackoffLinear,
			BackoffBase: 2 * time.Second,
			Concurrency: 4,
		},
		models: map[string]func(*Policy){
			"gemini-3-pro-preview": func(p *Policy) { p.Timeout = 120 * time.Second },
		},
	},
	domain.ProviderGroq: {
		base: Policy{
			Family:             FamilyChat,
			Timeout:            90 * time.Second,
			Retries:            5,
			Backoff:            BackoffExponential,
			BackoffBase:        time.Second,
			Concurrency:        4,
			RequiresCredential: true,
		},
		models: map[string]func(*Policy){
			"meta-llama/llama-4-maverick-17b-128e-instruct": func(p *Policy) {
				p.Concurrency = 1
				p.SystemRole = true
				p.PreDelay = 500 * time.Millisecond
			},
		},
	},
	domain.ProviderMistral: {
		base: Policy{
			Family:             FamilyChat,
			Timeout:            60 * time.Second,
			Retries:            5,
			Backoff:            BackoffExponential,
			BackoffBase:        time.Second,
			Concurrency:        4,
			RequiresCredential: true,
		},
		models: map[string]func(*Policy){
			"pixtral-12b-latest": func(p *Policy) {
				p.Timeout = 120 * time.Second
				p.Retries = 10
				p.Backoff = BackoffFixed
				p.BackoffBase = 4 * time.Second
			},
		},
	},
}

// Lookup returns the policy for provider and model. Unknown models of a known
// provider get the provider defaults.
func Lookup(provider domain.Provider, model string) (Policy, bool) {
	entry, ok := policies[provider]
	if !ok {
		return Policy{}, false
	}
	p := entry.base
	if override, ok := entry.models[model]; ok {
		override(&p)
	}
	return p, true
}

// Delay returns the wait before retry number attempt (0-based).
func (p Policy) Delay(attempt int) time.Duration {
	switch p.Backoff {
	case BackoffFixed:
		return p.BackoffBase
	case BackoffLinear:
		return p.BackoffBase * time.Duration(attempt+1)
	default:
		return p.BackoffBase << uint(attempt)
	}
}
