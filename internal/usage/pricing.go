package usage

// Rates are USD prices per million tokens.
type Rates struct {
	Input         float64 `json:"input" yaml:"input"`
	Output        float64 `json:"output" yaml:"output"`
	CacheCreation float64 `json:"cacheCreation" yaml:"cache_creation"`
	CacheRead     float64 `json:"cacheRead" yaml:"cache_read"`
}

// ModelRates applies Rates to every model whose name matches Pattern
// (a SQL LIKE pattern).
type ModelRates struct {
	Pattern string
	Rates   Rates
}

// Pricing maps models to rates. Models are tried in order; Default covers
// everything else.
type Pricing struct {
	Models  []ModelRates
	Default Rates
}

// DefaultPricing has Opus and Haiku rates, with Sonnet rates as the default.
var DefaultPricing = Pricing{
	Models: []ModelRates{
		{Pattern: "claude-opus%", Rates: Rates{Input: 15.0, Output: 75.0, CacheCreation: 18.75, CacheRead: 1.50}},
		{Pattern: "claude-haiku%", Rates: Rates{Input: 0.80, Output: 4.0, CacheCreation: 1.00, CacheRead: 0.08}},
	},
	Default: Rates{Input: 3.0, Output: 15.0, CacheCreation: 3.75, CacheRead: 0.30},
}

// RatesFor returns the rates applied to model. Matching mirrors the LIKE
// patterns used in SQL, restricted to a trailing % wildcard.
func (p Pricing) RatesFor(model string) Rates {
	for _, m := range p.Models {
		if likePrefix(model, m.Pattern) {
			return m.Rates
		}
	}
	return p.Default
}

// Cost prices a token usage record in USD.
func (r Rates) Cost(input, output, cacheCreation, cacheRead int64) float64 {
	return (float64(input)*r.Input +
		float64(output)*r.Output +
		float64(cacheCreation)*r.CacheCreation +
		float64(cacheRead)*r.CacheRead) / 1e6
}

func likePrefix(s, pattern string) bool {
	n := len(pattern)
	if n > 0 && pattern[n-1] == '%' {
		prefix := pattern[:n-1]
		return len(s) >= len(prefix) && s[:len(prefix)] == prefix
	}
	return s == pattern
}
