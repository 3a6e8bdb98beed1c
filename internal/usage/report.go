package usage

import (
	"path/filepath"

	"github.com/roach88/ccstats/internal/row"
)

// TokenTotals sums the token counters over every log.
type TokenTotals struct {
	Input         int64 `json:"inputTokens" yaml:"input_tokens"`
	Output        int64 `json:"outputTokens" yaml:"output_tokens"`
	CacheCreation int64 `json:"cacheCreationTokens" yaml:"cache_creation_tokens"`
	CacheRead     int64 `json:"cacheReadTokens" yaml:"cache_read_tokens"`
	Total         int64 `json:"totalTokens" yaml:"total_tokens"`
}

// ProjectCost is the cost attributed to one working directory.
type ProjectCost struct {
	Project string  `json:"project" yaml:"project"`
	Path    string  `json:"path" yaml:"path"`
	CostUSD float64 `json:"costUsd" yaml:"cost_usd"`
}

// Count is a named tally.
type Count struct {
	Name  string `json:"name" yaml:"name"`
	Count int64  `json:"count" yaml:"count"`
}

// HookStats summarizes recorded hook events.
type HookStats struct {
	Total    int64   `json:"total" yaml:"total"`
	ByType   []Count `json:"byType" yaml:"by_type"`
	TopTools []Count `json:"topTools" yaml:"top_tools"`
}

// Report is the overall usage summary.
type Report struct {
	Tokens       TokenTotals   `json:"tokens" yaml:"tokens"`
	TotalCostUSD float64       `json:"totalCostUsd" yaml:"total_cost_usd"`
	Projects     []ProjectCost `json:"projects" yaml:"projects"`
	Hooks        *HookStats    `json:"hooks,omitempty" yaml:"hooks,omitempty"`
}

func tokenTotalsFromRows(rows []row.Row) TokenTotals {
	if len(rows) == 0 {
		return TokenTotals{}
	}
	r := rows[0]
	return TokenTotals{
		Input:         integer(r.Get("input_tokens")),
		Output:        integer(r.Get("output_tokens")),
		CacheCreation: integer(r.Get("cache_creation_tokens")),
		CacheRead:     integer(r.Get("cache_read_tokens")),
		Total:         integer(r.Get("total_tokens")),
	}
}

func totalCostFromRows(rows []row.Row) float64 {
	if len(rows) == 0 {
		return 0
	}
	return float(rows[0].Get("total_cost_usd"))
}

// projectCostsFromRows names each project after the last element of its
// working directory.
func projectCostsFromRows(rows []row.Row) []ProjectCost {
	out := make([]ProjectCost, 0, len(rows))
	for _, r := range rows {
		cwd := str(r.Get("cwd"))
		out = append(out, ProjectCost{
			Project: filepath.Base(filepath.FromSlash(cwd)),
			Path:    cwd,
			CostUSD: float(r.Get("project_cost_usd")),
		})
	}
	return out
}

func countsFromRows(rows []row.Row, nameCol, countCol string) []Count {
	out := make([]Count, 0, len(rows))
	for _, r := range rows {
		out = append(out, Count{Name: str(r.Get(nameCol)), Count: integer(r.Get(countCol))})
	}
	return out
}
