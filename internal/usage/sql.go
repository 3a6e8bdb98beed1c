package usage

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Limits applied by the report statements.
const (
	DefaultDays      = 30
	MaxDays          = 365
	EventsLimit      = 200
	EventsWindow     = time.Hour
	TopProjectsLimit = 10
	TopToolsLimit    = 10
)

// ClampDays bounds a requested day window to 1..MaxDays.
func ClampDays(days int) int {
	return min(max(days, 1), MaxDays)
}

// quote renders s as a single-quoted SQL string literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// readJSON is the table function scanning every file matched by pattern.
func readJSON(pattern string) string {
	return fmt.Sprintf("read_json(%s, format = 'newline_delimited', union_by_name = true, filename = true)", quote(pattern))
}

// tokenField extracts one usage counter from the message column, or 0.
func tokenField(field string) string {
	return fmt.Sprintf("COALESCE(TRY_CAST(json_extract_string(message::JSON, '$.usage.%s') AS BIGINT), 0)", field)
}

const modelExpr = "json_extract_string(message::JSON, '$.model')"

var (
	inputTokens         = tokenField("input_tokens")
	outputTokens        = tokenField("output_tokens")
	cacheCreationTokens = tokenField("cache_creation_input_tokens")
	cacheReadTokens     = tokenField("cache_read_input_tokens")
)

const dailyStatsTemplate = `SELECT
    CAST(DATE(TRY_CAST(timestamp AS TIMESTAMP)) AS VARCHAR) AS date,
    COUNT(DISTINCT sessionId) AS sessions,
    COUNT(CASE WHEN type = 'user' THEN 1 END) AS totalInteractions,
    COUNT(DISTINCT cwd) AS activeProjects,
    SUM(%s) AS inputTokens,
    SUM(%s) AS outputTokens,
    SUM(%s) AS cacheCreationTokens,
    SUM(%s) AS cacheReadTokens,
    0 AS avgSessionDuration,
    MIN(timestamp)::VARCHAR AS firstActivity,
    MAX(timestamp)::VARCHAR AS lastActivity
FROM %s
WHERE TRY_CAST(timestamp AS TIMESTAMP) >= (NOW() - INTERVAL %d DAYS)
GROUP BY DATE(TRY_CAST(timestamp AS TIMESTAMP))
ORDER BY date DESC`

// DailyStatsSQL aggregates the last days days of logs per calendar day,
// newest first. days is clamped to 1..MaxDays.
func DailyStatsSQL(pattern string, days int) string {
	return fmt.Sprintf(dailyStatsTemplate,
		inputTokens, outputTokens, cacheCreationTokens, cacheReadTokens,
		readJSON(pattern), ClampDays(days))
}

const eventsTemplate = `SELECT
    CAST(timestamp AS VARCHAR) AS timestamp,
    type AS event_type,
    sessionId AS session_id,
    cwd AS project,
    %s AS model,
    %s AS input_tokens,
    %s AS output_tokens,
    %s AS cache_creation_tokens,
    %s AS cache_read_tokens
FROM %s
WHERE TRY_CAST(timestamp AS TIMESTAMP) >= TIMESTAMP %s
ORDER BY TRY_CAST(timestamp AS TIMESTAMP) DESC
LIMIT %d`

// EventsSQL selects events at or after since, newest first, at most limit.
func EventsSQL(pattern string, since time.Time, limit int) string {
	return fmt.Sprintf(eventsTemplate,
		modelExpr, inputTokens, outputTokens, cacheCreationTokens, cacheReadTokens,
		readJSON(pattern), quote(since.UTC().Format("2006-01-02 15:04:05.000")), limit)
}

const tokenTotalsTemplate = `SELECT
    SUM(%[1]s) AS input_tokens,
    SUM(%[2]s) AS output_tokens,
    SUM(%[3]s) AS cache_creation_tokens,
    SUM(%[4]s) AS cache_read_tokens,
    SUM(%[1]s + %[2]s + %[3]s + %[4]s) AS total_tokens
FROM %[5]s`

// TokenTotalsSQL sums every token counter across all logs.
func TokenTotalsSQL(pattern string) string {
	return fmt.Sprintf(tokenTotalsTemplate,
		inputTokens, outputTokens, cacheCreationTokens, cacheReadTokens, readJSON(pattern))
}

// rateCase selects the rate for the current row's model.
func rateCase(p Pricing, pick func(Rates) float64) string {
	var b strings.Builder
	b.WriteString("CASE")
	for _, m := range p.Models {
		fmt.Fprintf(&b, " WHEN %s LIKE %s THEN %s", modelExpr, quote(m.Pattern), sqlFloat(pick(m.Rates)))
	}
	fmt.Fprintf(&b, " ELSE %s END", sqlFloat(pick(p.Default)))
	return b.String()
}

func sqlFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64) + "::DOUBLE"
}

// costExpr prices one log row in USD.
func costExpr(p Pricing) string {
	return fmt.Sprintf("(%s * %s + %s * %s + %s * %s + %s * %s) / 1e6",
		inputTokens, rateCase(p, func(r Rates) float64 { return r.Input }),
		outputTokens, rateCase(p, func(r Rates) float64 { return r.Output }),
		cacheCreationTokens, rateCase(p, func(r Rates) float64 { return r.CacheCreation }),
		cacheReadTokens, rateCase(p, func(r Rates) float64 { return r.CacheRead }),
	)
}

// CostSQL totals the cost of every log row.
func CostSQL(pattern string, p Pricing) string {
	return fmt.Sprintf("SELECT COALESCE(SUM(%s), 0) AS total_cost_usd\nFROM %s", costExpr(p), readJSON(pattern))
}

const costByProjectTemplate = `SELECT
    cwd,
    SUM(%s) AS project_cost_usd
FROM %s
WHERE cwd IS NOT NULL
GROUP BY cwd
ORDER BY project_cost_usd DESC, cwd
LIMIT %d`

// CostByProjectSQL ranks working directories by cost.
func CostByProjectSQL(pattern string, p Pricing, limit int) string {
	return fmt.Sprintf(costByProjectTemplate, costExpr(p), readJSON(pattern), limit)
}

// HookCountSQL counts recorded hook events.
func HookCountSQL(pattern string) string {
	return fmt.Sprintf("SELECT COUNT(*) AS total FROM %s", readJSON(pattern))
}

const hookEventsByTypeTemplate = `SELECT
    event_type,
    COUNT(*) AS count
FROM %s
GROUP BY event_type
ORDER BY count DESC, event_type`

// HookEventsByTypeSQL counts hook events per event type.
func HookEventsByTypeSQL(pattern string) string {
	return fmt.Sprintf(hookEventsByTypeTemplate, readJSON(pattern))
}

const toolUsageTemplate = `SELECT
    json_extract_string(hook_data::JSON, '$.tool.tool') AS tool_name,
    COUNT(*) AS usage_count
FROM %s
WHERE event_type IN ('PreToolUse', 'PostToolUse')
    AND json_extract_string(hook_data::JSON, '$.tool.tool') IS NOT NULL
GROUP BY tool_name
ORDER BY usage_count DESC, tool_name
LIMIT %d`

// ToolUsageSQL ranks tools by how often tool-use hooks saw them.
func ToolUsageSQL(pattern string, limit int) string {
	return fmt.Sprintf(toolUsageTemplate, readJSON(pattern), limit)
}
