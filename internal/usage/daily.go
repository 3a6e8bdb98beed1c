package usage

import (
	"math"
	"time"

	"github.com/roach88/ccstats/internal/row"
)

// DailyStat is one calendar day of activity.
type DailyStat struct {
	Date                string  `json:"date"`
	Sessions            int64   `json:"sessions"`
	TotalInteractions   int64   `json:"totalInteractions"`
	TotalTokens         int64   `json:"totalTokens"`
	InputTokens         int64   `json:"inputTokens"`
	OutputTokens        int64   `json:"outputTokens"`
	CacheCreationTokens int64   `json:"cacheCreationTokens"`
	CacheReadTokens     int64   `json:"cacheReadTokens"`
	ActiveProjects      int64   `json:"activeProjects"`
	AvgSessionDuration  float64 `json:"avgSessionDuration"`
	FirstActivity       *string `json:"firstActivity"`
	LastActivity        *string `json:"lastActivity"`
}

// DailySummary aggregates a DailyStats window.
type DailySummary struct {
	TotalDays             int     `json:"totalDays"`
	AvgSessionsPerDay     float64 `json:"avgSessionsPerDay"`
	AvgInteractionsPerDay float64 `json:"avgInteractionsPerDay"`
	AvgTokensPerDay       int64   `json:"avgTokensPerDay"`
	TotalSessions         int64   `json:"totalSessions"`
	TotalTokens           int64   `json:"totalTokens"`
	MostActiveDay         *string `json:"mostActiveDay"`
	QueryDuration         int64   `json:"queryDuration"`
}

// DateRange is the requested window.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

// DailyMeta describes how a DailyStats response was produced.
type DailyMeta struct {
	Count         int       `json:"count"`
	QueryDuration int64     `json:"queryDuration"`
	Source        string    `json:"source"`
	DateRange     DateRange `json:"dateRange"`
}

// DailyStatsResponse is the full daily statistics report.
type DailyStatsResponse struct {
	DailyStats []DailyStat  `json:"dailyStats"`
	Summary    DailySummary `json:"summary"`
	Meta       DailyMeta    `json:"meta"`
}

// dailyStatFromRow reads one DailyStatsSQL row. Missing or non-numeric
// counters read as zero.
func dailyStatFromRow(r row.Row) DailyStat {
	s := DailyStat{
		Date:                str(r.Get("date")),
		Sessions:            integer(r.Get("sessions")),
		TotalInteractions:   integer(r.Get("totalInteractions")),
		ActiveProjects:      integer(r.Get("activeProjects")),
		InputTokens:         integer(r.Get("inputTokens")),
		OutputTokens:        integer(r.Get("outputTokens")),
		CacheCreationTokens: integer(r.Get("cacheCreationTokens")),
		CacheReadTokens:     integer(r.Get("cacheReadTokens")),
		AvgSessionDuration:  float(r.Get("avgSessionDuration")),
		FirstActivity:       optionalStr(r.Get("firstActivity")),
		LastActivity:        optionalStr(r.Get("lastActivity")),
	}
	s.TotalTokens = s.InputTokens + s.OutputTokens + s.CacheCreationTokens + s.CacheReadTokens
	return s
}

// BuildDailyStats shapes DailyStatsSQL rows into a response.
//
// Averages over days are rounded to two decimals (tokens to a whole
// number). The most active day is the first day with the highest
// interaction count, so with newest-first rows ties go to the newer day.
func BuildDailyStats(rows []row.Row, days int, source string, now time.Time, elapsed time.Duration) *DailyStatsResponse {
	days = ClampDays(days)
	stats := make([]DailyStat, 0, len(rows))
	for _, r := range rows {
		stats = append(stats, dailyStatFromRow(r))
	}

	var sessions, interactions, tokens int64
	var mostActive *DailyStat
	for i := range stats {
		s := &stats[i]
		sessions += s.Sessions
		interactions += s.TotalInteractions
		tokens += s.TotalTokens
		if mostActive == nil || s.TotalInteractions > mostActive.TotalInteractions {
			mostActive = s
		}
	}

	ms := elapsed.Milliseconds()
	summary := DailySummary{
		TotalDays:     len(stats),
		TotalSessions: sessions,
		TotalTokens:   tokens,
		QueryDuration: ms,
	}
	if n := len(stats); n > 0 {
		summary.AvgSessionsPerDay = round2(float64(sessions) / float64(n))
		summary.AvgInteractionsPerDay = round2(float64(interactions) / float64(n))
		summary.AvgTokensPerDay = int64(math.Round(float64(tokens) / float64(n)))
		date := mostActive.Date
		summary.MostActiveDay = &date
	}

	now = now.UTC()
	return &DailyStatsResponse{
		DailyStats: stats,
		Summary:    summary,
		Meta: DailyMeta{
			Count:         len(stats),
			QueryDuration: ms,
			Source:        source,
			DateRange: DateRange{
				Start: now.Add(-time.Duration(days) * 24 * time.Hour).Format(isoMillis),
				End:   now.Format(isoMillis),
				Days:  days,
			},
		},
	}
}

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func integer(v row.Value) int64 {
	n, _ := row.AsInt(v)
	return n
}

func float(v row.Value) float64 {
	f, _ := row.AsFloat(v)
	return f
}

func str(v row.Value) string {
	s, _ := row.AsString(v)
	return s
}

func optionalStr(v row.Value) *string {
	s, ok := row.AsString(v)
	if !ok {
		return nil
	}
	return &s
}
