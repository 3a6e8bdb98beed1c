package usage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ccstats/internal/row"
)

func day(date string, sessions, interactions, in, out int64) row.Row {
	return row.Row{
		"date":                row.String(date),
		"sessions":            row.Int(sessions),
		"totalInteractions":   row.Int(interactions),
		"activeProjects":      row.Int(1),
		"inputTokens":         row.Int(in),
		"outputTokens":        row.Int(out),
		"cacheCreationTokens": row.Int(0),
		"cacheReadTokens":     row.Int(0),
		"avgSessionDuration":  row.Int(0),
		"firstActivity":       row.String(date + " 09:00:00"),
		"lastActivity":        row.String(date + " 18:00:00"),
	}
}

func TestBuildDailyStats_Summary(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	rows := []row.Row{
		day("2025-03-10", 2, 5, 100, 50),
		day("2025-03-09", 1, 9, 10, 5),
		day("2025-03-08", 2, 9, 1, 1),
	}

	resp := BuildDailyStats(rows, 7, "/logs", now, 42*time.Millisecond)

	require.Len(t, resp.DailyStats, 3)
	assert.Equal(t, int64(150), resp.DailyStats[0].TotalTokens)

	s := resp.Summary
	assert.Equal(t, 3, s.TotalDays)
	assert.Equal(t, int64(5), s.TotalSessions)
	assert.Equal(t, int64(167), s.TotalTokens)
	assert.Equal(t, 1.67, s.AvgSessionsPerDay)
	assert.Equal(t, 7.67, s.AvgInteractionsPerDay)
	assert.Equal(t, int64(56), s.AvgTokensPerDay)
	require.NotNil(t, s.MostActiveDay)
	assert.Equal(t, "2025-03-09", *s.MostActiveDay, "ties go to the newer day")
	assert.Equal(t, int64(42), s.QueryDuration)

	m := resp.Meta
	assert.Equal(t, 3, m.Count)
	assert.Equal(t, "/logs", m.Source)
	assert.Equal(t, 7, m.DateRange.Days)
	assert.Equal(t, "2025-03-03T12:00:00.000Z", m.DateRange.Start)
	assert.Equal(t, "2025-03-10T12:00:00.000Z", m.DateRange.End)
}

func TestBuildDailyStats_Empty(t *testing.T) {
	resp := BuildDailyStats(nil, 0, "/logs", time.Now(), 0)

	assert.NotNil(t, resp.DailyStats)
	assert.Empty(t, resp.DailyStats)
	assert.Zero(t, resp.Summary.TotalDays)
	assert.Zero(t, resp.Summary.AvgSessionsPerDay)
	assert.Nil(t, resp.Summary.MostActiveDay)
	assert.Equal(t, 1, resp.Meta.DateRange.Days)
}

func TestBuildDailyStats_NullsAndStrings(t *testing.T) {
	rows := []row.Row{{
		"date":          row.String("2025-03-10"),
		"sessions":      row.String("3"),
		"inputTokens":   row.Null{},
		"outputTokens":  row.Float(12),
		"firstActivity": row.Null{},
	}}

	resp := BuildDailyStats(rows, 30, "/logs", time.Now(), 0)

	s := resp.DailyStats[0]
	assert.Equal(t, int64(3), s.Sessions)
	assert.Equal(t, int64(0), s.InputTokens)
	assert.Equal(t, int64(12), s.TotalTokens)
	assert.Nil(t, s.FirstActivity)
	assert.Nil(t, s.LastActivity)
}
