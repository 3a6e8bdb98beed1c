package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/ccstats/internal/row"
)

// ErrNoProjectsDir reports that the session log directory does not exist.
var ErrNoProjectsDir = errors.New("claude logs directory not found")

// Querier runs one SQL statement. *coordinator.Coordinator satisfies it.
type Querier interface {
	Query(ctx context.Context, sql string) ([]row.Row, error)
}

// Service builds usage reports from the configured Sources.
type Service struct {
	q       Querier
	sources Sources
	pricing Pricing
	now     func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithPricing overrides DefaultPricing.
func WithPricing(p Pricing) ServiceOption {
	return func(s *Service) {
		s.pricing = p
	}
}

// WithNow overrides the clock used for report windows.
func WithNow(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a Service that runs its statements through q.
func NewService(q Querier, sources Sources, opts ...ServiceOption) *Service {
	s := &Service{
		q:       q,
		sources: sources,
		pricing: DefaultPricing,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sources returns the directories the service reads.
func (s *Service) Sources() Sources {
	return s.sources
}

func (s *Service) checkProjectsDir() error {
	if !dirExists(s.sources.ProjectsDir) {
		return fmt.Errorf("%w: %s", ErrNoProjectsDir, s.sources.ProjectsDir)
	}
	return nil
}

// DailyStats reports per-day activity over the last days days.
func (s *Service) DailyStats(ctx context.Context, days int) (*DailyStatsResponse, error) {
	if err := s.checkProjectsDir(); err != nil {
		return nil, err
	}
	days = ClampDays(days)

	start := time.Now()
	rows, err := s.q.Query(ctx, DailyStatsSQL(LogsPattern(s.sources.ProjectsDir), days))
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("daily stats: %w", err)
	}

	slog.Debug("daily stats query completed", "days", days, "rows", len(rows), "duration", elapsed)
	return BuildDailyStats(rows, days, s.sources.ProjectsDir, s.now(), elapsed), nil
}

// RecentEvents returns events from the last EventsWindow, newest first.
func (s *Service) RecentEvents(ctx context.Context) ([]row.Row, error) {
	if err := s.checkProjectsDir(); err != nil {
		return nil, err
	}
	since := s.now().Add(-EventsWindow)
	rows, err := s.q.Query(ctx, EventsSQL(LogsPattern(s.sources.ProjectsDir), since, EventsLimit))
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	return rows, nil
}

// Summary builds the overall report: token totals, cost, the costliest
// projects and, when hook files exist, hook statistics.
func (s *Service) Summary(ctx context.Context) (*Report, error) {
	if err := s.checkProjectsDir(); err != nil {
		return nil, err
	}
	pattern := LogsPattern(s.sources.ProjectsDir)

	rows, err := s.q.Query(ctx, TokenTotalsSQL(pattern))
	if err != nil {
		return nil, fmt.Errorf("token totals: %w", err)
	}
	report := &Report{Tokens: tokenTotalsFromRows(rows)}

	rows, err = s.q.Query(ctx, CostSQL(pattern, s.pricing))
	if err != nil {
		return nil, fmt.Errorf("total cost: %w", err)
	}
	report.TotalCostUSD = totalCostFromRows(rows)

	rows, err = s.q.Query(ctx, CostByProjectSQL(pattern, s.pricing, TopProjectsLimit))
	if err != nil {
		return nil, fmt.Errorf("cost by project: %w", err)
	}
	report.Projects = projectCostsFromRows(rows)

	hooks, err := s.HookStats(ctx)
	if err != nil {
		// Hook data is optional; a bad hooks file must not hide the rest.
		slog.Warn("skipping hook statistics", "error", err)
	}
	report.Hooks = hooks

	return report, nil
}

// HookStats summarizes the hook recorder's files. It returns nil, nil when
// there are none.
func (s *Service) HookStats(ctx context.Context) (*HookStats, error) {
	if !hasHookFiles(s.sources.HooksDir) {
		return nil, nil
	}
	pattern := HooksPattern(s.sources.HooksDir)

	rows, err := s.q.Query(ctx, HookCountSQL(pattern))
	if err != nil {
		return nil, fmt.Errorf("hook count: %w", err)
	}
	var total int64
	if len(rows) > 0 {
		total = integer(rows[0].Get("total"))
	}
	if total == 0 {
		return nil, nil
	}

	stats := &HookStats{Total: total}

	rows, err = s.q.Query(ctx, HookEventsByTypeSQL(pattern))
	if err != nil {
		return nil, fmt.Errorf("hook events by type: %w", err)
	}
	stats.ByType = countsFromRows(rows, "event_type", "count")

	rows, err = s.q.Query(ctx, ToolUsageSQL(pattern, TopToolsLimit))
	if err != nil {
		return nil, fmt.Errorf("tool usage: %w", err)
	}
	stats.TopTools = countsFromRows(rows, "tool_name", "usage_count")

	return stats, nil
}
