// Package api serves usage reports and engine health over HTTP.
//
// Routes:
//
//	GET /api/health       engine status plus a health query through the queue
//	GET /api/daily-stats  per-day activity (?days=N, 1..365, default 30)
//	GET /api/events       events from the last hour, newest first
//	GET /api/summary      token totals, cost and hook statistics
//	GET /metrics          Prometheus metrics
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/ccstats/internal/coordinator"
	"github.com/roach88/ccstats/internal/metrics"
	"github.com/roach88/ccstats/internal/row"
	"github.com/roach88/ccstats/internal/usage"
)

// Engine is the coordinator surface the API needs.
type Engine interface {
	Status() coordinator.Status
	HealthCheck(ctx context.Context) bool
}

// Reports produces the usage reports. *usage.Service satisfies it.
type Reports interface {
	DailyStats(ctx context.Context, days int) (*usage.DailyStatsResponse, error)
	RecentEvents(ctx context.Context) ([]row.Row, error)
	Summary(ctx context.Context) (*usage.Report, error)
	Sources() usage.Sources
}

// Server holds the handlers' dependencies.
type Server struct {
	engine    Engine
	reports   Reports
	validator *schemaValidator
	now       func() time.Time
}

// NewServer creates a Server.
func NewServer(engine Engine, reports Reports) (*Server, error) {
	v, err := newSchemaValidator(dailyStatsSchema)
	if err != nil {
		return nil, err
	}
	return &Server{
		engine:    engine,
		reports:   reports,
		validator: v,
		now:       time.Now,
	}, nil
}

// Handler builds the gin router.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.GET("/health", s.health)
	api.GET("/daily-stats", s.dailyStats)
	api.GET("/events", s.events)
	api.GET("/summary", s.summary)

	return router
}

// EngineHealth is the engine part of a health response.
type EngineHealth struct {
	coordinator.Status
	Healthy bool `json:"healthy"`
}

// HealthResponse is returned by /api/health.
type HealthResponse struct {
	Status    string       `json:"status"`
	DuckDB    EngineHealth `json:"duckdb"`
	Timestamp string       `json:"timestamp"`
}

func (s *Server) health(c *gin.Context) {
	status := s.engine.Status()
	healthy := s.engine.HealthCheck(c.Request.Context())

	label := "healthy"
	if !healthy {
		label = "unhealthy"
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status:    label,
		DuckDB:    EngineHealth{Status: status, Healthy: healthy},
		Timestamp: s.timestamp(),
	})
}

// parseDays reads ?days, falling back to the default when absent or not a
// number.
func parseDays(raw string) int {
	days, err := strconv.Atoi(raw)
	if err != nil {
		return usage.DefaultDays
	}
	return usage.ClampDays(days)
}

func (s *Server) dailyStats(c *gin.Context) {
	days := parseDays(c.Query("days"))
	source := s.reports.Sources().ProjectsDir

	resp, err := s.reports.DailyStats(c.Request.Context(), days)
	if err != nil {
		if errors.Is(err, usage.ErrNoProjectsDir) {
			slog.Warn("claude logs directory not found", "dir", source)
			c.JSON(http.StatusNotFound, gin.H{
				"dailyStats": []any{},
				"error":      err.Error(),
			})
			return
		}

		status := s.engine.Status()
		slog.Error("daily stats query failed", "error", err, "engine_status", status)
		c.JSON(http.StatusInternalServerError, gin.H{
			"dailyStats": []any{},
			"error":      err.Error(),
			"meta": gin.H{
				"count":        0,
				"source":       source,
				"duckdbStatus": status,
			},
		})
		return
	}

	if err := s.validator.Validate(resp); err != nil {
		slog.Error("daily stats response failed schema validation", "error", err)
	}
	c.JSON(http.StatusOK, resp)
}

// EventsMeta describes an events response.
type EventsMeta struct {
	Count         int    `json:"count"`
	QueryDuration int64  `json:"queryDuration"`
	Source        string `json:"source"`
}

// EventsResponse is returned by /api/events.
type EventsResponse struct {
	Events []row.Row  `json:"events"`
	Meta   EventsMeta `json:"meta"`
}

func (s *Server) events(c *gin.Context) {
	source := s.reports.Sources().ProjectsDir

	start := time.Now()
	events, err := s.reports.RecentEvents(c.Request.Context())
	elapsed := time.Since(start)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, usage.ErrNoProjectsDir) {
			code = http.StatusNotFound
		} else {
			slog.Error("events query failed", "error", err)
		}
		c.JSON(code, gin.H{"events": []any{}, "error": err.Error()})
		return
	}

	if events == nil {
		events = []row.Row{}
	}
	c.JSON(http.StatusOK, EventsResponse{
		Events: events,
		Meta: EventsMeta{
			Count:         len(events),
			QueryDuration: elapsed.Milliseconds(),
			Source:        source,
		},
	})
}

func (s *Server) summary(c *gin.Context) {
	report, err := s.reports.Summary(c.Request.Context())
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, usage.ErrNoProjectsDir) {
			code = http.StatusNotFound
		} else {
			slog.Error("summary query failed", "error", err)
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
