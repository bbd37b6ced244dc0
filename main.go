// Command tileguard runs the location-telemetry fraud scoring API.
//
// The service is a thin HTTP shell around pkg/engine: it resolves session
// ids to session state, feeds samples and tile discoveries to the engine and
// maps verdict scores to an accept/flag/block decision. World-state
// persistence stays with the caller; a blocked sample simply never reaches
// it.
package main

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/trumenapp/go-tileguard/pkg/config"
	"github.com/trumenapp/go-tileguard/pkg/engine"
	"github.com/trumenapp/go-tileguard/pkg/models"
	"github.com/trumenapp/go-tileguard/pkg/storage"
	"github.com/trumenapp/go-tileguard/pkg/telemetry"
)

// LocationRequest is the client-reported GPS fix. Everything in it is
// untrusted input.
type LocationRequest struct {
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	CapturedAtMillis int64    `json:"captured_at_millis" binding:"required"`
	AccuracyMeters   float64  `json:"accuracy_meters"`
	SpeedMps         *float64 `json:"speed_mps"`
}

// TileRequest reports a confirmed new-tile discovery.
type TileRequest struct {
	TileID string `json:"tile_id" binding:"required"`
}

var (
	cfg         *config.Config
	logger      zerolog.Logger
	guardEngine *engine.Engine
	sessions    storage.SessionStore
)

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fallbackLogger := zerolog.New(os.Stderr)
		fallbackLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger = newLogger(cfg.Log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := telemetry.NewMetrics(registry)

	sessions = storage.NewMemoryStore()
	guardEngine = engine.New(
		engine.WithSink(telemetry.NewLogSink(logger)),
		engine.WithMetrics(metrics),
		engine.WithMaxSpeedKmh(cfg.Engine.MaxSpeedKmh),
		engine.WithMaxTilesPerMinute(cfg.Engine.MaxTilesPerMinute),
	)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	v1 := r.Group("/api/v1")
	{
		v1.POST("/sessions", handleCreateSession)
		v1.POST("/sessions/:id/location", handleLocation)
		v1.POST("/sessions/:id/tiles", handleTileDiscovery)
		v1.GET("/sessions/:id/automation", handleAutomation)
		v1.GET("/sessions/:id/history", handleHistory)
		v1.DELETE("/sessions/:id", handleEndSession)
	}
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	logger.Info().Str("addr", cfg.Server.ListenAddr).Msg("tileguard listening")
	if err := r.Run(cfg.Server.ListenAddr); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

// handleCreateSession mints a session id. Integrations with their own
// session management can skip this and use any stable id.
func handleCreateSession(c *gin.Context) {
	id := uuid.NewString()
	sessions.GetOrCreate(id)
	c.JSON(http.StatusCreated, gin.H{"session_id": id})
}

func handleLocation(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session := sessions.GetOrCreate(c.Param("id"))
	verdict := guardEngine.EvaluateLocation(session, models.LocationSample{
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		CapturedAtMillis: req.CapturedAtMillis,
		AccuracyMeters:   req.AccuracyMeters,
		SpeedMps:         req.SpeedMps,
	})

	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"decision":   decisionFor(verdict.RiskScore),
		"verdict":    verdict,
	})
}

func handleTileDiscovery(c *gin.Context) {
	var req TileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session := sessions.GetOrCreate(c.Param("id"))
	outcome := guardEngine.EvaluateTileDiscovery(session, req.TileID)

	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"decision":   decisionFor(outcome.RiskScore),
		"outcome":    outcome,
	})
}

func handleAutomation(c *gin.Context) {
	session, ok := sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"outcome":    guardEngine.EvaluateAutomation(session),
	})
}

func handleHistory(c *gin.Context) {
	session, ok := sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	samples := guardEngine.History(session)
	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"count":      len(samples),
		"samples":    samples,
	})
}

func handleEndSession(c *gin.Context) {
	id := c.Param("id")
	if session, ok := sessions.Get(id); ok {
		guardEngine.ResetSession(session)
		sessions.Delete(id)
	}
	c.Status(http.StatusNoContent)
}

// decisionFor maps a risk score to the demo enforcement policy: block at or
// above the block threshold, flag at or above the flag threshold, accept
// otherwise. Real deployments plug their own policy here.
func decisionFor(score int) string {
	switch {
	case score >= cfg.Engine.BlockScore:
		return "block"
	case score >= cfg.Engine.FlagScore:
		return "flag"
	default:
		return "accept"
	}
}

func newLogger(lc config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(lc.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	l := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	if lc.Pretty {
		l = l.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return l
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}
