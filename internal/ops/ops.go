// Package ops serves the liveness and stats HTTP endpoints next to the bot.
package ops

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"leadbot/core/buildinfo"
	"leadbot/core/logger"
	"leadbot/internal/domain"
	"log/slog"
)

// StatsStore provides the aggregate counters for /stats.
type StatsStore interface {
	Snapshot(ctx context.Context) (domain.Stats, error)
}

// Server is the ops HTTP sidecar.
type Server struct {
	listen string
	store  StatsStore
	engine *gin.Engine
}

// New builds the ops server with its routes registered.
func New(listen string, store StatsStore) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{listen: listen, store: store, engine: engine}
	engine.GET("/healthz", s.healthz)
	engine.GET("/stats", s.stats)
	return s
}

// Handler exposes the underlying router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
	})
}

func (s *Server) stats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	stats, err := s.store.Snapshot(ctx)
	if err != nil {
		logger.OPS.Error("stats snapshot failed",
			slog.String("event", "ops.stats"),
			slog.String("err", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"leads": gin.H{
			"total":    stats.LeadsTotal,
			"new":      stats.LeadsNew,
			"accepted": stats.LeadsAccepted,
			"rejected": stats.LeadsRejected,
		},
		"questions": gin.H{
			"total":      stats.QuestionsTotal,
			"unanswered": stats.QuestionsUnanswered,
		},
		"managers": gin.H{
			"active": stats.ManagersActive,
		},
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.OPS.Info("ops listening",
			slog.String("event", "ops.start"),
			slog.String("listen", s.listen),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.OPS.Info("ops stopped",
			slog.String("event", "ops.stop"),
		)
		return <-errCh
	case err := <-errCh:
		return err
	}
}
