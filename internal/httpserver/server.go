package httpserver

import (
	"context"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReadyCheck reports whether a backing service can take traffic.
type ReadyCheck func(ctx context.Context) error

// Server is the storefront HTTP API.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
}

// New builds a Server serving the storefront API for every website.
func New(addr string, logger *log.Logger, db *pgxpool.Pool, deps Deps) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)
	router, err := buildRouter(logger, db, deps)
	if err != nil {
		return nil, err
	}

	// No write timeout: checkout requests stay open while the shopper pays.
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		logger: logger,
	}, nil
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones, checkouts
// included, until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Printf("http: shutting down")
	return s.httpServer.Shutdown(ctx)
}

// readyChecks merges the pool ping with the extra checks from Deps.
func readyChecks(db *pgxpool.Pool, extra map[string]ReadyCheck) map[string]ReadyCheck {
	checks := make(map[string]ReadyCheck, len(extra)+1)
	for name, check := range extra {
		if check != nil {
			checks[name] = check
		}
	}
	if db != nil {
		checks["postgres"] = db.Ping
	}
	return checks
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func readyHandler(checks map[string]ReadyCheck) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		if len(names) == 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "no backends configured"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": name + " not reachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": names})
	}
}
