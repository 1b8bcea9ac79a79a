package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/stakevault-io/staking-pool-service/internal/config"
	"github.com/stakevault-io/staking-pool-service/internal/services"
)

const shutdownTimeout = 5 * time.Second

// Server is the HTTP surface of the staking pool. All handlers delegate to
// the service layer; the only state here is the router and listener.
type Server struct {
	httpServer *http.Server
	service    *services.Service
}

func New(cfg *config.ServerConfig, service *services.Service) *Server {
	srv := &Server{service: service}

	r := chi.NewRouter()
	r.Use(withTracing)
	r.Use(withRequestMetrics)
	r.Use(withRequestLogging)

	r.Get("/healthcheck", srv.healthcheck)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/pool", srv.handleGetPool)
		r.Get("/positions/{owner}", srv.handleGetPosition)
		r.Get("/stats", srv.handleGetStats)

		r.Post("/stake", srv.handleStake)
		r.Post("/unstake", srv.handleUnstake)
		r.Post("/claim-rewards", srv.handleClaimRewards)
		r.Post("/reward-rate", srv.handleUpdateRewardRate)
	})

	srv.httpServer = &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      r,
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return srv
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (a *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shut the API server down cleanly")
		}
	}()

	log.Info().Str("addr", a.httpServer.Addr).Msg("Starting API server")
	if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
