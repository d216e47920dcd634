package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/railtoner/tonerbot/bot/catalog"
	contractx "github.com/railtoner/tonerbot/bot/contract"
	"github.com/railtoner/tonerbot/bot/engine"
	"github.com/railtoner/tonerbot/bot/quote"
	statex "github.com/railtoner/tonerbot/bot/state"
	configx "github.com/railtoner/tonerbot/pkg/config"
	logx "github.com/railtoner/tonerbot/pkg/logger"
	"github.com/railtoner/tonerbot/pkg/pdf"
	whatsappx "github.com/railtoner/tonerbot/pkg/whatsapp"
	"github.com/railtoner/tonerbot/server"
)

type AppConfig struct {
	CatalogBackend       string        `envconfig:"CATALOG_BACKEND" default:"memory"`
	PostgresDSN          string        `envconfig:"POSTGRES_DSN"`
	SessionIdleTTL       time.Duration `envconfig:"SESSION_IDLE_TTL" default:"2h"`
	SessionSweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"30m"`
}

func main() {
	logCfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*logCfg)

	appCfg := configx.MustNew[AppConfig]("")
	serverCfg := configx.MustNew[server.Config]("SERVER")

	sessions := statex.NewMemoryStore()

	var catalogStore contractx.CatalogStore
	switch appCfg.CatalogBackend {
	case "postgres":
		db := catalog.OpenDB(appCfg.PostgresDSN)
		defer db.Close()
		store, err := catalog.NewBunStore(db)
		if err != nil {
			log.Fatal().Err(err).Msg("catalog store init failed")
		}
		catalogStore = store
	default:
		catalogStore = catalog.NewMemoryStore(catalog.DefaultProducts()...)
	}

	artifacts := quote.NewMemoryArtifactStore()
	renderer := pdf.NewRenderer()

	eng, err := engine.New(sessions, catalogStore, renderer, artifacts)
	if err != nil {
		log.Fatal().Err(err).Msg("engine init failed")
	}

	var transport contractx.Transport
	if server.IsPushMode(serverCfg.Mode) {
		waCfg := configx.MustNew[whatsappx.Config]("WHATSAPP")
		transport = whatsappx.MustNew(*waCfg)
	}

	srv, err := server.New(*serverCfg, eng, catalogStore, artifacts, transport)
	if err != nil {
		log.Fatal().Err(err).Msg("server init failed")
	}

	httpServer := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", serverCfg.Addr).Str("mode", serverCfg.Mode).Msg("http server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(appCfg.SessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if removed := sessions.SweepExpired(time.Now(), appCfg.SessionIdleTTL); removed > 0 {
					log.Info().Int("removed", removed).Msg("expired sessions swept")
				}
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("bye")
}
