package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"automation-platform/api/pkg/config"
	"automation-platform/api/services/workflow"
)

func newServeCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}
}

func newRouter(c *container, cookieName string) *mux.Router {
	mainRouter := mux.NewRouter()
	mainRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}).Methods("GET")

	apiRouter := mainRouter.PathPrefix("/api/v1").Subrouter()

	opts := []workflow.ServiceOption{workflow.WithSessionCookie(cookieName)}
	if c.validator != nil {
		opts = append(opts, workflow.WithSessionValidator(c.validator))
	}
	workflow.NewService(c.engine, opts...).LoadRoutes(apiRouter)

	return mainRouter
}

func runServer(ctx context.Context, cfg *config.Config) error {
	c, err := newContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins(cfg.HTTP.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	)(newRouter(c, cfg.Session.CookieName))

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(corsHandler),
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Info().Str("address", cfg.HTTP.Address).Msg("Starting server")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		log.Error().Err(err).Msg("Server error")
		return err

	case sig := <-shutdown:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")

		ctx, cancel := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Could not stop server gracefully")
			srv.Close()
		}
	}
	return nil
}
