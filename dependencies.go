package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"automation-platform/api/pkg/config"
	"automation-platform/api/pkg/db"
	"automation-platform/api/services/generator"
	"automation-platform/api/services/mail"
	"automation-platform/api/services/session"
	"automation-platform/api/services/workflow"
)

// container holds the collaborators built from configuration.
type container struct {
	pool      *pgxpool.Pool
	engine    *workflow.Engine
	validator workflow.SessionValidator
}

func (c *container) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}

// newContainer wires the engine and its collaborators. Optional services
// that are not configured are left nil so the nodes using them fail softly.
func newContainer(ctx context.Context, cfg *config.Config) (*container, error) {
	c := &container{}
	deps := workflow.Dependencies{DefaultFrom: cfg.Mail.From, Logger: &log.Logger}

	if cfg.Database.URL != "" {
		pool, err := db.Connect(ctx, db.Config{
			URI:             cfg.Database.URL,
			MaxOpenConns:    cfg.Database.MaxConns,
			MinIdleConns:    cfg.Database.MinIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		c.pool = pool
		deps.Store = workflow.NewPostgresStore(pool, cfg.Database.QueryTimeout)
	} else {
		log.Warn().Msg("DATABASE_URL is not set, database nodes will fail")
	}

	if cfg.Mail.ResendAPIKey != "" {
		sender, err := mail.NewResendSender(cfg.Mail.ResendAPIKey, cfg.Mail.From)
		if err != nil {
			c.Close()
			return nil, err
		}
		deps.Mail = sender
	} else {
		log.Info().Msg("No mail provider configured, emails will only be logged")
		deps.Mail = mail.NewLogSender(log.Logger)
	}

	if cfg.OpenAI.APIKey != "" {
		gen, err := generator.NewOpenAI(generator.Config{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		})
		if err != nil {
			c.Close()
			return nil, err
		}
		deps.Generator = gen
	}

	if cfg.Session.JWTSecret != "" {
		v, err := session.NewJWTValidator(cfg.Session.JWTSecret, cfg.Session.Issuer)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.validator = v
	}

	registry, err := workflow.NewBuiltinRegistry(deps)
	if err != nil {
		c.Close()
		return nil, err
	}

	policy, err := workflow.ParseSuccessPolicy(cfg.Engine.SuccessPolicy)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.engine = workflow.NewEngine(registry,
		workflow.WithSuccessPolicy(policy),
		workflow.WithNodeTimeout(cfg.Engine.NodeTimeout),
	)
	return c, nil
}
