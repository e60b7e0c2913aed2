package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"COGNITIVE_BIAS_PLAYGROUND/internal/api"
	"COGNITIVE_BIAS_PLAYGROUND/internal/catalog"
	"COGNITIVE_BIAS_PLAYGROUND/internal/config"
	"COGNITIVE_BIAS_PLAYGROUND/internal/engine"
	"COGNITIVE_BIAS_PLAYGROUND/internal/session"

	// Import for side-effect of transition rule registration.
	_ "COGNITIVE_BIAS_PLAYGROUND/scenarios/coffeeshop"
	_ "COGNITIVE_BIAS_PLAYGROUND/scenarios/estimation"
	_ "COGNITIVE_BIAS_PLAYGROUND/scenarios/investment"
	_ "COGNITIVE_BIAS_PLAYGROUND/scenarios/relationship"
)

func main() {
	root := &cobra.Command{
		Use:   "bias-playground",
		Short: "Cognitive bias playground server",
	}
	root.AddCommand(serveCmd(), validateCmd(), scenariosCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level == "debug" {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load catalogues and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			cat, err := catalog.Load(cfg.CatalogueDir)
			if err != nil {
				return fmt.Errorf("load catalogues: %w", err)
			}
			logger.Info("catalogues loaded",
				zap.String("dir", cfg.CatalogueDir),
				zap.String("contents", cat.Counts()))

			var store session.Store
			if cfg.RedisAddr != "" {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				rs, err := session.NewRedisStore(ctx, cfg.RedisAddr, cfg.SessionTTL(), logger)
				if err != nil {
					return err
				}
				defer rs.Close()
				store = rs
				logger.Info("using redis session store", zap.String("addr", cfg.RedisAddr))
			} else {
				store = session.NewMemoryStore()
			}

			ctrl := session.NewController(cat, store, logger, session.Options{
				TTL:        cfg.SessionTTL(),
				TurnBudget: cfg.TurnTimeout(),
			})
			ctrl.StartSweeper()
			defer ctrl.Close()

			router := gin.Default()
			api.SetupRouter(router, api.NewHandlers(cat, ctrl, logger))

			// Simple health check endpoint
			router.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{"status": "UP"})
			})

			logger.Info("server listening", zap.Int("port", cfg.Port))
			return router.Run(fmt.Sprintf(":%d", cfg.Port))
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load catalogues and report errors without serving",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cat, err := catalog.Load(cfg.CatalogueDir)
			if err != nil {
				return err
			}
			fmt.Printf("OK: %s\n", cat.Counts())
			return nil
		},
	}
}

func scenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List registered transition rules against catalogue descriptors",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cat, err := catalog.Load(cfg.CatalogueDir)
			if err != nil {
				return err
			}
			for _, id := range engine.RuleIDs() {
				if _, err := cat.Get(id); err != nil {
					fmt.Printf("%s\t(rule registered, no catalogue descriptor)\n", id)
					continue
				}
				fmt.Println(id)
			}
			return nil
		},
	}
}
