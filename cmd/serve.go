package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/bhupeshcoding/codecoach/config"
	"github.com/bhupeshcoding/codecoach/internal/ai"
	"github.com/bhupeshcoding/codecoach/internal/cache"
	"github.com/bhupeshcoding/codecoach/internal/jobs"
	"github.com/bhupeshcoding/codecoach/internal/registry"
	"github.com/bhupeshcoding/codecoach/internal/server"
	"github.com/bhupeshcoding/codecoach/internal/store"
)

func serveCMD() *cobra.Command {
	var serveAddr string
	var cfgPath string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			logger := log.New(log.Writer(), "[SERVE] ", log.LstdFlags)
			ctx := context.Background()

			cm := cache.Connect(ctx, cfg.Cache)
			defer cm.Close()

			st, err := store.Open(cfg.Storage.SQLitePath)
			if err != nil {
				logger.Printf("catalog unavailable, using built-ins: %v", err)
				st = nil
			}

			var quotes, tips []string
			if st != nil {
				if q, err := st.ActiveMotivation(ctx, "quote"); err == nil {
					quotes = q
				}
				if t, err := st.ActiveMotivation(ctx, "tip"); err == nil {
					tips = t
				}
			}
			motivator := ai.NewMotivator(quotes, tips)

			svc := ai.New(cfg, cm, motivator)
			reg := registry.New()
			jm := jobs.NewManager()

			srv := server.New(cfg, cm, st, svc, reg, jm)
			return srv.Start(serveAddr)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serve.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return serve
}
