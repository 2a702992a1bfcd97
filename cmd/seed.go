package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/bhupeshcoding/codecoach/config"
	"github.com/bhupeshcoding/codecoach/internal/ai"
	"github.com/bhupeshcoding/codecoach/internal/store"
)

func seedCMD() *cobra.Command {
	var cfgPath string
	var seed = &cobra.Command{
		Use:   "seed",
		Short: "Create the catalog database and load built-in data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			logger := log.New(log.Writer(), "[SEED] ", log.LstdFlags)

			st, err := store.Open(cfg.Storage.SQLitePath)
			if err != nil {
				return err
			}
			if err := st.Seed(ai.TopProblems(), ai.DefaultQuotes(), ai.DefaultTips()); err != nil {
				return err
			}
			logger.Printf("database ready at %s", cfg.Storage.SQLitePath)
			return nil
		},
	}
	seed.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return seed
}
