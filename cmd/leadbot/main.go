package main

import (
	"log"

	"github.com/jmoiron/sqlx"

	"leadbot/core/bootstrap"
	corecmd "leadbot/core/cmd"
	coreconfig "leadbot/core/config"
	"leadbot/internal/bot"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar: "CONFIG_PATH",
		Bootstrap: func(cfg *coreconfig.Config) (corecmd.App, error) {
			res, err := bootstrap.Run(bootstrap.Options{
				Config: cfg,
				Seed: func(db *sqlx.DB) error {
					return bot.Seed(cfg, db)
				},
			})
			if err != nil {
				return nil, err
			}
			return bot.New(cfg, res.DB), nil
		},
	})
	if err != nil {
		log.Fatalf("leadbot: %v", err)
	}
}
