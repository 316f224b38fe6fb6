package main

import (
	"log"

	"github.com/m3rciful/prodbot/app"
	corecmd "github.com/m3rciful/prodbot/core/cmd"
	coreconfig "github.com/m3rciful/prodbot/core/config"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		Bootstrap: func(cfg *coreconfig.Config) (corecmd.TelegramApp, error) {
			return app.New(cfg)
		},
	})
	if err != nil {
		log.Fatalf("prodbot: %v", err)
	}
}
