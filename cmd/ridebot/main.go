package main

import (
	"errors"
	"log"

	"github.com/m3rciful/ridebot/app/botapp"
	"github.com/m3rciful/ridebot/app/config"
	"github.com/m3rciful/ridebot/core/cmd"
)

var errUnexpectedConfig = errors.New("unexpected config carrier type")

func main() {
	err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: func(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			cfg, ok := carrier.(*config.Config)
			if !ok {
				return nil, errUnexpectedConfig
			}
			return botapp.New(cfg)
		},
	})
	if err != nil {
		log.Fatalf("ridebot: %v", err)
	}
}
