package main

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/config"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/app"
	"github.com/joho/godotenv"
)

func main() {
	// Config
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}

	err := godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("config error: %s", err)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("config error: %s", err)
	}

	// Run
	app.Run(cfg)
}
