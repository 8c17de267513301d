package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ma4z/Hydrenix-Node/internal/domain/apikey"
	"github.com/ma4z/Hydrenix-Node/internal/infrastructure/config"
	"github.com/ma4z/Hydrenix-Node/internal/infrastructure/server"
)

func main() {
	key := flag.String("key", "", "Set the API key in the config file and exit")
	configPath := flag.String("config", "", "Config file path (overrides CONFIG_PATH)")
	port := flag.String("port", "", "Server port (overrides PORT)")
	dev := flag.Bool("dev", false, "Development logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if *configPath != "" {
		cfg.Store.ConfigPath = *configPath
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *dev {
		cfg.Logging.Development = true
	}

	keys, created, err := apikey.Load(cfg.Store.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", cfg.Store.ConfigPath, err)
	}

	if *key != "" {
		if err := keys.Set(*key); err != nil {
			log.Fatalf("Failed to set API key: %v", err)
		}
		fmt.Printf("API key set to: %s\n", *key)
		return
	}
	if created {
		log.Printf("Created %s with a placeholder API key", cfg.Store.ConfigPath)
	}

	srv, err := server.NewServer(cfg, keys)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-sigChan:
		log.Println("Shutting down gracefully...")
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}
}
