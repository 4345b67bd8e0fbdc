package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"go-video-inspector/internal/config"
	"go-video-inspector/internal/container"
	"go-video-inspector/internal/credentials"
	"go-video-inspector/internal/logger"
)

func main() {
	// Best effort: a missing .env is normal outside development.
	_ = godotenv.Load()

	if len(os.Args) > 1 && os.Args[1] == "login" {
		runLogin(os.Args[2:])
		return
	}

	serveHTTP := flag.Bool("http", false, "serve the tool protocol over HTTP instead of stdio")
	flag.Parse()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Credential resolution happens before anything else; without a key
	// the process must not start accepting tool calls.
	apiKey, err := credentials.NewResolver().Resolve()
	if err != nil {
		log.Fatalf("%v", err)
	}

	c, err := container.NewContainer(cfg, apiKey)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	if *serveHTTP {
		serveOverHTTP(c)
		return
	}

	logger.Info("Serving tool protocol on stdio")
	if err := c.ToolServer().ServeStdio(context.Background(), os.Stdin, os.Stdout); err != nil {
		logger.WithError(err).Error("Stdio transport failed")
		os.Exit(1)
	}
}

func runLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	key := fs.String("key", "", "API key to store")
	_ = fs.Parse(args)

	if *key == "" {
		fmt.Fprintln(os.Stderr, "usage: video-inspector login -key <api-key>")
		os.Exit(2)
	}

	if err := credentials.NewResolver().Save(*key); err != nil {
		log.Fatalf("Failed to store API key: %v", err)
	}
	fmt.Println("API key stored.")
}

func serveOverHTTP(c *container.Container) {
	cfg := c.Config()
	server := &http.Server{
		Addr:         cfg.ServerAddress(),
		Handler:      c.HTTPHandler(),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: 15 * time.Minute, // tool calls poll up to the full budget
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"address": cfg.ServerAddress(),
		}).Info("Starting HTTP server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Failed to start server")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
		os.Exit(1)
	}

	logger.Info("Server exited")
}
