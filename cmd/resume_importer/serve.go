package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-importer/internal/pipeline"
	"github.com/jonathan/resume-importer/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server exposing POST /api/parse-resume, POST /api/linkedin and GET /api/imports/{id}.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT and the config file)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	p, err := pipeline.New(context.Background(), cfg, pipeline.Options{})
	if err != nil {
		return fmt.Errorf("failed to build import pipeline: %w", err)
	}
	defer p.Close()

	srv, err := server.New(cfg, p)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
