package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/urbanlens/geoatlas/internal/render"
	"github.com/urbanlens/geoatlas/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stats, GeoJSON, and the map over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := server.New(st, render.Options{
			Width:   cfg.Render.Width,
			Classes: cfg.Render.Classes,
			Title:   cfg.Render.Title,
		}, cfg.Server.RateLimit)

		return srv.Run(ctx, port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
