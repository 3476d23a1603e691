package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urbanlens/geoatlas/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load listings and neighborhood boundaries",
	Long: `Parses the listings CSV (gzip supported) and the neighborhoods CSV,
derives point and polygon geometries in WGS84, loads both into the store,
and writes GeoJSON package files for downstream tools.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		opts := ingest.Options{
			ListingsPath:      cfg.Ingest.ListingsPath,
			NeighborhoodsPath: cfg.Ingest.NeighborhoodsPath,
			OutDir:            cfg.Ingest.OutDir,
		}
		if v, _ := cmd.Flags().GetString("listings"); v != "" {
			opts.ListingsPath = v
		}
		if v, _ := cmd.Flags().GetString("neighborhoods"); v != "" {
			opts.NeighborhoodsPath = v
		}
		if v, _ := cmd.Flags().GetString("out"); v != "" {
			opts.OutDir = v
		}

		log := zap.L().With(zap.String("command", "ingest"))
		log.Info("starting ingest",
			zap.String("listings", opts.ListingsPath),
			zap.String("neighborhoods", opts.NeighborhoodsPath),
		)

		res, err := ingest.Run(ctx, st, opts)
		if err != nil {
			return eris.Wrap(err, "ingest")
		}

		fmt.Printf("Loaded %d listings (%d dropped) and %d neighborhoods (%d dropped)\n",
			res.Listings, res.DroppedListings, res.Neighborhoods, res.DroppedNeighborhoods)
		fmt.Printf("Wrote %s and %s\n", res.ListingsFile, res.NeighborhoodsFile)
		return nil
	},
}

func init() {
	ingestCmd.Flags().String("listings", "", "listings CSV path, .gz supported (default: from config)")
	ingestCmd.Flags().String("neighborhoods", "", "neighborhoods CSV path (default: from config)")
	ingestCmd.Flags().String("out", "", "output directory for GeoJSON files (default: from config)")
	rootCmd.AddCommand(ingestCmd)
}
