package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urbanlens/geoatlas/internal/spatial"
	"github.com/urbanlens/geoatlas/internal/stats"
)

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join listings into neighborhoods and aggregate prices",
	Long: `Runs the point-in-polygon join between stored listings and neighborhood
boundaries, computes the median price per neighborhood, and stores the
resulting stats. Neighborhoods without listings receive a fill value.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		listings, err := st.ListListings(ctx)
		if err != nil {
			return err
		}
		hoods, err := st.ListNeighborhoods(ctx)
		if err != nil {
			return err
		}
		if len(hoods) == 0 {
			return eris.New("join: no neighborhoods loaded, run ingest first")
		}

		log := zap.L().With(zap.String("command", "join"))
		log.Info("starting join",
			zap.Int("listings", len(listings)),
			zap.Int("neighborhoods", len(hoods)),
		)

		res, err := spatial.Join(listings, hoods)
		if err != nil {
			return eris.Wrap(err, "join")
		}

		policy := stats.FillPolicy(cfg.Join.FillPolicy)
		if v, _ := cmd.Flags().GetString("fill-policy"); v != "" {
			policy = stats.FillPolicy(v)
		}

		agg, err := stats.Aggregate(res, hoods, policy)
		if err != nil {
			return eris.Wrap(err, "join: aggregate")
		}
		if err := st.ReplaceStats(ctx, agg); err != nil {
			return eris.Wrap(err, "join: store stats")
		}

		fmt.Printf("Matched %d of %d listings into %d neighborhoods\n",
			res.Matched, len(listings), len(hoods))
		if len(res.Unmatched) > 0 {
			fmt.Printf("%d listings fell outside every boundary\n", len(res.Unmatched))
		}
		return nil
	},
}

func init() {
	joinCmd.Flags().String("fill-policy", "", "value for empty neighborhoods: mean or zero (default: from config)")
	rootCmd.AddCommand(joinCmd)
}
