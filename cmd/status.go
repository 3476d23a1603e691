package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show row counts for the configured store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		counts, err := st.Counts(ctx)
		if err != nil {
			return err
		}

		p := message.NewPrinter(language.English)
		p.Printf("Listings:       %d\n", counts.Listings)
		p.Printf("Neighborhoods:  %d\n", counts.Neighborhoods)
		p.Printf("Stats rows:     %d\n", counts.Stats)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
