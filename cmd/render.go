package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/urbanlens/geoatlas/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the median-price choropleth",
	Long: `Renders the stored neighborhoods shaded by their aggregated median price
as an SVG map with a quantile-classed legend. Run join first.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		hoods, err := st.ListNeighborhoods(ctx)
		if err != nil {
			return err
		}
		sts, err := st.ListStats(ctx)
		if err != nil {
			return err
		}

		opts := render.Options{
			Width:   cfg.Render.Width,
			Classes: cfg.Render.Classes,
			Title:   cfg.Render.Title,
		}
		if v, _ := cmd.Flags().GetInt("width"); v > 0 {
			opts.Width = v
		}
		if v, _ := cmd.Flags().GetInt("classes"); v > 0 {
			opts.Classes = v
		}
		if v, _ := cmd.Flags().GetString("title"); v != "" {
			opts.Title = v
		}

		svg, err := render.Choropleth(hoods, sts, opts)
		if err != nil {
			return eris.Wrap(err, "render")
		}

		out, _ := cmd.Flags().GetString("out")
		if dir := filepath.Dir(out); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return eris.Wrapf(err, "render: create dir %s", dir)
			}
		}
		if err := os.WriteFile(out, svg, 0o644); err != nil {
			return eris.Wrapf(err, "render: write %s", out)
		}

		fmt.Printf("Wrote %s (%d neighborhoods)\n", out, len(hoods))
		return nil
	},
}

func init() {
	renderCmd.Flags().String("out", "map.svg", "output SVG path")
	renderCmd.Flags().Int("width", 0, "map width in pixels (default: from config)")
	renderCmd.Flags().Int("classes", 0, "number of color classes (default: from config)")
	renderCmd.Flags().String("title", "", "map title (default: from config)")
	rootCmd.AddCommand(renderCmd)
}
