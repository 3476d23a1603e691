package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/urbanlens/geoatlas/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export neighborhoods and stats to interchange formats",
	Long: `Exports the stored neighborhoods with their aggregated stats as GeoJSON,
an ESRI shapefile, or an XLSX stats workbook.`,
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

		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")

		switch format {
		case "geojson":
			if out == "" {
				out = "neighborhoods.geojson"
			}
			err = export.WriteGeoJSON(out, hoods, sts)
		case "shapefile":
			if out == "" {
				out = "neighborhoods.shp"
			}
			err = export.WriteShapefile(out, hoods, sts)
		case "xlsx":
			if out == "" {
				out = "stats.xlsx"
			}
			err = export.WriteStatsWorkbook(out, sts)
		default:
			return eris.Errorf("unknown export format %q", format)
		}
		if err != nil {
			return eris.Wrap(err, "export")
		}

		fmt.Printf("Wrote %s\n", out)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", "geojson", "output format: geojson, shapefile, or xlsx")
	exportCmd.Flags().String("out", "", "output path (default depends on format)")
	rootCmd.AddCommand(exportCmd)
}
