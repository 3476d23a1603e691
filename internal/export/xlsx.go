package export

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/urbanlens/geoatlas/internal/model"
)

// WriteStatsWorkbook writes the neighborhood stats as an XLSX workbook with
// one row per neighborhood.
func WriteStatsWorkbook(path string, sts []model.NeighborhoodStat) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "export: create dir for %s", path)
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Neighborhood stats")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Neighborhood ID", "Name", "Median price", "Listings", "Filled", "Computed at"} {
		header.AddCell().SetString(h)
	}

	for i := range sts {
		st := &sts[i]
		row := sheet.AddRow()
		row.AddCell().SetString(st.NeighborhoodID)
		row.AddCell().SetString(st.Name)
		row.AddCell().SetFloat(st.MedianPrice)
		row.AddCell().SetInt(st.ListingCount)
		if st.Filled {
			row.AddCell().SetString("yes")
		} else {
			row.AddCell().SetString("no")
		}
		row.AddCell().SetString(st.ComputedAt.Format("2006-01-02 15:04:05"))
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save workbook %s", path)
	}

	zap.L().Info("stats workbook written",
		zap.String("path", path),
		zap.Int("rows", len(sts)),
	)
	return nil
}
