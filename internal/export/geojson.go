package export

import (
	"go.uber.org/zap"

	"github.com/urbanlens/geoatlas/internal/geomio"
	"github.com/urbanlens/geoatlas/internal/model"
)

// WriteGeoJSON writes neighborhoods with their stats as a feature collection.
func WriteGeoJSON(path string, hoods []model.Neighborhood, sts []model.NeighborhoodStat) error {
	statByHood := make(map[string]model.NeighborhoodStat, len(sts))
	for _, st := range sts {
		statByHood[st.NeighborhoodID] = st
	}

	fc := geomio.NeighborhoodsFeatureCollection(hoods, statByHood)
	if err := geomio.WriteGeoJSON(path, fc); err != nil {
		return err
	}

	zap.L().Info("geojson written",
		zap.String("path", path),
		zap.Int("neighborhoods", len(hoods)),
	)
	return nil
}
