package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urbanlens/geoatlas/internal/geomio"
	"github.com/urbanlens/geoatlas/internal/model"
)

// neighborhoodRow mirrors the neighborhoods CSV header. The wkb column is a
// hex-encoded well-known-binary polygon or multipolygon.
type neighborhoodRow struct {
	ID   string `csv:"id"`
	Name string `csv:"name"`
	City string `csv:"city"`
	WKB  string `csv:"wkb"`
}

// ReadNeighborhoods parses a neighborhoods CSV, decoding the binary shape
// column into WGS84 multipolygons. Rows whose shape cannot be decoded are
// dropped and counted.
func ReadNeighborhoods(path string) ([]model.Neighborhood, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "ingest: open neighborhoods %s", path)
	}
	defer func() { _ = f.Close() }()

	return decodeNeighborhoods(f)
}

func decodeNeighborhoods(r io.Reader) ([]model.Neighborhood, int, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true

	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		return nil, 0, eris.Wrap(err, "ingest: read neighborhoods header")
	}

	log := zap.L().With(zap.String("component", "ingest.neighborhoods"))

	var hoods []model.Neighborhood
	var dropped int
	seen := make(map[string]struct{})

	for {
		var row neighborhoodRow
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, 0, eris.Wrap(err, "ingest: decode neighborhoods row")
		}

		id := strings.TrimSpace(row.ID)
		if id == "" {
			id = normalizeText(row.Name)
		}
		if id == "" {
			dropped++
			continue
		}
		if _, dup := seen[id]; dup {
			log.Debug("duplicate neighborhood skipped", zap.String("id", id))
			dropped++
			continue
		}

		mp, err := geomio.DecodeHexWKB(strings.TrimSpace(row.WKB))
		if err != nil {
			log.Warn("neighborhood with undecodable shape dropped",
				zap.String("id", id),
				zap.Error(err),
			)
			dropped++
			continue
		}

		seen[id] = struct{}{}
		hoods = append(hoods, model.Neighborhood{
			ID:   id,
			Name: normalizeText(row.Name),
			City: normalizeText(row.City),
			Geom: mp,
		})
	}

	log.Info("neighborhoods parsed",
		zap.Int("kept", len(hoods)),
		zap.Int("dropped", dropped),
	)
	return hoods, dropped, nil
}
