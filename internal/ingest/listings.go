// Package ingest parses the two tabular inputs and derives their geometries.
package ingest

import (
	"compress/gzip"
	"encoding/csv"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/urbanlens/geoatlas/internal/geomio"
	"github.com/urbanlens/geoatlas/internal/model"
)

// priceRegexp captures the numeric part of currency-formatted prices
// such as "$1,250.00".
var priceRegexp = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)

// listingRow mirrors the listings CSV header. Coordinates and price are kept
// as text so one malformed field drops a row instead of aborting the file.
type listingRow struct {
	ID            string `csv:"id"`
	Name          string `csv:"name"`
	Neighbourhood string `csv:"neighbourhood"`
	City          string `csv:"city"`
	State         string `csv:"state"`
	Zipcode       string `csv:"zipcode"`
	Country       string `csv:"country"`
	Latitude      string `csv:"latitude"`
	Longitude     string `csv:"longitude"`
	Price         string `csv:"price"`
}

// ReadListings parses a listings CSV (gzip-compressed when the path ends in
// .gz), derives a WGS84 point per record, and reports how many rows were
// dropped for malformed or duplicate values.
func ReadListings(path string) ([]model.Listing, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "ingest: open listings %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, 0, eris.Wrapf(err, "ingest: gunzip listings %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	return decodeListings(r)
}

func decodeListings(r io.Reader) ([]model.Listing, int, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true

	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		return nil, 0, eris.Wrap(err, "ingest: read listings header")
	}

	log := zap.L().With(zap.String("component", "ingest.listings"))

	var listings []model.Listing
	var dropped int
	seen := make(map[string]struct{})

	for {
		var row listingRow
		if err := dec.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			return nil, 0, eris.Wrap(err, "ingest: decode listings row")
		}

		l, ok := cleanListing(row, log)
		if !ok {
			dropped++
			continue
		}
		if _, dup := seen[l.ID]; dup {
			log.Debug("duplicate listing id skipped", zap.String("id", l.ID))
			dropped++
			continue
		}
		seen[l.ID] = struct{}{}
		listings = append(listings, l)
	}

	log.Info("listings parsed",
		zap.Int("kept", len(listings)),
		zap.Int("dropped", dropped),
	)
	return listings, dropped, nil
}

// cleanListing validates one raw row and derives its point geometry.
func cleanListing(row listingRow, log *zap.Logger) (model.Listing, bool) {
	id := strings.TrimSpace(row.ID)
	if id == "" {
		log.Debug("listing without id dropped", zap.String("name", row.Name))
		return model.Listing{}, false
	}

	lat, errLat := strconv.ParseFloat(strings.TrimSpace(row.Latitude), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(row.Longitude), 64)
	if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		log.Debug("listing with invalid coordinates dropped",
			zap.String("id", id),
			zap.String("latitude", row.Latitude),
			zap.String("longitude", row.Longitude),
		)
		return model.Listing{}, false
	}

	price, ok := ParsePrice(row.Price)
	if !ok {
		log.Debug("listing with unparseable price dropped",
			zap.String("id", id),
			zap.String("price", row.Price),
		)
		return model.Listing{}, false
	}

	return model.Listing{
		ID:            id,
		Name:          normalizeText(row.Name),
		Neighbourhood: normalizeText(row.Neighbourhood),
		City:          normalizeText(row.City),
		State:         strings.ToUpper(strings.TrimSpace(row.State)),
		Zipcode:       strings.TrimSpace(row.Zipcode),
		Country:       normalizeText(row.Country),
		Latitude:      lat,
		Longitude:     lng,
		Price:         price,
		Geom:          geomio.NewListingPoint(lng, lat),
	}, true
}

// ParsePrice extracts a numeric value from currency-formatted text.
// "$1,250.00" parses to 1250. Empty or non-numeric text is rejected.
func ParsePrice(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	match := priceRegexp.FindString(cleaned)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// normalizeText trims and collapses internal whitespace.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
