package ingest

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanlens/geoatlas/internal/model"
)

const listingsCSV = `id,name,neighbourhood,city,state,zipcode,country,latitude,longitude,price
1001,Cozy loft,Downtown,Testville,ca,94000,US,37.5,-122.25,"$1,250.00"
1002,Garden  studio,Uptown,Testville,CA,94001,US,37.6,-122.30,99
1003,No coords,Downtown,Testville,CA,94000,US,,,150
1004,Bad price,Downtown,Testville,CA,94000,US,37.5,-122.25,call us
1001,Duplicate id,Downtown,Testville,CA,94000,US,37.5,-122.25,200
,No id,Downtown,Testville,CA,94000,US,37.5,-122.25,100
1005,Out of range,Downtown,Testville,CA,94000,US,95.0,-122.25,100
`

func TestDecodeListings(t *testing.T) {
	listings, dropped, err := decodeListings(strings.NewReader(listingsCSV))
	require.NoError(t, err)
	assert.Equal(t, 5, dropped)
	require.Len(t, listings, 2)

	first := listings[0]
	assert.Equal(t, "1001", first.ID)
	assert.Equal(t, "Cozy loft", first.Name)
	assert.Equal(t, "CA", first.State)
	assert.Equal(t, 1250.0, first.Price)
	require.NotNil(t, first.Geom)
	assert.Equal(t, -122.25, first.Geom.X())
	assert.Equal(t, 37.5, first.Geom.Y())
	assert.Equal(t, model.SRIDWGS84, first.Geom.SRID())

	// internal whitespace collapses
	assert.Equal(t, "Garden studio", listings[1].Name)
}

func TestReadListingsGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.csv.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(listingsCSV))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	listings, dropped, err := ReadListings(path)
	require.NoError(t, err)
	assert.Equal(t, 5, dropped)
	assert.Len(t, listings, 2)
}

func TestReadListingsMissingFile(t *testing.T) {
	_, _, err := ReadListings(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"$1,250.00", 1250, true},
		{"99", 99, true},
		{"99.5", 99.5, true},
		{" $80 ", 80, true},
		{"0", 0, true},
		{"", 0, false},
		{"call us", 0, false},
		{"free", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParsePrice(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
