package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanlens/geoatlas/internal/geomio"
	"github.com/urbanlens/geoatlas/internal/store"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()

	listingsPath := filepath.Join(dir, "listings.csv")
	require.NoError(t, os.WriteFile(listingsPath, []byte(listingsCSV), 0o644))

	hoodsPath := filepath.Join(dir, "neighborhoods.csv")
	hoodsCSV := fmt.Sprintf("id,name,city,wkb\nn1,Downtown,Testville,%s\n", unitSquareHex(t))
	require.NoError(t, os.WriteFile(hoodsPath, []byte(hoodsCSV), 0o644))

	st, err := store.NewSQLite(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	outDir := filepath.Join(dir, "out")
	res, err := Run(context.Background(), st, Options{
		ListingsPath:      listingsPath,
		NeighborhoodsPath: hoodsPath,
		OutDir:            outDir,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Listings)
	assert.Equal(t, 1, res.Neighborhoods)
	assert.Equal(t, 5, res.DroppedListings)

	counts, err := st.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Listings)
	assert.Equal(t, 1, counts.Neighborhoods)

	fc, err := geomio.ReadGeoJSON(res.ListingsFile)
	require.NoError(t, err)
	assert.Len(t, fc.Features, 2)

	fc, err = geomio.ReadGeoJSON(res.NeighborhoodsFile)
	require.NoError(t, err)
	assert.Len(t, fc.Features, 1)
}

func TestRunRemoteInputs(t *testing.T) {
	hoodsCSV := fmt.Sprintf("id,name,city,wkb\nn1,Downtown,Testville,%s\n", unitSquareHex(t))
	mux := http.NewServeMux()
	mux.HandleFunc("/listings.csv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listingsCSV))
	})
	mux.HandleFunc("/neighborhoods.csv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(hoodsCSV))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	dir := t.TempDir()
	st, err := store.NewSQLite(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	res, err := Run(context.Background(), st, Options{
		ListingsPath:      ts.URL + "/listings.csv",
		NeighborhoodsPath: ts.URL + "/neighborhoods.csv",
		OutDir:            filepath.Join(dir, "out"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Listings)
	assert.Equal(t, 1, res.Neighborhoods)
}

func TestRunNoNeighborhoods(t *testing.T) {
	dir := t.TempDir()

	listingsPath := filepath.Join(dir, "listings.csv")
	require.NoError(t, os.WriteFile(listingsPath, []byte(listingsCSV), 0o644))

	hoodsPath := filepath.Join(dir, "neighborhoods.csv")
	require.NoError(t, os.WriteFile(hoodsPath, []byte("id,name,city,wkb\n"), 0o644))

	st, err := store.NewSQLite(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	_, err = Run(context.Background(), st, Options{
		ListingsPath:      listingsPath,
		NeighborhoodsPath: hoodsPath,
		OutDir:            filepath.Join(dir, "out"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable neighborhoods")
}
