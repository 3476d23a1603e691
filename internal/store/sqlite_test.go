package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/urbanlens/geoatlas/internal/geomio"
	"github.com/urbanlens/geoatlas/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testNeighborhood(id, name string) model.Neighborhood {
	mp := geom.NewMultiPolygonFlat(geom.XY,
		[]float64{0, 0, 1, 0, 1, 1, 0, 1, 0, 0},
		[][]int{{10}},
	)
	mp.SetSRID(model.SRIDWGS84)
	return model.Neighborhood{ID: id, Name: name, City: "Testville", Geom: mp}
}

func TestSQLiteListingsRoundTrip(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	listings := []model.Listing{
		{
			ID: "1001", Name: "Cozy loft", Neighbourhood: "Downtown",
			City: "Testville", State: "CA", Zipcode: "94000", Country: "US",
			Latitude: 37.5, Longitude: -122.25, Price: 150,
			Geom: geomio.NewListingPoint(-122.25, 37.5),
		},
		{
			ID: "1002", Name: "Garden studio", Neighbourhood: "Uptown",
			City: "Testville", Country: "US",
			Latitude: 37.6, Longitude: -122.3, Price: 99.5,
			Geom: geomio.NewListingPoint(-122.3, 37.6),
		},
	}

	n, err := st.UpsertListings(ctx, listings)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := st.ListListings(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1001", got[0].ID)
	assert.Equal(t, "Cozy loft", got[0].Name)
	assert.Equal(t, 150.0, got[0].Price)
	require.NotNil(t, got[0].Geom)
	assert.Equal(t, -122.25, got[0].Geom.X())
	assert.Equal(t, 37.5, got[0].Geom.Y())
	assert.Equal(t, model.SRIDWGS84, got[0].Geom.SRID())
}

func TestSQLiteUpsertListingsIdempotent(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	l := model.Listing{
		ID: "1001", Name: "Old name", Latitude: 1, Longitude: 2, Price: 50,
		Geom: geomio.NewListingPoint(2, 1),
	}
	_, err := st.UpsertListings(ctx, []model.Listing{l})
	require.NoError(t, err)

	l.Name = "New name"
	l.Price = 75
	_, err = st.UpsertListings(ctx, []model.Listing{l})
	require.NoError(t, err)

	got, err := st.ListListings(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "New name", got[0].Name)
	assert.Equal(t, 75.0, got[0].Price)
}

func TestSQLiteNeighborhoodsRoundTrip(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	n, err := st.UpsertNeighborhoods(ctx, []model.Neighborhood{
		testNeighborhood("n1", "Downtown"),
		testNeighborhood("n2", "Uptown"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := st.ListNeighborhoods(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Downtown", got[0].Name)
	require.NotNil(t, got[0].Geom)
	assert.Equal(t, model.SRIDWGS84, got[0].Geom.SRID())
	assert.Equal(t, 1, got[0].Geom.NumPolygons())
}

func TestSQLiteReplaceStats(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	_, err := st.UpsertNeighborhoods(ctx, []model.Neighborhood{
		testNeighborhood("n1", "Downtown"),
	})
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	stale := []model.NeighborhoodStat{
		{ID: uuid.NewString(), NeighborhoodID: "n1", Name: "Downtown", MedianPrice: 100, ListingCount: 2, ComputedAt: now},
	}
	require.NoError(t, st.ReplaceStats(ctx, stale))

	fresh := []model.NeighborhoodStat{
		{ID: uuid.NewString(), NeighborhoodID: "n1", Name: "Downtown", MedianPrice: 150, ListingCount: 3, Filled: false, ComputedAt: now},
	}
	require.NoError(t, st.ReplaceStats(ctx, fresh))

	got, err := st.ListStats(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 150.0, got[0].MedianPrice)
	assert.Equal(t, 3, got[0].ListingCount)
	assert.False(t, got[0].Filled)
}

func TestSQLiteCounts(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	c, err := st.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Counts{}, c)

	_, err = st.UpsertNeighborhoods(ctx, []model.Neighborhood{testNeighborhood("n1", "Downtown")})
	require.NoError(t, err)
	_, err = st.UpsertListings(ctx, []model.Listing{
		{ID: "1", Latitude: 0.5, Longitude: 0.5, Price: 10, Geom: geomio.NewListingPoint(0.5, 0.5)},
	})
	require.NoError(t, err)

	c, err = st.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Counts{Listings: 1, Neighborhoods: 1}, c)
}
