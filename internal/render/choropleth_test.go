package render

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/urbanlens/geoatlas/internal/model"
)

func squareHood(id, name string, originX, originY float64) model.Neighborhood {
	mp := geom.NewMultiPolygonFlat(geom.XY,
		[]float64{
			originX, originY,
			originX + 0.01, originY,
			originX + 0.01, originY + 0.01,
			originX, originY + 0.01,
			originX, originY,
		},
		[][]int{{10}},
	)
	mp.SetSRID(model.SRIDWGS84)
	return model.Neighborhood{ID: id, Name: name, Geom: mp}
}

func hoodStat(hoodID, name string, median float64, count int) model.NeighborhoodStat {
	return model.NeighborhoodStat{
		ID:             uuid.NewString(),
		NeighborhoodID: hoodID,
		Name:           name,
		MedianPrice:    median,
		ListingCount:   count,
		ComputedAt:     time.Now().UTC(),
	}
}

func TestChoropleth(t *testing.T) {
	hoods := []model.Neighborhood{
		squareHood("n1", "Downtown", -122.30, 37.50),
		squareHood("n2", "Uptown", -122.28, 37.50),
		squareHood("n3", "Riverside", -122.26, 37.50),
	}
	sts := []model.NeighborhoodStat{
		hoodStat("n1", "Downtown", 100, 4),
		hoodStat("n2", "Uptown", 300, 2),
	}

	svg, err := Choropleth(hoods, sts, Options{Width: 800, Classes: 5, Title: "Testville"})
	require.NoError(t, err)

	out := string(svg)
	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.Contains(t, out, `width="800"`)
	assert.Contains(t, out, "Testville")
	assert.Contains(t, out, `fill-rule="evenodd"`)
	assert.Equal(t, 3, strings.Count(out, "<path "))
	// the stat-less neighborhood renders gray
	assert.Contains(t, out, noDataFill)
	assert.Contains(t, out, "Median price")
}

func TestChoroplethEscapesNames(t *testing.T) {
	hoods := []model.Neighborhood{squareHood("n1", `<b>"Quoted"</b>`, 0, 0)}

	svg, err := Choropleth(hoods, nil, Options{})
	require.NoError(t, err)
	assert.NotContains(t, string(svg), "<b>")
	assert.Contains(t, string(svg), "&lt;b&gt;")
}

func TestChoroplethNoNeighborhoods(t *testing.T) {
	_, err := Choropleth(nil, nil, Options{})
	require.Error(t, err)
}
