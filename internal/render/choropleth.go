// Package render draws the median-price choropleth as an SVG document.
package render

import (
	"bytes"
	"fmt"
	"html"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/urbanlens/geoatlas/internal/geomio"
	"github.com/urbanlens/geoatlas/internal/model"
	"github.com/urbanlens/geoatlas/internal/stats"
)

// ylorrd is the yellow-orange-red sequential palette, light to dark.
var ylorrd = []string{"#ffffb2", "#fecc5c", "#fd8d3c", "#f03b20", "#bd0026"}

const (
	noDataFill  = "#d9d9d9"
	strokeColor = "#ffffff"
	legendRow   = 22
	margin      = 20.0
)

// Options controls the rendered map.
type Options struct {
	Width   int
	Classes int
	Title   string
}

// Choropleth renders neighborhoods shaded by median price. Geometries are
// projected to Web Mercator so shapes keep their familiar map proportions.
// Neighborhoods without a stat row are drawn in gray.
func Choropleth(hoods []model.Neighborhood, sts []model.NeighborhoodStat, opts Options) ([]byte, error) {
	if len(hoods) == 0 {
		return nil, eris.New("render: no neighborhoods to draw")
	}
	if opts.Width <= 0 {
		opts.Width = 960
	}
	if opts.Classes <= 0 || opts.Classes > len(ylorrd) {
		opts.Classes = len(ylorrd)
	}

	projected := make([]*geom.MultiPolygon, len(hoods))
	for i := range hoods {
		g, err := geomio.ToWebMercator(hoods[i].Geom)
		if err != nil {
			return nil, eris.Wrapf(err, "render: project %s", hoods[i].ID)
		}
		mp, ok := g.(*geom.MultiPolygon)
		if !ok {
			return nil, eris.Errorf("render: unexpected geometry %T for %s", g, hoods[i].ID)
		}
		projected[i] = mp
	}

	vp := fitViewport(projected, float64(opts.Width))
	breaks := stats.QuantileBreaks(sts, opts.Classes)

	statByHood := make(map[string]model.NeighborhoodStat, len(sts))
	for _, st := range sts {
		statByHood[st.NeighborhoodID] = st
	}

	var buf bytes.Buffer
	legendHeight := float64((opts.Classes + 1) * legendRow)
	totalHeight := vp.height + legendHeight + margin
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%.0f" viewBox="0 0 %d %.0f">`+"\n",
		opts.Width, totalHeight, opts.Width, totalHeight)
	fmt.Fprintf(&buf, `<rect width="100%%" height="100%%" fill="#f7f7f7"/>`+"\n")
	if opts.Title != "" {
		fmt.Fprintf(&buf, `<text x="%.0f" y="16" font-family="sans-serif" font-size="14" font-weight="bold">%s</text>`+"\n",
			margin, html.EscapeString(opts.Title))
	}

	for i := range hoods {
		fill := noDataFill
		title := hoods[i].Name
		if st, ok := statByHood[hoods[i].ID]; ok {
			fill = ylorrd[stats.ClassIndex(st.MedianPrice, breaks)]
			title = fmt.Sprintf("%s: %.0f", hoods[i].Name, st.MedianPrice)
		}
		fmt.Fprintf(&buf, `<path d="%s" fill="%s" stroke="%s" stroke-width="0.5" fill-rule="evenodd"><title>%s</title></path>`+"\n",
			pathData(projected[i], vp), fill, strokeColor, html.EscapeString(title))
	}

	writeLegend(&buf, breaks, opts.Classes, vp.height+margin)
	buf.WriteString("</svg>\n")

	zap.L().Info("choropleth rendered",
		zap.Int("neighborhoods", len(hoods)),
		zap.Int("classes", opts.Classes),
		zap.Int("width", opts.Width),
	)
	return buf.Bytes(), nil
}

// viewport maps Mercator coordinates onto the SVG canvas. SVG y grows
// downward, so north stays up via the flip in toCanvas.
type viewport struct {
	minX, maxY float64
	scale      float64
	height     float64
}

func fitViewport(hoods []*geom.MultiPolygon, width float64) viewport {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, mp := range hoods {
		flat := mp.FlatCoords()
		stride := mp.Stride()
		for i := 0; i+1 < len(flat); i += stride {
			minX = math.Min(minX, flat[i])
			maxX = math.Max(maxX, flat[i])
			minY = math.Min(minY, flat[i+1])
			maxY = math.Max(maxY, flat[i+1])
		}
	}

	spanX := maxX - minX
	spanY := maxY - minY
	if spanX <= 0 {
		spanX = 1
	}
	if spanY <= 0 {
		spanY = 1
	}
	scale := (width - 2*margin) / spanX
	return viewport{
		minX:   minX,
		maxY:   maxY,
		scale:  scale,
		height: spanY*scale + 2*margin,
	}
}

func (vp viewport) toCanvas(x, y float64) (float64, float64) {
	return (x-vp.minX)*vp.scale + margin, (vp.maxY-y)*vp.scale + margin
}

// pathData writes every ring of the multipolygon as one path; with
// fill-rule evenodd the interior rings render as holes.
func pathData(mp *geom.MultiPolygon, vp viewport) string {
	var b bytes.Buffer
	for p := 0; p < mp.NumPolygons(); p++ {
		poly := mp.Polygon(p)
		for r := 0; r < poly.NumLinearRings(); r++ {
			flat := poly.LinearRing(r).FlatCoords()
			stride := poly.Stride()
			for i := 0; i+1 < len(flat); i += stride {
				x, y := vp.toCanvas(flat[i], flat[i+1])
				if i == 0 {
					fmt.Fprintf(&b, "M%.1f %.1f", x, y)
				} else {
					fmt.Fprintf(&b, "L%.1f %.1f", x, y)
				}
			}
			b.WriteString("Z")
		}
	}
	return b.String()
}

func writeLegend(buf *bytes.Buffer, breaks []float64, classes int, top float64) {
	fmt.Fprintf(buf, `<text x="%.0f" y="%.0f" font-family="sans-serif" font-size="12" font-weight="bold">Median price</text>`+"\n",
		margin, top+12)
	for c := 0; c < classes; c++ {
		y := top + float64((c+1)*legendRow)
		fmt.Fprintf(buf, `<rect x="%.0f" y="%.0f" width="16" height="16" fill="%s" stroke="#666" stroke-width="0.5"/>`+"\n",
			margin, y, ylorrd[c])
		fmt.Fprintf(buf, `<text x="%.0f" y="%.0f" font-family="sans-serif" font-size="11">%s</text>`+"\n",
			margin+22, y+12, classLabel(c, classes, breaks))
	}
}

func classLabel(c, classes int, breaks []float64) string {
	if len(breaks) == 0 {
		return "no data"
	}
	switch {
	case c == 0:
		return fmt.Sprintf("< %.0f", breaks[0])
	case c == classes-1:
		return fmt.Sprintf(">= %.0f", breaks[len(breaks)-1])
	default:
		return fmt.Sprintf("%.0f to %.0f", breaks[c-1], breaks[c])
	}
}
