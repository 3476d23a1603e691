package ingest

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/urbanlens/geoatlas/internal/fetch"
	"github.com/urbanlens/geoatlas/internal/geomio"
	"github.com/urbanlens/geoatlas/internal/model"
	"github.com/urbanlens/geoatlas/internal/store"
)

// Options configures one ingest run.
type Options struct {
	ListingsPath      string
	NeighborhoodsPath string
	OutDir            string // destination for the GeoJSON package files
}

// Result summarizes an ingest run.
type Result struct {
	Listings             int    `json:"listings"`
	Neighborhoods        int    `json:"neighborhoods"`
	DroppedListings      int    `json:"dropped_listings"`
	DroppedNeighborhoods int    `json:"dropped_neighborhoods"`
	ListingsFile         string `json:"listings_file"`
	NeighborhoodsFile    string `json:"neighborhoods_file"`
}

// Run parses both inputs in parallel, loads the records into the store, and
// writes the two GeoJSON package files. Inputs may be local paths or
// http(s) URLs.
func Run(ctx context.Context, st store.Store, opts Options) (*Result, error) {
	listingsPath, cleanupListings, err := resolveInput(ctx, opts.ListingsPath)
	if err != nil {
		return nil, err
	}
	defer cleanupListings()

	hoodsPath, cleanupHoods, err := resolveInput(ctx, opts.NeighborhoodsPath)
	if err != nil {
		return nil, err
	}
	defer cleanupHoods()

	var (
		listings        []model.Listing
		hoods           []model.Neighborhood
		droppedListings int
		droppedHoods    int
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		listings, droppedListings, err = ReadListings(listingsPath)
		return err
	})
	g.Go(func() error {
		var err error
		hoods, droppedHoods, err = ReadNeighborhoods(hoodsPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(hoods) == 0 {
		return nil, eris.Errorf("ingest: no usable neighborhoods in %s", opts.NeighborhoodsPath)
	}

	if _, err := st.UpsertListings(ctx, listings); err != nil {
		return nil, eris.Wrap(err, "ingest: store listings")
	}
	if _, err := st.UpsertNeighborhoods(ctx, hoods); err != nil {
		return nil, eris.Wrap(err, "ingest: store neighborhoods")
	}

	res := &Result{
		Listings:             len(listings),
		Neighborhoods:        len(hoods),
		DroppedListings:      droppedListings,
		DroppedNeighborhoods: droppedHoods,
		ListingsFile:         filepath.Join(opts.OutDir, "listings.geojson"),
		NeighborhoodsFile:    filepath.Join(opts.OutDir, "neighborhoods.geojson"),
	}

	if err := geomio.WriteGeoJSON(res.ListingsFile, geomio.ListingsFeatureCollection(listings)); err != nil {
		return nil, err
	}
	if err := geomio.WriteGeoJSON(res.NeighborhoodsFile, geomio.NeighborhoodsFeatureCollection(hoods, nil)); err != nil {
		return nil, err
	}

	logIngestComplete(res)
	return res, nil
}

// resolveInput downloads remote inputs to a temp file so the CSV readers can
// treat every source as a local path. The URL's extension is kept so gzip
// detection keeps working.
func resolveInput(ctx context.Context, src string) (string, func(), error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return src, func() {}, nil
	}

	u, err := url.Parse(src)
	if err != nil {
		return "", nil, eris.Wrapf(err, "ingest: parse input url %s", src)
	}

	tmp, err := os.CreateTemp("", "geoatlas-*"+path.Ext(u.Path))
	if err != nil {
		return "", nil, eris.Wrap(err, "ingest: create temp input")
	}
	_ = tmp.Close()

	cleanup := func() { _ = os.Remove(tmp.Name()) }

	c := fetch.New(fetch.Options{})
	n, err := c.DownloadToFile(ctx, src, tmp.Name())
	if err != nil {
		cleanup()
		return "", nil, err
	}
	zap.L().Info("downloaded input",
		zap.String("url", src),
		zap.Int64("bytes", n),
	)
	return tmp.Name(), cleanup, nil
}

func logIngestComplete(res *Result) {
	zap.L().Info("ingest complete",
		zap.Int("listings", res.Listings),
		zap.Int("neighborhoods", res.Neighborhoods),
		zap.Int("dropped_listings", res.DroppedListings),
		zap.Int("dropped_neighborhoods", res.DroppedNeighborhoods),
	)
}
