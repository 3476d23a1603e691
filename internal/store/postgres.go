package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/urbanlens/geoatlas/internal/db"
	"github.com/urbanlens/geoatlas/internal/geomio"
	"github.com/urbanlens/geoatlas/internal/model"
)

// PostgresStore implements Store on top of a pgx pool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres connects to PostgreSQL using the given DSN.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse dsn")
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS listings (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL DEFAULT '',
	neighbourhood TEXT NOT NULL DEFAULT '',
	city          TEXT NOT NULL DEFAULT '',
	state         TEXT NOT NULL DEFAULT '',
	zipcode       TEXT NOT NULL DEFAULT '',
	country       TEXT NOT NULL DEFAULT '',
	latitude      DOUBLE PRECISION NOT NULL,
	longitude     DOUBLE PRECISION NOT NULL,
	price         DOUBLE PRECISION NOT NULL,
	geom          BYTEA NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS neighborhoods (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	city       TEXT NOT NULL DEFAULT '',
	geom       BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS neighborhood_stats (
	id              TEXT PRIMARY KEY,
	neighborhood_id TEXT NOT NULL REFERENCES neighborhoods(id),
	name            TEXT NOT NULL,
	median_price    DOUBLE PRECISION NOT NULL,
	listing_count   INTEGER NOT NULL,
	filled          BOOLEAN NOT NULL DEFAULT FALSE,
	computed_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_listings_city ON listings(city);
CREATE INDEX IF NOT EXISTS idx_stats_neighborhood_id ON neighborhood_stats(neighborhood_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertListings(ctx context.Context, listings []model.Listing) (int, error) {
	now := time.Now().UTC()
	var n int
	for i := range listings {
		l := &listings[i]
		ewkb, err := geomio.EncodeEWKB(l.Geom)
		if err != nil {
			return n, eris.Wrapf(err, "postgres: encode listing %s", l.ID)
		}
		if _, err := s.pool.Exec(ctx, `
			INSERT INTO listings (id, name, neighbourhood, city, state, zipcode, country, latitude, longitude, price, geom, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				neighbourhood = EXCLUDED.neighbourhood,
				city = EXCLUDED.city,
				state = EXCLUDED.state,
				zipcode = EXCLUDED.zipcode,
				country = EXCLUDED.country,
				latitude = EXCLUDED.latitude,
				longitude = EXCLUDED.longitude,
				price = EXCLUDED.price,
				geom = EXCLUDED.geom`,
			l.ID, l.Name, l.Neighbourhood, l.City, l.State, l.Zipcode, l.Country,
			l.Latitude, l.Longitude, l.Price, ewkb, now,
		); err != nil {
			return n, eris.Wrapf(err, "postgres: upsert listing %s", l.ID)
		}
		n++
	}
	return n, nil
}

func (s *PostgresStore) UpsertNeighborhoods(ctx context.Context, hoods []model.Neighborhood) (int, error) {
	now := time.Now().UTC()
	var n int
	for i := range hoods {
		h := &hoods[i]
		ewkb, err := geomio.EncodeEWKB(h.Geom)
		if err != nil {
			return n, eris.Wrapf(err, "postgres: encode neighborhood %s", h.ID)
		}
		if _, err := s.pool.Exec(ctx, `
			INSERT INTO neighborhoods (id, name, city, geom, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				city = EXCLUDED.city,
				geom = EXCLUDED.geom`,
			h.ID, h.Name, h.City, ewkb, now,
		); err != nil {
			return n, eris.Wrapf(err, "postgres: upsert neighborhood %s", h.ID)
		}
		n++
	}
	return n, nil
}

func (s *PostgresStore) ListListings(ctx context.Context) ([]model.Listing, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, neighbourhood, city, state, zipcode, country, latitude, longitude, price, geom, created_at
		FROM listings ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list listings")
	}
	defer rows.Close()

	var listings []model.Listing
	for rows.Next() {
		var l model.Listing
		var ewkb []byte
		if err := rows.Scan(
			&l.ID, &l.Name, &l.Neighbourhood, &l.City, &l.State, &l.Zipcode, &l.Country,
			&l.Latitude, &l.Longitude, &l.Price, &ewkb, &l.CreatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan listing")
		}
		if l.Geom, err = geomio.DecodeEWKBPoint(ewkb); err != nil {
			return nil, eris.Wrapf(err, "postgres: decode listing %s", l.ID)
		}
		listings = append(listings, l)
	}
	return listings, eris.Wrap(rows.Err(), "postgres: iterate listings")
}

func (s *PostgresStore) ListNeighborhoods(ctx context.Context) ([]model.Neighborhood, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, city, geom, created_at FROM neighborhoods ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list neighborhoods")
	}
	defer rows.Close()

	var hoods []model.Neighborhood
	for rows.Next() {
		var h model.Neighborhood
		var ewkb []byte
		if err := rows.Scan(&h.ID, &h.Name, &h.City, &ewkb, &h.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan neighborhood")
		}
		if h.Geom, err = geomio.DecodeEWKBMultiPolygon(ewkb); err != nil {
			return nil, eris.Wrapf(err, "postgres: decode neighborhood %s", h.ID)
		}
		hoods = append(hoods, h)
	}
	return hoods, eris.Wrap(rows.Err(), "postgres: iterate neighborhoods")
}

var statColumns = []string{"id", "neighborhood_id", "name", "median_price", "listing_count", "filled", "computed_at"}

func (s *PostgresStore) ReplaceStats(ctx context.Context, stats []model.NeighborhoodStat) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM neighborhood_stats`); err != nil {
		return eris.Wrap(err, "postgres: clear stats")
	}

	rows := make([][]any, 0, len(stats))
	for i := range stats {
		st := &stats[i]
		rows = append(rows, []any{
			st.ID, st.NeighborhoodID, st.Name, st.MedianPrice, st.ListingCount, st.Filled, st.ComputedAt,
		})
	}
	_, err := db.CopyFrom(ctx, s.pool, "neighborhood_stats", statColumns, rows)
	return err
}

func (s *PostgresStore) ListStats(ctx context.Context) ([]model.NeighborhoodStat, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, neighborhood_id, name, median_price, listing_count, filled, computed_at
		FROM neighborhood_stats ORDER BY neighborhood_id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list stats")
	}
	defer rows.Close()

	var stats []model.NeighborhoodStat
	for rows.Next() {
		var st model.NeighborhoodStat
		if err := rows.Scan(
			&st.ID, &st.NeighborhoodID, &st.Name, &st.MedianPrice, &st.ListingCount, &st.Filled, &st.ComputedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan stat")
		}
		stats = append(stats, st)
	}
	return stats, eris.Wrap(rows.Err(), "postgres: iterate stats")
}

func (s *PostgresStore) Counts(ctx context.Context) (*Counts, error) {
	var c Counts
	row := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM listings),
			(SELECT COUNT(*) FROM neighborhoods),
			(SELECT COUNT(*) FROM neighborhood_stats)`)
	if err := row.Scan(&c.Listings, &c.Neighborhoods, &c.Stats); err != nil {
		return nil, eris.Wrap(err, "postgres: count rows")
	}
	return &c, nil
}
