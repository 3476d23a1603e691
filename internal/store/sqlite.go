package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/urbanlens/geoatlas/internal/geomio"
	"github.com/urbanlens/geoatlas/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS listings (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL DEFAULT '',
	neighbourhood TEXT NOT NULL DEFAULT '',
	city          TEXT NOT NULL DEFAULT '',
	state         TEXT NOT NULL DEFAULT '',
	zipcode       TEXT NOT NULL DEFAULT '',
	country       TEXT NOT NULL DEFAULT '',
	latitude      REAL NOT NULL,
	longitude     REAL NOT NULL,
	price         REAL NOT NULL,
	geom          BLOB NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS neighborhoods (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	city       TEXT NOT NULL DEFAULT '',
	geom       BLOB NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS neighborhood_stats (
	id              TEXT PRIMARY KEY,
	neighborhood_id TEXT NOT NULL REFERENCES neighborhoods(id),
	name            TEXT NOT NULL,
	median_price    REAL NOT NULL,
	listing_count   INTEGER NOT NULL,
	filled          INTEGER NOT NULL DEFAULT 0,
	computed_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_listings_city ON listings(city);
CREATE INDEX IF NOT EXISTS idx_stats_neighborhood_id ON neighborhood_stats(neighborhood_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertListings(ctx context.Context, listings []model.Listing) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert listings")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO listings (id, name, neighbourhood, city, state, zipcode, country, latitude, longitude, price, geom, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			neighbourhood = excluded.neighbourhood,
			city = excluded.city,
			state = excluded.state,
			zipcode = excluded.zipcode,
			country = excluded.country,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			price = excluded.price,
			geom = excluded.geom`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert listings")
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	var n int
	for i := range listings {
		l := &listings[i]
		ewkb, err := geomio.EncodeEWKB(l.Geom)
		if err != nil {
			return n, eris.Wrapf(err, "sqlite: encode listing %s", l.ID)
		}
		if _, err := stmt.ExecContext(ctx,
			l.ID, l.Name, l.Neighbourhood, l.City, l.State, l.Zipcode, l.Country,
			l.Latitude, l.Longitude, l.Price, ewkb, now,
		); err != nil {
			return n, eris.Wrapf(err, "sqlite: upsert listing %s", l.ID)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert listings")
	}
	return n, nil
}

func (s *SQLiteStore) UpsertNeighborhoods(ctx context.Context, hoods []model.Neighborhood) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert neighborhoods")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO neighborhoods (id, name, city, geom, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			city = excluded.city,
			geom = excluded.geom`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert neighborhoods")
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	var n int
	for i := range hoods {
		h := &hoods[i]
		ewkb, err := geomio.EncodeEWKB(h.Geom)
		if err != nil {
			return n, eris.Wrapf(err, "sqlite: encode neighborhood %s", h.ID)
		}
		if _, err := stmt.ExecContext(ctx, h.ID, h.Name, h.City, ewkb, now); err != nil {
			return n, eris.Wrapf(err, "sqlite: upsert neighborhood %s", h.ID)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert neighborhoods")
	}
	return n, nil
}

func (s *SQLiteStore) ListListings(ctx context.Context) ([]model.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, neighbourhood, city, state, zipcode, country, latitude, longitude, price, geom, created_at
		FROM listings ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list listings")
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
			return nil, eris.Wrap(err, "sqlite: scan listing")
		}
		if l.Geom, err = geomio.DecodeEWKBPoint(ewkb); err != nil {
			return nil, eris.Wrapf(err, "sqlite: decode listing %s", l.ID)
		}
		listings = append(listings, l)
	}
	return listings, eris.Wrap(rows.Err(), "sqlite: iterate listings")
}

func (s *SQLiteStore) ListNeighborhoods(ctx context.Context) ([]model.Neighborhood, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, city, geom, created_at FROM neighborhoods ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list neighborhoods")
	}
	defer rows.Close()

	var hoods []model.Neighborhood
	for rows.Next() {
		var h model.Neighborhood
		var ewkb []byte
		if err := rows.Scan(&h.ID, &h.Name, &h.City, &ewkb, &h.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan neighborhood")
		}
		if h.Geom, err = geomio.DecodeEWKBMultiPolygon(ewkb); err != nil {
			return nil, eris.Wrapf(err, "sqlite: decode neighborhood %s", h.ID)
		}
		hoods = append(hoods, h)
	}
	return hoods, eris.Wrap(rows.Err(), "sqlite: iterate neighborhoods")
}

func (s *SQLiteStore) ReplaceStats(ctx context.Context, stats []model.NeighborhoodStat) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace stats")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM neighborhood_stats`); err != nil {
		return eris.Wrap(err, "sqlite: clear stats")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO neighborhood_stats (id, neighborhood_id, name, median_price, listing_count, filled, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert stats")
	}
	defer func() { _ = stmt.Close() }()

	for i := range stats {
		st := &stats[i]
		if _, err := stmt.ExecContext(ctx,
			st.ID, st.NeighborhoodID, st.Name, st.MedianPrice, st.ListingCount, st.Filled, st.ComputedAt,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert stat for %s", st.NeighborhoodID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit replace stats")
}

func (s *SQLiteStore) ListStats(ctx context.Context) ([]model.NeighborhoodStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, neighborhood_id, name, median_price, listing_count, filled, computed_at
		FROM neighborhood_stats ORDER BY neighborhood_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list stats")
	}
	defer rows.Close()

	var stats []model.NeighborhoodStat
	for rows.Next() {
		var st model.NeighborhoodStat
		if err := rows.Scan(
			&st.ID, &st.NeighborhoodID, &st.Name, &st.MedianPrice, &st.ListingCount, &st.Filled, &st.ComputedAt,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan stat")
		}
		stats = append(stats, st)
	}
	return stats, eris.Wrap(rows.Err(), "sqlite: iterate stats")
}

func (s *SQLiteStore) Counts(ctx context.Context) (*Counts, error) {
	var c Counts
	for _, q := range []struct {
		sql  string
		dest *int
	}{
		{`SELECT COUNT(*) FROM listings`, &c.Listings},
		{`SELECT COUNT(*) FROM neighborhoods`, &c.Neighborhoods},
		{`SELECT COUNT(*) FROM neighborhood_stats`, &c.Stats},
	} {
		if err := s.db.QueryRowContext(ctx, q.sql).Scan(q.dest); err != nil {
			return nil, eris.Wrap(err, "sqlite: count rows")
		}
	}
	return &c, nil
}
