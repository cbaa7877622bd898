// Package index keeps a local SQLite copy of the catalog with every path
// already resolved, so ROMs can be found by name as well as by hash.
package index

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/JohnDeved/rahash/internal/catalog"
	"github.com/JohnDeved/rahash/internal/resolver"
)

// DB wraps the SQLite database for the local index.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates the SQLite database at the given path.
func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS buckets (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS roms (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		bucket_id TEXT NOT NULL REFERENCES buckets(id),
		hash TEXT NOT NULL,
		path TEXT NOT NULL,
		name TEXT NOT NULL,
		platform TEXT NOT NULL,
		url TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_roms_hash ON roms(hash);
	CREATE INDEX IF NOT EXISTS idx_roms_platform ON roms(platform);

	CREATE VIRTUAL TABLE IF NOT EXISTS roms_fts USING fts5(
		name,
		path,
		content=roms,
		content_rowid=id,
		tokenize='unicode61 remove_diacritics 2'
	);

	CREATE TRIGGER IF NOT EXISTS roms_ai AFTER INSERT ON roms BEGIN
		INSERT INTO roms_fts(rowid, name, path) VALUES (new.id, new.name, new.path);
	END;

	CREATE TRIGGER IF NOT EXISTS roms_ad AFTER DELETE ON roms BEGIN
		INSERT INTO roms_fts(roms_fts, rowid, name, path) VALUES('delete', old.id, old.name, old.path);
	END;

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Rom is one indexed catalog entry.
type Rom struct {
	ID       int64  `json:"-"`
	BucketID string `json:"bucket_id"`
	Hash     string `json:"hash"`
	Path     string `json:"path"`
	Name     string `json:"name"`
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// sanitizeFTS5Query escapes FTS5 special characters so user input
// does not cause syntax errors. Each word is wrapped in double quotes,
// and embedded double quotes are doubled (FTS5 escaping).
func sanitizeFTS5Query(query string) string {
	strip := strings.NewReplacer("(", "", ")", "", "[", "", "]", "", "{", "", "}", "", "^", "")

	// `mario (usa)` becomes `"mario" "usa"`, which FTS5 treats as AND.
	var quoted []string
	for _, w := range strings.Fields(query) {
		w = strip.Replace(strings.ReplaceAll(w, `"`, `""`))
		if w == "" {
			continue
		}
		quoted = append(quoted, `"`+w+`"`)
	}
	return strings.Join(quoted, " ")
}

const importedAtKey = "imported_at"

// ImportCatalog replaces the index contents with every entry of cat,
// resolved through r. It returns the number of rows written.
func (d *DB) ImportCatalog(cat *catalog.Catalog, r *resolver.Resolver) (int, error) {
	if r == nil {
		r = resolver.New(nil)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, q := range []string{"DELETE FROM roms", "DELETE FROM buckets"} {
		if _, err := tx.Exec(q); err != nil {
			return 0, fmt.Errorf("clearing index: %w", err)
		}
	}

	bucketStmt, err := tx.Prepare(`INSERT INTO buckets (id, position) VALUES (?, ?)`)
	if err != nil {
		return 0, err
	}
	defer bucketStmt.Close()
	for i, b := range cat.Buckets {
		if _, err := bucketStmt.Exec(b.ID, i); err != nil {
			return 0, fmt.Errorf("inserting bucket %s: %w", b.ID, err)
		}
	}

	romStmt, err := tx.Prepare(
		`INSERT INTO roms (bucket_id, hash, path, name, platform, url)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer romStmt.Close()

	// Entries without a path are stored too, so that LookupHash sees the same
	// first occurrence as the in-memory catalog. They are not counted.
	n := 0
	err = cat.Each(func(bucketID, hash, raw string) error {
		if raw == "" {
			if _, err := romStmt.Exec(bucketID, hash, "", "", "", ""); err != nil {
				return fmt.Errorf("inserting %s: %w", hash, err)
			}
			return nil
		}
		res := r.Resolve(raw)
		_, err := romStmt.Exec(bucketID, hash, raw, path.Base(resolver.Normalize(raw)), res.Bucket.String(), res.URL)
		if err != nil {
			return fmt.Errorf("inserting %s: %w", hash, err)
		}
		n++
		return nil
	})
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		importedAtKey, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	log.Info().Int("roms", n).Int("buckets", len(cat.Buckets)).Msg("catalog indexed")
	return n, nil
}

const romColumns = `r.id, r.bucket_id, r.hash, r.path, r.name, r.platform, r.url`

func scanRoms(rows *sql.Rows) ([]Rom, error) {
	defer rows.Close()
	var out []Rom
	for rows.Next() {
		var r Rom
		if err := rows.Scan(&r.ID, &r.BucketID, &r.Hash, &r.Path, &r.Name, &r.Platform, &r.URL); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LookupHash returns the first indexed row for hash, in catalog order. A
// first row without a path is a miss, as it is for catalog.FindEntry.
func (d *DB) LookupHash(hash string) (Rom, error) {
	h := strings.ToUpper(strings.TrimSpace(hash))
	row := d.db.QueryRow(`
		SELECT `+romColumns+`
		FROM roms r
		JOIN buckets b ON b.id = r.bucket_id
		WHERE r.hash = ?
		ORDER BY b.position, r.id
		LIMIT 1
	`, h)

	var r Rom
	err := row.Scan(&r.ID, &r.BucketID, &r.Hash, &r.Path, &r.Name, &r.Platform, &r.URL)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && r.Path == "") {
		return Rom{}, fmt.Errorf("%w: %q", catalog.ErrHashNotFound, hash)
	}
	return r, err
}

// Search performs a full-text search on ROM names and paths.
func (d *DB) Search(query string, limit int) ([]Rom, error) {
	return d.SearchPlatform(query, "", limit)
}

// SearchPlatform is Search restricted to one platform bucket name, such as
// "SNES" or "PS2_A_M". An empty platform searches everything.
func (d *DB) SearchPlatform(query, platform string, limit int) ([]Rom, error) {
	if limit <= 0 {
		limit = 50
	}

	sanitized := sanitizeFTS5Query(query)
	if sanitized == "" {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT `+romColumns+`
		FROM roms_fts fts
		JOIN roms r ON r.id = fts.rowid
		WHERE roms_fts MATCH ?
		  AND (? = '' OR r.platform = ?)
		ORDER BY rank
		LIMIT ?
	`, sanitized, platform, strings.ToUpper(platform), limit)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	return scanRoms(rows)
}

// Stats returns index statistics.
type Stats struct {
	Buckets    int            `json:"buckets"`
	Roms       int            `json:"roms"`
	Platforms  map[string]int `json:"platforms"`
	ImportedAt time.Time      `json:"imported_at"`
}

// GetStats returns statistics about the index.
func (d *DB) GetStats() (Stats, error) {
	s := Stats{Platforms: map[string]int{}}
	if err := d.db.QueryRow("SELECT COUNT(*) FROM buckets").Scan(&s.Buckets); err != nil {
		return s, err
	}
	if err := d.db.QueryRow("SELECT COUNT(*) FROM roms WHERE path != ''").Scan(&s.Roms); err != nil {
		return s, err
	}

	rows, err := d.db.Query("SELECT platform, COUNT(*) FROM roms WHERE path != '' GROUP BY platform")
	if err != nil {
		return s, err
	}
	defer rows.Close()
	for rows.Next() {
		var p string
		var n int
		if err := rows.Scan(&p, &n); err != nil {
			return s, err
		}
		s.Platforms[p] = n
	}
	if err := rows.Err(); err != nil {
		return s, err
	}

	at, err := d.importedAt()
	if err != nil {
		return s, err
	}
	s.ImportedAt = at
	return s, nil
}

func (d *DB) importedAt() (time.Time, error) {
	var v string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = ?", importedAtKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, v)
}

// IsStale reports whether the index was never imported or was imported more
// than staleDays days ago.
func (d *DB) IsStale(staleDays int) (bool, error) {
	at, err := d.importedAt()
	if err != nil {
		return true, err
	}
	if at.IsZero() {
		return true, nil
	}
	return time.Since(at) > time.Duration(staleDays)*24*time.Hour, nil
}
