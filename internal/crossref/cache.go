package crossref

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Cache is a SQLite-backed store of works query results, keyed by the
// query string. It lets repeated runs over the same database skip
// round-trips to Crossref.
type Cache struct {
	db *sql.DB
}

// OpenCache opens or creates a query cache at the given path.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache.
func (c *Cache) Close() error {
	return c.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS works_queries (
			query TEXT PRIMARY KEY,
			items_json TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		);
	`
	_, err := db.Exec(schema)
	return err
}

// Get returns the cached works for a query, with ok reporting whether
// the query was present. An empty cached result list is a valid hit.
func (c *Cache) Get(query string) (works []Work, ok bool, err error) {
	var itemsJSON string
	row := c.db.QueryRow(`SELECT items_json FROM works_queries WHERE query = ?`, query)
	if err := row.Scan(&itemsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if err := json.Unmarshal([]byte(itemsJSON), &works); err != nil {
		return nil, false, fmt.Errorf("decoding cached works: %w", err)
	}
	return works, true, nil
}

// Put stores the works returned for a query, replacing any previous
// result.
func (c *Cache) Put(query string, works []Work) error {
	if works == nil {
		works = []Work{}
	}
	itemsJSON, err := json.Marshal(works)
	if err != nil {
		return fmt.Errorf("encoding works: %w", err)
	}

	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO works_queries (query, items_json, fetched_at) VALUES (?, ?, ?)`,
		query, string(itemsJSON), time.Now().Unix(),
	)
	return err
}
