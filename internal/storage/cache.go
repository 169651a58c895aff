package storage

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/blake2b"

	"axe/internal/axiom"
)

// hotCacheSize bounds the in-memory layer in cached files, not bytes.
// Re-runs over a large tree touch each file once, so recency is the
// right eviction policy.
const hotCacheSize = 1024

// FileRecord is one file's cached extraction output.
type FileRecord struct {
	Path   string
	Hash   string
	Axioms []axiom.Axiom
	Calls  []axiom.FunctionCall
}

// Cache is the incremental extraction cache: a SQLite store of per-file
// results keyed by content hash, fronted by an in-memory LRU.
type Cache struct {
	db  *DB
	hot *lru.Cache[string, *FileRecord]
}

// NewCache creates a cache over an open database.
func NewCache(db *DB) (*Cache, error) {
	hot, err := lru.New[string, *FileRecord](hotCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create hot cache: %w", err)
	}
	return &Cache{db: db, hot: hot}, nil
}

// ContentHash returns the hex blake2b-256 digest of file content.
func ContentHash(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hotKey(path, hash string) string {
	return path + "\x00" + hash
}

// BeginRun records a new extraction run.
func (c *Cache) BeginRun(runID, toolVersion string) error {
	_, err := c.db.Exec(`
		INSERT INTO runs (run_id, started_at, tool_version)
		VALUES (?, ?, ?)
	`, runID, time.Now().UTC().Format(time.RFC3339), toolVersion)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// FinishRun updates the run row with final counts.
func (c *Cache) FinishRun(runID string, filesProcessed, axiomsExtracted int) error {
	_, err := c.db.Exec(`
		UPDATE runs SET files_processed = ?, axioms_extracted = ?
		WHERE run_id = ?
	`, filesProcessed, axiomsExtracted, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// Lookup returns the cached extraction for a file when its content hash
// still matches. A changed hash is a miss, not an error.
func (c *Cache) Lookup(path, hash string) (*FileRecord, bool, error) {
	if rec, ok := c.hot.Get(hotKey(path, hash)); ok {
		return rec, true, nil
	}

	var storedHash string
	err := c.db.QueryRow(`
		SELECT content_hash FROM files WHERE path = ?
	`, path).Scan(&storedHash)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup failed: %w", err)
	}
	if storedHash != hash {
		return nil, false, nil
	}

	rec := &FileRecord{Path: path, Hash: hash}
	if rec.Axioms, err = c.loadAxioms(path); err != nil {
		return nil, false, err
	}
	if rec.Calls, err = c.loadCalls(path); err != nil {
		return nil, false, err
	}

	c.hot.Add(hotKey(path, hash), rec)
	return rec, true, nil
}

func (c *Cache) loadAxioms(path string) ([]axiom.Axiom, error) {
	rows, err := c.db.Query(`
		SELECT record_json FROM axioms WHERE file_path = ? ORDER BY rowid
	`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load cached axioms: %w", err)
	}
	defer rows.Close()

	var axioms []axiom.Axiom
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var ax axiom.Axiom
		if err := json.Unmarshal([]byte(raw), &ax); err != nil {
			return nil, fmt.Errorf("corrupt cached axiom record: %w", err)
		}
		axioms = append(axioms, ax)
	}
	return axioms, rows.Err()
}

func (c *Cache) loadCalls(path string) ([]axiom.FunctionCall, error) {
	rows, err := c.db.Query(`
		SELECT record_json FROM calls WHERE file_path = ? ORDER BY rowid
	`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load cached calls: %w", err)
	}
	defer rows.Close()

	var calls []axiom.FunctionCall
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var call axiom.FunctionCall
		if err := json.Unmarshal([]byte(raw), &call); err != nil {
			return nil, fmt.Errorf("corrupt cached call record: %w", err)
		}
		calls = append(calls, call)
	}
	return calls, rows.Err()
}

// Store replaces a file's cached extraction. The file-row replacement
// cascades away stale axiom and call rows inside the same transaction.
func (c *Cache) Store(runID string, rec FileRecord) error {
	err := c.db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT OR REPLACE INTO files (path, content_hash, run_id, extracted_at, axiom_count)
			VALUES (?, ?, ?, ?, ?)
		`, rec.Path, rec.Hash, runID, time.Now().UTC().Format(time.RFC3339), len(rec.Axioms))
		if err != nil {
			return fmt.Errorf("failed to store file row: %w", err)
		}

		for _, ax := range rec.Axioms {
			raw, err := json.Marshal(ax)
			if err != nil {
				return err
			}
			_, err = tx.Exec(`
				INSERT INTO axioms (axiom_id, file_path, function, header, axiom_type,
					source_type, confidence, line, record_json)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, ax.ID, rec.Path, ax.Function, ax.Header, string(ax.AxiomType),
				string(ax.SourceType), ax.Confidence, ax.Line, string(raw))
			if err != nil {
				return fmt.Errorf("failed to store axiom %s: %w", ax.ID, err)
			}
		}

		for _, call := range rec.Calls {
			raw, err := json.Marshal(call)
			if err != nil {
				return err
			}
			_, err = tx.Exec(`
				INSERT INTO calls (file_path, caller, callee, callee_signature, line,
					is_virtual, record_json)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, rec.Path, call.Caller, call.Callee, call.CalleeSignature, call.Line,
				boolToInt(call.IsVirtual), string(raw))
			if err != nil {
				return fmt.Errorf("failed to store call edge: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	stored := rec
	c.hot.Add(hotKey(rec.Path, rec.Hash), &stored)
	return nil
}

// Invalidate drops a file from both cache layers.
func (c *Cache) Invalidate(path string) error {
	for _, key := range c.hot.Keys() {
		if rec, ok := c.hot.Peek(key); ok && rec.Path == path {
			c.hot.Remove(key)
		}
	}
	_, err := c.db.Exec("DELETE FROM files WHERE path = ?", path)
	if err != nil {
		return fmt.Errorf("failed to invalidate %s: %w", path, err)
	}
	return nil
}

// Clear empties the cache entirely.
func (c *Cache) Clear() error {
	c.hot.Purge()
	return c.db.WithTx(func(tx *sql.Tx) error {
		for _, table := range []string{"files", "runs"} {
			if _, err := tx.Exec("DELETE FROM " + table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// Stats summarizes cache contents for `axe cache status`.
type Stats struct {
	Files  int
	Axioms int
	Calls  int
	Runs   int
}

// Stats counts cached rows.
func (c *Cache) Stats() (Stats, error) {
	var s Stats
	counts := []struct {
		query string
		dst   *int
	}{
		{"SELECT COUNT(*) FROM files", &s.Files},
		{"SELECT COUNT(*) FROM axioms", &s.Axioms},
		{"SELECT COUNT(*) FROM calls", &s.Calls},
		{"SELECT COUNT(*) FROM runs", &s.Runs},
	}
	for _, cnt := range counts {
		if err := c.db.QueryRow(cnt.query).Scan(cnt.dst); err != nil {
			return Stats{}, fmt.Errorf("failed to count cache rows: %w", err)
		}
	}
	return s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
