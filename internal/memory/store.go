package memory

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"jack/internal/logging"
)

// Store is the long-term memory tier: a durable namespaced key-value
// store backed by SQLite. Keys are namespaced strings ("user.name");
// values are typed at write time (string/number/boolean/null) and
// round-trip exactly through storage via a type tag column.
//
// The store is global across all clients - this is intentional
// long-term memory, never touched by per-client cleanup. Concurrent
// writers are serialized by a store-level mutex; semantics are last
// write wins, no transaction boundary.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// Value type tags persisted alongside serialized values.
const (
	typeString  = "string"
	typeNumber  = "number"
	typeBoolean = "boolean"
	typeNull    = "null"
)

// NewStore opens (creating if needed) the SQLite database at path.
func NewStore(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewStore")
	defer timer.Stop()

	logging.Store("Opening long-term memory store at %s", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("Long-term memory store ready")
	return s, nil
}

// initialize creates the required table.
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memory (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		type TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_memory_updated ON memory(updated_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create memory table: %w", err)
	}
	return nil
}

// Set stores a value under a namespaced key. Accepted value kinds are
// string, bool, nil, and any numeric type; anything else is rejected.
func (s *Store) Set(key string, value any) error {
	serialized, tag, err := serialize(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO memory (key, value, type, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			type = excluded.type,
			updated_at = CURRENT_TIMESTAMP`,
		key, serialized, tag)
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	logging.StoreDebug("memory.set %s (%s)", key, tag)
	return nil
}

// Get returns the value stored under key, or found=false.
func (s *Store) Get(key string) (value any, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var serialized, tag string
	row := s.db.QueryRow("SELECT value, type FROM memory WHERE key = ?", key)
	if err := row.Scan(&serialized, &tag); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	v, err := deserialize(serialized, tag)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM memory WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Namespace returns all entries whose key matches prefix.* as a map
// from full key to value.
func (s *Store) Namespace(prefix string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		"SELECT key, value, type FROM memory WHERE key LIKE ? ESCAPE '\\'",
		escapeLike(prefix)+".%")
	if err != nil {
		return nil, fmt.Errorf("failed to query namespace %s: %w", prefix, err)
	}
	defer rows.Close()

	result := make(map[string]any)
	for rows.Next() {
		var key, serialized, tag string
		if err := rows.Scan(&key, &serialized, &tag); err != nil {
			return nil, err
		}
		v, err := deserialize(serialized, tag)
		if err != nil {
			return nil, err
		}
		result[key] = v
	}
	return result, rows.Err()
}

// Keys returns every stored key, sorted.
func (s *Store) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT key FROM memory")
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, rows.Err()
}

// Clear removes every entry. Explicit wipe only; nothing in the
// kernel calls this on disconnect.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM memory"); err != nil {
		return fmt.Errorf("failed to clear memory: %w", err)
	}
	logging.Store("Long-term memory cleared")
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// serialize converts a value to its stored text form plus a type tag.
func serialize(value any) (string, string, error) {
	switch v := value.(type) {
	case nil:
		return "", typeNull, nil
	case string:
		return v, typeString, nil
	case bool:
		return strconv.FormatBool(v), typeBoolean, nil
	case float64:
		return formatNumber(v), typeNumber, nil
	case float32:
		return formatNumber(float64(v)), typeNumber, nil
	case int:
		return formatNumber(float64(v)), typeNumber, nil
	case int32:
		return formatNumber(float64(v)), typeNumber, nil
	case int64:
		return formatNumber(float64(v)), typeNumber, nil
	default:
		return "", "", fmt.Errorf("unsupported memory value type %T", value)
	}
}

// formatNumber keeps integral values free of a trailing ".0" so they
// survive the round trip byte-identical.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// deserialize restores the typed value from its stored form.
func deserialize(serialized, tag string) (any, error) {
	switch tag {
	case typeNull:
		return nil, nil
	case typeString:
		return serialized, nil
	case typeBoolean:
		return serialized == "true", nil
	case typeNumber:
		f, err := strconv.ParseFloat(serialized, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt number value %q: %w", serialized, err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unknown memory value type tag %q", tag)
	}
}

// escapeLike escapes LIKE wildcards in a key prefix.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
