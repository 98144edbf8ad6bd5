package store

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// RemoteCache is an optional secondary index, outside the node's
// critical path: the primary block-index store (BlockIndex's fixed
// binary format) is authoritative, and a RemoteCache exists only to let
// external tooling query indexed blocks without reading the node's
// datadir directly. Writes are best-effort: Store.Put calls Put
// synchronously after updating its own maps, and Put reports no error, so
// a failing cache never fails block acceptance, though a slow one delays it.
type RemoteCache interface {
	Put(idx BlockIndex)
	Close() error
}

// PostgresCache mirrors accepted blocks into a Postgres table, following
// the teacher's database.DB connection style (database/sql over
// lib/pq, sslmode=disable for local/dev use).
type PostgresCache struct {
	conn *sql.DB
}

// PostgresCacheConfig names the connection parameters for PostgresCache,
// mirroring the teacher's database.Config field set.
type PostgresCacheConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// NewPostgresCache opens a connection and ensures the block_index_cache
// table exists.
func NewPostgresCache(cfg PostgresCacheConfig) (*PostgresCache, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName,
	)
	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres cache: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("store: ping postgres cache: %w", err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS block_index_cache (
	hash        BYTEA PRIMARY KEY,
	prev_block  BYTEA NOT NULL,
	merkle_root BYTEA NOT NULL,
	timestamp   INTEGER NOT NULL,
	target      BIGINT NOT NULL,
	nonce       BIGINT NOT NULL,
	version     INTEGER NOT NULL,
	height      INTEGER NOT NULL
)`
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: create block_index_cache table: %w", err)
	}
	return &PostgresCache{conn: conn}, nil
}

// Put upserts idx into the cache. Errors are swallowed by design — see
// RemoteCache's doc comment; PutErr is the variant that returns them.
func (c *PostgresCache) Put(idx BlockIndex) {
	_, _ = c.conn.Exec(`
		INSERT INTO block_index_cache (hash, prev_block, merkle_root, timestamp, target, nonce, version, height)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (hash) DO UPDATE SET height = EXCLUDED.height`,
		idx.Hash[:], idx.PrevBlock[:], idx.MerkleRoot[:], idx.Timestamp, idx.Target, idx.Nonce, idx.Version, idx.Height)
}

// PutErr is Put's error-returning counterpart, for callers that want to
// observe and log write-behind failures without letting them affect
// block acceptance.
func (c *PostgresCache) PutErr(idx BlockIndex) error {
	_, err := c.conn.Exec(`
		INSERT INTO block_index_cache (hash, prev_block, merkle_root, timestamp, target, nonce, version, height)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (hash) DO UPDATE SET height = EXCLUDED.height`,
		idx.Hash[:], idx.PrevBlock[:], idx.MerkleRoot[:], idx.Timestamp, idx.Target, idx.Nonce, idx.Version, idx.Height)
	return err
}

// Close closes the underlying connection.
func (c *PostgresCache) Close() error { return c.conn.Close() }
