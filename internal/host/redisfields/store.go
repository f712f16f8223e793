// Package redisfields implements host.FieldLoader over Valkey/Redis via
// rueidis, adapting the teacher SDK's internal/db/redis hash store (HGETALL
// against a document's hash key) into the query pipeline's Loader RP
// contract.
package redisfields

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/kvsearch/internal/host"
)

// Config holds connection parameters for the field-loading store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	// KeyPrefix is prepended to a document's key pointer to build the hash
	// key holding its field values, e.g. "kvsearch:" + dmd.KeyPtr.
	KeyPrefix string
}

// Store loads document field rows from Redis/Valkey hashes.
type Store struct {
	client    rueidis.Client
	keyPrefix string
}

var _ host.FieldLoader = (*Store)(nil)

// NewStore creates a Store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("redisfields: addrs is required")
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("redisfields: create client: %w", err)
	}
	return &Store{client: client, keyPrefix: cfg.KeyPrefix}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Do(ctx, s.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("redisfields: ping: %w", err)
	}
	return nil
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("redisfields: timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Close shuts down the underlying client.
func (s *Store) Close() { s.client.Close() }

// Load implements host.FieldLoader. It ignores req.Mode's distinction at
// the wire level (HGETALL always returns every stored field) and filters
// down to req.Keys in KeyList mode, which matches how a real RediSearch
// deployment reads a whole hash and then projects the requested fields.
func (s *Store) Load(ctx context.Context, row *host.Row, req host.LoadRequest) error {
	if req.Dmd == nil {
		return nil
	}
	key := s.keyPrefix + req.Dmd.KeyPtr

	fields, err := s.client.Do(ctx, s.client.B().Hgetall().Key(key).Build()).AsStrMap()
	if err != nil {
		return fmt.Errorf("redisfields: hgetall %s: %w", key, err)
	}

	if req.Mode == host.LoadAllKeys {
		for k, v := range fields {
			row.Write(k, host.StringValue(v))
		}
		return nil
	}

	for _, k := range req.Keys {
		if v, ok := fields[k]; ok {
			row.Write(k, host.StringValue(v))
		}
	}
	return nil
}
