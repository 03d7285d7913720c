package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")

type storedResponse struct {
	hash     string
	response json.RawMessage
}

// IdempotencyStore remembers the response sent for an Idempotency-Key. It
// uses the idempotency_keys table when db is set, memory otherwise.
type IdempotencyStore struct {
	db *pgxpool.Pool

	mu  sync.Mutex
	mem map[string]storedResponse
}

func NewIdempotencyStore(db *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{db: db, mem: make(map[string]storedResponse)}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func memKey(endpoint, key string) string {
	return endpoint + "\x00" + key
}

func (s *IdempotencyStore) Check(ctx context.Context, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		entry, ok := s.mem[memKey(endpoint, key)]
		if !ok {
			return nil, false, nil
		}
		if entry.hash != requestHash {
			return nil, false, ErrIdempotencyConflict
		}
		return entry.response, true, nil
	}

	var storedHash string
	var stored json.RawMessage
	err := s.db.QueryRow(ctx, `
    SELECT request_hash, response_json
    FROM idempotency_keys
    WHERE key = $1 AND endpoint = $2
  `, key, endpoint).Scan(&storedHash, &stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if storedHash != requestHash {
		return nil, false, ErrIdempotencyConflict
	}
	return stored, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, endpoint, key, requestHash string, response json.RawMessage) error {
	if s == nil {
		return nil
	}
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		k := memKey(endpoint, key)
		if entry, ok := s.mem[k]; ok && entry.hash != requestHash {
			return ErrIdempotencyConflict
		}
		s.mem[k] = storedResponse{hash: requestHash, response: response}
		return nil
	}

	tag, err := s.db.Exec(ctx, `
    INSERT INTO idempotency_keys (key, endpoint, request_hash, response_json)
    VALUES ($1, $2, $3, $4)
    ON CONFLICT (key, endpoint)
    DO UPDATE SET response_json = EXCLUDED.response_json
    WHERE idempotency_keys.request_hash = EXCLUDED.request_hash
  `, key, endpoint, requestHash, response)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}
