package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lotas/tabtab/internal/applog"
	"github.com/lotas/tabtab/internal/types"
)

// GetValue returns the raw value stored under key. ok is false when the key
// has never been set.
func GetValue(ctx context.Context, db *sql.DB, key string) (value []byte, ok bool, err error) {
	var raw []byte
	err = db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query key %q: %w", key, err)
	}
	value, err = decodeValue(raw)
	if err != nil {
		return nil, false, fmt.Errorf("decode key %q: %w", key, err)
	}
	return value, true, nil
}

// SetValue replaces the value stored under key.
func SetValue(ctx context.Context, db *sql.DB, key string, value []byte) error {
	encoded, err := encodeValue(value)
	if err != nil {
		return fmt.Errorf("encode key %q: %w", key, err)
	}
	_, err = db.ExecContext(ctx, `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, encoded)
	if err != nil {
		return fmt.Errorf("write key %q: %w", key, err)
	}
	return nil
}

// KV is a Store keeping the collection as one JSON value in the kv table.
type KV struct {
	db  *sql.DB
	key string
}

// NewKV returns a Store over db using SavedTabsKey.
func NewKV(db *sql.DB) *KV {
	return &KV{db: db, key: SavedTabsKey}
}

// Load returns the stored collection, or an empty one if nothing was saved.
func (s *KV) Load(ctx context.Context) ([]types.SavedTab, error) {
	raw, ok, err := GetValue(ctx, s.db, s.key)
	if err != nil {
		applog.Error("store.load", err)
		return nil, err
	}
	tabs := []types.SavedTab{}
	if !ok {
		return tabs, nil
	}
	if err := json.Unmarshal(raw, &tabs); err != nil {
		applog.Error("store.load", err)
		return nil, fmt.Errorf("parse saved tabs: %w", err)
	}
	if tabs == nil {
		tabs = []types.SavedTab{}
	}
	applog.Info("store.load", "tabs", len(tabs))
	return tabs, nil
}

// Save replaces the stored collection.
func (s *KV) Save(ctx context.Context, tabs []types.SavedTab) error {
	if tabs == nil {
		tabs = []types.SavedTab{}
	}
	raw, err := json.Marshal(tabs)
	if err != nil {
		return fmt.Errorf("encode saved tabs: %w", err)
	}
	if err := SetValue(ctx, s.db, s.key, raw); err != nil {
		applog.Error("store.save", err)
		return err
	}
	applog.Info("store.save", "tabs", len(tabs), "bytes", len(raw))
	return nil
}
