package index

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/vitrine/internal/apperr"
	"github.com/starford/vitrine/internal/models"
)

const checksumKey = "snapshot_checksum"

// CategoryCount is one distinct category with the number of records in it.
type CategoryCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// ReplaceSnapshot swaps the mirrored records for the given newest-first
// list within a single transaction.
func (db *DB) ReplaceSnapshot(checksum string, records []models.Record) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM records`); err != nil {
		return fmt.Errorf("index: clear records: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO records (position, id, file_identifier, title, media_ref, description, category_key, category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, r := range records {
		if _, err := stmt.Exec(i, string(r.ID), r.FileIdentifier, r.Title, r.MediaRef, r.Description, r.CategoryKey, r.Category()); err != nil {
			return fmt.Errorf("index: insert record: %w", err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, checksumKey, checksum)
	if err != nil {
		return fmt.Errorf("index: store checksum: %w", err)
	}
	return tx.Commit()
}

// SnapshotChecksum returns the checksum of the mirrored snapshot, or an
// empty string if nothing has been mirrored yet.
func (db *DB) SnapshotChecksum() (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, checksumKey).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum: %w", err)
	}
	return cs, nil
}

// Count returns the number of mirrored records.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

// Categories returns the distinct lower-cased, non-empty categories with
// their record counts, sorted by key.
func (db *DB) Categories() ([]CategoryCount, error) {
	rows, err := db.conn.Query(`
		SELECT category, count(*) FROM records
		WHERE category != ''
		GROUP BY category
		ORDER BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("index: categories: %w", err)
	}
	defer rows.Close()

	out := []CategoryCount{}
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Key, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RecordByFile returns the newest record carrying fileIdentifier.
func (db *DB) RecordByFile(fileIdentifier string) (*models.Record, error) {
	row := db.conn.QueryRow(`
		SELECT id, file_identifier, title, media_ref, description, category_key
		FROM records WHERE file_identifier = ?
		ORDER BY position LIMIT 1
	`, fileIdentifier)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: record %q: %w", fileIdentifier, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: record: %w", err)
	}
	return &r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (models.Record, error) {
	var (
		r  models.Record
		id string
	)
	err := s.Scan(&id, &r.FileIdentifier, &r.Title, &r.MediaRef, &r.Description, &r.CategoryKey)
	r.ID = models.RecordID(id)
	return r, err
}
