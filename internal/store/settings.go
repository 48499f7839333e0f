package store

import (
	"database/sql"
	"errors"
	"fmt"

	"botfleet/entity"
)

func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) ListSettings() ([]entity.Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var result []entity.Setting
	for rows.Next() {
		var st entity.Setting
		if err := rows.Scan(&st.Key, &st.Value); err != nil {
			return nil, err
		}
		result = append(result, st)
	}
	return result, rows.Err()
}

// SetSettings upserts every entry in one write-locked batch — the admin API
// replaces the whole settings set in one PUT (spec.md §6).
func (s *Store) SetSettings(settings []entity.Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("set settings: begin: %w", err)
	}
	defer tx.Rollback()

	for _, st := range settings {
		if _, err := tx.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`, st.Key, st.Value); err != nil {
			return fmt.Errorf("set setting %q: %w", st.Key, err)
		}
	}
	return tx.Commit()
}
