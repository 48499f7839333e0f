package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"botfleet/entity"
)

// ErrReferenced is returned by DeleteDatabase when at least one bot still
// points at the database (spec.md §3, §7, §8).
var ErrReferenced = errors.New("database is referenced by at least one bot")

func scanDatabase(row interface{ Scan(...any) error }) (*entity.Database, error) {
	var d entity.Database
	var typ string
	if err := row.Scan(&d.Id, &d.Name, &typ, &d.Description, &d.Content); err != nil {
		return nil, err
	}
	d.Type = entity.DatabaseType(typ)
	return &d, nil
}

func (s *Store) CreateDatabase(d *entity.Database) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	_, err := s.db.Exec(`INSERT INTO databases (id, name, type, description, content) VALUES (?,?,?,?,?)`,
		id, d.Name, string(d.Type), d.Description, d.Content)
	if err != nil {
		return "", fmt.Errorf("create database: %w", err)
	}
	return id, nil
}

func (s *Store) GetDatabase(id string) (*entity.Database, error) {
	row := s.db.QueryRow(`SELECT id, name, type, description, content FROM databases WHERE id = ?`, id)
	d, err := scanDatabase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get database: %w", err)
	}
	return d, nil
}

func (s *Store) ListDatabases() ([]*entity.Database, error) {
	rows, err := s.db.Query(`SELECT id, name, type, description, content FROM databases ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}
	defer rows.Close()

	var result []*entity.Database
	for rows.Next() {
		d, err := scanDatabase(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (s *Store) UpdateDatabase(d *entity.Database) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`UPDATE databases SET name=?, type=?, description=?, content=? WHERE id=?`,
		d.Name, string(d.Type), d.Description, d.Content, d.Id)
	if err != nil {
		return fmt.Errorf("update database: %w", err)
	}
	return requireRowsAffected(res)
}

// DeleteDatabase refuses to delete while referenced by a bot, returning
// ErrReferenced so the HTTP layer can report 400 per spec.md §7.
func (s *Store) DeleteDatabase(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var refs int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM bots WHERE database_id = ?`, id).Scan(&refs); err != nil {
		return fmt.Errorf("check database references: %w", err)
	}
	if refs > 0 {
		return ErrReferenced
	}

	res, err := s.db.Exec(`DELETE FROM databases WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete database: %w", err)
	}
	return requireRowsAffected(res)
}
