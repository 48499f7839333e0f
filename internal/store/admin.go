package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"botfleet/entity"
)

func (s *Store) GetAdminByEmail(email string) (*entity.AdminUser, error) {
	var u entity.AdminUser
	err := s.db.QueryRow(`SELECT id, email, password_hash FROM admin_users WHERE email = ?`, email).
		Scan(&u.Id, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return &u, nil
}

// CreateSession stores a new session row and returns its id (the cookie
// value). ttl controls expiry, matching config.SessionConfig.TTLHours.
func (s *Store) CreateSession(userId string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	expiresAt := time.Now().UTC().Add(ttl).Format(time.RFC3339)
	_, err := s.db.Exec(`INSERT INTO sessions (id, user_id, expires_at) VALUES (?, ?, ?)`, id, userId, expiresAt)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// GetSession returns the session if present and not expired. An expired
// session is treated as absent (and lazily deleted).
func (s *Store) GetSession(id string) (*entity.Session, error) {
	var sess entity.Session
	var expiresAt string
	err := s.db.QueryRow(`SELECT id, user_id, expires_at FROM sessions WHERE id = ?`, id).
		Scan(&sess.Id, &sess.UserId, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	expiry, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("parse session expiry: %w", err)
	}
	sess.ExpiresAt = expiry
	if time.Now().UTC().After(expiry) {
		_ = s.DeleteSession(id)
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (s *Store) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (s *Store) GetAdminById(id string) (*entity.AdminUser, error) {
	var u entity.AdminUser
	err := s.db.QueryRow(`SELECT id, email, password_hash FROM admin_users WHERE id = ?`, id).
		Scan(&u.Id, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin by id: %w", err)
	}
	return &u, nil
}

// SessionUser resolves a session cookie value straight to the admin user it
// was issued for, the single lookup the authenticate middleware needs.
func (s *Store) SessionUser(sessionId string) (*entity.AdminUser, error) {
	sess, err := s.GetSession(sessionId)
	if err != nil {
		return nil, err
	}
	return s.GetAdminById(sess.UserId)
}
