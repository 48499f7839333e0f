package store

import (
	"github.com/google/uuid"

	"botfleet/entity"
)

// seed inserts first-start data: one admin user, two example knowledge
// databases (text + json), and four support_ai_* settings rows. The admin
// user and settings use INSERT OR IGNORE, and the example databases are
// inserted only while the databases table is empty, so repeated calls
// (every process start) are idempotent, matching the teacher's
// addColumnIfNotExists idempotent-migration posture.
func (s *Store) seed(email, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(
		`INSERT OR IGNORE INTO admin_users (id, email, password_hash) VALUES (?, ?, ?)`,
		uuid.NewString(), email, passwordHash,
	); err != nil {
		return err
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM databases`).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		if _, err := s.db.Exec(
			`INSERT INTO databases (id, name, type, description, content) VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), "General FAQ", string(entity.DatabaseTypeText), "Example text knowledge base",
			"Q: What are your hours?\nA: We operate 24/7 via this bot.",
		); err != nil {
			return err
		}
		if _, err := s.db.Exec(
			`INSERT INTO databases (id, name, type, description, content) VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), "Product Catalog", string(entity.DatabaseTypeJSON), "Example JSON knowledge base",
			`{"products":[{"name":"Starter Plan","price":9.99},{"name":"Pro Plan","price":29.99}]}`,
		); err != nil {
			return err
		}
	}

	defaults := map[string]string{
		entity.SettingSupportAIURL:    "",
		entity.SettingSupportAIKey:    "",
		entity.SettingSupportAIModel:  "",
		entity.SettingSupportAIPrompt: "Ты — помощник поддержки. Отвечай кратко и по делу.",
	}
	for key, value := range defaults {
		if _, err := s.db.Exec(`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, key, value); err != nil {
			return err
		}
	}
	return nil
}
