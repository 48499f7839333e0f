package store

import (
	"fmt"
	"time"

	"botfleet/entity"
)

// AppendHistory inserts one (user, ai) exchange and prunes the
// (bot_id, chat_id) pair down to the newest entity.MaxHistoryPerChat rows,
// satisfying the invariant in spec.md §8.
func (s *Store) AppendHistory(botId string, chatId int64, userMessage, aiResponse string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`INSERT INTO chat_history (bot_id, chat_id, user_message, ai_response, timestamp) VALUES (?,?,?,?,?)`,
		botId, chatId, userMessage, aiResponse, now)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}

	_, err = s.db.Exec(`DELETE FROM chat_history WHERE bot_id = ? AND chat_id = ? AND id NOT IN (
		SELECT id FROM chat_history WHERE bot_id = ? AND chat_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?
	)`, botId, chatId, botId, chatId, entity.MaxHistoryPerChat)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}

// RecentHistory returns the newest `limit` entries for (botId, chatId) in
// newest-first order. Callers that need chronological order (the
// memory-aware call, spec.md §4.6.1) reverse the slice themselves.
func (s *Store) RecentHistory(botId string, chatId int64, limit int) ([]*entity.ChatHistoryEntry, error) {
	rows, err := s.db.Query(`SELECT id, bot_id, chat_id, user_message, ai_response, timestamp FROM chat_history
		WHERE bot_id = ? AND chat_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, botId, chatId, limit)
	if err != nil {
		return nil, fmt.Errorf("recent history: %w", err)
	}
	defer rows.Close()

	var result []*entity.ChatHistoryEntry
	for rows.Next() {
		var e entity.ChatHistoryEntry
		if err := rows.Scan(&e.Id, &e.BotId, &e.ChatId, &e.UserMessage, &e.AiResponse, &e.Timestamp); err != nil {
			return nil, err
		}
		result = append(result, &e)
	}
	return result, rows.Err()
}

// ListHistory returns history for a bot, optionally filtered to one chat,
// newest first — used by the admin chat-history API.
func (s *Store) ListHistory(botId string, chatId *int64, limit int) ([]*entity.ChatHistoryEntry, error) {
	query := `SELECT id, bot_id, chat_id, user_message, ai_response, timestamp FROM chat_history WHERE bot_id = ?`
	args := []any{botId}
	if chatId != nil {
		query += ` AND chat_id = ?`
		args = append(args, *chatId)
	}
	query += ` ORDER BY timestamp DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var result []*entity.ChatHistoryEntry
	for rows.Next() {
		var e entity.ChatHistoryEntry
		if err := rows.Scan(&e.Id, &e.BotId, &e.ChatId, &e.UserMessage, &e.AiResponse, &e.Timestamp); err != nil {
			return nil, err
		}
		result = append(result, &e)
	}
	return result, rows.Err()
}

func (s *Store) DeleteHistoryEntry(botId string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`DELETE FROM chat_history WHERE bot_id = ? AND id = ?`, botId, id)
	if err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}
	return requireRowsAffected(res)
}

func (s *Store) DeleteAllHistory(botId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM chat_history WHERE bot_id = ?`, botId)
	if err != nil {
		return fmt.Errorf("delete all history: %w", err)
	}
	return nil
}
