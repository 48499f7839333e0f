package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"botfleet/entity"
)

var ErrNotFound = errors.New("not found")

func scanBot(row interface{ Scan(...any) error }) (*entity.Bot, error) {
	var b entity.Bot
	var memoryEnabled, isActive, isRunning int
	err := row.Scan(
		&b.Id, &b.Name, &b.Description, &b.Token,
		&b.TelegramUsername, &b.TelegramFirstName, &b.TelegramBotId,
		&b.ApiUrl, &b.ApiKey, &b.AiModel, &b.SystemPrompt, &b.DatabaseId,
		&memoryEnabled, &b.MemoryMessagesCount, &isActive, &isRunning,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.MemoryEnabled = memoryEnabled != 0
	b.IsActive = isActive != 0
	b.IsRunning = isRunning != 0
	return &b, nil
}

const botColumns = `id, name, description, token, telegram_username, telegram_first_name, telegram_bot_id,
	api_url, api_key, ai_model, system_prompt, database_id, memory_enabled, memory_messages_count,
	is_active, is_running, created_at, updated_at`

func (s *Store) CreateBot(b *entity.Bot) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`INSERT INTO bots (`+botColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		id, b.Name, b.Description, b.Token, b.TelegramUsername, b.TelegramFirstName, b.TelegramBotId,
		b.ApiUrl, b.ApiKey, b.AiModel, b.SystemPrompt, b.DatabaseId,
		boolInt(b.MemoryEnabled), entity.ClampMemoryCount(b.MemoryMessagesCount),
		boolInt(b.IsActive), 0, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("create bot: %w", err)
	}
	return id, nil
}

func (s *Store) GetBot(id string) (*entity.Bot, error) {
	row := s.db.QueryRow(`SELECT `+botColumns+` FROM bots WHERE id = ?`, id)
	b, err := scanBot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get bot: %w", err)
	}
	return b, nil
}

func (s *Store) ListBots() ([]*entity.Bot, error) {
	rows, err := s.db.Query(`SELECT ` + botColumns + ` FROM bots ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list bots: %w", err)
	}
	defer rows.Close()

	var result []*entity.Bot
	for rows.Next() {
		b, err := scanBot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bot: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// UpdateBot persists every mutable field of b (identified by b.Id). It does
// not touch is_running — that belongs exclusively to the Supervisor via
// SetBotRunning.
func (s *Store) UpdateBot(b *entity.Bot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`UPDATE bots SET name=?, description=?, token=?, telegram_username=?,
		telegram_first_name=?, telegram_bot_id=?, api_url=?, api_key=?, ai_model=?, system_prompt=?,
		database_id=?, memory_enabled=?, memory_messages_count=?, is_active=?, updated_at=? WHERE id=?`,
		b.Name, b.Description, b.Token, b.TelegramUsername, b.TelegramFirstName, b.TelegramBotId,
		b.ApiUrl, b.ApiKey, b.AiModel, b.SystemPrompt, b.DatabaseId,
		boolInt(b.MemoryEnabled), entity.ClampMemoryCount(b.MemoryMessagesCount),
		boolInt(b.IsActive), now, b.Id,
	)
	if err != nil {
		return fmt.Errorf("update bot: %w", err)
	}
	return requireRowsAffected(res)
}

func (s *Store) SetBotRunning(id string, running bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`UPDATE bots SET is_running=? WHERE id=?`, boolInt(running), id)
	if err != nil {
		return fmt.Errorf("set bot running: %w", err)
	}
	return nil
}

func (s *Store) SetBotTelegramInfo(id, username, firstName string, telegramBotId int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`UPDATE bots SET telegram_username=?, telegram_first_name=?, telegram_bot_id=? WHERE id=?`,
		username, firstName, telegramBotId, id)
	if err != nil {
		return fmt.Errorf("set bot telegram info: %w", err)
	}
	return nil
}

func (s *Store) DeleteBot(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`DELETE FROM bots WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete bot: %w", err)
	}
	return requireRowsAffected(res)
}

// ListRunningFlagged returns bots whose is_running column is 1, used by the
// Supervisor's reconciler to find drift.
func (s *Store) ListRunningFlagged() ([]*entity.Bot, error) {
	rows, err := s.db.Query(`SELECT ` + botColumns + ` FROM bots WHERE is_running = 1`)
	if err != nil {
		return nil, fmt.Errorf("list running flagged: %w", err)
	}
	defer rows.Close()

	var result []*entity.Bot
	for rows.Next() {
		b, err := scanBot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (s *Store) CountBotsReferencingDatabase(databaseId string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM bots WHERE database_id = ?`, databaseId).Scan(&n)
	return n, err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requireRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
