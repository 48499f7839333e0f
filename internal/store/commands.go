package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"botfleet/entity"
)

// ErrDuplicateName is returned when a command name collides within a bot
// (spec.md §3, §7, §8: unique (bot_id, name)).
var ErrDuplicateName = errors.New("command name already exists for this bot")

func scanCommand(row interface{ Scan(...any) error }) (*entity.Command, error) {
	var c entity.Command
	var jsonCode string
	var isActive, isMulti, allowExternal int
	err := row.Scan(&c.Id, &c.BotId, &c.Name, &c.Description, &jsonCode,
		&isActive, &isMulti, &c.ParentMultiCommandId, &allowExternal)
	if err != nil {
		return nil, err
	}
	c.JsonCode = json.RawMessage(jsonCode)
	c.IsActive = isActive != 0
	c.IsMultiCommand = isMulti != 0
	c.AllowExternalCommands = allowExternal != 0
	return &c, nil
}

const commandColumns = `id, bot_id, name, description, json_code, is_active, is_multi_command,
	parent_multi_command_id, allow_external_commands`

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *Store) CreateCommand(c *entity.Command) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	_, err := s.db.Exec(`INSERT INTO bot_commands (`+commandColumns+`) VALUES (?,?,?,?,?,?,?,?,?)`,
		id, c.BotId, c.Name, c.Description, string(c.JsonCode),
		boolInt(c.IsActive), boolInt(c.IsMultiCommand), c.ParentMultiCommandId, boolInt(c.AllowExternalCommands),
	)
	if isUniqueViolation(err) {
		return "", ErrDuplicateName
	}
	if err != nil {
		return "", fmt.Errorf("create command: %w", err)
	}
	return id, nil
}

func (s *Store) GetCommand(id string) (*entity.Command, error) {
	row := s.db.QueryRow(`SELECT `+commandColumns+` FROM bot_commands WHERE id = ?`, id)
	c, err := scanCommand(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get command: %w", err)
	}
	return c, nil
}

// ListCommandsForBot returns every command (active or not) attached to a
// bot, ordered so multi-commands sort before their children — convenient
// for building parent-aware UIs, though callers should not rely on it for
// correctness.
func (s *Store) ListCommandsForBot(botId string) ([]*entity.Command, error) {
	rows, err := s.db.Query(`SELECT `+commandColumns+` FROM bot_commands WHERE bot_id = ? ORDER BY is_multi_command DESC, name ASC`, botId)
	if err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	defer rows.Close()

	var result []*entity.Command
	for rows.Next() {
		c, err := scanCommand(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// ListActiveCommandsForBot is the set the Command Engine classifies
// intent against — only is_active rows ever become visible.
func (s *Store) ListActiveCommandsForBot(botId string) ([]*entity.Command, error) {
	rows, err := s.db.Query(`SELECT `+commandColumns+` FROM bot_commands WHERE bot_id = ? AND is_active = 1`, botId)
	if err != nil {
		return nil, fmt.Errorf("list active commands: %w", err)
	}
	defer rows.Close()

	var result []*entity.Command
	for rows.Next() {
		c, err := scanCommand(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) UpdateCommand(c *entity.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE bot_commands SET name=?, description=?, json_code=?, is_active=?,
		is_multi_command=?, parent_multi_command_id=?, allow_external_commands=? WHERE id=?`,
		c.Name, c.Description, string(c.JsonCode), boolInt(c.IsActive),
		boolInt(c.IsMultiCommand), c.ParentMultiCommandId, boolInt(c.AllowExternalCommands), c.Id,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateName
	}
	if err != nil {
		return fmt.Errorf("update command: %w", err)
	}
	return requireRowsAffected(res)
}

func (s *Store) DeleteCommand(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`DELETE FROM bot_commands WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete command: %w", err)
	}
	return requireRowsAffected(res)
}
