package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"botfleet/entity"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "botfleet.db")
	s, err := Open(path, "admin@test.local", "hash")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_SeedsAdminAndSettings(t *testing.T) {
	s := openTest(t)

	admin, err := s.GetAdminByEmail("admin@test.local")
	require.NoError(t, err)
	require.Equal(t, "hash", admin.PasswordHash)

	settings, err := s.ListSettings()
	require.NoError(t, err)
	require.NotEmpty(t, settings)
}

func TestBotCRUDAndCount(t *testing.T) {
	s := openTest(t)

	b := &entity.Bot{
		Name:    "test-bot",
		Token:   "123:abc",
		ApiUrl:  "https://api.openai.com/v1",
		ApiKey:  "key",
		AiModel: "gpt-4",
	}
	id, err := s.CreateBot(b)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.GetBot(id)
	require.NoError(t, err)
	require.Equal(t, b.Name, got.Name)

	total, active, running, err := s.CountBots()
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, 0, active)
	require.Equal(t, 0, running)
}

func TestDeleteDatabase_ReferencedIsBlocked(t *testing.T) {
	s := openTest(t)

	db := &entity.Database{Name: "kb", Type: entity.DatabaseTypeText, Content: "hello"}
	dbId, err := s.CreateDatabase(db)
	require.NoError(t, err)

	b := &entity.Bot{
		Name:       "test-bot",
		Token:      "123:abc",
		ApiUrl:     "https://api.openai.com/v1",
		ApiKey:     "key",
		AiModel:    "gpt-4",
		DatabaseId: dbId,
	}
	_, err = s.CreateBot(b)
	require.NoError(t, err)

	err = s.DeleteDatabase(dbId)
	require.ErrorIs(t, err, ErrReferenced)
}

func TestHistoryAppendAndRecent(t *testing.T) {
	s := openTest(t)
	b := &entity.Bot{Name: "b", Token: "t", ApiUrl: "u", ApiKey: "k", AiModel: "m"}
	botId, err := s.CreateBot(b)
	require.NoError(t, err)

	require.NoError(t, s.AppendHistory(botId, 1, "hi", "hello"))
	require.NoError(t, s.AppendHistory(botId, 1, "how are you", "fine"))

	recent, err := s.RecentHistory(botId, 1, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
}
