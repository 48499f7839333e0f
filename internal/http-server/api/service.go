package api

import (
	"context"

	"botfleet/entity"
	"botfleet/internal/ctxreg"
	"botfleet/internal/llmclient"
	"botfleet/internal/logbuf"
	"botfleet/internal/stats"
	"botfleet/internal/store"
	"botfleet/internal/supervisor"
	"botfleet/internal/support"
)

// Service composes the Store with the Supervisor, Context Registry,
// counters, log buffer and support service, and is the single type that
// satisfies every handler package's Core interface plus
// authenticate.Authenticate. The Store's methods are promoted directly
// through embedding, mirroring the teacher's api.go Handler composition;
// the Supervisor's are exposed under names distinct from the Store's own
// CRUD so a single interface can name both without a collision (e.g.
// bots.Core needs both CreateBot and a hot-start side effect).
type Service struct {
	*store.Store
	supervisor *supervisor.Supervisor
	registry   *ctxreg.Registry
	counters   *stats.Counters
	buf        *logbuf.Buffer
	support    *support.Service
}

func NewService(
	st *store.Store,
	sup *supervisor.Supervisor,
	registry *ctxreg.Registry,
	counters *stats.Counters,
	buf *logbuf.Buffer,
	sup2 *support.Service,
) *Service {
	return &Service{
		Store:      st,
		supervisor: sup,
		registry:   registry,
		counters:   counters,
		buf:        buf,
		support:    sup2,
	}
}

func (s *Service) StartSupervisor(botId string) error { return s.supervisor.Start(botId) }
func (s *Service) StopSupervisor(botId string) error  { return s.supervisor.Stop(botId) }
func (s *Service) ToggleSupervisor(botId string) (bool, error) {
	return s.supervisor.Toggle(botId)
}
func (s *Service) UpdateSupervisorConfig(botId string, tokenChanged bool) error {
	return s.supervisor.UpdateConfig(botId, tokenChanged)
}
func (s *Service) RefreshSupervisorInfo(botId string) (*entity.Bot, error) {
	return s.supervisor.RefreshInfo(botId)
}
func (s *Service) IsSupervisorActive(botId string) bool {
	return s.supervisor.IsActive(botId)
}

func (s *Service) ClearMultiCommandContext(botId, commandId string) int {
	return s.registry.ClearByCommand(botId, commandId)
}

func (s *Service) RequestStats() entity.RequestStats {
	return s.counters.Snapshot()
}

func (s *Service) ReadLogs(limit int, level entity.LogLevel, category entity.LogCategory) ([]entity.LogEntry, int) {
	return s.buf.Read(limit, level, category)
}

func (s *Service) Reply(ctx context.Context, message string) (string, error) {
	return s.support.Reply(ctx, message)
}

func (s *Service) Stream(ctx context.Context, message string) (<-chan llmclient.Chunk, error) {
	return s.support.Stream(ctx, message)
}
