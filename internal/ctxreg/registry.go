// Package ctxreg implements the Context Registry (C4): an in-memory map
// recording the active multi-command per (bot, chat). Deliberately not
// persisted — spec.md Design Note 9 treats a crash dropping every chat back
// to top level as acceptable, simpler than invalidation-bus durability.
package ctxreg

import "sync"

type key struct {
	BotId  string
	ChatId int64
}

// Registry is a pure in-memory map guarded by a read-heavy RWMutex, since
// lookups happen on every incoming message while writes only happen on
// multi-command entry/exit.
type Registry struct {
	mu      sync.RWMutex
	entries map[key]string
}

func New() *Registry {
	return &Registry{entries: make(map[key]string)}
}

func (r *Registry) Get(botId string, chatId int64) (commandId string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	commandId, ok = r.entries[key{botId, chatId}]
	return commandId, ok
}

func (r *Registry) Set(botId string, chatId int64, commandId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key{botId, chatId}] = commandId
}

func (r *Registry) Delete(botId string, chatId int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key{botId, chatId})
}

// ClearByBot removes every entry for a bot, called on bot stop (spec.md §4.7).
func (r *Registry) ClearByBot(botId string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cleared := 0
	for k := range r.entries {
		if k.BotId == botId {
			delete(r.entries, k)
			cleared++
		}
	}
	return cleared
}

// ClearByCommand removes every entry whose active multi-command is
// commandId within a bot, returning the count cleared (spec.md §6's
// DELETE /multi-command-context/:cmdId endpoint).
func (r *Registry) ClearByCommand(botId, commandId string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cleared := 0
	for k, v := range r.entries {
		if k.BotId == botId && v == commandId {
			delete(r.entries, k)
			cleared++
		}
	}
	return cleared
}

// ClearAll removes every entry, used at process shutdown (spec.md §4.7).
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[key]string)
}
