package ws

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

type clickEntry struct {
	sessionID string
	onClick   func(ctx context.Context)
	expiresAt time.Time
}

// ClickRegistry remembers the click handler of every browser notification
// shown, until the session reports the click, disconnects, or the entry
// expires. Expired entries are pruned on a cron schedule.
type ClickRegistry struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]clickEntry
	now     func() time.Time

	parser   cron.Parser
	cron     *cron.Cron
	pruneJob cron.EntryID
}

func NewClickRegistry(ttl time.Duration) *ClickRegistry {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &ClickRegistry{
		ttl:     ttl,
		entries: make(map[string]clickEntry),
		now:     time.Now,
		parser:  parser,
		cron:    cron.New(cron.WithParser(parser)),
	}
}

// Register stores onClick for a notification shown to sessionID and
// returns the notification ID.
func (r *ClickRegistry) Register(sessionID string, onClick func(ctx context.Context)) string {
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = clickEntry{
		sessionID: sessionID,
		onClick:   onClick,
		expiresAt: r.now().Add(r.ttl),
	}
	return id
}

// Take removes and returns the handler for id. Handlers registered for
// another session, and expired ones, are not returned.
func (r *ClickRegistry) Take(sessionID, id string) (func(ctx context.Context), bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok || entry.sessionID != sessionID {
		return nil, false
	}
	delete(r.entries, id)
	if r.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.onClick, true
}

func (r *ClickRegistry) DropSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, entry := range r.entries {
		if entry.sessionID == sessionID {
			delete(r.entries, id)
		}
	}
}

// Prune deletes expired entries and returns how many were removed.
func (r *ClickRegistry) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, entry := range r.entries {
		if now.After(entry.expiresAt) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

func (r *ClickRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// SetTTL changes the lifetime of entries registered from now on.
func (r *ClickRegistry) SetTTL(ttl time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ttl = ttl
}

// Schedule (re)installs the prune job. It is safe to call while running.
func (r *ClickRegistry) Schedule(spec string) error {
	sched, err := r.parser.Parse(spec)
	if err != nil {
		return fmt.Errorf("parsing cleanup schedule %q: %w", spec, err)
	}

	r.mu.Lock()
	old := r.pruneJob
	r.mu.Unlock()

	id := r.cron.Schedule(sched, cron.FuncJob(func() {
		if n := r.Prune(); n > 0 {
			slog.Debug("pruned expired notification clicks", "component", "cleanup", "removed", n)
		}
	}))
	if old != 0 {
		r.cron.Remove(old)
	}

	r.mu.Lock()
	r.pruneJob = id
	r.mu.Unlock()
	return nil
}

func (r *ClickRegistry) Start() {
	r.cron.Start()
}

// Stop halts the schedule and waits for a running prune to finish.
func (r *ClickRegistry) Stop() {
	<-r.cron.Stop().Done()
}
