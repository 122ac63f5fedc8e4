package service

import (
	"navbot/internal/core/domain"
	"sync"
	"time"
)

// Tracker records model usage and bot-wide counters for /stats.
type Tracker interface {
	RecordUsage(meta domain.ResponseMetadata)
	RecordFailure()
	CountMessage()
	CountUser(userID int64)
	ProfileCompleted()
	NichesGenerated(n int)
	PlanGenerated()
	Usage() domain.Usage
	Stats(activeSessions int) domain.Stats
}

type MemoryTracker struct {
	mu    sync.Mutex
	usage domain.Usage
	stats domain.Stats
	users map[int64]struct{}
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{
		stats: domain.Stats{StartedAt: time.Now()},
		users: make(map[int64]struct{}),
	}
}

func (t *MemoryTracker) RecordUsage(meta domain.ResponseMetadata) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.usage.Add(meta)
}

func (t *MemoryTracker) RecordFailure() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.usage.AddFailure()
}

func (t *MemoryTracker) CountMessage() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.Messages++
}

func (t *MemoryTracker) CountUser(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, seen := t.users[userID]; !seen {
		t.users[userID] = struct{}{}
		t.stats.Users++
	}
}

func (t *MemoryTracker) ProfileCompleted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.CompletedProfiles++
}

func (t *MemoryTracker) NichesGenerated(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.GeneratedNiches += n
}

func (t *MemoryTracker) PlanGenerated() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.GeneratedPlans++
}

func (t *MemoryTracker) Usage() domain.Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.usage
}

func (t *MemoryTracker) Stats(activeSessions int) domain.Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.stats
	stats.ActiveSessions = activeSessions
	return stats
}
