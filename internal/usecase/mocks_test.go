// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"interview-ai-simulator/internal/domain"
	"interview-ai-simulator/internal/domain/model"
)

// scriptedAI is a small in-memory completion adapter used by unit tests. It
// records every prompt and answers with queued replies, falling back to "ok".
type scriptedAI struct {
	mu      sync.Mutex
	replies []string
	prompts []string
	err     error // simulate provider failure
}

func (f *scriptedAI) ListModels(ctx context.Context) ([]string, error) {
	return []string{"test-model"}, nil
}

func (f *scriptedAI) Complete(ctx context.Context, model, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "ok", nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

func (f *scriptedAI) CountTokens(ctx context.Context, model, prompt string) (int, error) {
	return len(prompt) / 4, nil
}

func (f *scriptedAI) promptsWith(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.prompts {
		if strings.Contains(p, substr) {
			n++
		}
	}
	return n
}

// memSessionCache emulates the volatile tier. Values are deep-copied on both
// sides of the boundary, like the JSON round-trip through Redis.
type memSessionCache struct {
	mu      sync.Mutex
	store   map[string]*model.SessionState
	saveErr error
	saves   int
}

func newMemSessionCache() *memSessionCache {
	return &memSessionCache{store: map[string]*model.SessionState{}}
}

func cloneState(s *model.SessionState) *model.SessionState {
	cp := &model.SessionState{Summary: s.Summary}
	cp.Turns = append([]model.Turn(nil), s.Turns...)
	return cp
}

func (m *memSessionCache) Get(ctx context.Context, sessionID string) (*model.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[sessionID]
	if !ok {
		return nil, domain.ErrSessionExpired
	}
	return cloneState(s), nil
}

func (m *memSessionCache) Save(ctx context.Context, sessionID string, state *model.SessionState) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[sessionID] = cloneState(state)
	m.saves++
	return nil
}

func (m *memSessionCache) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, sessionID)
	return nil
}

func (m *memSessionCache) Extend(ctx context.Context, sessionID string) error { return nil }

// expire drops the entry, emulating a lapsed TTL.
func (m *memSessionCache) expire(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, sessionID)
}

func (m *memSessionCache) state(sessionID string) *model.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[sessionID]
	if !ok {
		return nil
	}
	return cloneState(s)
}

// memInterviewRepo emulates the durable tier.
type memInterviewRepo struct {
	mu          sync.Mutex
	byID        map[string]*model.Interview
	finalizeErr error
	finalized   int
}

func newMemInterviewRepo() *memInterviewRepo {
	return &memInterviewRepo{byID: map[string]*model.Interview{}}
}

func (m *memInterviewRepo) CreateProvisional(ctx context.Context, qx any, iv *model.Interview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *iv
	m.byID[iv.ID] = &cp
	return nil
}

func (m *memInterviewRepo) Finalize(ctx context.Context, qx any, id, summary string, transcript []model.Turn, endTime time.Time) error {
	if m.finalizeErr != nil {
		return m.finalizeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	iv, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if iv.Finalized() {
		return domain.ErrAlreadyFinalized
	}
	iv.Summary = summary
	iv.Transcript = append([]model.Turn(nil), transcript...)
	iv.EndTime = endTime
	m.finalized++
	return nil
}

func (m *memInterviewRepo) FindOwned(ctx context.Context, qx any, id, ownerID string) (*model.Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	iv, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if iv.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	cp := *iv
	return &cp, nil
}

func (m *memInterviewRepo) ListByOwner(ctx context.Context, qx any, ownerID string) ([]*model.Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Interview
	for _, iv := range m.byID {
		if iv.OwnerID == ownerID {
			cp := *iv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memInterviewRepo) ListAbandoned(ctx context.Context, qx any, startedBefore time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, iv := range m.byID {
		if !iv.Finalized() && iv.StartTime.Before(startedBefore) {
			ids = append(ids, iv.ID)
		}
	}
	return ids, nil
}

func (m *memInterviewRepo) get(id string) *model.Interview {
	m.mu.Lock()
	defer m.mu.Unlock()
	iv, ok := m.byID[id]
	if !ok {
		return nil
	}
	cp := *iv
	return &cp
}

// fakeLocker grants locks unless denyAll is set or the key is already held.
type fakeLocker struct {
	mu      sync.Mutex
	held    map[string]string
	seq     int
	denyAll bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[string]string{}}
}

func (l *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.denyAll {
		return "", domain.ErrSessionBusy
	}
	if _, busy := l.held[key]; busy {
		return "", domain.ErrSessionBusy
	}
	l.seq++
	token := fmt.Sprintf("tok-%d", l.seq)
	l.held[key] = token
	return token, nil
}

func (l *fakeLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}
