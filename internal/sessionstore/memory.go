package sessionstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in process. Records expire ttl after their last Set.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	records map[string]memoryEntry
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		records: map[string]memoryEntry{},
	}
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (Record, bool, error) {
	s.mu.Lock()
	e, ok := s.records[sessionID]
	if ok && !s.now().Before(e.expiresAt) {
		delete(s.records, sessionID)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return Record{}, false, nil
	}
	rec, err := UnmarshalRecord(e.data)
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Set stores an encoded copy so later changes to rec do not leak in.
func (s *MemoryStore) Set(_ context.Context, rec Record) error {
	b, err := MarshalRecord(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.SessionID] = memoryEntry{data: b, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, sessionID)
	return nil
}
