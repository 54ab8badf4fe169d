package kv

import (
	"context"
	"strings"
	"sync"
)

// MemStore is the in-process Store used in tests and single-node deployments.
// Writes notify prefix subscribers synchronously with a fresh snapshot.
type MemStore struct {
	mu       sync.RWMutex
	records  map[string][]byte
	subs     map[int]*memSub
	nextSub  int
	cleanups map[string]struct{}
	closed   bool
}

type memSub struct {
	prefix   string
	onChange func(Snapshot)
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		records:  make(map[string][]byte),
		subs:     make(map[int]*memSub),
		cleanups: make(map[string]struct{}),
	}
}

func (s *MemStore) Put(ctx context.Context, path string, value []byte) error {
	s.mu.Lock()
	s.records[path] = append([]byte(nil), value...)
	notify := s.pendingNotifications(path)
	s.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
	return nil
}

func (s *MemStore) Get(ctx context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.records[path]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *MemStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	delete(s.records, path)
	notify := s.pendingNotifications(path)
	s.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
	return nil
}

func (s *MemStore) Update(ctx context.Context, path string, fn func(current []byte) ([]byte, error)) error {
	s.mu.Lock()
	var current []byte
	if value, ok := s.records[path]; ok {
		current = append([]byte(nil), value...)
	}
	next, err := fn(current)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.records[path] = append([]byte(nil), next...)
	notify := s.pendingNotifications(path)
	s.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
	return nil
}

func (s *MemStore) List(ctx context.Context, prefix string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(prefix), nil
}

func (s *MemStore) Subscribe(ctx context.Context, prefix string, onChange func(Snapshot)) (func(), error) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = &memSub{prefix: prefix, onChange: onChange}
	initial := s.snapshot(prefix)
	s.mu.Unlock()

	onChange(initial)

	unsubscribe := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
	return unsubscribe, nil
}

func (s *MemStore) RegisterDisconnectCleanup(ctx context.Context, path string) error {
	s.mu.Lock()
	s.cleanups[path] = struct{}{}
	s.mu.Unlock()
	return nil
}

// Close runs the registered disconnect cleanups, mirroring a real store
// expiring a dropped connection's records.
func (s *MemStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	paths := make([]string, 0, len(s.cleanups))
	for path := range s.cleanups {
		paths = append(paths, path)
	}
	s.cleanups = make(map[string]struct{})
	s.mu.Unlock()

	for _, path := range paths {
		_ = s.Delete(context.Background(), path)
	}
	return nil
}

// snapshot copies the records under prefix. Callers must hold mu.
func (s *MemStore) snapshot(prefix string) Snapshot {
	snap := make(Snapshot)
	for path, value := range s.records {
		if underPrefix(path, prefix) {
			snap[path] = append([]byte(nil), value...)
		}
	}
	return snap
}

// pendingNotifications builds the subscriber callbacks affected by a change
// at path, each bound to a snapshot taken under the lock. Callers must hold
// mu and invoke the callbacks after releasing it.
func (s *MemStore) pendingNotifications(path string) []func() {
	var notify []func()
	for _, sub := range s.subs {
		if !underPrefix(path, sub.prefix) {
			continue
		}
		snap := s.snapshot(sub.prefix)
		onChange := sub.onChange
		notify = append(notify, func() { onChange(snap) })
	}
	return notify
}

func underPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
