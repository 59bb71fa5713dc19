package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	stateDatamodel "github.com/frahmantamala/employee-console/internal/core/datamodel/state"
)

var ErrNotHydrated = errors.New("state store used before hydrate")

type RepositoryAPI interface {
	List(ctx context.Context, scope string) ([]stateDatamodel.Entry, error)
	Put(ctx context.Context, entry stateDatamodel.Entry) error
	Delete(ctx context.Context, scope, key string) error
	DeleteScope(ctx context.Context, scope string) error
}

// Codec lets handlers accept a stored value for a key without knowing its Go type.
type Codec interface {
	Name() string
	Check(raw json.RawMessage) error
}

// Key names a typed value in the store together with the value reads fall back to.
type Key[T any] struct {
	name string
	def  T
}

func NewKey[T any](name string, def T) Key[T] {
	return Key[T]{name: name, def: def}
}

func (k Key[T]) Name() string { return k.name }

func (k Key[T]) Default() T { return k.def }

func (k Key[T]) Check(raw json.RawMessage) error {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%s: %w", k.name, err)
	}
	return nil
}

// Store is an explicit state container for one scope. Call Hydrate once before reading;
// writes go through to the repository before the in-memory copy changes.
type Store struct {
	repo  RepositoryAPI
	scope string
	now   func() time.Time

	mu       sync.RWMutex
	values   map[string]json.RawMessage
	hydrated bool
}

func NewStore(repo RepositoryAPI, scope string) *Store {
	return &Store{
		repo:   repo,
		scope:  scope,
		now:    time.Now,
		values: make(map[string]json.RawMessage),
	}
}

func (s *Store) Scope() string { return s.scope }

func (s *Store) Hydrate(ctx context.Context) error {
	entries, err := s.repo.List(ctx, s.scope)
	if err != nil {
		return fmt.Errorf("hydrate %s: %w", s.scope, err)
	}

	values := make(map[string]json.RawMessage, len(entries))
	for _, e := range entries {
		if !json.Valid([]byte(e.Value)) {
			continue
		}
		values[e.Key] = json.RawMessage(e.Value)
	}

	s.mu.Lock()
	s.values = values
	s.hydrated = true
	s.mu.Unlock()
	return nil
}

func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

func (s *Store) Raw(key string) (json.RawMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Snapshot copies every stored value.
func (s *Store) Snapshot() map[string]json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]json.RawMessage, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func (s *Store) SetRaw(ctx context.Context, key string, raw json.RawMessage) error {
	if !s.Hydrated() {
		return ErrNotHydrated
	}
	if !json.Valid(raw) {
		return fmt.Errorf("%s: invalid JSON", key)
	}

	entry := stateDatamodel.Entry{Scope: s.scope, Key: key, Value: string(raw), UpdatedAt: s.now().UTC()}
	if err := s.repo.Put(ctx, entry); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}

	s.mu.Lock()
	s.values[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if !s.Hydrated() {
		return ErrNotHydrated
	}
	if err := s.repo.Delete(ctx, s.scope, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}

// Clear removes every value in the scope.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.repo.DeleteScope(ctx, s.scope); err != nil {
		return fmt.Errorf("clear %s: %w", s.scope, err)
	}
	s.mu.Lock()
	s.values = make(map[string]json.RawMessage)
	s.hydrated = true
	s.mu.Unlock()
	return nil
}

// Get returns the stored value, or the key's default when absent or undecodable.
func Get[T any](s *Store, key Key[T]) T {
	v, _ := Lookup(s, key)
	return v
}

// Lookup is Get that also reports whether a stored value was used.
func Lookup[T any](s *Store, key Key[T]) (T, bool) {
	raw, ok := s.Raw(key.name)
	if !ok {
		return key.def, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return key.def, false
	}
	return v, true
}

func Set[T any](ctx context.Context, s *Store, key Key[T], value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key.name, err)
	}
	return s.SetRaw(ctx, key.name, raw)
}

// Provider opens hydrated stores; handlers get one per request.
type Provider struct {
	repo RepositoryAPI
}

func NewProvider(repo RepositoryAPI) *Provider {
	return &Provider{repo: repo}
}

func (p *Provider) Open(ctx context.Context, scope string) (*Store, error) {
	s := NewStore(p.repo, scope)
	if err := s.Hydrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
