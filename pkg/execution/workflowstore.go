package execution

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Definition is a saved workflow document: the raw JSON a caller POSTed,
// plus the bookkeeping fields httpapi's list/load endpoints need. Unlike
// an Execution, a Definition has no TTL — a caller that saved a workflow
// expects it to stay saved until explicitly deleted.
type Definition struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// DefinitionSummary is the listing-friendly projection of a Definition,
// omitting its (potentially large) Data payload.
type DefinitionSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefinitionStore is where httpapi's /workflows endpoints keep the
// workflow documents callers save, independent of the StateStore that
// tracks their executions.
type DefinitionStore interface {
	Save(name, description string, data json.RawMessage) (string, error)
	Update(id, name, description string, data json.RawMessage) error
	Load(id string) (*Definition, error)
	Delete(id string) error
	List() []DefinitionSummary
	Exists(id string) bool
}

// MemoryDefinitionStore is an in-process DefinitionStore backed by a
// mutex-guarded map; Load returns a copy of the stored definition.
type MemoryDefinitionStore struct {
	mu          sync.RWMutex
	definitions map[string]*Definition
}

func NewMemoryDefinitionStore() *MemoryDefinitionStore {
	return &MemoryDefinitionStore{definitions: make(map[string]*Definition)}
}

func (s *MemoryDefinitionStore) Save(name, description string, data json.RawMessage) (string, error) {
	if name == "" {
		return "", fmt.Errorf("workflow name is required")
	}
	if len(data) == 0 {
		return "", fmt.Errorf("workflow data is required")
	}
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return "", fmt.Errorf("invalid workflow data: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New().String()
	now := time.Now()
	s.definitions[id] = &Definition{
		ID:          id,
		Name:        name,
		Description: description,
		Data:        data,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return id, nil
}

func (s *MemoryDefinitionStore) Update(id, name, description string, data json.RawMessage) error {
	if name == "" {
		return fmt.Errorf("workflow name is required")
	}
	if len(data) == 0 {
		return fmt.Errorf("workflow data is required")
	}
	var probe any
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("invalid workflow data: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	def, ok := s.definitions[id]
	if !ok {
		return fmt.Errorf("workflow %s: not found", id)
	}
	def.Name = name
	def.Description = description
	def.Data = data
	def.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryDefinitionStore) Load(id string) (*Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.definitions[id]
	if !ok {
		return nil, fmt.Errorf("workflow %s: not found", id)
	}
	clone := *def
	clone.Data = append(json.RawMessage(nil), def.Data...)
	return &clone, nil
}

func (s *MemoryDefinitionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.definitions[id]; !ok {
		return fmt.Errorf("workflow %s: not found", id)
	}
	delete(s.definitions, id)
	return nil
}

func (s *MemoryDefinitionStore) List() []DefinitionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DefinitionSummary, 0, len(s.definitions))
	for _, def := range s.definitions {
		out = append(out, DefinitionSummary{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			CreatedAt:   def.CreatedAt,
			UpdatedAt:   def.UpdatedAt,
		})
	}
	return out
}

func (s *MemoryDefinitionStore) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.definitions[id]
	return ok
}

var _ DefinitionStore = (*MemoryDefinitionStore)(nil)
