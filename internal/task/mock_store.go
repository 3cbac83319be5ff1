package task

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/melodia/melodia-api/internal/domain"
	"github.com/melodia/melodia-api/internal/store"
)

// In-memory store implementations used by the pipeline tests. They honor
// the same contracts as the PostgreSQL stores, including the conditional
// status transition, so the state machine can be exercised without a
// database.

// MemoryPromptStore is an in-memory store.PromptStore.
type MemoryPromptStore struct {
	mu      sync.Mutex
	prompts map[uuid.UUID]domain.Prompt

	// Optional fault injection, consumed one call at a time.
	UpdateStatusErrs []error
}

// NewMemoryPromptStore creates an empty in-memory prompt store.
func NewMemoryPromptStore() *MemoryPromptStore {
	return &MemoryPromptStore{prompts: make(map[uuid.UUID]domain.Prompt)}
}

var _ store.PromptStore = (*MemoryPromptStore)(nil)

func (s *MemoryPromptStore) Create(_ context.Context, prompt *domain.Prompt) error {
	if err := prompt.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.prompts[prompt.ID]; exists {
		return store.ErrDuplicate
	}
	s.prompts[prompt.ID] = *prompt
	return nil
}

func (s *MemoryPromptStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prompt, ok := s.prompts[id]
	if !ok {
		return nil, store.ErrPromptNotFound
	}
	copied := prompt
	return &copied, nil
}

func (s *MemoryPromptStore) UpdateStatusIf(
	_ context.Context,
	id uuid.UUID,
	expected domain.PromptStatus,
	next domain.PromptStatus,
	reason string,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.UpdateStatusErrs) > 0 {
		err := s.UpdateStatusErrs[0]
		s.UpdateStatusErrs = s.UpdateStatusErrs[1:]
		if err != nil {
			return false, err
		}
	}

	prompt, ok := s.prompts[id]
	if !ok || prompt.Status != expected {
		return false, nil
	}

	prompt.Status = next
	prompt.FailureReason = reason
	prompt.UpdatedAt = time.Now().UTC()
	s.prompts[id] = prompt
	return true, nil
}

func (s *MemoryPromptStore) CompleteWithArtifact(
	_ context.Context,
	id uuid.UUID,
	artifactID uuid.UUID,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prompt, ok := s.prompts[id]
	if !ok || prompt.Status != domain.PromptStatusProcessing {
		return false, nil
	}

	prompt.Status = domain.PromptStatusCompleted
	prompt.ArtifactID = &artifactID
	prompt.FailureReason = ""
	prompt.UpdatedAt = time.Now().UTC()
	s.prompts[id] = prompt
	return true, nil
}

func (s *MemoryPromptStore) ListByStatus(
	_ context.Context,
	status domain.PromptStatus,
	limit int,
) ([]*domain.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*domain.Prompt
	for _, prompt := range s.prompts {
		if prompt.Status != status {
			continue
		}
		copied := prompt
		result = append(result, &copied)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (s *MemoryPromptStore) ListByUser(
	_ context.Context,
	userID uuid.UUID,
	limit int,
	offset int,
) ([]*domain.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []*domain.Prompt
	for _, prompt := range s.prompts {
		if prompt.UserID != userID {
			continue
		}
		copied := prompt
		all = append(all, &copied)
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *MemoryPromptStore) WithTx(_ *sql.Tx) store.PromptStore { return s }

// MemoryArtifactStore is an in-memory store.ArtifactStore with the same
// one-artifact-per-prompt guarantee as the database schema.
type MemoryArtifactStore struct {
	mu        sync.Mutex
	artifacts map[uuid.UUID]domain.Artifact
	byPrompt  map[uuid.UUID]uuid.UUID

	CreateErrs []error
}

// NewMemoryArtifactStore creates an empty in-memory artifact store.
func NewMemoryArtifactStore() *MemoryArtifactStore {
	return &MemoryArtifactStore{
		artifacts: make(map[uuid.UUID]domain.Artifact),
		byPrompt:  make(map[uuid.UUID]uuid.UUID),
	}
}

var _ store.ArtifactStore = (*MemoryArtifactStore)(nil)

func (s *MemoryArtifactStore) Create(_ context.Context, artifact *domain.Artifact) error {
	if err := artifact.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.CreateErrs) > 0 {
		err := s.CreateErrs[0]
		s.CreateErrs = s.CreateErrs[1:]
		if err != nil {
			return err
		}
	}

	if _, exists := s.byPrompt[artifact.PromptID]; exists {
		return store.ErrArtifactExists
	}
	s.artifacts[artifact.ID] = *artifact
	s.byPrompt[artifact.PromptID] = artifact.ID
	return nil
}

func (s *MemoryArtifactStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	artifact, ok := s.artifacts[id]
	if !ok {
		return nil, store.ErrArtifactNotFound
	}
	copied := artifact
	return &copied, nil
}

func (s *MemoryArtifactStore) GetByPromptID(_ context.Context, promptID uuid.UUID) (*domain.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byPrompt[promptID]
	if !ok {
		return nil, store.ErrArtifactNotFound
	}
	artifact := s.artifacts[id]
	return &artifact, nil
}

func (s *MemoryArtifactStore) WithTx(_ *sql.Tx) store.ArtifactStore { return s }
