package mcp

import (
	"context"

	"github.com/quarrylabs/quarry-cli/internal/core/domain"
	"github.com/quarrylabs/quarry-cli/internal/core/ports/driving"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results []domain.RetrievedDocument
	info    *driving.IndexInfo
	err     error

	lastProjectID int64
	lastQuery     string
	lastOpts      domain.SearchOptions
}

func (m *mockRetrievalService) Search(
	_ context.Context,
	projectID int64,
	query string,
	opts domain.SearchOptions,
) ([]domain.RetrievedDocument, error) {
	m.lastProjectID = projectID
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockRetrievalService) IndexInfo(_ context.Context, projectID int64) (*driving.IndexInfo, error) {
	m.lastProjectID = projectID
	return m.info, m.err
}

// mockProjectStore is a mock implementation of driven.ProjectStore.
type mockProjectStore struct {
	projects map[string]*domain.Project
	err      error
}

func (m *mockProjectStore) GetOrCreate(_ context.Context, name string) (*domain.Project, error) {
	if m.err != nil {
		return nil, m.err
	}
	if p, ok := m.projects[name]; ok {
		return p, nil
	}
	p := &domain.Project{ID: int64(len(m.projects) + 1), Name: name}
	if m.projects == nil {
		m.projects = make(map[string]*domain.Project)
	}
	m.projects[name] = p
	return p, nil
}

func (m *mockProjectStore) Get(_ context.Context, _ int64) (*domain.Project, error) {
	return nil, domain.ErrNotFound
}

func (m *mockProjectStore) List(_ context.Context) ([]*domain.Project, error) {
	return nil, m.err
}

func (m *mockProjectStore) Delete(_ context.Context, _ int64) error {
	return m.err
}
