// Package mocks provides testify mocks of the repository interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/blogem/registros/models"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockUserRepository is a mock of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a mock that asserts its expectations on cleanup
func NewMockUserRepository(t testingT) *MockUserRepository {
	m := &MockUserRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

// MockRecordRepository is a mock of repositories.RecordRepository
type MockRecordRepository struct {
	mock.Mock
}

// NewMockRecordRepository creates a mock that asserts its expectations on cleanup
func NewMockRecordRepository(t testingT) *MockRecordRepository {
	m := &MockRecordRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRecordRepository) InsertBatch(ctx context.Context, records []models.Record) (int, error) {
	args := m.Called(ctx, records)
	return args.Int(0), args.Error(1)
}

func (m *MockRecordRepository) ListNewestFirst(ctx context.Context) ([]models.Record, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]models.Record)
	return records, args.Error(1)
}

// MockEventRepository is a mock of repositories.EventRepository
type MockEventRepository struct {
	mock.Mock
}

// NewMockEventRepository creates a mock that asserts its expectations on cleanup
func NewMockEventRepository(t testingT) *MockEventRepository {
	m := &MockEventRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockEventRepository) Create(ctx context.Context, user string, action models.Action) error {
	args := m.Called(ctx, user, action)
	return args.Error(0)
}

func (m *MockEventRepository) ListNewestFirst(ctx context.Context) ([]models.Event, error) {
	args := m.Called(ctx)
	events, _ := args.Get(0).([]models.Event)
	return events, args.Error(1)
}
