// Package mockstorage provides a testify-based mock implementation
// of the internal storage interfaces used by the service package.
// It is used for unit testing business logic by simulating storage behavior.
package mockstorage

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/placeshare/internal/place"
	"github.com/patric-chuzhbe/placeshare/internal/user"
)

// StorageMock is a testify mock that implements all interfaces
// used by the service for storage operations.
//
// Use it in service tests to simulate database behavior.
type StorageMock struct {
	mock.Mock
}

// Ping mocks the pinger interface to simulate a health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// BeginTransaction mocks the beginning of a transaction.
func (m *StorageMock) BeginTransaction() (*sql.Tx, error) {
	args := m.Called()
	tx, _ := args.Get(0).(*sql.Tx)
	return tx, args.Error(1)
}

// CommitTransaction mocks committing a transaction.
func (m *StorageMock) CommitTransaction(tx *sql.Tx) error {
	args := m.Called(tx)
	return args.Error(0)
}

// RollbackTransaction mocks rolling back a transaction.
func (m *StorageMock) RollbackTransaction(tx *sql.Tx) error {
	args := m.Called(tx)
	return args.Error(0)
}

// GetPlaceByID mocks fetching a place by its ID.
func (m *StorageMock) GetPlaceByID(ctx context.Context, placeID string) (*place.Place, bool, error) {
	args := m.Called(ctx, placeID)
	found, _ := args.Get(0).(*place.Place)
	return found, args.Bool(1), args.Error(2)
}

// FindPlacesByCreator mocks fetching the places owned by a user.
func (m *StorageMock) FindPlacesByCreator(ctx context.Context, userID string) ([]place.Place, error) {
	args := m.Called(ctx, userID)
	places, _ := args.Get(0).([]place.Place)
	return places, args.Error(1)
}

// InsertPlace mocks inserting a new place record.
func (m *StorageMock) InsertPlace(ctx context.Context, p *place.Place, tx *sql.Tx) (string, error) {
	args := m.Called(ctx, p, tx)
	return args.String(0), args.Error(1)
}

// UpdatePlace mocks saving a place's mutable fields.
func (m *StorageMock) UpdatePlace(ctx context.Context, p *place.Place, tx *sql.Tx) error {
	args := m.Called(ctx, p, tx)
	return args.Error(0)
}

// DeletePlace mocks removing a place record.
func (m *StorageMock) DeletePlace(ctx context.Context, placeID string, tx *sql.Tx) error {
	args := m.Called(ctx, placeID, tx)
	return args.Error(0)
}

// CreateUser mocks user creation and returns a generated ID.
func (m *StorageMock) CreateUser(ctx context.Context, usr *user.User, tx *sql.Tx) (string, error) {
	args := m.Called(ctx, usr, tx)
	return args.String(0), args.Error(1)
}

// GetUserByID mocks fetching a user by their ID.
func (m *StorageMock) GetUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	args := m.Called(ctx, userID)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// GetUserByEmail mocks fetching a user by their unique email.
func (m *StorageMock) GetUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	args := m.Called(ctx, email)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// GetUsers mocks fetching all user records.
func (m *StorageMock) GetUsers(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]user.User)
	return users, args.Error(1)
}

// AppendPlaceToUser mocks linking a place to its owner's collection.
func (m *StorageMock) AppendPlaceToUser(ctx context.Context, userID, placeID string, tx *sql.Tx) error {
	args := m.Called(ctx, userID, placeID, tx)
	return args.Error(0)
}

// RemovePlaceFromUser mocks pulling a place from its owner's collection.
func (m *StorageMock) RemovePlaceFromUser(ctx context.Context, userID, placeID string, tx *sql.Tx) error {
	args := m.Called(ctx, userID, placeID, tx)
	return args.Error(0)
}

// Close mocks closing the storage and releasing resources.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
