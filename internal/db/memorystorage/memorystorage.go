// Package memorystorage provides a purely in-memory storage backend.
// It reuses the jsondb cache structure without a backing file, for tests
// and local development.
package memorystorage

import (
	"context"

	"github.com/patric-chuzhbe/placeshare/internal/db/jsondb"
	"github.com/patric-chuzhbe/placeshare/internal/place"
	"github.com/patric-chuzhbe/placeshare/internal/user"
)

type MemoryStorage struct {
	*jsondb.JSONDB
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: &jsondb.JSONDB{
			Cache: jsondb.CacheStruct{
				Users:  map[string]*user.User{},
				Places: map[string]*place.Place{},
			},
		},
	}, nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}

func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
