// Package jsondb implements the storage interface on top of a single JSON
// document file. The whole dataset is kept in memory and flushed to disk on
// Close. Transactions are accepted for interface compatibility and ignored.
package jsondb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/placeshare/internal/place"
	"github.com/patric-chuzhbe/placeshare/internal/user"
)

type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	Cache    CacheStruct
}

type CacheStruct struct {
	Users  map[string]*user.User
	Places map[string]*place.Place
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"Users": {},
	"Places": {}
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %s", err)
	}

	file, err2 := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err2 != nil {
		return fmt.Errorf("error opening file: %s", err2)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %s", err)
	}

	return nil
}

func parseJSONFile(fileName string, cacheMap *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	err = decoder.Decode(cacheMap)
	if err != nil {
		return err
	}

	return nil
}

func New(fileName string) (*JSONDB, error) {
	theDB := JSONDB{
		fileName: fileName,
		Cache:    CacheStruct{},
	}

	err := parseJSONFile(theDB.fileName, &theDB.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		err := initDBFile(fileName)
		if err != nil {
			return nil, err
		}
		err = parseJSONFile(theDB.fileName, &theDB.Cache)
		if err != nil {
			return nil, err
		}
	}

	if theDB.Cache.Users == nil {
		theDB.Cache.Users = map[string]*user.User{}
	}
	if theDB.Cache.Places == nil {
		theDB.Cache.Places = map[string]*place.Place{}
	}

	return &theDB, nil
}

// The file backend has no real transactions. The methods exist so the
// storage interface stays uniform across backends.

func (db *JSONDB) BeginTransaction() (*sql.Tx, error) {
	return nil, nil
}

func (db *JSONDB) CommitTransaction(transaction *sql.Tx) error {
	return nil
}

func (db *JSONDB) RollbackTransaction(transaction *sql.Tx) error {
	return nil
}

func (db *JSONDB) GetPlaceByID(ctx context.Context, placeID string) (*place.Place, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	found, ok := db.Cache.Places[placeID]
	if !ok {
		return nil, false, nil
	}
	result := *found

	return &result, true, nil
}

func (db *JSONDB) FindPlacesByCreator(ctx context.Context, userID string) ([]place.Place, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	usr, ok := db.Cache.Users[userID]
	if !ok {
		return nil, nil
	}

	result := make([]place.Place, 0, len(usr.Places))
	for _, placeID := range usr.Places {
		if p, ok := db.Cache.Places[placeID]; ok {
			result = append(result, *p)
		}
	}

	return result, nil
}

func (db *JSONDB) InsertPlace(ctx context.Context, p *place.Place, transaction *sql.Tx) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	stored := *p
	db.Cache.Places[p.ID] = &stored

	return p.ID, nil
}

func (db *JSONDB) UpdatePlace(ctx context.Context, p *place.Place, transaction *sql.Tx) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored := *p
	db.Cache.Places[p.ID] = &stored

	return nil
}

func (db *JSONDB) DeletePlace(ctx context.Context, placeID string, transaction *sql.Tx) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.Cache.Places, placeID)

	return nil
}

func (db *JSONDB) CreateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	stored := *usr
	db.Cache.Users[usr.ID] = &stored

	return usr.ID, nil
}

func (db *JSONDB) GetUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	found, ok := db.Cache.Users[userID]
	if !ok {
		return nil, false, nil
	}
	result := *found

	return &result, true, nil
}

func (db *JSONDB) GetUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, usr := range db.Cache.Users {
		if usr.Email == email {
			result := *usr
			return &result, true, nil
		}
	}

	return nil, false, nil
}

func (db *JSONDB) GetUsers(ctx context.Context) ([]user.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	result := make([]user.User, 0, len(db.Cache.Users))
	for _, usr := range db.Cache.Users {
		result = append(result, *usr)
	}

	return result, nil
}

func (db *JSONDB) AppendPlaceToUser(ctx context.Context, userID, placeID string, transaction *sql.Tx) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	usr, ok := db.Cache.Users[userID]
	if !ok {
		return fmt.Errorf("no user with ID %q", userID)
	}
	if !funk.ContainsString(usr.Places, placeID) {
		usr.Places = append(usr.Places, placeID)
	}

	return nil
}

func (db *JSONDB) RemovePlaceFromUser(ctx context.Context, userID, placeID string, transaction *sql.Tx) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	usr, ok := db.Cache.Users[userID]
	if !ok {
		return fmt.Errorf("no user with ID %q", userID)
	}
	usr.Places = funk.FilterString(usr.Places, func(id string) bool {
		return id != placeID
	})

	return nil
}

func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

func (db *JSONDB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	err := writeToJSONFile(db.fileName, db.Cache)
	if err != nil {
		return err
	}

	return nil
}
