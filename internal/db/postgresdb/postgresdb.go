// Package postgresdb provides a PostgreSQL-based implementation of the storage
// interface for persisting users and place listings. It supports transactional
// multi-record operations used to keep the place/user ownership link consistent.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/patric-chuzhbe/placeshare/internal/place"
	"github.com/patric-chuzhbe/placeshare/internal/user"
)

// PostgresDB is a PostgreSQL-backed implementation of the places storage.
// It handles all persistence operations via a PostgreSQL database connection.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type initOptions struct {
	DBPreReset bool
}

// InitOption defines a functional option for configuring database initialization.
type InitOption func(*initOptions)

// WithDBPreReset enables or disables resetting the database schema before migration.
// It can be used for test setups or development purposes.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New establishes a connection to the PostgreSQL database,
// runs schema migrations, and returns a configured PostgresDB instance.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
	optionsProto ...InitOption,
) (*PostgresDB, error) {
	options := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if options.DBPreReset {
		if err := result.resetDB(ctx); err != nil {
			return nil, fmt.Errorf("error while `result.resetDB()` calling: %w", err)
		}
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("error while `goose.SetDialect()` calling: %w", err)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil, fmt.Errorf("error while `goose.Up()` calling: %w", err)
	}

	return result, nil
}

func (db *PostgresDB) queryerFor(transaction *sql.Tx) queryer {
	if transaction == nil {
		return db.database
	}
	return transaction
}

func (db *PostgresDB) executorFor(transaction *sql.Tx) executor {
	if transaction == nil {
		return db.database
	}
	return transaction
}

// GetPlaceByID fetches a place by its UUID. A malformed identifier is
// reported as "not found" rather than as a driver error.
func (db *PostgresDB) GetPlaceByID(ctx context.Context, placeID string) (*place.Place, bool, error) {
	if uuid.Validate(placeID) != nil {
		return nil, false, nil
	}

	row := db.database.QueryRowContext(
		ctx,
		`
			SELECT id, title, description, address, latitude, longitude, image, creator
				FROM places
				WHERE id = $1
		`,
		placeID,
	)

	var result place.Place
	err := row.Scan(
		&result.ID,
		&result.Title,
		&result.Description,
		&result.Address,
		&result.Location.Lat,
		&result.Location.Lng,
		&result.Image,
		&result.Creator,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &result, true, nil
}

// FindPlacesByCreator returns the places owned by the given user,
// in the order they were added to the owner's collection.
func (db *PostgresDB) FindPlacesByCreator(ctx context.Context, userID string) ([]place.Place, error) {
	if uuid.Validate(userID) != nil {
		return nil, nil
	}

	rows, err := db.database.QueryContext(
		ctx,
		`
			SELECT places.id, places.title, places.description, places.address,
					places.latitude, places.longitude, places.image, places.creator
				FROM places
					JOIN users_places ON users_places.place_id = places.id
						AND users_places.user_id = $1
				ORDER BY users_places.position
		`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []place.Place{}
	for rows.Next() {
		var p place.Place
		err = rows.Scan(
			&p.ID,
			&p.Title,
			&p.Description,
			&p.Address,
			&p.Location.Lat,
			&p.Location.Lng,
			&p.Image,
			&p.Creator,
		)
		if err != nil {
			return nil, err
		}

		result = append(result, p)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return result, nil
}

// InsertPlace creates a new place record and returns the generated ID.
func (db *PostgresDB) InsertPlace(ctx context.Context, p *place.Place, transaction *sql.Tx) (string, error) {
	row := db.queryerFor(transaction).QueryRowContext(
		ctx,
		`
			INSERT INTO places (title, description, address, latitude, longitude, image, creator)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id
		`,
		p.Title,
		p.Description,
		p.Address,
		p.Location.Lat,
		p.Location.Lng,
		p.Image,
		p.Creator,
	)

	var placeIDFromDB string
	err := row.Scan(&placeIDFromDB)
	if err != nil {
		return "", err
	}

	return placeIDFromDB, nil
}

// UpdatePlace saves the mutable fields of an existing place record.
func (db *PostgresDB) UpdatePlace(ctx context.Context, p *place.Place, transaction *sql.Tx) error {
	_, err := db.executorFor(transaction).ExecContext(
		ctx,
		`
			UPDATE places
				SET title = $1, description = $2
				WHERE id = $3
		`,
		p.Title,
		p.Description,
		p.ID,
	)

	return err
}

// DeletePlace removes a place record.
func (db *PostgresDB) DeletePlace(ctx context.Context, placeID string, transaction *sql.Tx) error {
	_, err := db.executorFor(transaction).ExecContext(
		ctx,
		`DELETE FROM places WHERE id = $1`,
		placeID,
	)

	return err
}

// CreateUser inserts a new user record into the database.
// Returns the created user ID or an error if insertion fails.
func (db *PostgresDB) CreateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) (string, error) {
	row := db.queryerFor(transaction).QueryRowContext(
		ctx,
		`
			INSERT INTO users (name, email, password, image)
				VALUES ($1, $2, $3, $4)
				RETURNING id
		`,
		usr.Name,
		usr.Email,
		usr.Password,
		usr.Image,
	)

	var userIDFromDB string
	err := row.Scan(&userIDFromDB)
	if err != nil {
		return "", err
	}

	return userIDFromDB, nil
}

// GetUserByID fetches a user by their UUID, with the owned place IDs resolved.
func (db *PostgresDB) GetUserByID(ctx context.Context, userID string) (*user.User, bool, error) {
	if uuid.Validate(userID) != nil {
		return nil, false, nil
	}

	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, name, email, password, image FROM users WHERE id = $1`,
		userID,
	)

	return db.scanUser(ctx, row)
}

// GetUserByEmail fetches a user by their unique email address.
func (db *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, name, email, password, image FROM users WHERE email = $1`,
		email,
	)

	return db.scanUser(ctx, row)
}

func (db *PostgresDB) scanUser(ctx context.Context, row *sql.Row) (*user.User, bool, error) {
	var result user.User
	err := row.Scan(
		&result.ID,
		&result.Name,
		&result.Email,
		&result.Password,
		&result.Image,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	places, err := db.getUserPlaceIDs(ctx, result.ID)
	if err != nil {
		return nil, false, err
	}
	result.Places = places

	return &result, true, nil
}

func (db *PostgresDB) getUserPlaceIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`SELECT place_id FROM users_places WHERE user_id = $1 ORDER BY position`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []string{}
	for rows.Next() {
		var placeID string
		if err := rows.Scan(&placeID); err != nil {
			return nil, err
		}
		result = append(result, placeID)
	}

	return result, rows.Err()
}

// GetUsers returns all user records with their owned place IDs resolved.
func (db *PostgresDB) GetUsers(ctx context.Context) ([]user.User, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`SELECT id, name, email, password, image FROM users ORDER BY email`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []user.User{}
	for rows.Next() {
		var usr user.User
		err = rows.Scan(&usr.ID, &usr.Name, &usr.Email, &usr.Password, &usr.Image)
		if err != nil {
			return nil, err
		}

		result = append(result, usr)
	}

	err = rows.Err()
	if err != nil {
		return nil, err
	}

	for i := range result {
		places, err := db.getUserPlaceIDs(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Places = places
	}

	return result, nil
}

// AppendPlaceToUser links a place to its owner's ordered collection.
// It is expected to run inside the same transaction as InsertPlace.
func (db *PostgresDB) AppendPlaceToUser(ctx context.Context, userID, placeID string, transaction *sql.Tx) error {
	_, err := db.executorFor(transaction).ExecContext(
		ctx,
		`
			INSERT INTO users_places (user_id, place_id)
				VALUES ($1, $2)
				ON CONFLICT (user_id, place_id) DO NOTHING
		`,
		userID,
		placeID,
	)

	return err
}

// RemovePlaceFromUser pulls a place from its owner's collection.
// It is expected to run inside the same transaction as DeletePlace.
func (db *PostgresDB) RemovePlaceFromUser(ctx context.Context, userID, placeID string, transaction *sql.Tx) error {
	_, err := db.executorFor(transaction).ExecContext(
		ctx,
		`DELETE FROM users_places WHERE user_id = $1 AND place_id = $2`,
		userID,
		placeID,
	)

	return err
}

// BeginTransaction starts a new SQL transaction and returns it.
// The caller is responsible for committing or rolling it back.
func (db *PostgresDB) BeginTransaction() (*sql.Tx, error) {
	return db.database.Begin()
}

// CommitTransaction commits the given SQL transaction.
func (db *PostgresDB) CommitTransaction(transaction *sql.Tx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic occurred while committing transaction: %v", r)
		}
	}()

	return transaction.Commit()
}

// RollbackTransaction rolls back the given SQL transaction.
func (db *PostgresDB) RollbackTransaction(transaction *sql.Tx) error {
	return transaction.Rollback()
}

// Ping verifies connectivity with the PostgreSQL database within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close closes the database connection and releases any associated resources.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}

func (db *PostgresDB) resetDB(ctx context.Context) error {
	_, err := db.database.ExecContext(
		ctx,
		`
			DO $$
			DECLARE
				r RECORD;
			BEGIN
				FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public') LOOP
					EXECUTE 'DROP TABLE IF EXISTS ' || quote_ident(r.tablename) || ' CASCADE';
				END LOOP;
			END $$;
		`,
	)
	if err != nil {
		return fmt.Errorf("error while `db.database.ExecContext()` calling: %w", err)
	}
	return nil
}
