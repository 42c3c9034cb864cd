// Package app initializes and runs the main application service.
// It configures logging, storage, geocoding, authentication, upload handling,
// and routing, and handles graceful shutdown.
package app

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/placeshare/internal/auth"
	"github.com/patric-chuzhbe/placeshare/internal/config"
	"github.com/patric-chuzhbe/placeshare/internal/db/jsondb"
	"github.com/patric-chuzhbe/placeshare/internal/db/memorystorage"
	"github.com/patric-chuzhbe/placeshare/internal/db/postgresdb"
	"github.com/patric-chuzhbe/placeshare/internal/geocoder"
	"github.com/patric-chuzhbe/placeshare/internal/imageremover"
	"github.com/patric-chuzhbe/placeshare/internal/logger"
	"github.com/patric-chuzhbe/placeshare/internal/models"
	"github.com/patric-chuzhbe/placeshare/internal/place"
	"github.com/patric-chuzhbe/placeshare/internal/router"
	"github.com/patric-chuzhbe/placeshare/internal/service"
	"github.com/patric-chuzhbe/placeshare/internal/upload"
	"github.com/patric-chuzhbe/placeshare/internal/user"
)

type transactioner interface {
	BeginTransaction() (*sql.Tx, error)

	RollbackTransaction(transaction *sql.Tx) error

	CommitTransaction(transaction *sql.Tx) error
}

type placesKeeper interface {
	GetPlaceByID(ctx context.Context, placeID string) (*place.Place, bool, error)

	FindPlacesByCreator(ctx context.Context, userID string) ([]place.Place, error)

	InsertPlace(ctx context.Context, p *place.Place, transaction *sql.Tx) (string, error)

	UpdatePlace(ctx context.Context, p *place.Place, transaction *sql.Tx) error

	DeletePlace(ctx context.Context, placeID string, transaction *sql.Tx) error
}

type usersKeeper interface {
	CreateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) (string, error)

	GetUserByID(ctx context.Context, userID string) (*user.User, bool, error)

	GetUserByEmail(ctx context.Context, email string) (*user.User, bool, error)

	GetUsers(ctx context.Context) ([]user.User, error)

	AppendPlaceToUser(ctx context.Context, userID, placeID string, transaction *sql.Tx) error

	RemovePlaceFromUser(ctx context.Context, userID, placeID string, transaction *sql.Tx) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	transactioner
	placesKeeper
	usersKeeper
	pinger
	Close() error
}

// App encapsulates the configuration, HTTP handler, storage backend,
// and background services (such as the image remover) needed to run
// the places directory service.
type App struct {
	cfg              *config.Config
	db               storage
	imagesRemover    *imageremover.ImageRemover
	stopImageRemover context.CancelFunc
	httpHandler      http.Handler
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up storage
// - setting up the geocoder, auth, upload, and image remover collaborators
// - setting up the router and middleware
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	tokenSigningSecretKey, err := base64.URLEncoding.DecodeString(app.cfg.AuthTokenSigningSecretKey)
	if err != nil {
		return nil, err
	}

	app.imagesRemover = imageremover.New(
		app.cfg.ImageQueueCapacity,
		app.cfg.DelayBetweenQueueFetches,
	)
	imageRemoverRunCtx, stopImageRemover := context.WithCancel(context.Background())
	app.stopImageRemover = stopImageRemover

	app.imagesRemover.Run(imageRemoverRunCtx)
	app.imagesRemover.ListenErrors(func(err error) {
		logger.Log.Debugln("Error passed from the `app.imagesRemover.ListenErrors()`:", zap.Error(err))
	})

	theUploader, err := upload.New(app.cfg.UploadsDir)
	if err != nil {
		return nil, err
	}

	app.httpHandler = router.New(
		service.New(
			app.db,
			geocoder.New(
				app.cfg.GeocoderAPIURL,
				app.cfg.GeocoderAPIKey,
				app.cfg.GeocoderTimeout,
			),
			app.imagesRemover,
		),
		auth.New(
			tokenSigningSecretKey,
			app.cfg.AuthTokenTTL,
		),
		theUploader,
		app.cfg.UploadsDir,
	)

	return app, nil
}

// Run starts the HTTP server with graceful shutdown support.
// It listens for system signals and cleans up resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Saving database and exiting...")
		a.stopImageRemover()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.DBFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
			cfg.MigrationsDir,
		)

	case models.StorageTypeFile:
		return jsondb.New(cfg.DBFileName)
	}

	return memorystorage.New()
}
