// Package service implements the business logic of the places directory:
// place CRUD with transactional ownership maintenance, and user signup/login.
package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/placeshare/internal/logger"
	"github.com/patric-chuzhbe/placeshare/internal/models"
	"github.com/patric-chuzhbe/placeshare/internal/place"
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
}

type addressGeocoder interface {
	GeocodeAddress(ctx context.Context, address string) (place.Location, error)
}

type imagesRemover interface {
	EnqueueJob(job *models.ImageDeleteJob)
}

// DefaultUserImage is the placeholder avatar assigned at signup when the
// client supplies none.
const DefaultUserImage = "uploads/images/default-avatar.png"

type Service struct {
	db            storage
	geocoder      addressGeocoder
	imagesRemover imagesRemover
}

func New(
	db storage,
	geocoder addressGeocoder,
	imagesRemover imagesRemover,
) *Service {
	return &Service{
		db:            db,
		geocoder:      geocoder,
		imagesRemover: imagesRemover,
	}
}

// GetPlaceByID returns the place with the given ID, or a 404 HTTPError when
// no such place exists.
func (s *Service) GetPlaceByID(ctx context.Context, placeID string) (*place.Place, error) {
	found, ok, err := s.db.GetPlaceByID(ctx, placeID)
	if err != nil {
		logger.Log.Debugln("Error calling the `s.db.GetPlaceByID()`: ", zap.Error(err))
		return nil, models.NewHTTPError("Something went wrong, could not find a place.", http.StatusInternalServerError)
	}
	if !ok {
		return nil, models.NewHTTPError("Could not find place for provided id.", http.StatusNotFound)
	}

	return found, nil
}

// GetPlacesByUser returns the places owned by the given user. An empty result
// is reported as a 404, matching the API's historic behavior of conflating
// "unknown user" with "user has no places".
func (s *Service) GetPlacesByUser(ctx context.Context, userID string) ([]place.Place, error) {
	places, err := s.db.FindPlacesByCreator(ctx, userID)
	if err != nil {
		logger.Log.Debugln("Error calling the `s.db.FindPlacesByCreator()`: ", zap.Error(err))
		return nil, models.NewHTTPError("Fetching places failed, please try again later.", http.StatusInternalServerError)
	}

	if len(places) == 0 {
		return nil, models.NewHTTPError("Could not find places for the provided user id.", http.StatusNotFound)
	}

	return places, nil
}

// CreatePlace geocodes the address, verifies the creator exists, and inserts
// the place together with the owner's collection update in one transaction.
// No partial write becomes visible when any step fails.
func (s *Service) CreatePlace(
	ctx context.Context,
	request models.CreatePlaceRequest,
	imagePath string,
) (*place.Place, error) {
	location, err := s.geocoder.GeocodeAddress(ctx, request.Address)
	if err != nil {
		if errors.Is(err, models.ErrNoLocationFound) {
			return nil, models.NewHTTPError("Could not find location for specified address.", http.StatusUnprocessableEntity)
		}
		logger.Log.Debugln("Error calling the `s.geocoder.GeocodeAddress()`: ", zap.Error(err))
		return nil, models.NewHTTPError("Creating place failed, please try again.", http.StatusInternalServerError)
	}

	creator, ok, err := s.db.GetUserByID(ctx, request.Creator)
	if err != nil {
		logger.Log.Debugln("Error calling the `s.db.GetUserByID()`: ", zap.Error(err))
		return nil, models.NewHTTPError("Creating place failed, please try again.", http.StatusInternalServerError)
	}
	if !ok {
		return nil, models.NewHTTPError("Could not find user for provided id.", http.StatusNotFound)
	}

	createdPlace := &place.Place{
		Title:       request.Title,
		Description: request.Description,
		Address:     request.Address,
		Location:    location,
		Image:       imagePath,
		Creator:     creator.ID,
	}

	tx, err := s.db.BeginTransaction()
	if err != nil {
		logger.Log.Debugln("Error calling the `s.db.BeginTransaction()`: ", zap.Error(err))
		return nil, models.NewHTTPError("Creating place failed, please try again.", http.StatusInternalServerError)
	}
	defer func() {
		_ = s.db.RollbackTransaction(tx)
	}()

	placeID, err := s.db.InsertPlace(ctx, createdPlace, tx)
	if err != nil {
		logger.Log.Debugln("Error calling the `s.db.InsertPlace()`: ", zap.Error(err))
		return nil, models.NewHTTPError("Creating place failed, please try again.", http.StatusInternalServerError)
	}
	createdPlace.ID = placeID

	if err := s.db.AppendPlaceToUser(ctx, creator.ID, placeID, tx); err != nil {
		logger.Log.Debugln("Error calling the `s.db.AppendPlaceToUser()`: ", zap.Error(err))
		return nil, models.NewHTTPError("Creating place failed, please try again.", http.StatusInternalServerError)
	}

	if err := s.db.CommitTransaction(tx); err != nil {
		logger.Log.Debugln("Error calling the `s.db.CommitTransaction()`: ", zap.Error(err))
		return nil, models.NewHTTPError("Creating place failed, please try again.", http.StatusInternalServerError)
	}

	return createdPlace, nil
}

// UpdatePlace mutates the title and description of an existing place.
func (s *Service) UpdatePlace(
	ctx context.Context,
	placeID string,
	request models.UpdatePlaceRequest,
) (*place.Place, error) {
	found, ok, err := s.db.GetPlaceByID(ctx, placeID)
	if err != nil {
		logger.Log.Debugln("Error calling the `s.db.GetPlaceByID()`: ", zap.Error(err))
		return nil, models.NewHTTPError("Something went wrong, could not update place.", http.StatusInternalServerError)
	}
	if !ok {
		return nil, models.NewHTTPError("Could not find place for provided id.", http.StatusNotFound)
	}

	found.Title = request.Title
	found.Description = request.Description

	if err := s.db.UpdatePlace(ctx, found, nil); err != nil {
		logger.Log.Debugln("Error calling the `s.db.UpdatePlace()`: ", zap.Error(err))
		return nil, models.NewHTTPError("Something went wrong, could not update place.", http.StatusInternalServerError)
	}

	return found, nil
}

// DeletePlace removes a place and pulls it from the owner's collection in one
// transaction, then schedules a best-effort removal of the stored image file.
func (s *Service) DeletePlace(ctx context.Context, placeID string) error {
	found, ok, err := s.db.GetPlaceByID(ctx, placeID)
	if err != nil {
		logger.Log.Debugln("Error calling the `s.db.GetPlaceByID()`: ", zap.Error(err))
		return models.NewHTTPError("Something went wrong, could not delete place.", http.StatusInternalServerError)
	}
	if !ok {
		return models.NewHTTPError("Could not find place for this id.", http.StatusNotFound)
	}

	tx, err := s.db.BeginTransaction()
	if err != nil {
		logger.Log.Debugln("Error calling the `s.db.BeginTransaction()`: ", zap.Error(err))
		return models.NewHTTPError("Something went wrong, could not delete place.", http.StatusInternalServerError)
	}
	defer func() {
		_ = s.db.RollbackTransaction(tx)
	}()

	if err := s.db.RemovePlaceFromUser(ctx, found.Creator, found.ID, tx); err != nil {
		logger.Log.Debugln("Error calling the `s.db.RemovePlaceFromUser()`: ", zap.Error(err))
		return models.NewHTTPError("Something went wrong, could not delete place.", http.StatusInternalServerError)
	}

	if err := s.db.DeletePlace(ctx, found.ID, tx); err != nil {
		logger.Log.Debugln("Error calling the `s.db.DeletePlace()`: ", zap.Error(err))
		return models.NewHTTPError("Something went wrong, could not delete place.", http.StatusInternalServerError)
	}

	if err := s.db.CommitTransaction(tx); err != nil {
		logger.Log.Debugln("Error calling the `s.db.CommitTransaction()`: ", zap.Error(err))
		return models.NewHTTPError("Something went wrong, could not delete place.", http.StatusInternalServerError)
	}

	s.imagesRemover.EnqueueJob(&models.ImageDeleteJob{ImagePath: found.Image})

	return nil
}

// GetUsers returns all users. Passwords never leave the service layer in
// serialized form since the user model excludes them from JSON.
func (s *Service) GetUsers(ctx context.Context) ([]user.User, error) {
	users, err := s.db.GetUsers(ctx)
	if err != nil {
		logger.Log.Debugln("Error calling the `s.db.GetUsers()`: ", zap.Error(err))
		return nil, models.NewHTTPError("Fetching users failed, please try again later.", http.StatusInternalServerError)
	}

	return users, nil
}

// Signup creates a new user after checking email uniqueness.
func (s *Service) Signup(ctx context.Context, request models.SignupRequest) (*user.User, error) {
	_, exists, err := s.db.GetUserByEmail(ctx, request.Email)
	if err != nil {
		logger.Log.Debugln("Error calling the `s.db.GetUserByEmail()`: ", zap.Error(err))
		return nil, models.NewHTTPError("Signing up failed, please try again later.", http.StatusInternalServerError)
	}
	if exists {
		return nil, models.NewHTTPError("Could not create user, email already exists.", http.StatusUnprocessableEntity)
	}

	image := request.Image
	if image == "" {
		image = DefaultUserImage
	}

	createdUser := &user.User{
		Name:     request.Name,
		Email:    request.Email,
		Password: request.Password,
		Image:    image,
		Places:   []string{},
	}

	userID, err := s.db.CreateUser(ctx, createdUser, nil)
	if err != nil {
		logger.Log.Debugln("Error calling the `s.db.CreateUser()`: ", zap.Error(err))
		return nil, models.NewHTTPError("Signing up failed, please try again later.", http.StatusInternalServerError)
	}
	createdUser.ID = userID

	return createdUser, nil
}

// Login checks the credentials against the stored user record.
// The password comparison is plain text, matching the stored representation.
func (s *Service) Login(ctx context.Context, request models.LoginRequest) (*user.User, error) {
	identifiedUser, ok, err := s.db.GetUserByEmail(ctx, request.Email)
	if err != nil {
		logger.Log.Debugln("Error calling the `s.db.GetUserByEmail()`: ", zap.Error(err))
		return nil, models.NewHTTPError("Logging in failed, please try again later.", http.StatusInternalServerError)
	}
	if !ok || identifiedUser.Password != request.Password {
		return nil, models.NewHTTPError("Could not identify user, please check credentials.", http.StatusUnauthorized)
	}

	return identifiedUser, nil
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
