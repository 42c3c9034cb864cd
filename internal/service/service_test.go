package service

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/placeshare/internal/db/memorystorage"
	"github.com/patric-chuzhbe/placeshare/internal/logger"
	"github.com/patric-chuzhbe/placeshare/internal/mockstorage"
	"github.com/patric-chuzhbe/placeshare/internal/models"
	"github.com/patric-chuzhbe/placeshare/internal/place"
	"github.com/patric-chuzhbe/placeshare/internal/user"
)

func TestMain(m *testing.M) {
	if err := logger.Init("debug"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type geocoderStub struct {
	location place.Location
	err      error
}

func (g *geocoderStub) GeocodeAddress(ctx context.Context, address string) (place.Location, error) {
	if g.err != nil {
		return place.Location{}, g.err
	}
	return g.location, nil
}

type removerStub struct {
	enqueued []string
}

func (r *removerStub) EnqueueJob(job *models.ImageDeleteJob) {
	r.enqueued = append(r.enqueued, job.ImagePath)
}

func newTestService(t *testing.T, theGeocoder *geocoderStub) (*Service, *memorystorage.MemoryStorage, *removerStub) {
	t.Helper()

	theStorage, err := memorystorage.New()
	require.NoError(t, err)

	theRemover := &removerStub{}

	return New(theStorage, theGeocoder, theRemover), theStorage, theRemover
}

func signupTestUser(t *testing.T, theService *Service) *user.User {
	t.Helper()

	createdUser, err := theService.Signup(context.Background(), models.SignupRequest{
		Name:     "meepo",
		Email:    "test@gmail.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, createdUser.ID)

	return createdUser
}

func assertHTTPErrorCode(t *testing.T, err error, expectedCode int) {
	t.Helper()

	var httpError *models.HTTPError
	require.ErrorAs(t, err, &httpError)
	assert.Equal(t, expectedCode, httpError.Code)
}

func TestCreatePlace(t *testing.T) {
	theService, _, _ := newTestService(t, &geocoderStub{
		location: place.Location{Lat: 40.7484405, Lng: -73.9878584},
	})
	creator := signupTestUser(t, theService)

	createdPlace, err := theService.CreatePlace(
		context.Background(),
		models.CreatePlaceRequest{
			Title:       "Empire State Building",
			Description: "One of the most famous sky scrapers in the world!",
			Address:     "20 W 34th St, New York, NY 10001",
			Creator:     creator.ID,
		},
		"uploads/images/esb.png",
	)
	require.NoError(t, err)

	assert.NotEmpty(t, createdPlace.ID)
	assert.Equal(t, creator.ID, createdPlace.Creator)
	assert.Equal(t, place.Location{Lat: 40.7484405, Lng: -73.9878584}, createdPlace.Location)
	assert.Equal(t, "uploads/images/esb.png", createdPlace.Image)

	places, err := theService.GetPlacesByUser(context.Background(), creator.ID)
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, createdPlace.ID, places[0].ID)
}

func TestCreatePlaceGeocodingZeroResults(t *testing.T) {
	theService, theStorage, _ := newTestService(t, &geocoderStub{err: models.ErrNoLocationFound})
	creator := signupTestUser(t, theService)

	_, err := theService.CreatePlace(
		context.Background(),
		models.CreatePlaceRequest{
			Title:       "Nowhere",
			Description: "A place that does not exist",
			Address:     "no such address",
			Creator:     creator.ID,
		},
		"uploads/images/nowhere.png",
	)
	assertHTTPErrorCode(t, err, http.StatusUnprocessableEntity)

	places, err := theStorage.FindPlacesByCreator(context.Background(), creator.ID)
	require.NoError(t, err)
	assert.Empty(t, places, "no place should be persisted when geocoding fails")
}

func TestCreatePlaceGeocodingProviderFailure(t *testing.T) {
	theService, _, _ := newTestService(t, &geocoderStub{err: errors.New("provider is down")})
	creator := signupTestUser(t, theService)

	_, err := theService.CreatePlace(
		context.Background(),
		models.CreatePlaceRequest{
			Title:       "Somewhere",
			Description: "Some very nice place",
			Address:     "some address",
			Creator:     creator.ID,
		},
		"uploads/images/somewhere.png",
	)
	assertHTTPErrorCode(t, err, http.StatusInternalServerError)
}

func TestCreatePlaceUnknownCreator(t *testing.T) {
	theService, _, _ := newTestService(t, &geocoderStub{})

	_, err := theService.CreatePlace(
		context.Background(),
		models.CreatePlaceRequest{
			Title:       "Orphan place",
			Description: "A place without an owner",
			Address:     "some address",
			Creator:     "unexistent user id",
		},
		"uploads/images/orphan.png",
	)
	assertHTTPErrorCode(t, err, http.StatusNotFound)
}

func TestCreatePlaceCommitFailure(t *testing.T) {
	theStorage := &mockstorage.StorageMock{}
	theService := New(theStorage, &geocoderStub{}, &removerStub{})

	theStorage.On("GetUserByID", mock.Anything, "u1").Return(&user.User{ID: "u1"}, true, nil)
	theStorage.On("BeginTransaction").Return(nil, nil)
	theStorage.On("InsertPlace", mock.Anything, mock.Anything, mock.Anything).Return("p1", nil)
	theStorage.On("AppendPlaceToUser", mock.Anything, "u1", "p1", mock.Anything).Return(nil)
	theStorage.On("CommitTransaction", mock.Anything).Return(errors.New("commit failed"))
	theStorage.On("RollbackTransaction", mock.Anything).Return(nil)

	_, err := theService.CreatePlace(
		context.Background(),
		models.CreatePlaceRequest{
			Title:       "Doomed place",
			Description: "This one will not make it",
			Address:     "some address",
			Creator:     "u1",
		},
		"uploads/images/doomed.png",
	)
	assertHTTPErrorCode(t, err, http.StatusInternalServerError)

	theStorage.AssertCalled(t, "RollbackTransaction", mock.Anything)
}

func TestUpdatePlace(t *testing.T) {
	theService, _, _ := newTestService(t, &geocoderStub{})
	creator := signupTestUser(t, theService)

	createdPlace, err := theService.CreatePlace(
		context.Background(),
		models.CreatePlaceRequest{
			Title:       "The title",
			Description: "The place",
			Address:     "some address",
			Creator:     creator.ID,
		},
		"uploads/images/some.png",
	)
	require.NoError(t, err)

	updatedPlace, err := theService.UpdatePlace(
		context.Background(),
		createdPlace.ID,
		models.UpdatePlaceRequest{
			Title:       "The edited title",
			Description: "The edited place",
		},
	)
	require.NoError(t, err)

	assert.Equal(t, "The edited title", updatedPlace.Title)
	assert.Equal(t, "The edited place", updatedPlace.Description)
	assert.Equal(t, createdPlace.Address, updatedPlace.Address, "the address should stay untouched")
	assert.Equal(t, createdPlace.Image, updatedPlace.Image, "the image should stay untouched")
}

func TestUpdatePlaceNotFound(t *testing.T) {
	theService, _, _ := newTestService(t, &geocoderStub{})

	_, err := theService.UpdatePlace(
		context.Background(),
		"unexistent place id",
		models.UpdatePlaceRequest{
			Title:       "whatever",
			Description: "whatever else",
		},
	)
	assertHTTPErrorCode(t, err, http.StatusNotFound)
}

func TestDeletePlace(t *testing.T) {
	theService, _, theRemover := newTestService(t, &geocoderStub{})
	creator := signupTestUser(t, theService)

	createdPlace, err := theService.CreatePlace(
		context.Background(),
		models.CreatePlaceRequest{
			Title:       "The title",
			Description: "The place",
			Address:     "some address",
			Creator:     creator.ID,
		},
		"uploads/images/to-delete.png",
	)
	require.NoError(t, err)

	err = theService.DeletePlace(context.Background(), createdPlace.ID)
	require.NoError(t, err)

	_, err = theService.GetPlaceByID(context.Background(), createdPlace.ID)
	assertHTTPErrorCode(t, err, http.StatusNotFound)

	_, err = theService.GetPlacesByUser(context.Background(), creator.ID)
	assertHTTPErrorCode(t, err, http.StatusNotFound)

	assert.Equal(t, []string{"uploads/images/to-delete.png"}, theRemover.enqueued,
		"the stored image file should be scheduled for removal")

	// Deleting twice yields success then 404, never a second success.
	err = theService.DeletePlace(context.Background(), createdPlace.ID)
	assertHTTPErrorCode(t, err, http.StatusNotFound)
}

func TestGetPlacesByUserWithoutPlaces(t *testing.T) {
	theService, _, _ := newTestService(t, &geocoderStub{})
	creator := signupTestUser(t, theService)

	_, err := theService.GetPlacesByUser(context.Background(), creator.ID)
	assertHTTPErrorCode(t, err, http.StatusNotFound)
}

func TestSignup(t *testing.T) {
	theService, _, _ := newTestService(t, &geocoderStub{})

	createdUser, err := theService.Signup(context.Background(), models.SignupRequest{
		Name:     "meepo",
		Email:    "test@gmail.com",
		Password: "secret1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, createdUser.ID)
	assert.Equal(t, "test@gmail.com", createdUser.Email)
	assert.Equal(t, DefaultUserImage, createdUser.Image)
	assert.Empty(t, createdUser.Places)
}

func TestSignupDuplicateEmail(t *testing.T) {
	theService, _, _ := newTestService(t, &geocoderStub{})
	signupTestUser(t, theService)

	_, err := theService.Signup(context.Background(), models.SignupRequest{
		Name:     "meepo2",
		Email:    "test@gmail.com",
		Password: "secret2",
	})
	assertHTTPErrorCode(t, err, http.StatusUnprocessableEntity)

	users, err := theService.GetUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1, "no new user record should be created for a taken email")
}

func TestLogin(t *testing.T) {
	theService, _, _ := newTestService(t, &geocoderStub{})
	signupTestUser(t, theService)

	testCases := []struct {
		name         string
		request      models.LoginRequest
		expectedCode int
	}{
		{
			name:         "positive",
			request:      models.LoginRequest{Email: "test@gmail.com", Password: "secret1"},
			expectedCode: 0,
		},
		{
			name:         "wrong password",
			request:      models.LoginRequest{Email: "test@gmail.com", Password: "wrong"},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "unknown email",
			request:      models.LoginRequest{Email: "nobody@gmail.com", Password: "secret1"},
			expectedCode: http.StatusUnauthorized,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			identifiedUser, err := theService.Login(context.Background(), testCase.request)
			if testCase.expectedCode == 0 {
				require.NoError(t, err)
				assert.Equal(t, "test@gmail.com", identifiedUser.Email)
				return
			}
			assertHTTPErrorCode(t, err, testCase.expectedCode)
		})
	}
}
