// Package router binds the HTTP surface of the places directory: URL
// patterns, cross-cutting middleware (CORS, logging, auth gating, file
// upload), request validation, and the uniform JSON error formatting.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/placeshare/internal/logger"
	"github.com/patric-chuzhbe/placeshare/internal/models"
	"github.com/patric-chuzhbe/placeshare/internal/place"
	"github.com/patric-chuzhbe/placeshare/internal/upload"
	"github.com/patric-chuzhbe/placeshare/internal/user"
)

// UploadsURLPrefix is the fixed URL prefix the uploaded images are served under.
const UploadsURLPrefix = "/uploads/images/"

type placesService interface {
	GetPlaceByID(ctx context.Context, placeID string) (*place.Place, error)

	GetPlacesByUser(ctx context.Context, userID string) ([]place.Place, error)

	CreatePlace(ctx context.Context, request models.CreatePlaceRequest, imagePath string) (*place.Place, error)

	UpdatePlace(ctx context.Context, placeID string, request models.UpdatePlaceRequest) (*place.Place, error)

	DeletePlace(ctx context.Context, placeID string) error
}

type usersService interface {
	GetUsers(ctx context.Context) ([]user.User, error)

	Signup(ctx context.Context, request models.SignupRequest) (*user.User, error)

	Login(ctx context.Context, request models.LoginRequest) (*user.User, error)
}

type service interface {
	placesService
	usersService
	Ping(ctx context.Context) error
}

type authenticator interface {
	CheckAuth(h http.Handler) http.Handler
	BuildJWTString(userID string) (string, error)
}

type imageUploader interface {
	SingleImage(h http.Handler) http.Handler
}

// Router holds the HTTP handlers of the API.
type Router struct {
	service  service
	auth     authenticator
	validate *validator.Validate
}

// GetApiplacesbyid handles GET /api/places/{pid}.
func (router *Router) GetApiplacesbyid(response http.ResponseWriter, request *http.Request) {
	placeID := chi.URLParam(request, "pid")

	found, err := router.service.GetPlaceByID(request.Context(), placeID)
	if err != nil {
		writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.PlaceResponse{Place: found})
}

// GetApiplacesbyuser handles GET /api/places/user/{uid}.
func (router *Router) GetApiplacesbyuser(response http.ResponseWriter, request *http.Request) {
	userID := chi.URLParam(request, "uid")

	places, err := router.service.GetPlacesByUser(request.Context(), userID)
	if err != nil {
		writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.PlacesResponse{Places: places})
}

// PostApiplaces handles POST /api/places. The request is multipart: the
// upload middleware has already parsed the form, stored the image, and put
// its path into the request context.
func (router *Router) PostApiplaces(response http.ResponseWriter, request *http.Request) {
	createRequest := models.CreatePlaceRequest{
		Title:       request.FormValue("title"),
		Description: request.FormValue("description"),
		Address:     request.FormValue("address"),
		Creator:     request.FormValue("creator"),
	}
	if err := router.validate.Struct(createRequest); err != nil {
		writeError(response, models.NewHTTPError("Invalid inputs passed, please check your data.", http.StatusUnprocessableEntity))
		return
	}

	imagePath, ok := request.Context().Value(upload.ImagePathKey).(string)
	if !ok || imagePath == "" {
		writeError(response, models.NewHTTPError("Invalid inputs passed, please check your data.", http.StatusUnprocessableEntity))
		return
	}

	createdPlace, err := router.service.CreatePlace(request.Context(), createRequest, imagePath)
	if err != nil {
		writeError(response, err)
		return
	}

	writeJSON(response, http.StatusCreated, models.PlaceResponse{Place: createdPlace})
}

// PatchApiplaces handles PATCH /api/places/{pid}.
func (router *Router) PatchApiplaces(response http.ResponseWriter, request *http.Request) {
	placeID := chi.URLParam(request, "pid")

	var updateRequest models.UpdatePlaceRequest
	if err := json.NewDecoder(request.Body).Decode(&updateRequest); err != nil {
		writeError(response, models.NewHTTPError("Invalid inputs passed, please check your data.", http.StatusUnprocessableEntity))
		return
	}
	if err := router.validate.Struct(updateRequest); err != nil {
		writeError(response, models.NewHTTPError("Invalid inputs passed, please check your data.", http.StatusUnprocessableEntity))
		return
	}

	updatedPlace, err := router.service.UpdatePlace(request.Context(), placeID, updateRequest)
	if err != nil {
		writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.PlaceResponse{Place: updatedPlace})
}

// DeleteApiplaces handles DELETE /api/places/{pid}.
func (router *Router) DeleteApiplaces(response http.ResponseWriter, request *http.Request) {
	placeID := chi.URLParam(request, "pid")

	if err := router.service.DeletePlace(request.Context(), placeID); err != nil {
		writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.MessageResponse{Message: "Deleted place."})
}

// GetApiusers handles GET /api/users.
func (router *Router) GetApiusers(response http.ResponseWriter, request *http.Request) {
	users, err := router.service.GetUsers(request.Context())
	if err != nil {
		writeError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, models.UsersResponse{Users: users})
}

// PostApiuserssignup handles POST /api/users/signup. On success the created
// user is returned together with a freshly issued bearer token.
func (router *Router) PostApiuserssignup(response http.ResponseWriter, request *http.Request) {
	var signupRequest models.SignupRequest
	if err := json.NewDecoder(request.Body).Decode(&signupRequest); err != nil {
		writeError(response, models.NewHTTPError("Invalid inputs passed, please check your data.", http.StatusUnprocessableEntity))
		return
	}
	if err := router.validate.Struct(signupRequest); err != nil {
		writeError(response, models.NewHTTPError("Invalid inputs passed, please check your data.", http.StatusUnprocessableEntity))
		return
	}

	createdUser, err := router.service.Signup(request.Context(), signupRequest)
	if err != nil {
		writeError(response, err)
		return
	}

	token, err := router.auth.BuildJWTString(createdUser.ID)
	if err != nil {
		logger.Log.Debugln("Error calling the `router.auth.BuildJWTString()`: ", zap.Error(err))
		writeError(response, models.NewHTTPError("Signing up failed, please try again later.", http.StatusInternalServerError))
		return
	}

	writeJSON(response, http.StatusCreated, models.UserResponse{User: createdUser, Token: token})
}

// PostApiuserslogin handles POST /api/users/login. On success a bearer token
// usable on the protected place routes is returned with the confirmation.
func (router *Router) PostApiuserslogin(response http.ResponseWriter, request *http.Request) {
	var loginRequest models.LoginRequest
	if err := json.NewDecoder(request.Body).Decode(&loginRequest); err != nil {
		writeError(response, models.NewHTTPError("Invalid inputs passed, please check your data.", http.StatusUnprocessableEntity))
		return
	}
	if err := router.validate.Struct(loginRequest); err != nil {
		writeError(response, models.NewHTTPError("Invalid inputs passed, please check your data.", http.StatusUnprocessableEntity))
		return
	}

	identifiedUser, err := router.service.Login(request.Context(), loginRequest)
	if err != nil {
		writeError(response, err)
		return
	}

	token, err := router.auth.BuildJWTString(identifiedUser.ID)
	if err != nil {
		logger.Log.Debugln("Error calling the `router.auth.BuildJWTString()`: ", zap.Error(err))
		writeError(response, models.NewHTTPError("Logging in failed, please try again later.", http.StatusInternalServerError))
		return
	}

	writeJSON(response, http.StatusOK, models.MessageResponse{Message: "Logged in!", Token: token})
}

// GetPing handles GET /ping, reporting storage connectivity.
func (router *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := router.service.Ping(request.Context()); err != nil {
		logger.Log.Debugln("Error calling the `router.service.Ping()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusOK)
}

func writeJSON(response http.ResponseWriter, statusCode int, value interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(statusCode)
	if err := json.NewEncoder(response).Encode(value); err != nil {
		logger.Log.Debugln("Error encoding the response body: ", zap.Error(err))
	}
}

// writeError is the terminal error formatter: every failure renders as
// {"message": ...} with the HTTPError's status code, default 500.
func writeError(response http.ResponseWriter, err error) {
	message := "An unknown error occurred!"
	code := http.StatusInternalServerError

	var httpError *models.HTTPError
	if errors.As(err, &httpError) {
		message = httpError.Message
		code = httpError.Code
	}

	writeJSON(response, code, models.MessageResponse{Message: message})
}

// New wires the URL patterns, middleware, and static file serving into a chi mux.
func New(
	theService service,
	theAuth authenticator,
	theUploader imageUploader,
	uploadsDir string,
) *chi.Mux {
	myRouter := &Router{
		service:  theService,
		auth:     theAuth,
		validate: validator.New(),
	}

	router := chi.NewRouter()
	router.Use(
		logger.WithLoggingHTTPMiddleware,
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		}),
	)

	router.Route(`/api/places`, func(r chi.Router) {
		r.Get(`/{pid}`, myRouter.GetApiplacesbyid)
		r.Get(`/user/{uid}`, myRouter.GetApiplacesbyuser)
		r.With(theAuth.CheckAuth, theUploader.SingleImage).Post(`/`, myRouter.PostApiplaces)
		r.With(theAuth.CheckAuth).Patch(`/{pid}`, myRouter.PatchApiplaces)
		r.With(theAuth.CheckAuth).Delete(`/{pid}`, myRouter.DeleteApiplaces)
	})

	router.Route(`/api/users`, func(r chi.Router) {
		r.Get(`/`, myRouter.GetApiusers)
		r.Post(`/signup`, myRouter.PostApiuserssignup)
		r.Post(`/login`, myRouter.PostApiuserslogin)
	})

	router.Get(`/ping`, myRouter.GetPing)

	router.Handle(
		UploadsURLPrefix+`*`,
		http.StripPrefix(UploadsURLPrefix, http.FileServer(http.Dir(uploadsDir))),
	)

	routeNotFound := func(response http.ResponseWriter, request *http.Request) {
		writeError(response, models.NewHTTPError("Could not find this route.", http.StatusNotFound))
	}
	router.NotFound(routeNotFound)
	router.MethodNotAllowed(routeNotFound)

	return router
}
