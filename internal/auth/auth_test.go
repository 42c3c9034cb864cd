package auth

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/placeshare/internal/logger"
)

var testSecretKey = []byte("supersecretkey")

func TestMain(m *testing.M) {
	if err := logger.Init("debug"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestBuildJWTStringRoundTrip(t *testing.T) {
	theAuth := New(testSecretKey, time.Hour)

	tokenString, err := theAuth.BuildJWTString("some user id")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	userID, err := theAuth.GetUserIDFromToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "some user id", userID)
}

func TestGetUserIDFromToken(t *testing.T) {
	theAuth := New(testSecretKey, time.Hour)

	expiredToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		UserID: "some user id",
	})
	expiredTokenString, err := expiredToken.SignedString(testSecretKey)
	require.NoError(t, err)

	foreignTokenString, err := New([]byte("some other key"), time.Hour).BuildJWTString("some user id")
	require.NoError(t, err)

	testCases := []struct {
		name        string
		tokenString string
	}{
		{name: "garbage", tokenString: "not a JWT at all"},
		{name: "expired", tokenString: expiredTokenString},
		{name: "signed with a foreign key", tokenString: foreignTokenString},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := theAuth.GetUserIDFromToken(testCase.tokenString)
			assert.ErrorIs(t, err, errInvalidToken)
		})
	}
}

func TestCheckAuth(t *testing.T) {
	theAuth := New(testSecretKey, time.Hour)

	validTokenString, err := theAuth.BuildJWTString("some user id")
	require.NoError(t, err)

	var seenUserID string
	handler := theAuth.CheckAuth(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		seenUserID, _ = request.Context().Value(UserIDKey).(string)
		response.WriteHeader(http.StatusOK)
	}))

	testCases := []struct {
		name                string
		authorizationHeader string
		expectedCode        int
		expectedUserID      string
	}{
		{
			name:                "positive",
			authorizationHeader: "Bearer " + validTokenString,
			expectedCode:        http.StatusOK,
			expectedUserID:      "some user id",
		},
		{
			name:                "lowercase scheme",
			authorizationHeader: "bearer " + validTokenString,
			expectedCode:        http.StatusOK,
			expectedUserID:      "some user id",
		},
		{
			name:         "missing header",
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:                "wrong scheme",
			authorizationHeader: "Basic " + validTokenString,
			expectedCode:        http.StatusUnauthorized,
		},
		{
			name:                "empty token",
			authorizationHeader: "Bearer ",
			expectedCode:        http.StatusUnauthorized,
		},
		{
			name:                "garbage token",
			authorizationHeader: "Bearer not-a-jwt",
			expectedCode:        http.StatusUnauthorized,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			seenUserID = ""

			request := httptest.NewRequest(http.MethodPost, "/api/places", nil)
			if testCase.authorizationHeader != "" {
				request.Header.Set("Authorization", testCase.authorizationHeader)
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			assert.Equal(t, testCase.expectedCode, recorder.Code)
			assert.Equal(t, testCase.expectedUserID, seenUserID)

			if testCase.expectedCode == http.StatusUnauthorized {
				assert.JSONEq(t, `{"message": "Authentication failed"}`, recorder.Body.String())
			}
		})
	}
}
