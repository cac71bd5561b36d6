package server

import (
	"net/http"
	"testing"

	"agrilink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterSuccess(t *testing.T) {
	s, deps := newTestServer()
	app := newTestApp(s, nil)

	var created *models.User
	deps.users.On("GetByPhone", mock.Anything, "+9779812345678").Return(nil, nil)
	deps.users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*models.User)
			created.ID = primitive.NewObjectID()
		}).Return(nil)
	deps.sessions.On("Create", mock.Anything, mock.AnythingOfType("string")).
		Return("session-token", nil)

	req := jsonRequest(t, http.MethodPost, "/api/users/register", map[string]any{
		"name":            "Ram Sharma",
		"phone":           "+9779812345678",
		"password":        "secret1",
		"confirmPassword": "secret1",
		"userType":        "seller",
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Message  string `json:"message"`
		UserType string `json:"userType"`
		Token    string `json:"token"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "User registered successfully", body.Message)
	assert.Equal(t, "seller", body.UserType)
	assert.Equal(t, "session-token", body.Token)

	// The stored password must be a bcrypt hash, never the plaintext.
	require.NotNil(t, created)
	assert.NotEqual(t, "secret1", created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(created.PasswordHash), []byte("secret1")))
	assert.NotNil(t, created.SellerProfile)
	assert.Nil(t, created.BuyerProfile)
}

func TestRegisterDefaultsToBuyer(t *testing.T) {
	s, deps := newTestServer()
	app := newTestApp(s, nil)

	deps.users.On("GetByPhone", mock.Anything, mock.Anything).Return(nil, nil)
	deps.users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
	deps.sessions.On("Create", mock.Anything, mock.Anything).Return("tok", nil)

	req := jsonRequest(t, http.MethodPost, "/api/users/register", map[string]any{
		"name":            "Sita Rai",
		"phone":           "+9779811111111",
		"password":        "secret1",
		"confirmPassword": "secret1",
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		UserType string `json:"userType"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "buyer", body.UserType)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{
			"phone": "+9779812345678", "password": "secret1", "confirmPassword": "secret1",
		}},
		{"password mismatch", map[string]any{
			"name": "Ram", "phone": "+9779812345678",
			"password": "secret1", "confirmPassword": "secret2",
		}},
		{"short password", map[string]any{
			"name": "Ram", "phone": "+9779812345678",
			"password": "abc", "confirmPassword": "abc",
		}},
		{"bad phone prefix", map[string]any{
			"name": "Ram", "phone": "+1779812345678",
			"password": "secret1", "confirmPassword": "secret1",
		}},
		{"phone too short", map[string]any{
			"name": "Ram", "phone": "+977981234567",
			"password": "secret1", "confirmPassword": "secret1",
		}},
		{"invalid user type", map[string]any{
			"name": "Ram", "phone": "+9779812345678",
			"password": "secret1", "confirmPassword": "secret1", "userType": "admin",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer()
			app := newTestApp(s, nil)

			req := jsonRequest(t, http.MethodPost, "/api/users/register", tt.body)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestRegisterDuplicatePhone(t *testing.T) {
	s, deps := newTestServer()
	app := newTestApp(s, nil)

	existing := testBuyer()
	deps.users.On("GetByPhone", mock.Anything, existing.Phone).Return(existing, nil)

	req := jsonRequest(t, http.MethodPost, "/api/users/register", map[string]any{
		"name":            "Someone Else",
		"phone":           existing.Phone,
		"password":        "secret1",
		"confirmPassword": "secret1",
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "Phone number already registered", body.Error)
}

func TestLoginSuccess(t *testing.T) {
	s, deps := newTestServer()
	app := newTestApp(s, nil)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	user := testBuyer()
	user.PasswordHash = string(hash)

	deps.users.On("GetByPhone", mock.Anything, user.Phone).Return(user, nil)
	deps.sessions.On("Create", mock.Anything, user.ID.Hex()).Return("fresh-token", nil)

	req := jsonRequest(t, http.MethodPost, "/api/users/login", map[string]any{
		"phone":    user.Phone,
		"password": "secret1",
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Message string `json:"message"`
		Token   string `json:"token"`
		User    struct {
			BuyerProfile *models.BuyerProfile `json:"buyerProfile"`
		} `json:"user"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "Login successful", body.Message)
	assert.Equal(t, "fresh-token", body.Token)
	assert.NotNil(t, body.User.BuyerProfile)
}

func TestLoginInvalidCredentials(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	active := testBuyer()
	active.PasswordHash = string(hash)

	inactive := testBuyer()
	inactive.PasswordHash = string(hash)
	inactive.IsActive = false

	tests := []struct {
		name     string
		user     *models.User
		password string
	}{
		{"unknown phone", nil, "secret1"},
		{"wrong password", active, "wrong-pass"},
		{"deactivated account", inactive, "secret1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, deps := newTestServer()
			app := newTestApp(s, nil)

			if tt.user == nil {
				deps.users.On("GetByPhone", mock.Anything, mock.Anything).Return(nil, nil)
			} else {
				deps.users.On("GetByPhone", mock.Anything, mock.Anything).Return(tt.user, nil)
			}

			req := jsonRequest(t, http.MethodPost, "/api/users/login", map[string]any{
				"phone":    "+9779812345678",
				"password": tt.password,
			})
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			var body struct {
				Error string `json:"error"`
			}
			decodeBody(t, resp, &body)
			assert.Equal(t, "Invalid credentials", body.Error)
		})
	}
}

func TestLogout(t *testing.T) {
	s, deps := newTestServer()
	user := testBuyer()
	app := newTestApp(s, user)

	deps.sessions.On("Delete", mock.Anything, "test-token").Return(nil)

	req := jsonRequest(t, http.MethodPost, "/api/users/logout", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	deps.sessions.AssertCalled(t, "Delete", mock.Anything, "test-token")
}
