package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-accommodation/internal/config"
	"github.com/iliyamo/event-accommodation/internal/repository"
	"github.com/iliyamo/event-accommodation/internal/utils"
)

func userRows(t *testing.T, email, password, role string) *sqlmock.Rows {
	t.Helper()
	hash, err := utils.HashPassword(password, 4)
	require.NoError(t, err)
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "email", "password_hash", "role", "is_active", "created_at", "updated_at",
	}).AddRow(1, email, hash, role, true, now, now)
}

func TestLogin_Success(t *testing.T) {
	db, mock := newMockDB(t)
	cfg := config.Config{JWTSecret: "test-secret", AccessTTLMin: 15}
	h := NewAuthHandler(cfg, repository.NewUserRepo(db))

	mock.ExpectQuery("FROM users WHERE email = \\?").
		WithArgs("staff@example.com").
		WillReturnRows(userRows(t, "staff@example.com", "hunter2", "STAFF"))

	body := `{"email":"Staff@Example.com","password":"hunter2"}`
	rec := doRequest(t, http.MethodPost, "/v1/auth/login", body, nil, h.Login)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token"`)
	assert.Contains(t, rec.Body.String(), `"role":"STAFF"`)
}

func TestLogin_WrongPassword(t *testing.T) {
	db, mock := newMockDB(t)
	cfg := config.Config{JWTSecret: "test-secret", AccessTTLMin: 15}
	h := NewAuthHandler(cfg, repository.NewUserRepo(db))

	mock.ExpectQuery("FROM users WHERE email = \\?").
		WillReturnRows(userRows(t, "staff@example.com", "hunter2", "STAFF"))

	body := `{"email":"staff@example.com","password":"wrong"}`
	rec := doRequest(t, http.MethodPost, "/v1/auth/login", body, nil, h.Login)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
}

func TestLogin_UnknownAccountSameAnswer(t *testing.T) {
	db, mock := newMockDB(t)
	cfg := config.Config{JWTSecret: "test-secret", AccessTTLMin: 15}
	h := NewAuthHandler(cfg, repository.NewUserRepo(db))

	mock.ExpectQuery("FROM users WHERE email = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	body := `{"email":"nobody@example.com","password":"whatever"}`
	rec := doRequest(t, http.MethodPost, "/v1/auth/login", body, nil, h.Login)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
}
