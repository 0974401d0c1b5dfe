package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/dto"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/model"
)

func newAuthService(store *memStore) *AuthService {
	return NewAuthService(&mockUserRepo{s: store}, "test-secret", time.Hour, "let-me-in")
}

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	return claims
}

func TestAuthService_Register(t *testing.T) {
	svc := newAuthService(newMemStore())

	resp, err := svc.Register(context.Background(), dto.RegisterRequest{
		Username: "tunde", Email: "Tunde@Example.com", Password: "password123",
		FirstName: "Tunde", LastName: "Bakare",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "tunde@example.com", resp.User.Email)
	assert.False(t, resp.User.IsStaff)

	claims := parseClaims(t, resp.Token)
	assert.Equal(t, resp.User.ID.String(), claims["sub"])
	assert.Equal(t, "tunde", claims["username"])
	assert.Equal(t, false, claims["is_staff"])
}

func TestAuthService_Register_AdminKey(t *testing.T) {
	svc := newAuthService(newMemStore())

	resp, err := svc.Register(context.Background(), dto.RegisterRequest{
		Username: "boss", Email: "boss@example.com", Password: "password123", AdminKey: "let-me-in",
	})
	require.NoError(t, err)
	assert.True(t, resp.User.IsStaff)
	assert.Equal(t, true, parseClaims(t, resp.Token)["is_staff"])

	resp, err = svc.Register(context.Background(), dto.RegisterRequest{
		Username: "guess", Email: "guess@example.com", Password: "password123", AdminKey: "let-me-out",
	})
	require.NoError(t, err)
	assert.False(t, resp.User.IsStaff)
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store)
	req := dto.RegisterRequest{Username: "a", Email: "dup@example.com", Password: "password123"}

	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestAuthService_Login(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &model.User{Username: "ife", Email: "ife@example.com", Password: string(hashed), IsStaff: true}
	require.NoError(t, (&mockUserRepo{s: store}).Create(context.Background(), user))

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ife@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, true, parseClaims(t, resp.Token)["is_staff"])

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "ife@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Me(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store)
	resp, err := svc.Register(context.Background(), dto.RegisterRequest{
		Username: "kemi", Email: "kemi@example.com", Password: "password123",
	})
	require.NoError(t, err)

	me, err := svc.Me(context.Background(), resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "kemi", me.Username)

	_, err = svc.Me(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}
