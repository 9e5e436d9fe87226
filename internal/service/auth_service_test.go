package service

import (
	"context"
	"testing"

	"github.com/pedrosazl/trust-reclaim-aid/internal/config"
	"github.com/pedrosazl/trust-reclaim-aid/internal/dto"
	"github.com/pedrosazl/trust-reclaim-aid/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (AuthService, *stubUserRepo) {
	t.Helper()
	repo := newStubUserRepo()
	cfg := &config.Config{
		JWTSecret:          "test-secret",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
	}
	return NewAuthService(repo, cfg), repo
}

func TestRegisterCreatesRegularUser(t *testing.T) {
	svc, repo := newAuthFixture(t)

	resp, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email:    "vendedor@trocas.com.br",
		FullName: "Vendedor",
		Password: "segredo123",
	})
	require.NoError(t, err)

	assert.Equal(t, model.RoleUser, resp.Role, "public registration never grants admin")
	assert.True(t, resp.Active)

	stored, err := repo.FindByEmail(context.Background(), "vendedor@trocas.com.br")
	require.NoError(t, err)
	assert.NotEqual(t, "segredo123", stored.PasswordHash, "password must be hashed")
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	req := dto.RegisterRequest{Email: "dup@trocas.com.br", FullName: "Dup", Password: "segredo123"}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	assert.Error(t, err)
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email: "login@trocas.com.br", FullName: "Login", Password: "segredo123",
	})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), dto.LoginRequest{
		Email: "login@trocas.com.br", Password: "segredo123",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)

	token, err := jwt.Parse(resp.AccessToken, func(_ *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "login@trocas.com.br", claims["email"])
	assert.Equal(t, "Login", claims["full_name"], "tokens carry the name so audit entries can snapshot it")
	assert.Equal(t, model.RoleUser, claims["role"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email: "senha@trocas.com.br", FullName: "Senha", Password: "segredo123",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "senha@trocas.com.br", Password: "errada"})
	assert.EqualError(t, err, "credenciais inválidas")

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "ninguem@trocas.com.br", Password: "segredo123"})
	assert.EqualError(t, err, "credenciais inválidas", "unknown e-mail and wrong password are indistinguishable")
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	svc, repo := newAuthFixture(t)

	resp, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email: "inativo@trocas.com.br", FullName: "Inativo", Password: "segredo123",
	})
	require.NoError(t, err)

	for _, u := range repo.users {
		if u.ID.String() == resp.ID {
			u.Active = false
		}
	}

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "inativo@trocas.com.br", Password: "segredo123"})
	assert.Error(t, err)
}

func TestRefreshRotatesTokens(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email: "refresh@trocas.com.br", FullName: "Refresh", Password: "segredo123",
	})
	require.NoError(t, err)

	login, err := svc.Login(context.Background(), dto.LoginRequest{
		Email: "refresh@trocas.com.br", Password: "segredo123",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.Refresh(context.Background(), "not-a-token")
	assert.Error(t, err)
}
