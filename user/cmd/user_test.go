package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/shopeasy/internal/config"
	"github.com/Alturino/shopeasy/user/internal/service"
	"github.com/Alturino/shopeasy/user/pkg/request"
)

func TestUserCommands(t *testing.T) {
	c := context.Background()
	cfg := &config.Config{Credential: config.Credential{
		Driver: config.CredentialDriverFile,
		Path:   filepath.Join(t.TempDir(), "credentials.json"),
	}}
	register := request.Register{
		Email:           "jane@example.com",
		FirstName:       "Jane",
		LastName:        "Doe",
		Password:        "Secret#123",
		ConfirmPassword: "Secret#123",
	}
	login := request.LoginRequest{Email: register.Email, Password: register.Password}

	weak := register
	weak.Password, weak.ConfirmPassword = "weak", "weak"
	assert.Error(t, RunRegister(c, cfg, weak))

	require.NoError(t, RunRegister(c, cfg, register))
	require.NoError(t, RunLogin(c, cfg, login))
	assert.ErrorIs(t, RunLogin(c, cfg, request.LoginRequest{Email: register.Email, Password: "Wrong#123"}), service.ErrInvalidCredentials)
	require.NoError(t, RunLogout(c, cfg))
	assert.ErrorIs(t, RunLogin(c, cfg, login), service.ErrInvalidCredentials)
}

func TestUnknownDriver(t *testing.T) {
	cfg := &config.Config{Credential: config.Credential{Driver: "ldap"}}

	err := RunLogout(context.Background(), cfg)

	assert.Error(t, err)
}
