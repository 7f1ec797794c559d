package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustLoad(t *testing.T) {
	cfg := MustLoad("./test_data")

	assert.Equal(t, "development", cfg.Public.Env)
	assert.Equal(t, ":9090", cfg.Public.ListenAddr)
	assert.Equal(t, "localhost", cfg.Public.Pg.Host)
	assert.Equal(t, 5432, cfg.Public.Pg.Port)
	assert.Equal(t, "authd", cfg.Public.Pg.User)
	assert.Equal(t, "pass", cfg.Public.Pg.Password)
	assert.Equal(t, "authd", cfg.Public.Pg.Dbname)

	assert.Equal(t, 2*time.Hour, cfg.Public.Token.Login)
	assert.Equal(t, 48*time.Hour, cfg.Public.Token.Remember)
	assert.Equal(t, 12*time.Hour, cfg.Public.Token.Activation)
	assert.Equal(t, 30*time.Minute, cfg.Public.Token.Reset)

	assert.Equal(t, "authkey", cfg.Private.AuthKey)
	assert.Equal(t, "resetkey", cfg.Private.ResetKey)
	assert.Equal(t, "svc", cfg.Private.ServiceToken)
}

func TestMustLoadAppliesDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.Equal(t, ":8080", cfg.Public.ListenAddr)
	assert.Equal(t, 5*time.Second, cfg.Public.DBTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Public.Token.Login)
	assert.Equal(t, 7*24*time.Hour, cfg.Public.Token.Remember)
	assert.Equal(t, 24*time.Hour, cfg.Public.Token.Activation)
	assert.Equal(t, time.Hour, cfg.Public.Token.Reset)
	assert.NotEmpty(t, cfg.Public.Recaptcha.URL)
}

func TestValidateSigningKeys(t *testing.T) {
	t.Run("missing key fails outside development", func(t *testing.T) {
		cfg := &Config{}
		cfg.Public.Env = "production"
		cfg.Private.AuthKey = "k"
		cfg.Private.RefreshKey = "k"
		cfg.Private.ActivationKey = "k"
		// reset_key left empty

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reset_key")
	})

	t.Run("all keys set passes in production", func(t *testing.T) {
		cfg := &Config{}
		cfg.Public.Env = "production"
		cfg.Private.AuthKey = "k"
		cfg.Private.RefreshKey = "k"
		cfg.Private.ActivationKey = "k"
		cfg.Private.ResetKey = "k"

		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing keys are generated in development", func(t *testing.T) {
		cfg := &Config{}
		cfg.Public.Env = "development"

		require.NoError(t, cfg.Validate())
		assert.NotEmpty(t, cfg.Private.AuthKey)
		assert.NotEmpty(t, cfg.Private.RefreshKey)
		assert.NotEmpty(t, cfg.Private.ActivationKey)
		assert.NotEmpty(t, cfg.Private.ResetKey)
		assert.NotEqual(t, cfg.Private.AuthKey, cfg.Private.RefreshKey)
	})
}

func TestIsDevelopment(t *testing.T) {
	cfg := &Config{}
	assert.True(t, cfg.IsDevelopment(), "empty env defaults to development")

	cfg.Public.Env = "development"
	assert.True(t, cfg.IsDevelopment())

	cfg.Public.Env = "production"
	assert.False(t, cfg.IsDevelopment())
}
