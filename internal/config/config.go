package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/authd-dev/authd/internal/logger"
)

const EnvDevelopment = "development"

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	Env        string        `yaml:"env"` // "development" or "production"
	ListenAddr string        `yaml:"listen_addr"`
	Pg         Pg            `yaml:"pg"`
	Token      TokenTTL      `yaml:"token"`
	Email      Email         `yaml:"email"`
	Recaptcha  Recaptcha     `yaml:"recaptcha"`
	LogLevel   string        `yaml:"log_level"`
	LogJSON    bool          `yaml:"log_json"`
	DBTimeout  time.Duration `yaml:"db_timeout"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

// TokenTTL holds the per-purpose expiry durations.
type TokenTTL struct {
	Login      time.Duration `yaml:"login_ttl"`
	Remember   time.Duration `yaml:"remember_ttl"` // refresh token lifetime
	Activation time.Duration `yaml:"activation_ttl"`
	Reset      time.Duration `yaml:"reset_ttl"`
}

type Email struct {
	DefaultFrom string `yaml:"default_from"`
	SenderName  string `yaml:"sender_name"`
	SMTPServer  string `yaml:"smtp_server"`
	SMTPPort    int    `yaml:"smtp_port"`
	Timeout     int    `yaml:"timeout"` // seconds
}

type Recaptcha struct {
	URL string `yaml:"url"`
}

type Private struct {
	// Per-purpose signing keys. Each token class has its own key so a
	// leaked or compromised token of one class can never verify as another.
	AuthKey       string `yaml:"auth_key"`
	RefreshKey    string `yaml:"refresh_key"`
	ActivationKey string `yaml:"activation_key"`
	ResetKey      string `yaml:"reset_key"`

	RecaptchaSecret string `yaml:"recaptcha_secret"`
	ServiceToken    string `yaml:"service_token"` // local-env admin gate

	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`
}

func (c *Config) IsDevelopment() bool {
	return c.Public.Env == "" || c.Public.Env == EnvDevelopment
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}
	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{public, private}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		panic(err.Error())
	}
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Public.ListenAddr == "" {
		c.Public.ListenAddr = ":8080"
	}
	if c.Public.DBTimeout == 0 {
		c.Public.DBTimeout = 5 * time.Second
	}
	if c.Public.Token.Login == 0 {
		c.Public.Token.Login = 24 * time.Hour
	}
	if c.Public.Token.Remember == 0 {
		c.Public.Token.Remember = 7 * 24 * time.Hour
	}
	if c.Public.Token.Activation == 0 {
		c.Public.Token.Activation = 24 * time.Hour
	}
	if c.Public.Token.Reset == 0 {
		c.Public.Token.Reset = time.Hour
	}
	if c.Public.Recaptcha.URL == "" {
		c.Public.Recaptcha.URL = "https://www.google.com/recaptcha/api/siteverify"
	}
}

// Validate enforces that signing keys are explicit configuration outside
// development. Ephemeral generated keys mean every token dies with the
// process, which is acceptable locally but an outage in production.
func (c *Config) Validate() error {
	keys := map[string]*string{
		"auth_key":       &c.Private.AuthKey,
		"refresh_key":    &c.Private.RefreshKey,
		"activation_key": &c.Private.ActivationKey,
		"reset_key":      &c.Private.ResetKey,
	}
	for name, key := range keys {
		if *key != "" {
			continue
		}
		if !c.IsDevelopment() {
			return fmt.Errorf("config: %s must be set when env is %q", name, c.Public.Env)
		}
		*key = randomKey()
		logger.Log.Warn("signing key not configured, generated ephemeral key; tokens will not survive a restart",
			"key", name)
	}
	return nil
}

func randomKey() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic("can't generate ephemeral signing key: " + err.Error())
	}
	return hex.EncodeToString(buf)
}
