package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

const (
	ModeDev     = "dev"
	ModeRelease = "release"

	ProviderJWT      = "jwt"
	ProviderFirebase = "firebase"
)

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// 空なら平文HTTPで待ち受ける
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type FirebaseConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

type AuthConfig struct {
	Provider  string         `yaml:"provider"` // jwt | firebase
	JWTSecret string         `yaml:"jwt_secret"`
	TokenTTL  time.Duration  `yaml:"token_ttl"`
	Firebase  FirebaseConfig `yaml:"firebase"`
}

type LedgerConfig struct {
	LoanDays int `yaml:"loan_days"`
	MaxOpen  int `yaml:"max_open"`
}

type Config struct {
	Version string         `yaml:"version"`
	Mode    string         `yaml:"mode"`
	Server  ServerConfig   `yaml:"server"`
	DB      DatabaseConfig `yaml:"database"`
	Auth    AuthConfig     `yaml:"auth"`
	Ledger  LedgerConfig   `yaml:"ledger"`
}

func defaults() Config {
	return Config{
		Mode:   ModeDev,
		Server: ServerConfig{Addr: ":8080"},
		DB:     DatabaseConfig{Host: "127.0.0.1", Port: 3306, DBName: "library"},
		Auth:   AuthConfig{Provider: ProviderJWT, TokenTTL: 24 * time.Hour},
		Ledger: LedgerConfig{LoanDays: 14, MaxOpen: 5},
	}
}

// Load reads the YAML file at path, then applies .env and LIBRARY_* environment overrides.
// A missing file is not an error; defaults and the environment still apply.
func Load(path string) (*Config, error) {
	cfg := defaults()

	buf, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return nil, fmt.Errorf("設定ファイルのパース失敗: %w", err)
		}
	case os.IsNotExist(err):
		log.Printf("[WARN] config file %s not found, using defaults and environment", path)
	default:
		return nil, fmt.Errorf("設定ファイルの読み込み失敗: %w", err)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf(".env の読み込み失敗: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	str("LIBRARY_MODE", &cfg.Mode)
	str("LIBRARY_ADDR", &cfg.Server.Addr)
	str("LIBRARY_DB_HOST", &cfg.DB.Host)
	str("LIBRARY_DB_USER", &cfg.DB.Username)
	str("LIBRARY_DB_PASSWORD", &cfg.DB.Password)
	str("LIBRARY_DB_NAME", &cfg.DB.DBName)
	str("LIBRARY_AUTH_PROVIDER", &cfg.Auth.Provider)
	str("LIBRARY_JWT_SECRET", &cfg.Auth.JWTSecret)
	str("LIBRARY_FIREBASE_PROJECT_ID", &cfg.Auth.Firebase.ProjectID)
	str("LIBRARY_FIREBASE_CREDENTIALS", &cfg.Auth.Firebase.CredentialsFile)

	if v, ok := os.LookupEnv("LIBRARY_DB_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LIBRARY_DB_PORT: %w", err)
		}
		cfg.DB.Port = port
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Mode != ModeDev && c.Mode != ModeRelease {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeDev, ModeRelease, c.Mode)
	}
	switch c.Auth.Provider {
	case ProviderJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is required for the jwt provider")
		}
	case ProviderFirebase:
		if c.Auth.Firebase.ProjectID == "" {
			return fmt.Errorf("auth.firebase.project_id is required for the firebase provider")
		}
	default:
		return fmt.Errorf("unknown auth.provider %q", c.Auth.Provider)
	}
	if c.Ledger.LoanDays <= 0 || c.Ledger.MaxOpen <= 0 {
		return fmt.Errorf("ledger.loan_days and ledger.max_open must be > 0")
	}
	return nil
}

func (c *Config) LoanPeriod() time.Duration {
	return time.Duration(c.Ledger.LoanDays) * 24 * time.Hour
}
