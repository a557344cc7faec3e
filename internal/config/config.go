package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	GCS       GCSConfig       `json:"gcs"`
	Gotenberg GotenbergConfig `json:"gotenberg"`
	GitHub    GitHubConfig    `json:"github"`
	Roster    RosterConfig    `json:"roster"`
	Catalog   CatalogConfig   `json:"catalog"`
	Library   LibraryConfig   `json:"library"`
	Session   SessionConfig   `json:"session"`
	Cleanup   CleanupConfig   `json:"cleanup"`
	Log       LogConfig       `json:"log"`
}

type ServerConfig struct {
	Port         string   `json:"port"`
	Environment  string   `json:"environment"`
	BaseURL      string   `json:"base_url"`
	AllowOrigins []string `json:"allow_origins"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
}

type GCSConfig struct {
	BucketName      string `json:"bucket_name"`
	ProjectID       string `json:"project_id"`
	CredentialsPath string `json:"credentials_path"`
}

type GotenbergConfig struct {
	URL     string `json:"url"`
	Timeout string `json:"timeout"`
	// Enabled turns on PDF copies of submitted spreadsheets.
	Enabled bool `json:"enabled"`
}

type GitHubConfig struct {
	Token   string `json:"-"`
	Owner   string `json:"owner"`
	Repo    string `json:"repo"`
	Branch  string `json:"branch"`
	DataDir string `json:"data_dir"`
	// ArchiveSubmissions commits the values of every submission.
	ArchiveSubmissions bool `json:"archive_submissions"`
}

type RosterConfig struct {
	// Source is "db" or "file".
	Source       string        `json:"source"`
	Dir          string        `json:"dir"`
	SyncInterval time.Duration `json:"sync_interval"`
}

type CatalogConfig struct {
	Path         string `json:"path"`
	TemplatesDir string `json:"templates_dir"`
}

type LibraryConfig struct {
	// Backend is "db" or "file".
	Backend string `json:"backend"`
	Dir     string `json:"dir"`
	// MirrorSignatures uploads signature images to the bucket.
	MirrorSignatures bool `json:"mirror_signatures"`
}

type SessionConfig struct {
	IdleTTL time.Duration `json:"idle_ttl"`
}

type CleanupConfig struct {
	Dirs     []string      `json:"dirs"`
	MaxAge   time.Duration `json:"max_age"`
	Interval time.Duration `json:"interval"`
}

type LogConfig struct {
	Level string `json:"level"`
}

func (d *DatabaseConfig) DSN() string {
	// Cloud SQL Unix socket
	if len(d.Host) > 0 && d.Host[0] == '/' {
		return fmt.Sprintf("%s:%s@unix(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.User, d.Password, d.Host, d.DBName)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

// Enabled reports whether a token and a repository are configured.
func (g GitHubConfig) Enabled() bool {
	return g.Token != "" && g.Owner != "" && g.Repo != ""
}

func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// Load reads .env when present, then the process environment. Invalid
// durations and booleans are reported instead of silently defaulted.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []string
	duration := func(key, def string) time.Duration {
		raw := getEnv(key, def)
		d, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: invalid duration %q", key, raw))
		}
		return d
	}
	boolean := func(key string, def bool) bool {
		raw := os.Getenv(key)
		if raw == "" {
			return def
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: invalid boolean %q", key, raw))
		}
		return b
	}

	config := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			BaseURL:      getEnv("BASE_URL", ""),
			AllowOrigins: parseAllowOrigins(),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "autofill"),
		},
		GCS: GCSConfig{
			BucketName:      getEnv("GCS_BUCKET_NAME", ""),
			ProjectID:       getEnv("GOOGLE_CLOUD_PROJECT", ""),
			CredentialsPath: getEnv("GCS_CREDENTIALS_PATH", ""),
		},
		Gotenberg: GotenbergConfig{
			URL:     getEnv("GOTENBERG_URL", "http://localhost:3000"),
			Timeout: getEnv("GOTENBERG_TIMEOUT", "30s"),
			Enabled: boolean("GOTENBERG_ENABLED", false),
		},
		GitHub: GitHubConfig{
			Token:              getEnv("GITHUB_TOKEN", ""),
			Owner:              getEnv("GITHUB_OWNER", ""),
			Repo:               getEnv("GITHUB_REPO", ""),
			Branch:             getEnv("GITHUB_BRANCH", "main"),
			DataDir:            getEnv("GITHUB_DATA_DIR", "public/data"),
			ArchiveSubmissions: boolean("GITHUB_ARCHIVE_SUBMISSIONS", false),
		},
		Roster: RosterConfig{
			Source:       getEnv("ROSTER_SOURCE", "db"),
			Dir:          getEnv("ROSTER_DIR", "public/data"),
			SyncInterval: duration("ROSTER_SYNC_INTERVAL", "5m"),
		},
		Catalog: CatalogConfig{
			Path:         getEnv("CATALOG_PATH", "formats/catalog.yaml"),
			TemplatesDir: getEnv("TEMPLATES_DIR", "formats/templates"),
		},
		Library: LibraryConfig{
			Backend:          getEnv("LIBRARY_BACKEND", "db"),
			Dir:              getEnv("LIBRARY_DIR", "data/library"),
			MirrorSignatures: boolean("LIBRARY_MIRROR_SIGNATURES", true),
		},
		Session: SessionConfig{
			IdleTTL: duration("SESSION_IDLE_TTL", "2h"),
		},
		Cleanup: CleanupConfig{
			Dirs:     splitList(getEnv("CLEANUP_DIRS", "outputs")),
			MaxAge:   duration("CLEANUP_MAX_AGE", "24h"),
			Interval: duration("CLEANUP_INTERVAL", "1h"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", ""),
		},
	}

	if src := config.Roster.Source; src != "db" && src != "file" {
		errs = append(errs, fmt.Sprintf("ROSTER_SOURCE: must be db or file, got %q", src))
	}
	if b := config.Library.Backend; b != "db" && b != "file" {
		errs = append(errs, fmt.Sprintf("LIBRARY_BACKEND: must be db or file, got %q", b))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseAllowOrigins() []string {
	if origins := os.Getenv("ALLOW_ORIGINS"); origins != "" {
		return splitList(origins)
	}

	// legacy FRONTEND_URL_* variables
	var allowOrigins []string
	if url1 := getEnv("FRONTEND_URL_1", ""); url1 != "" {
		allowOrigins = append(allowOrigins, url1)
	}
	if url2 := getEnv("FRONTEND_URL_2", ""); url2 != "" {
		allowOrigins = append(allowOrigins, url2)
	}

	if len(allowOrigins) == 0 {
		allowOrigins = []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}
	}
	return allowOrigins
}
