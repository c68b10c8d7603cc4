package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/motu-crew/crewboard/pkg/logging"
)

const Production = "production"

const (
	BackendAirtable = "airtable"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// MaxImportBatchSize is the per-request record ceiling of the hosted store.
const MaxImportBatchSize = 10

// MinImportBatchDelay keeps batch writes under the store's requests-per-second ceiling.
const MinImportBatchDelay = 200 * time.Millisecond

// LoadEnv loads the env files that exist, looking in the working directory first and
// then in the nearest parent that holds a go.mod. It returns how many files were loaded.
func LoadEnv(envFiles []string) (int, error) {
	existing := existingFiles(envFiles, "")
	if len(existing) == 0 {
		if root := moduleRoot(); root != "" {
			existing = existingFiles(envFiles, root)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func existingFiles(files []string, dir string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		path := f
		if dir != "" {
			path = filepath.Join(dir, f)
		}
		if fs.FileExists(path) {
			out = append(out, path)
		}
	}
	return out
}

func moduleRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for dir := wd; ; {
		if fs.FileExists(filepath.Join(dir, "go.mod")) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

type StoreOptions struct {
	Backend string `env:"STORE_BACKEND" envDefault:"airtable"`
	// Location used for "today" when stamping completion dates.
	TimeZone string `env:"STORE_TIMEZONE" envDefault:"Pacific/Auckland"`
}

type AirtableOptions struct {
	APIKey   string        `env:"AIRTABLE_API_KEY"`
	BaseID   string        `env:"AIRTABLE_BASE_ID"`
	Table    string        `env:"AIRTABLE_TABLE" envDefault:"Jobs"`
	APIURL   string        `env:"AIRTABLE_API_URL" envDefault:"https://api.airtable.com/v0"`
	Timeout  time.Duration `env:"AIRTABLE_TIMEOUT" envDefault:"30s"`
	Typecast bool          `env:"AIRTABLE_TYPECAST" envDefault:"false"`
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"crewboard"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type ImportOptions struct {
	BatchSize  int           `env:"IMPORT_BATCH_SIZE" envDefault:"10"`
	BatchDelay time.Duration `env:"IMPORT_BATCH_DELAY" envDefault:"220ms"`
}

type WatchOptions struct {
	DashboardURL string        `env:"DASHBOARD_URL" envDefault:"http://localhost:3200"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"10s"`
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	TempoURL    string `env:"OTEL_TEMPO_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"crewboard"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
	// Short-lived commands push here when set, since nothing scrapes them.
	PushgatewayURL string `env:"PROMETHEUS_PUSHGATEWAY_URL"`
}

type RateLimitOptions struct {
	Enabled   bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	GlobalRPS int    `env:"RATE_LIMIT_GLOBAL_RPS" envDefault:"50"`
	Storage   string `env:"RATE_LIMIT_STORAGE" envDefault:"memory"` // memory or redis
	RedisURL  string `env:"RATE_LIMIT_REDIS_URL"`
}

// Validate checks the rate limit configuration for errors
func (r *RateLimitOptions) Validate() error {
	if r.GlobalRPS < 0 {
		return fmt.Errorf("rate limit GlobalRPS must be non-negative, got %d", r.GlobalRPS)
	}
	if r.Storage != "memory" && r.Storage != "redis" {
		return fmt.Errorf("rate limit Storage must be 'memory' or 'redis', got '%s'", r.Storage)
	}
	if r.Storage == "redis" && r.RedisURL == "" {
		return fmt.Errorf("rate limit RedisURL is required when Storage is 'redis'")
	}
	return nil
}

type Configuration struct {
	Store         StoreOptions
	Airtable      AirtableOptions
	Database      DatabaseOptions
	Import        ImportOptions
	Watch         WatchOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions
	RateLimit     RateLimitOptions

	ServerPort       int    `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	CORSOrigins      string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string `env:"LOG_PATH"`
	// Looked up on every request; a uuidv4 is generated when absent.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	RealIPHeader    string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`

	location *time.Location
}

// Load reads env files, parses the environment and validates everything that does
// not depend on the selected entrypoint.
func Load(envFiles ...string) (*Configuration, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env", ".env.local"}
	}
	if _, err := LoadEnv(envFiles); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}
	return Parse(env.Options{})
}

// Parse builds a Configuration from the process environment, or from opts.Environment when set.
func Parse(opts env.Options) (*Configuration, error) {
	c := &Configuration{}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return nil, err
	}
	if err := c.RateLimit.Validate(); err != nil {
		return nil, fmt.Errorf("rate limit configuration error: %w", err)
	}
	if err := c.validateImport(); err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(c.Store.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_TIMEZONE=%q: %w", c.Store.TimeZone, err)
	}
	c.location = loc
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}
	return c, nil
}

func (c *Configuration) validateImport() error {
	if c.Import.BatchSize <= 0 || c.Import.BatchSize > MaxImportBatchSize {
		return fmt.Errorf("invalid IMPORT_BATCH_SIZE=%d (expected 1..%d)", c.Import.BatchSize, MaxImportBatchSize)
	}
	if c.Import.BatchDelay < MinImportBatchDelay {
		return fmt.Errorf("invalid IMPORT_BATCH_DELAY=%s (minimum %s)", c.Import.BatchDelay, MinImportBatchDelay)
	}
	return nil
}

// ValidateStore fails when the selected backend lacks the identifiers it needs.
// Callers run it before any store I/O.
func (c *Configuration) ValidateStore() error {
	switch c.Store.Backend {
	case BackendAirtable:
		var missing []string
		if strings.TrimSpace(c.Airtable.APIKey) == "" {
			missing = append(missing, "AIRTABLE_API_KEY")
		}
		if strings.TrimSpace(c.Airtable.BaseID) == "" {
			missing = append(missing, "AIRTABLE_BASE_ID")
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing %s in environment (.env.local)", strings.Join(missing, " and "))
		}
	case BackendPostgres:
		if strings.TrimSpace(c.Database.Host) == "" || strings.TrimSpace(c.Database.Name) == "" {
			return fmt.Errorf("missing DB_HOST or DB_NAME for postgres store")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("invalid STORE_BACKEND=%q (expected airtable|postgres|memory)", c.Store.Backend)
	}
	return nil
}

// Location is the time zone used to decide what "today" is.
func (c *Configuration) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	return logging.ParseLevel(c.LogLevel, logrus.ErrorLevel)
}

// Logger builds the process logger. With LOG_PATH set the returned closer must be called on shutdown.
func (c *Configuration) Logger() (*logrus.Logger, func(), error) {
	if strings.TrimSpace(c.LogPath) == "" {
		return logging.ConsoleLogger(c.LogrusLogLevel()), func() {}, nil
	}
	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = f.Close() }, nil
}
