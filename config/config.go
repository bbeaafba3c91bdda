package config

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"inmo_dedup/dedup"
	"inmo_dedup/normalize"
)

type Config struct {
	Store     StoreConfig
	Archive   ArchiveConfig
	Scheduler SchedulerConfig
	Scraper   ScraperConfig
	Dedup     DedupConfig
	Log       LogConfig
	Format    normalize.NumberFormat
	Rules     dedup.Rules
	Dir       string
	Sites     map[string]*SiteConfig
}

type StoreConfig struct {
	Driver      string // sqlite or postgres
	Path        string
	DatabaseURL string
}

// ArchiveConfig selects where fetched pages are kept. A bucket switches from
// the local directory to S3-compatible storage.
type ArchiveConfig struct {
	Dir               string
	S3Bucket          string
	S3Region          string
	S3Endpoint        string // Optional: for DO Spaces, R2, MinIO
	S3AccessKeyID     string
	S3SecretAccessKey string
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

type ScraperConfig struct {
	Timeout   time.Duration
	ProxyURL  string
	UserAgent string
}

type DedupConfig struct {
	Workers int
}

type LogConfig struct {
	Level  string
	Format string // console or json
	File   string
}

type SiteConfig struct {
	ID        string            `yaml:"id"`
	Name      string            `yaml:"name"`
	Handler   string            `yaml:"handler"`
	BaseURL   string            `yaml:"base_url"`
	Searches  map[string]string `yaml:"searches"`
	PageParam string            `yaml:"page_param"`
	MaxPages  int               `yaml:"max_pages"`
	StopWords []string          `yaml:"stop_words"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Load reads .env, the environment and the YAML files under CONFIG_DIR.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(getEnv("CONFIG_DIR", "config"))
}

// LoadFrom reads the environment and the YAML files under dir.
func LoadFrom(dir string) (*Config, error) {
	format, err := normalize.NewNumberFormat(os.Getenv("DECIMAL_SEPARATOR"), os.Getenv("THOUSANDS_SEPARATOR"))
	if err != nil {
		return nil, eris.Wrap(err, "config: number format")
	}

	cfg := &Config{
		Store: StoreConfig{
			Driver:      getEnv("DB_DRIVER", DriverSQLite),
			Path:        getEnv("DB_PATH", "listings.db"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		Archive: ArchiveConfig{
			Dir:               getEnv("ARCHIVE_DIR", "soups"),
			S3Bucket:          os.Getenv("S3_BUCKET"),
			S3Region:          getEnv("S3_REGION", "us-east-1"),
			S3Endpoint:        os.Getenv("S3_ENDPOINT"),
			S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("SCRAPE_CRON"),
		},
		Scraper: ScraperConfig{
			Timeout:   time.Duration(getEnvInt("SCRAPE_TIMEOUT_SEC", 30)) * time.Second,
			ProxyURL:  os.Getenv("PROXY_URL"),
			UserAgent: getEnv("SCRAPE_USER_AGENT", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"),
		},
		Dedup: DedupConfig{
			Workers: getEnvInt("DEDUP_WORKERS", 4),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
			File:   os.Getenv("LOG_FILE"),
		},
		Format: format,
		Dir:    dir,
		Sites:  make(map[string]*SiteConfig),
	}

	if interval := os.Getenv("SCRAPE_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	switch cfg.Store.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("config: DATABASE_URL is required for the postgres driver")
		}
	default:
		return nil, eris.Errorf("config: unknown DB_DRIVER %q", cfg.Store.Driver)
	}

	rules, err := dedup.LoadRules(filepath.Join(dir, "dedup.yaml"))
	if err != nil {
		return nil, err
	}
	cfg.Rules = rules

	if err := cfg.loadSiteConfigs(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadSiteConfigs() error {
	configDir := filepath.Join(c.Dir, "sites")
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return eris.Wrapf(err, "config: read %s", configDir)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(configDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return eris.Wrapf(err, "config: read %s", path)
		}

		var site SiteConfig
		if err := yaml.Unmarshal(data, &site); err != nil {
			return eris.Wrapf(err, "config: parse %s", path)
		}
		if site.ID == "" {
			site.ID = strings.TrimSuffix(entry.Name(), ".yaml")
		}
		if site.PageParam == "" {
			site.PageParam = "page"
		}

		c.Sites[site.ID] = &site
	}

	return nil
}

// StopWords collects the stop words of every site, deduplicated.
func (c *Config) StopWords() []string {
	seen := make(map[string]bool)
	var words []string
	for _, site := range c.Sites {
		for _, w := range site.StopWords {
			if !seen[w] {
				seen[w] = true
				words = append(words, w)
			}
		}
	}
	sort.Strings(words)
	return words
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
