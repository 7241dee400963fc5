package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"market-ingest/internal/audit"
	"market-ingest/internal/features"
	"market-ingest/internal/ingest"
	"market-ingest/internal/model"
)

// Config holds application configuration from file and env.
type Config struct {
	LogLevel  string         `mapstructure:"log_level"` // debug | info | warn | error
	LogFormat string         `mapstructure:"log_format"`
	Polygon   PolygonConfig  `mapstructure:"polygon"`
	Store     StoreConfig    `mapstructure:"store"`
	Ingest    IngestConfig   `mapstructure:"ingest"`
	Tickers   TickersConfig  `mapstructure:"tickers"`
	Audit     AuditConfig    `mapstructure:"audit"`
	Schedule  ScheduleConfig `mapstructure:"schedule"`
}

// PolygonConfig is the market-data API access.
type PolygonConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// StoreConfig selects and configures the object store.
type StoreConfig struct {
	Backend         string `mapstructure:"backend"` // r2 | local | memory
	DataDir         string `mapstructure:"data_dir"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	AccountID       string `mapstructure:"account_id"`
	Bucket          string `mapstructure:"bucket"`
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
}

// IngestConfig drives the fetch pipeline.
type IngestConfig struct {
	Granularity      string        `mapstructure:"granularity"`
	LookbackYears    int           `mapstructure:"lookback_years"`
	SafetyMarginDays int           `mapstructure:"safety_margin_days"`
	SaveFormat       string        `mapstructure:"save_format"`
	Profile          string        `mapstructure:"profile"`
	PaceDelay        time.Duration `mapstructure:"pace_delay"`
	BatchSize        int           `mapstructure:"batch_size"`
	FeatureSet       string        `mapstructure:"feature_set"`
	IndicatorSource  string        `mapstructure:"indicator_source"`
	Benchmark        string        `mapstructure:"benchmark"`
	TickersFile      string        `mapstructure:"tickers_file"`
	ReportDir        string        `mapstructure:"report_dir"`
}

// TickersConfig drives the instrument listing.
type TickersConfig struct {
	Limit     int           `mapstructure:"limit"`
	PageDelay time.Duration `mapstructure:"page_delay"`
	OutFile   string        `mapstructure:"out_file"`
	StoreKey  string        `mapstructure:"store_key"`
}

// AuditConfig drives the dataset auditor. OutputDir, when set, writes the
// reports to a local directory instead of the store.
type AuditConfig struct {
	Prefix       string `mapstructure:"prefix"`
	OutputPrefix string `mapstructure:"output_prefix"`
	OutputDir    string `mapstructure:"output_dir"`
	StatsName    string `mapstructure:"stats_name"`
	ProblemsName string `mapstructure:"problems_name"`
}

// ScheduleConfig is the daily re-run time (UTC) of `ingest --schedule`.
type ScheduleConfig struct {
	RunHour   int `mapstructure:"run_hour"`
	RunMinute int `mapstructure:"run_minute"`
}

// LoadOptions locates the config file and carries flag overrides keyed by
// config key (e.g. "ingest.granularity").
type LoadOptions struct {
	Path      string
	Overrides map[string]any
}

var envBindings = map[string][]string{
	"log_level":                 {"LOG_LEVEL"},
	"log_format":                {"LOG_FORMAT"},
	"polygon.api_key":           {"POLYGON_API_KEY"},
	"polygon.base_url":          {"POLYGON_BASE_URL"},
	"store.backend":             {"STORE_BACKEND"},
	"store.data_dir":            {"DATA_DIR"},
	"store.access_key_id":       {"R2_ACCESS_KEY_ID", "R2_ACCESS_KEY"},
	"store.secret_access_key":   {"R2_SECRET_ACCESS_KEY", "R2_SECRET_KEY"},
	"store.account_id":          {"R2_ACCOUNT_ID"},
	"store.bucket":              {"R2_BUCKET_NAME", "R2_BUCKET"},
	"store.endpoint":            {"R2_ENDPOINT"},
	"store.region":              {"R2_REGION"},
	"ingest.granularity":        {"GRANULARITY"},
	"ingest.lookback_years":     {"LOOKBACK_YEARS"},
	"ingest.safety_margin_days": {"SAFETY_MARGIN_DAYS"},
	"ingest.save_format":        {"SAVE_FORMAT"},
	"ingest.profile":            {"PROFILE"},
	"ingest.pace_delay":         {"PACE_DELAY"},
	"ingest.batch_size":         {"BATCH_SIZE"},
	"ingest.feature_set":        {"FEATURE_SET"},
	"ingest.indicator_source":   {"INDICATOR_SOURCE"},
	"ingest.benchmark":          {"BENCHMARK"},
	"ingest.tickers_file":       {"TICKERS_FILE"},
	"ingest.report_dir":         {"REPORT_DIR"},
	"tickers.limit":             {"TICKERS_LIMIT"},
	"tickers.page_delay":        {"TICKERS_PAGE_DELAY"},
	"tickers.out_file":          {"TICKERS_OUT_FILE"},
	"tickers.store_key":         {"TICKERS_STORE_KEY"},
	"audit.prefix":              {"AUDIT_PREFIX"},
	"audit.output_prefix":       {"AUDIT_OUTPUT_PREFIX"},
	"audit.output_dir":          {"AUDIT_OUTPUT_DIR"},
	"audit.stats_name":          {"AUDIT_STATS_NAME"},
	"audit.problems_name":       {"AUDIT_PROBLEMS_NAME"},
	"schedule.run_hour":         {"RUN_HOUR"},
	"schedule.run_minute":       {"RUN_MINUTE"},
}

// LoadDotEnv loads ./.env when present. Existing environment wins.
func LoadDotEnv() {
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env")
	}
}

// LoadConfig reads the optional YAML file, then environment variables, then
// overrides, and applies defaults for anything left unset.
func LoadConfig(opts LoadOptions) (*Config, error) {
	v := viper.New()
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if opts.Path != "" {
		v.SetConfigFile(opts.Path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", opts.Path, err)
			}
			slog.Debug("config file not found, using environment", "path", opts.Path)
		} else {
			slog.Debug("loaded config file", "path", v.ConfigFileUsed())
		}
	}
	for key, val := range opts.Overrides {
		v.Set(key, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	applyDefaults(&cfg, v.IsSet)
	return &cfg, nil
}

// applyDefaults sets default values for any config values not set from file or environment
// isSet reports keys given explicitly, so a configured zero is kept.
func applyDefaults(cfg *Config, isSet func(string) bool) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "r2"
	}
	cfg.Store.Backend = strings.ToLower(cfg.Store.Backend)
	if cfg.Store.DataDir == "" {
		cfg.Store.DataDir = "data"
	}

	in := &cfg.Ingest
	if in.Granularity == "" {
		in.Granularity = string(model.Daily)
	}
	g, err := model.ParseGranularity(in.Granularity)
	if err == nil {
		in.Granularity = string(g)
	}
	if in.LookbackYears <= 0 {
		in.LookbackYears = 10
		if g == model.Minute {
			in.LookbackYears = 2
		}
	}
	if !isSet("ingest.safety_margin_days") && g != model.Minute {
		in.SafetyMarginDays = 100
	}
	if in.SaveFormat == "" {
		in.SaveFormat = saveFormatForProfile(in.Profile)
	}
	if !isSet("ingest.pace_delay") {
		in.PaceDelay = ingest.DefaultDelay
	}
	if in.BatchSize <= 0 {
		in.BatchSize = ingest.DefaultBatchSize
	}
	if in.FeatureSet == "" {
		in.FeatureSet = string(features.SetBase)
	}
	if in.IndicatorSource == "" {
		in.IndicatorSource = string(ingest.IndicatorsRemote)
	}
	if in.Benchmark == "" {
		in.Benchmark = features.DefaultBenchmarkID
	}
	if in.ReportDir == "" {
		in.ReportDir = cfg.Store.DataDir
	}

	if cfg.Tickers.OutFile == "" {
		cfg.Tickers.OutFile = "tickers.txt"
	}
	if cfg.Tickers.StoreKey == "" {
		cfg.Tickers.StoreKey = "data/tickers.csv"
	}
	if !isSet("tickers.page_delay") {
		cfg.Tickers.PageDelay = 600 * time.Millisecond
	}

	if cfg.Audit.Prefix == "" {
		cfg.Audit.Prefix = model.DatasetPrefix(model.Daily)
	}
	if cfg.Audit.OutputPrefix == "" {
		cfg.Audit.OutputPrefix = audit.DefaultOutputPrefix
	}
	if cfg.Audit.StatsName == "" {
		cfg.Audit.StatsName = audit.DefaultStatsName
	}
	if cfg.Audit.ProblemsName == "" {
		cfg.Audit.ProblemsName = audit.DefaultProblemsName
	}

	if !isSet("schedule.run_minute") {
		cfg.Schedule.RunMinute = 30
	}
}

// saveFormatForProfile keeps dev runs human-readable.
func saveFormatForProfile(profile string) string {
	switch strings.ToLower(profile) {
	case "dev", "development":
		return "csv"
	default:
		return "parquet"
	}
}

// ErrMissingConfig marks a required setting that is empty.
var ErrMissingConfig = errors.New("missing required configuration")

// ValidatePolygon fails when the API key is absent.
func (c *Config) ValidatePolygon() error {
	if strings.TrimSpace(c.Polygon.APIKey) == "" {
		return fmt.Errorf("%w: POLYGON_API_KEY", ErrMissingConfig)
	}
	return nil
}

// ValidateStore checks what the selected backend needs.
func (c *Config) ValidateStore() error {
	switch c.Store.Backend {
	case "r2", "s3":
		var missing []string
		if c.Store.AccessKeyID == "" {
			missing = append(missing, "R2_ACCESS_KEY_ID")
		}
		if c.Store.SecretAccessKey == "" {
			missing = append(missing, "R2_SECRET_ACCESS_KEY")
		}
		if c.Store.Bucket == "" {
			missing = append(missing, "R2_BUCKET_NAME")
		}
		if c.Store.Endpoint == "" && c.Store.AccountID == "" {
			missing = append(missing, "R2_ENDPOINT or R2_ACCOUNT_ID")
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
		}
		return nil
	case "local", "memory":
		return nil
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q (use: r2, local, memory)", c.Store.Backend)
	}
}

// ValidateIngest checks the pipeline settings parse.
func (c *Config) ValidateIngest() error {
	if _, err := model.ParseGranularity(c.Ingest.Granularity); err != nil {
		return err
	}
	if _, err := features.ParseSet(c.Ingest.FeatureSet); err != nil {
		return err
	}
	if _, err := ingest.ParseIndicatorSource(c.Ingest.IndicatorSource); err != nil {
		return err
	}
	if c.Ingest.PaceDelay < 0 {
		return fmt.Errorf("PACE_DELAY must not be negative")
	}
	if c.Schedule.RunHour < 0 || c.Schedule.RunHour > 23 || c.Schedule.RunMinute < 0 || c.Schedule.RunMinute > 59 {
		return fmt.Errorf("invalid schedule %02d:%02d", c.Schedule.RunHour, c.Schedule.RunMinute)
	}
	return nil
}

// LocalRoot is the directory the local backend maps keys into.
func (c *Config) LocalRoot() string {
	return filepath.Clean(c.Store.DataDir)
}
