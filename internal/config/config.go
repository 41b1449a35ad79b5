package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the jobscout service.
type Config struct {
	Server       ServerConfig
	Search       SearchConfig
	JobSpy       JobSpyConfig
	Fetch        FetchConfig
	Refine       RefineConfig
	Output       OutputConfig
	History      HistoryConfig
	Notification NotificationConfig
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration // must cover a full scrape + completion round trip
	ShutdownTimeout time.Duration
}

// SearchConfig is the query sent to every source.
type SearchConfig struct {
	Sources       []string
	SearchTerm    string
	Location      string
	ResultsWanted int
	HoursOld      int
	CountryIndeed string
}

// JobSpyConfig points at the scraping backend.
type JobSpyConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// FetchConfig controls how sources are queried. The zero values reproduce a
// plain sequential fetch that aborts on the first failure.
type FetchConfig struct {
	IsolateFailures bool
	MaxRetries      int
	RetryBaseDelay  time.Duration
	MinDelay        time.Duration            // minimum gap between requests to the same source
	SourceDelays    map[string]time.Duration // per-source overrides of MinDelay
}

// RefineConfig controls the completion call.
type RefineConfig struct {
	BaseURL      string // defaults to https://api.openai.com/v1
	APIKey       string // expanded from env var by Load
	Model        string
	Temperature  float32
	Timeout      time.Duration
	StrictSchema bool
}

// OutputConfig names the two files written by each run.
type OutputConfig struct {
	DebugFile  string
	ResultFile string
}

// HistoryConfig controls the optional SQLite run log.
type HistoryConfig struct {
	Enabled bool
	Path    string
}

// NotificationConfig controls which notifier reports finished runs.
type NotificationConfig struct {
	Type       string // "none", "log" or "slack"
	WebhookURL string // required if type is "slack"
}

const slackWebhookPrefix = "https://hooks.slack.com/"

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// RunDeadlineMargin is kept between the scrape deadline and the server's write
// timeout so a timed-out run can still answer with a 500.
const RunDeadlineMargin = 5 * time.Second

// WorstCaseRun is the longest a run can take without retries: every source
// hitting the JobSpy timeout, then the completion hitting its own. Zero means
// unbounded because one of the timeouts is off.
func (c *Config) WorstCaseRun() time.Duration {
	if c.JobSpy.Timeout == 0 || c.Refine.Timeout == 0 {
		return 0
	}
	return time.Duration(len(c.Search.Sources))*c.JobSpy.Timeout + c.Refine.Timeout
}

// RunTimeout is the deadline placed on each scrape request, or zero when the
// server has no write timeout.
func (c *Config) RunTimeout() time.Duration {
	if c.Server.WriteTimeout == 0 {
		return 0
	}
	return c.Server.WriteTimeout - RunDeadlineMargin
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Server       rawServerConfig       `yaml:"server"`
	Search       rawSearchConfig       `yaml:"search"`
	JobSpy       rawJobSpyConfig       `yaml:"jobspy"`
	Fetch        rawFetchConfig        `yaml:"fetch"`
	Refine       rawRefineConfig       `yaml:"refine"`
	Output       rawOutputConfig       `yaml:"output"`
	History      rawHistoryConfig      `yaml:"history"`
	Notification rawNotificationConfig `yaml:"notification"`
}

type rawServerConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type rawSearchConfig struct {
	Sources       []string `yaml:"sources"`
	SearchTerm    string   `yaml:"search_term"`
	Location      string   `yaml:"location"`
	ResultsWanted int      `yaml:"results_wanted"`
	HoursOld      int      `yaml:"hours_old"`
	CountryIndeed string   `yaml:"country_indeed"`
}

type rawJobSpyConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

type rawFetchConfig struct {
	IsolateFailures bool              `yaml:"isolate_failures"`
	MaxRetries      int               `yaml:"max_retries"`
	RetryBaseDelay  string            `yaml:"retry_base_delay"`
	MinDelay        string            `yaml:"min_delay"`
	SourceDelays    map[string]string `yaml:"source_delays"`
}

type rawRefineConfig struct {
	BaseURL      string  `yaml:"base_url"`
	APIKey       string  `yaml:"api_key"`
	Model        string  `yaml:"model"`
	Temperature  float32 `yaml:"temperature"`
	Timeout      string  `yaml:"timeout"`
	StrictSchema bool    `yaml:"strict_schema"`
}

type rawOutputConfig struct {
	DebugFile  string `yaml:"debug_file"`
	ResultFile string `yaml:"result_file"`
}

type rawHistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type rawNotificationConfig struct {
	Type       string `yaml:"type"`
	WebhookURL string `yaml:"webhook_url"`
}

// defaultRaw holds the compiled-in defaults. YAML is unmarshaled on top of it,
// so any key left out of the file keeps its default.
func defaultRaw() rawConfig {
	return rawConfig{
		Server: rawServerConfig{
			Addr:            ":8000",
			ReadTimeout:     "10s",
			WriteTimeout:    "15m",
			ShutdownTimeout: "10s",
		},
		Search: rawSearchConfig{
			Sources:       []string{"linkedin", "indeed", "zip_recruiter", "google", "bayt"},
			SearchTerm:    "software engineer",
			Location:      "Islamabad, Pakistan",
			ResultsWanted: 20,
			HoursOld:      72,
			CountryIndeed: "Pakistan",
		},
		JobSpy: rawJobSpyConfig{
			BaseURL: "http://localhost:8080",
			Timeout: "2m",
		},
		Fetch: rawFetchConfig{
			RetryBaseDelay: "5s",
			MinDelay:       "0s",
		},
		Refine: rawRefineConfig{
			BaseURL:     defaultOpenAIBaseURL,
			APIKey:      "${OPENAI_API_KEY}",
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			Timeout:     "2m",
		},
		Output: rawOutputConfig{
			DebugFile:  "raw_jobs.csv",
			ResultFile: "structured_jobs.json",
		},
		History: rawHistoryConfig{
			Path: "jobscout.db",
		},
		Notification: rawNotificationConfig{
			Type: "none",
		},
	}
}

// Default returns the compiled-in configuration with environment variables expanded.
func Default() (*Config, error) {
	raw := defaultRaw()
	raw.Refine.APIKey = os.ExpandEnv(raw.Refine.APIKey)
	return build(raw)
}

// Load reads and parses the YAML config file at path on top of the defaults,
// validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	raw := defaultRaw()
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// the default key reference is not part of the file, expand it separately
	raw.Refine.APIKey = os.ExpandEnv(raw.Refine.APIKey)

	return build(raw)
}

func build(raw rawConfig) (*Config, error) {
	var err error
	cfg := &Config{
		Server: ServerConfig{Addr: raw.Server.Addr},
		Search: SearchConfig{
			Sources:       normalizeSources(raw.Search.Sources),
			SearchTerm:    raw.Search.SearchTerm,
			Location:      raw.Search.Location,
			ResultsWanted: raw.Search.ResultsWanted,
			HoursOld:      raw.Search.HoursOld,
			CountryIndeed: raw.Search.CountryIndeed,
		},
		JobSpy: JobSpyConfig{
			BaseURL: strings.TrimRight(raw.JobSpy.BaseURL, "/"),
			APIKey:  raw.JobSpy.APIKey,
		},
		Fetch: FetchConfig{
			IsolateFailures: raw.Fetch.IsolateFailures,
			MaxRetries:      raw.Fetch.MaxRetries,
			SourceDelays:    make(map[string]time.Duration),
		},
		Refine: RefineConfig{
			BaseURL:      raw.Refine.BaseURL,
			APIKey:       strings.TrimSpace(raw.Refine.APIKey),
			Model:        raw.Refine.Model,
			Temperature:  raw.Refine.Temperature,
			StrictSchema: raw.Refine.StrictSchema,
		},
		Output: OutputConfig{
			DebugFile:  raw.Output.DebugFile,
			ResultFile: raw.Output.ResultFile,
		},
		History: HistoryConfig{
			Enabled: raw.History.Enabled,
			Path:    raw.History.Path,
		},
		Notification: NotificationConfig{
			Type:       strings.ToLower(strings.TrimSpace(raw.Notification.Type)),
			WebhookURL: strings.TrimSpace(raw.Notification.WebhookURL),
		},
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "none"
	}

	durations := []durationField{
		{"server.read_timeout", raw.Server.ReadTimeout, &cfg.Server.ReadTimeout},
		{"server.write_timeout", raw.Server.WriteTimeout, &cfg.Server.WriteTimeout},
		{"server.shutdown_timeout", raw.Server.ShutdownTimeout, &cfg.Server.ShutdownTimeout},
		{"jobspy.timeout", raw.JobSpy.Timeout, &cfg.JobSpy.Timeout},
		{"fetch.retry_base_delay", raw.Fetch.RetryBaseDelay, &cfg.Fetch.RetryBaseDelay},
		{"fetch.min_delay", raw.Fetch.MinDelay, &cfg.Fetch.MinDelay},
		{"refine.timeout", raw.Refine.Timeout, &cfg.Refine.Timeout},
	}
	for _, d := range durations {
		if *d.dst, err = parseDuration(d.name, d.value); err != nil {
			return nil, err
		}
	}

	for source, value := range raw.Fetch.SourceDelays {
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("parse fetch.source_delays[%q]: %w", source, err)
		}
		cfg.Fetch.SourceDelays[strings.ToLower(strings.TrimSpace(source))] = d
	}

	if cfg.Refine.BaseURL == "" {
		cfg.Refine.BaseURL = defaultOpenAIBaseURL
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

type durationField struct {
	name  string
	value string
	dst   *time.Duration
}

// parseDuration parses value; an empty value means zero.
func parseDuration(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", name, value, err)
	}
	return d, nil
}

func normalizeSources(sources []string) []string {
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if len(cfg.Search.Sources) == 0 {
		return fmt.Errorf("at least one search source is required")
	}
	if wt := cfg.Server.WriteTimeout; wt != 0 {
		worst := cfg.WorstCaseRun()
		if worst == 0 {
			return fmt.Errorf("jobspy.timeout and refine.timeout must be set when server.write_timeout is")
		}
		if wt < worst+RunDeadlineMargin {
			return fmt.Errorf("server.write_timeout %v is shorter than a worst-case run (%d sources x jobspy.timeout + refine.timeout = %v) plus %v",
				wt, len(cfg.Search.Sources), worst, RunDeadlineMargin)
		}
	}
	if cfg.Search.ResultsWanted <= 0 {
		return fmt.Errorf("search.results_wanted must be positive, got %d", cfg.Search.ResultsWanted)
	}
	if cfg.Search.HoursOld <= 0 {
		return fmt.Errorf("search.hours_old must be positive, got %d", cfg.Search.HoursOld)
	}
	if !strings.HasPrefix(cfg.JobSpy.BaseURL, "http://") && !strings.HasPrefix(cfg.JobSpy.BaseURL, "https://") {
		return fmt.Errorf("jobspy.base_url must be an http(s) URL, got %q", cfg.JobSpy.BaseURL)
	}
	if cfg.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must not be negative, got %d", cfg.Fetch.MaxRetries)
	}
	if cfg.Fetch.MinDelay < 0 {
		return fmt.Errorf("fetch.min_delay must not be negative, got %v", cfg.Fetch.MinDelay)
	}
	if cfg.Refine.Model == "" {
		return fmt.Errorf("refine.model is required")
	}
	if cfg.Refine.Temperature < 0 || cfg.Refine.Temperature > 2 {
		return fmt.Errorf("refine.temperature must be between 0 and 2, got %v", cfg.Refine.Temperature)
	}
	if cfg.Output.DebugFile == "" || cfg.Output.ResultFile == "" {
		return fmt.Errorf("output.debug_file and output.result_file are required")
	}
	if cfg.History.Enabled && cfg.History.Path == "" {
		return fmt.Errorf("history.path is required when history.enabled is true")
	}
	switch cfg.Notification.Type {
	case "none", "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, slackWebhookPrefix) {
			return fmt.Errorf("notification.webhook_url must start with %s", slackWebhookPrefix)
		}
	default:
		return fmt.Errorf("notification.type must be none, log or slack, got %q", cfg.Notification.Type)
	}
	return nil
}
