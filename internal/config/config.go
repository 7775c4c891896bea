package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "logocluster"

	// DefaultWorkers is the number of domains processed concurrently.
	DefaultWorkers = 8

	// DefaultTimeout bounds reading a response.
	DefaultTimeout = 30 * time.Second

	// DefaultConnectTimeout bounds dialing and the TLS handshake.
	DefaultConnectTimeout = 15 * time.Second

	// DefaultPageTimeout bounds a landing page request.
	DefaultPageTimeout = 20 * time.Second

	// DefaultCandidateTimeout bounds one candidate including retries.
	DefaultCandidateTimeout = 90 * time.Second

	// DefaultRetries is the number of attempts per candidate image.
	DefaultRetries = 2

	// DefaultRetryBackoff is the unit of the linear retry backoff.
	DefaultRetryBackoff = 100 * time.Millisecond

	// DefaultHostInterval spaces out requests to the same host.
	DefaultHostInterval = 50 * time.Millisecond

	// DefaultHostBurst is the number of back-to-back requests allowed per host.
	DefaultHostBurst = 1

	// DefaultMinLogoSize is the smallest accepted logo width and height.
	DefaultMinLogoSize = 16

	// DefaultThreshold is the largest Hamming distance treated as a match.
	DefaultThreshold = 8

	// DefaultPrefixBits is the number of leading hash bits used as bucket key.
	DefaultPrefixBits = 12

	// DefaultPrefixRadius is the largest key distance between compared buckets.
	DefaultPrefixRadius = 2

	// DefaultMaxBodySize caps response bodies.
	DefaultMaxBodySize = 10 << 20

	// DefaultUserAgent mimics a desktop Chrome browser.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

	// DefaultResultsFile is the per-domain result log.
	DefaultResultsFile = "results.csv"

	// DefaultGroupsFile is the similarity group output.
	DefaultGroupsFile = "logo_groups.csv"

	// DefaultGroupFormat is the format of the group output.
	DefaultGroupFormat = FormatCSV
)

// Group output formats.
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatXLSX     = "xlsx"
	FormatJSON     = "json"
)

// Config holds all options of a run.
type Config struct {
	// Inputs are files listing domains, one per line or as a CSV column.
	Inputs []string

	// Targets are domains given directly on the command line.
	Targets []string

	// Workers is the number of domains processed concurrently.
	Workers int

	// Timeout bounds reading a response.
	Timeout time.Duration

	// ConnectTimeout bounds dialing and the TLS handshake.
	ConnectTimeout time.Duration

	// PageTimeout bounds a landing page request.
	PageTimeout time.Duration

	// CandidateTimeout bounds one candidate including retries.
	CandidateTimeout time.Duration

	// Retries is the number of attempts per candidate image.
	Retries int

	// RetryBackoff is the unit of the linear retry backoff.
	RetryBackoff time.Duration

	// HostInterval spaces out requests to the same host. Zero disables it.
	HostInterval time.Duration

	// HostBurst is the number of back-to-back requests allowed per host.
	HostBurst int

	// MinLogoSize is the smallest accepted logo width and height.
	MinLogoSize int

	// Threshold is the largest Hamming distance treated as a match.
	Threshold int

	// PrefixBits is the number of leading hash bits used as bucket key.
	PrefixBits int

	// PrefixRadius is the largest key distance between compared buckets.
	PrefixRadius int

	// MaxBodySize caps response bodies in bytes.
	MaxBodySize int64

	// UserAgent is sent with every request.
	UserAgent string

	// ResultsFile receives one CSV row per processed domain.
	ResultsFile string

	// GroupsFile receives the similarity groups.
	GroupsFile string

	// GroupFormat is one of FormatCSV, FormatMarkdown, FormatXLSX or FormatJSON.
	GroupFormat string

	// DBDir holds the SQLite database used for resuming and regrouping.
	DBDir string

	// Resume skips domains already finished in a previous run.
	Resume bool

	// MetricsAddr serves Prometheus metrics when not empty.
	MetricsAddr string

	// Verbose enables debug logging.
	Verbose bool

	// JSONLogs switches the log output to JSON.
	JSONLogs bool

	// ConfigFilePath is the path to the configuration file. When empty,
	// .logocluster is searched in the current and home directories.
	ConfigFilePath string

	// Hosts holds the per-host overrides from the configuration file.
	Hosts *File
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	return &Config{
		Workers:          DefaultWorkers,
		Timeout:          DefaultTimeout,
		ConnectTimeout:   DefaultConnectTimeout,
		PageTimeout:      DefaultPageTimeout,
		CandidateTimeout: DefaultCandidateTimeout,
		Retries:          DefaultRetries,
		RetryBackoff:     DefaultRetryBackoff,
		HostInterval:     DefaultHostInterval,
		HostBurst:        DefaultHostBurst,
		MinLogoSize:      DefaultMinLogoSize,
		Threshold:        DefaultThreshold,
		PrefixBits:       DefaultPrefixBits,
		PrefixRadius:     DefaultPrefixRadius,
		MaxBodySize:      DefaultMaxBodySize,
		UserAgent:        DefaultUserAgent,
		ResultsFile:      DefaultResultsFile,
		GroupsFile:       DefaultGroupsFile,
		GroupFormat:      DefaultGroupFormat,
		DBDir:            XDGDataDir(),
		Hosts:            NewFile(),
	}
}

// XDGDataDir returns the XDG data directory for logocluster.
// On Linux: ~/.local/share/logocluster
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for logocluster.
// On Linux: ~/.config/logocluster
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration of a scan.
func (c *Config) Validate() error {
	if len(c.Inputs) == 0 && len(c.Targets) == 0 {
		return ErrNoInput
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.Timeout <= 0 || c.ConnectTimeout <= 0 || c.PageTimeout <= 0 || c.CandidateTimeout < 0 {
		return ErrInvalidTimeout
	}
	if c.ConnectTimeout >= c.Timeout {
		return ErrInvalidTimeout
	}
	if c.Retries < 1 {
		return ErrInvalidRetries
	}
	if c.HostInterval < 0 {
		return ErrInvalidRate
	}
	if c.MinLogoSize <= 0 {
		return ErrInvalidMinSize
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	return c.ValidateGrouping()
}

// ValidateGrouping checks only the options used when clustering and
// writing groups.
func (c *Config) ValidateGrouping() error {
	if c.Threshold < 0 || c.Threshold > 64 {
		return ErrInvalidThreshold
	}
	if c.PrefixBits < 1 || c.PrefixBits > 64 || c.PrefixRadius < 0 || c.PrefixRadius > c.PrefixBits {
		return ErrInvalidPrefix
	}
	switch c.GroupFormat {
	case FormatCSV, FormatMarkdown, FormatXLSX, FormatJSON:
		return nil
	default:
		return ErrUnknownGroupFormat
	}
}

// ApplySettings overrides fields with the non-zero values of s.
func (c *Config) ApplySettings(s Settings) {
	if s.Workers > 0 {
		c.Workers = s.Workers
	}
	if s.Timeout > 0 {
		c.Timeout = s.Timeout
	}
	if s.ConnectTimeout > 0 {
		c.ConnectTimeout = s.ConnectTimeout
	}
	if s.PageTimeout > 0 {
		c.PageTimeout = s.PageTimeout
	}
	if s.CandidateTimeout > 0 {
		c.CandidateTimeout = s.CandidateTimeout
	}
	if s.Retries > 0 {
		c.Retries = s.Retries
	}
	if s.HostInterval > 0 {
		c.HostInterval = s.HostInterval
	}
	if s.MinLogoSize > 0 {
		c.MinLogoSize = s.MinLogoSize
	}
	if s.Threshold > 0 {
		c.Threshold = s.Threshold
	}
	if s.MaxBodySize > 0 {
		c.MaxBodySize = s.MaxBodySize
	}
	if s.UserAgent != "" {
		c.UserAgent = s.UserAgent
	}
	if s.DBDir != "" {
		c.DBDir = s.DBDir
	}
	if s.MetricsAddr != "" {
		c.MetricsAddr = s.MetricsAddr
	}
}
