package config

import (
	"strings"
	"time"
)

// HostConfig holds overrides for requests to one host.
type HostConfig struct {
	// Cookie is sent with every request to the host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are added to every request to the host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Skip marks the host as NO_LOGO without contacting it.
	Skip bool `yaml:"skip,omitempty"`
}

// Settings are global options that may be set in the configuration file
// or through the environment.
type Settings struct {
	Workers          int           `yaml:"workers,omitempty" env:"LOGOCLUSTER_WORKERS" env-upd:""`
	Timeout          time.Duration `yaml:"timeout,omitempty" env:"LOGOCLUSTER_TIMEOUT" env-upd:""`
	ConnectTimeout   time.Duration `yaml:"connectTimeout,omitempty" env:"LOGOCLUSTER_CONNECT_TIMEOUT" env-upd:""`
	PageTimeout      time.Duration `yaml:"pageTimeout,omitempty" env:"LOGOCLUSTER_PAGE_TIMEOUT" env-upd:""`
	CandidateTimeout time.Duration `yaml:"candidateTimeout,omitempty" env:"LOGOCLUSTER_CANDIDATE_TIMEOUT" env-upd:""`
	Retries          int           `yaml:"retries,omitempty" env:"LOGOCLUSTER_RETRIES" env-upd:""`
	HostInterval     time.Duration `yaml:"hostInterval,omitempty" env:"LOGOCLUSTER_HOST_INTERVAL" env-upd:""`
	MinLogoSize      int           `yaml:"minLogoSize,omitempty" env:"LOGOCLUSTER_MIN_LOGO_SIZE" env-upd:""`
	Threshold        int           `yaml:"threshold,omitempty" env:"LOGOCLUSTER_THRESHOLD" env-upd:""`
	MaxBodySize      int64         `yaml:"maxBodySize,omitempty" env:"LOGOCLUSTER_MAX_BODY_SIZE" env-upd:""`
	UserAgent        string        `yaml:"userAgent,omitempty" env:"LOGOCLUSTER_USER_AGENT" env-upd:""`
	DBDir            string        `yaml:"dbDir,omitempty" env:"LOGOCLUSTER_DB_DIR" env-upd:""`
	MetricsAddr      string        `yaml:"metricsAddr,omitempty" env:"LOGOCLUSTER_METRICS_ADDR" env-upd:""`
}

// File is the structure of the .logocluster configuration file.
type File struct {
	// Settings override the built-in defaults.
	Settings Settings `yaml:"settings,omitempty"`

	// Defaults apply to every host unless overridden in Hosts.
	Defaults HostConfig `yaml:"defaults,omitempty"`

	// Hosts maps host names, without scheme or www., to overrides.
	Hosts map[string]HostConfig `yaml:"hosts,omitempty"`
}

// NewFile returns an empty configuration file.
func NewFile() *File {
	return &File{Hosts: make(map[string]HostConfig)}
}

// HostConfig returns the overrides for host merged over the defaults.
// A www. prefix on host is ignored when looking up the entry.
func (f *File) HostConfig(host string) HostConfig {
	result := HostConfig{
		Cookie: f.Defaults.Cookie,
		Skip:   f.Defaults.Skip,
	}
	if len(f.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(f.Defaults.Headers))
		for k, v := range f.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	h := strings.TrimPrefix(strings.ToLower(host), "www.")
	hc, ok := f.Hosts[h]
	if !ok {
		return result
	}
	if hc.Cookie != "" {
		result.Cookie = hc.Cookie
	}
	if hc.Skip {
		result.Skip = true
	}
	if len(hc.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(hc.Headers))
		}
		for k, v := range hc.Headers {
			result.Headers[k] = v
		}
	}
	return result
}

// HostHeaders returns the cookie and headers configured for host.
func (f *File) HostHeaders(host string) (string, map[string]string) {
	hc := f.HostConfig(host)
	return hc.Cookie, hc.Headers
}

// Skip reports whether host is excluded from scanning.
func (f *File) Skip(host string) bool {
	return f.HostConfig(host).Skip
}
