package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/goextract/internal/extractor"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to the dotted flag names.
type FileConfig struct {
	Input       string `yaml:"input" json:"input"`
	URL         string `yaml:"url" json:"url"`
	Output      string `yaml:"output" json:"output"`
	Meta        string `yaml:"meta" json:"meta"`
	Format      string `yaml:"format" json:"format"`
	ContentType string `yaml:"contentType" json:"contentType"`
	Encoding    string `yaml:"encoding" json:"encoding"`
	MaxBytes    int64  `yaml:"maxBytes" json:"maxBytes"`
	UserAgent   string `yaml:"userAgent" json:"userAgent"`
	Verbose     bool   `yaml:"verbose" json:"verbose"`

	Converters struct {
		PDFToText    string   `yaml:"pdftotext" json:"pdftotext"`
		SWFToHTML    string   `yaml:"swf2html" json:"swf2html"`
		DjVuText     string   `yaml:"djvutxt" json:"djvutxt"`
		SWFFormatter string   `yaml:"swfFormatter" json:"swfFormatter"`
		TmpDir       string   `yaml:"tmpDir" json:"tmpDir"`
		Timeout      Duration `yaml:"timeout" json:"timeout"`
	} `yaml:"converters" json:"converters"`

	Cache struct {
		Dir         string   `yaml:"dir" json:"dir"`
		MaxAge      Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool     `yaml:"clear" json:"clear"`
		StrictPerms bool     `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Server struct {
		Addr         string `yaml:"addr" json:"addr"`
		MaxBodyBytes int64  `yaml:"maxBodyBytes" json:"maxBodyBytes"`
	} `yaml:"server" json:"server"`
}

// Duration accepts "90s"-style strings in both YAML and JSON, and plain
// nanosecond counts in JSON.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := time.ParseDuration(strings.TrimSpace(node.Value))
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(strings.TrimSpace(s))
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("duration: %s", b)
	}
	*d = Duration(n)
	return nil
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from fc into cfg for any field that is
// still unset or at its default. Env and explicit flags are applied after
// it and win.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if (cfg.InputPath == "" || cfg.InputPath == DefaultInput) && fc.Input != "" {
		cfg.InputPath = fc.Input
	}
	if cfg.URL == "" && fc.URL != "" {
		cfg.URL = fc.URL
	}
	if (cfg.OutputPath == "" || cfg.OutputPath == DefaultOutput) && fc.Output != "" {
		cfg.OutputPath = fc.Output
	}
	if cfg.MetaPath == "" && fc.Meta != "" {
		cfg.MetaPath = fc.Meta
	}
	if (cfg.Format == "" || cfg.Format == DefaultFormat) && fc.Format != "" {
		cfg.Format = fc.Format
	}
	if cfg.ContentType == "" && fc.ContentType != "" {
		cfg.ContentType = fc.ContentType
	}
	if (cfg.Encoding == "" || cfg.Encoding == DefaultEncoding) && fc.Encoding != "" {
		cfg.Encoding = fc.Encoding
	}
	if (cfg.MaxBytes == 0 || cfg.MaxBytes == extractor.DefaultMaxBytes) && fc.MaxBytes > 0 {
		cfg.MaxBytes = fc.MaxBytes
	}
	if (cfg.UserAgent == "" || cfg.UserAgent == defaultUserAgent()) && fc.UserAgent != "" {
		cfg.UserAgent = fc.UserAgent
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}

	conv := fc.Converters
	if cfg.PDFToTextPath == "" && conv.PDFToText != "" {
		cfg.PDFToTextPath = conv.PDFToText
	}
	if cfg.SWFToHTMLPath == "" && conv.SWFToHTML != "" {
		cfg.SWFToHTMLPath = conv.SWFToHTML
	}
	if cfg.DjVuTextPath == "" && conv.DjVuText != "" {
		cfg.DjVuTextPath = conv.DjVuText
	}
	if (cfg.SWFFormatter == "" || cfg.SWFFormatter == DefaultSWFFormatter) && conv.SWFFormatter != "" {
		cfg.SWFFormatter = conv.SWFFormatter
	}
	if cfg.TempDir == "" && conv.TmpDir != "" {
		cfg.TempDir = conv.TmpDir
	}
	if (cfg.Timeout == 0 || cfg.Timeout == DefaultTimeout) && conv.Timeout > 0 {
		cfg.Timeout = time.Duration(conv.Timeout)
	}

	if cfg.CacheDir == "" && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = time.Duration(fc.Cache.MaxAge)
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}

	if (cfg.Addr == "" || cfg.Addr == DefaultAddr) && fc.Server.Addr != "" {
		cfg.Addr = fc.Server.Addr
	}
	if (cfg.MaxBodyBytes == 0 || cfg.MaxBodyBytes == DefaultMaxBodyBytes) && fc.Server.MaxBodyBytes > 0 {
		cfg.MaxBodyBytes = fc.Server.MaxBodyBytes
	}
}

// ValidateConfig checks settings the extractor does not own. Errors are
// *extractor.ConfigError values so callers map them like any other
// configuration error.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.URL) != "" {
		if in := strings.TrimSpace(cfg.InputPath); in != "" && in != DefaultInput {
			return &extractor.ConfigError{Field: "input", Value: in, Reason: "cannot be combined with -url"}
		}
	} else if strings.TrimSpace(cfg.InputPath) == "" {
		return &extractor.ConfigError{Field: "input", Reason: "input path is required"}
	}
	if strings.TrimSpace(cfg.OutputPath) == "" {
		return &extractor.ConfigError{Field: "output", Reason: "output path is required"}
	}
	if cfg.Timeout < 0 {
		return &extractor.ConfigError{Field: "timeout", Value: cfg.Timeout.String(), Reason: "must not be negative"}
	}
	if cfg.CacheMaxAge < 0 {
		return &extractor.ConfigError{Field: "cache.maxAge", Value: cfg.CacheMaxAge.String(), Reason: "must not be negative"}
	}
	if cfg.MaxBytes < 0 || cfg.MaxBodyBytes < 0 {
		return &extractor.ConfigError{Field: "maxBytes", Reason: "negative limits are not allowed"}
	}
	if cfg.CacheClear && strings.TrimSpace(cfg.CacheDir) == "" {
		return &extractor.ConfigError{Field: "cache.clear", Reason: "requires cache.dir"}
	}
	return nil
}
