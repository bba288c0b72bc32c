package app

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Environment variables read by ApplyEnvOverrides.
const (
	EnvFormat    = "GOEXTRACT_FORMAT"
	EnvEncoding  = "GOEXTRACT_ENCODING"
	EnvPDFToText = "PDFTOTEXT_PATH"
	EnvSWFToHTML = "SWF2HTML_PATH"
	EnvDjVuText  = "DJVUTXT_PATH"
	EnvTmpDir    = "GOEXTRACT_TMP_DIR"
	EnvTimeout   = "GOEXTRACT_TIMEOUT"
	EnvCacheDir  = "CACHE_DIR"
	EnvCacheAge  = "CACHE_MAX_AGE"
	EnvVerbose   = "VERBOSE"
)

// ApplyEnvOverrides overrides cfg fields with environment variables that
// are set. It runs after the config file so env takes precedence over it,
// while flags applied afterwards remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	setString := func(dst *string, envKey string) {
		if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
			*dst = v
		}
	}
	setString(&cfg.Format, EnvFormat)
	setString(&cfg.Encoding, EnvEncoding)
	setString(&cfg.PDFToTextPath, EnvPDFToText)
	setString(&cfg.SWFToHTMLPath, EnvSWFToHTML)
	setString(&cfg.DjVuTextPath, EnvDjVuText)
	setString(&cfg.TempDir, EnvTmpDir)
	setString(&cfg.CacheDir, EnvCacheDir)

	setDuration := func(dst *time.Duration, envKey string) {
		s := strings.TrimSpace(os.Getenv(envKey))
		if s == "" {
			return
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			log.Warn().Err(err).Str("env", envKey).Msg("ignoring invalid duration")
			return
		}
		*dst = d
	}
	setDuration(&cfg.Timeout, EnvTimeout)
	setDuration(&cfg.CacheMaxAge, EnvCacheAge)

	// Booleans override when env present and truthy/falsey
	setBool := func(dst *bool, envKey string) {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			switch s {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			}
		}
	}
	setBool(&cfg.Verbose, EnvVerbose)
}
