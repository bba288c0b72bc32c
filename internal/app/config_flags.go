package app

import "flag"

// RegisterExtractionFlags binds the flags shared by goextract and goextractd
// to cfg, using cfg's current values as defaults.
func RegisterExtractionFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Format, "format", cfg.Format, "Output format: xml, html, text, text_main, text_main_snacktory, text_main_boilerpipe_default, text_main_boilerpipe_article, text_main_boilerpipe_canola")
	fs.StringVar(&cfg.ContentType, "content-type", cfg.ContentType, "Declared content type; empty means sniff")
	fs.StringVar(&cfg.Encoding, "encoding", cfg.Encoding, "Output encoding, e.g. utf-8 or iso-8859-1")
	fs.StringVar(&cfg.PDFToTextPath, "pdftotext", cfg.PDFToTextPath, "Path to pdftotext; empty uses the embedded PDF parser")
	fs.StringVar(&cfg.SWFToHTMLPath, "swf2html", cfg.SWFToHTMLPath, "Path to swf2html; required for SWF input")
	fs.StringVar(&cfg.DjVuTextPath, "djvutxt", cfg.DjVuTextPath, "Path to djvutxt; required for DjVu input")
	fs.StringVar(&cfg.SWFFormatter, "swf.formatter", cfg.SWFFormatter, "Formatter for swf2html output: text or markdown")
	fs.StringVar(&cfg.TempDir, "tmp.dir", cfg.TempDir, "Directory for converter temp files")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Converter and download timeout")
	fs.Int64Var(&cfg.MaxBytes, "max.bytes", cfg.MaxBytes, "Maximum document size in bytes")
	fs.StringVar(&cfg.CacheDir, "cache.dir", cfg.CacheDir, "Result cache directory; empty disables caching")
	fs.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", cfg.CacheMaxAge, "Purge cache entries older than this at startup; 0 disables")
	fs.BoolVar(&cfg.CacheClear, "cache.clear", cfg.CacheClear, "Clear the cache directory at startup")
	fs.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", cfg.CacheStrictPerms, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
}

// SetFlags returns the names of the flags given on the command line.
func SetFlags(fs *flag.FlagSet) []string {
	var set []string
	fs.Visit(func(f *flag.Flag) { set = append(set, f.Name) })
	return set
}

// flagFields copies one field per flag name from the parsed flag values
// into the layered configuration.
var flagFields = map[string]func(dst *Config, src Config){
	"input":             func(d *Config, s Config) { d.InputPath = s.InputPath },
	"url":               func(d *Config, s Config) { d.URL = s.URL },
	"output":            func(d *Config, s Config) { d.OutputPath = s.OutputPath },
	"meta":              func(d *Config, s Config) { d.MetaPath = s.MetaPath },
	"format":            func(d *Config, s Config) { d.Format = s.Format },
	"content-type":      func(d *Config, s Config) { d.ContentType = s.ContentType },
	"encoding":          func(d *Config, s Config) { d.Encoding = s.Encoding },
	"pdftotext":         func(d *Config, s Config) { d.PDFToTextPath = s.PDFToTextPath },
	"swf2html":          func(d *Config, s Config) { d.SWFToHTMLPath = s.SWFToHTMLPath },
	"djvutxt":           func(d *Config, s Config) { d.DjVuTextPath = s.DjVuTextPath },
	"swf.formatter":     func(d *Config, s Config) { d.SWFFormatter = s.SWFFormatter },
	"tmp.dir":           func(d *Config, s Config) { d.TempDir = s.TempDir },
	"timeout":           func(d *Config, s Config) { d.Timeout = s.Timeout },
	"max.bytes":         func(d *Config, s Config) { d.MaxBytes = s.MaxBytes },
	"user-agent":        func(d *Config, s Config) { d.UserAgent = s.UserAgent },
	"cache.dir":         func(d *Config, s Config) { d.CacheDir = s.CacheDir },
	"cache.maxAge":      func(d *Config, s Config) { d.CacheMaxAge = s.CacheMaxAge },
	"cache.clear":       func(d *Config, s Config) { d.CacheClear = s.CacheClear },
	"cache.strictPerms": func(d *Config, s Config) { d.CacheStrictPerms = s.CacheStrictPerms },
	"addr":              func(d *Config, s Config) { d.Addr = s.Addr },
	"max.body":          func(d *Config, s Config) { d.MaxBodyBytes = s.MaxBodyBytes },
	"v":                 func(d *Config, s Config) { d.Verbose = s.Verbose },
}

// ApplyFlags copies the explicitly set flags from parsed into cfg. Unknown
// names are ignored.
func ApplyFlags(cfg *Config, parsed Config, set []string) {
	if cfg == nil {
		return
	}
	for _, name := range set {
		if apply, ok := flagFields[name]; ok {
			apply(cfg, parsed)
		}
	}
}

// Resolve layers the configuration sources in precedence order: defaults,
// config file, environment, explicit flags.
func Resolve(fc *FileConfig, parsed Config, set []string) Config {
	cfg := DefaultConfig()
	if fc != nil {
		ApplyFileConfig(&cfg, *fc)
	}
	ApplyEnvOverrides(&cfg)
	ApplyFlags(&cfg, parsed, set)
	return cfg
}
