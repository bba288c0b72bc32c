package extractor

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks invalid configuration, raised by New or by a
	// request whose content type conflicts with the configured format.
	ErrConfiguration = errors.New("configuration error")
	// ErrExtractionFailed marks a strategy that failed on a document.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrTooLarge is returned when a document exceeds Config.MaxBytes.
	ErrTooLarge = errors.New("document too large")
)

// ConfigError describes one invalid setting.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// ExtractionError wraps the cause of a failed extraction with the strategy
// and content type that were in play.
type ExtractionError struct {
	Strategy    Strategy
	ContentType string
	Err         error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s via %s: %v", e.ContentType, e.Strategy, e.Err)
}

// Unwrap exposes both ErrExtractionFailed and the underlying cause.
func (e *ExtractionError) Unwrap() []error { return []error{ErrExtractionFailed, e.Err} }
