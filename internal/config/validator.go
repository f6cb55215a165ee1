package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidateConfig performs validation on the GlobalConfig structure.
func ValidateConfig(cfg *GlobalConfig) error {
	validate := validator.New()

	// Register custom validation for LogLevel
	_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		level := strings.ToLower(fl.Field().String())
		switch level {
		case "", "debug", "info", "warn", "error", "fatal", "panic": // Allow empty for omitempty
			return true
		default:
			return false
		}
	})

	// Register custom validation for LogFormat
	_ = validate.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
		format := strings.ToLower(fl.Field().String())
		switch format {
		case "", "console", "text", "json": // Allow empty for omitempty
			return true
		default:
			return false
		}
	})

	// Register custom validation for block markers: a marker must be a single
	// non-blank line, otherwise the two-phase scan cannot delimit the block.
	_ = validate.RegisterValidation("marker", func(fl validator.FieldLevel) bool {
		marker := fl.Field().String()
		if strings.TrimSpace(marker) == "" {
			return false
		}
		return !strings.ContainsAny(marker, "\r\n")
	})

	err := validate.Struct(cfg)
	if err == nil {
		// Marker pair sanity that struct tags cannot express.
		if cfg.HostsPatchConfig.StartMarker == cfg.HostsPatchConfig.EndMarker {
			return fmt.Errorf("configuration validation failed:\n  start_marker and end_marker must differ")
		}
		return nil
	}

	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		var validationErrorMessages []string
		for _, e := range errs {
			msg := fmt.Sprintf("Validation failed for '%s': rule '%s'", e.StructNamespace(), e.Tag())
			if e.Param() != "" {
				msg += fmt.Sprintf(" (expected: %s)", e.Param())
			}
			if e.Value() != nil && e.Value() != "" {
				msg += fmt.Sprintf(", actual: '%v'", e.Value())
			}
			validationErrorMessages = append(validationErrorMessages, msg)
		}
		return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(validationErrorMessages, "\n  "))
	}
	return fmt.Errorf("configuration validation error: %w", err)
}
