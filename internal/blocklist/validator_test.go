package blocklist

import (
	"testing"

	"hostpatch/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorValidate(t *testing.T) {
	validator := NewValidator(config.NewDefaultHostsPatchConfig(), zerolog.Nop())

	t.Run("accepts comments blanks and entries", func(t *testing.T) {
		payload := "# Title comment\n\n0.0.0.0 ads.example.com\n0.0.0.0 tracker.example.net analytics.example.net\n"
		assert.NoError(t, validator.Validate(payload))
	})

	t.Run("accepts CRLF line endings", func(t *testing.T) {
		payload := "# comment\r\n0.0.0.0 ads.example.com\r\n"
		assert.NoError(t, validator.Validate(payload))
	})

	t.Run("accepts inline trailing comments", func(t *testing.T) {
		payload := "0.0.0.0 ads.example.com # known ad server\n"
		assert.NoError(t, validator.Validate(payload))
	})

	t.Run("rejects localhost header lines of amalgamated hosts files", func(t *testing.T) {
		for _, line := range []string{
			"127.0.0.1 localhost",
			"255.255.255.255 broadcasthost",
			"::1 localhost",
		} {
			err := validator.Validate(line + "\n")
			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr, "line %q must not pass the entry grammar", line)
		}
	})

	t.Run("rejects an arbitrary non-conforming line", func(t *testing.T) {
		payload := "# comment\nBADLINE\n0.0.0.0 ads.example.com\n"
		err := validator.Validate(payload)

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, 2, validationErr.LineNumber)
		assert.Equal(t, "BADLINE", validationErr.Line)
	})

	t.Run("rejects sentinel without hostname", func(t *testing.T) {
		err := validator.Validate("0.0.0.0   \n")
		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("rejects sentinel glued to hostname", func(t *testing.T) {
		err := validator.Validate("0.0.0.0ads.example.com\n")
		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("rejects invalid hostnames", func(t *testing.T) {
		err := validator.Validate("0.0.0.0 not_a_valid..host\n")
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Reason, "invalid hostname")
	})

	t.Run("rejects a payload carrying the start marker line", func(t *testing.T) {
		markers := config.NewDefaultHostsPatchConfig()
		payload := markers.StartMarker + "\n0.0.0.0 ads.example.com\n"
		err := validator.Validate(payload)

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Contains(t, validationErr.Reason, "managed block marker")
	})

	t.Run("rejects a line embedding the end marker", func(t *testing.T) {
		markers := config.NewDefaultHostsPatchConfig()
		payload := "0.0.0.0 ads.example.com # " + markers.EndMarker + "\n"
		err := validator.Validate(payload)

		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("rejects the whole payload on the first bad line", func(t *testing.T) {
		payload := "0.0.0.0 good.example.com\nBADLINE\nALSOBAD\n"
		err := validator.Validate(payload)

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "BADLINE", validationErr.Line, "must fail fast on the first non-conforming line")
	})
}
