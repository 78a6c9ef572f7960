package handlers

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/taskboard-dev/taskboard/internal/config"
)

var cfg = &config.Config{}

// Init wires the loaded configuration into the handler package.
func Init(c *config.Config) {
	cfg = c
}

const dateLayout = "2006-01-02"

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}

	t, err := time.Parse(dateLayout, value)

	if err != nil {
		return nil
	}

	return &t
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}

	return t.Format(dateLayout)
}

// bindingErrors turns validator failures into a field->message map; any other
// binding failure becomes a generic invalid-request body.
func bindingErrors(err error) gin.H {
	var validationErrors validator.ValidationErrors

	if !errors.As(err, &validationErrors) {
		return gin.H{"error": "Invalid request"}
	}

	fields := make(map[string]string, len(validationErrors))

	for _, fieldError := range validationErrors {
		fields[toSnakeCase(fieldError.Field())] = validationMessage(fieldError)
	}

	return gin.H{"errors": fields}
}

func fieldError(field, message string) gin.H {
	return gin.H{"errors": map[string]string{field: message}}
}

func validationMessage(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return "Must be at least " + fieldError.Param() + " characters"
	case "max":
		return "Must be at most " + fieldError.Param() + " characters"
	case "oneof":
		return "Must be one of: " + fieldError.Param()
	case "hexcolor":
		return "Must be a hex color value"
	case "datetime":
		return "Must be a date in YYYY-MM-DD format"
	case "eqfield":
		return "Must match " + toSnakeCase(fieldError.Param())
	default:
		return "Invalid value"
	}
}

func toSnakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder

	for i, r := range runes {
		if !unicode.IsUpper(r) {
			b.WriteRune(r)
			continue
		}

		// Break before the start of a new word; runs of capitals such as
		// "ID" stay together.
		startOfWord := i > 0 && (!unicode.IsUpper(runes[i-1]) ||
			(i+1 < len(runes) && !unicode.IsUpper(runes[i+1])))

		if startOfWord {
			b.WriteByte('_')
		}

		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}
