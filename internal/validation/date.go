package validation

import (
	"errors"
	"strings"
	"time"

	"github.com/gritto/gritto/internal/model"
)

// NormalizeDate accepts a calendar date or an RFC 3339 timestamp and returns
// the calendar date in YYYY-MM-DD form.
func NormalizeDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("date is required")
	}

	if t, err := time.Parse(model.DateLayout, value); err == nil {
		return t.Format(model.DateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.Format(model.DateLayout), nil
	}

	return "", errors.New("date must be YYYY-MM-DD")
}
