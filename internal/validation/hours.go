package validation

import (
	"errors"
	"fmt"
	"math"

	"github.com/gritto/gritto/internal/model"
)

// ValidateWeeklyHours checks an hours-per-week figure against the length of a week.
func ValidateWeeklyHours(hours float64) error {
	if math.IsNaN(hours) || math.IsInf(hours, 0) {
		return errors.New("hours must be a number")
	}
	if hours < 0 {
		return errors.New("hours must not be negative")
	}
	if hours > model.MaxHoursPerWeek {
		return fmt.Errorf("hours must not exceed %d per week", model.MaxHoursPerWeek)
	}
	return nil
}

// ValidateEstimate checks a task's estimated hours.
func ValidateEstimate(hours float64) error {
	if math.IsNaN(hours) || math.IsInf(hours, 0) {
		return errors.New("estimated hours must be a number")
	}
	if hours < 0 {
		return errors.New("estimated hours must not be negative")
	}
	return nil
}
