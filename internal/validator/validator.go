// Package validator holds the pure business-rule validation applied to every
// application after it has been consumed from the bus. It is distinct from
// the boundary validation in the HTTP layer: boundary checks reject malformed
// submissions outright, while this validator reports rule violations on items
// already admitted, so every rule runs and every violation is collected.
package validator

import (
	"strings"

	"github.com/applyhub/priority-pipeline/internal/domain"
)

// Validate runs all rules against the application and aggregates the
// violations. It never short-circuits: a weightless, payload-less item
// reports both problems at once.
func Validate(app domain.Application) domain.ValidationResult {
	var errs []string

	if app.Weight < 0 || app.Weight > 100 {
		errs = append(errs, "weight must be between 0 and 100")
	}
	if strings.TrimSpace(app.Payload) == "" {
		errs = append(errs, "payload must not be empty")
	}
	if !app.Tier.IsValid() {
		errs = append(errs, "tier must be one of priority, main, secondary")
	}

	if len(errs) > 0 {
		return domain.ValidationFailure(errs)
	}
	return domain.ValidationSuccess()
}
