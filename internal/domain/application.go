package domain

import (
	"strings"
	"time"
)

// Tier is the priority class an application is routed to at admission time.
// It is derived from the weight once and never changes afterwards.
type Tier string

const (
	TierPriority  Tier = "priority"
	TierMain      Tier = "main"
	TierSecondary Tier = "secondary"
)

func (t Tier) IsValid() bool {
	switch t {
	case TierPriority, TierMain, TierSecondary:
		return true
	}
	return false
}

// TierForWeight maps a weight to its tier:
//
//	weight > 80        → priority
//	40 ≤ weight ≤ 80   → main
//	weight < 40        → secondary
//
// Both boundaries are closed on the main side: 40 and 80 are main.
func TierForWeight(weight int) Tier {
	switch {
	case weight > 80:
		return TierPriority
	case weight >= 40:
		return TierMain
	default:
		return TierSecondary
	}
}

// Status tracks the persistence lifecycle of an application.
type Status string

const (
	StatusReceived  Status = "received"
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
)

// Application is the core work item. It is built once by the admission
// classifier and read-only from then on; workers turn it into a persistence
// record but never mutate the item itself.
type Application struct {
	ID           string     `json:"id"`
	Weight       int        `json:"weight"`
	Tier         Tier       `json:"tier"`
	Payload      string     `json:"payload"`
	Files        []string   `json:"files,omitempty"`
	Status       Status     `json:"status,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
}

// SubmitRequest is the inbound payload at the submission boundary.
type SubmitRequest struct {
	Weight  int      `json:"weight"`
	Payload string   `json:"payload"`
	Files   []string `json:"files,omitempty"`
}

// Validate enforces the boundary rules: weight within range and a non-blank
// payload. Business-rule validation of admitted items is the validator
// package's job; this only gates what enters the system at all.
func (r *SubmitRequest) Validate() error {
	if r.Weight < 0 || r.Weight > 100 {
		return ErrInvalidWeight
	}
	if strings.TrimSpace(r.Payload) == "" {
		return ErrEmptyPayload
	}
	return nil
}

// SubmitResponse echoes the identity and routing decision back to the caller.
type SubmitResponse struct {
	ID        string    `json:"id"`
	Tier      Tier      `json:"tier"`
	Weight    int       `json:"weight"`
	CreatedAt time.Time `json:"created_at"`
}

// ResultStatus tags a processing result envelope.
type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultError   ResultStatus = "error"
)

// Result is the outcome published on the result topic for every consumed
// application, success or error. Error carries the reason; success does not.
type Result struct {
	ApplicationID string       `json:"application_id"`
	Status        ResultStatus `json:"status"`
	Error         string       `json:"error,omitempty"`
	ProcessedAt   time.Time    `json:"processed_at"`
}

// SuccessResult builds a success envelope stamped with the current UTC time.
func SuccessResult(applicationID string) Result {
	return Result{
		ApplicationID: applicationID,
		Status:        ResultSuccess,
		ProcessedAt:   time.Now().UTC(),
	}
}

// ErrorResult builds an error envelope stamped with the current UTC time.
func ErrorResult(applicationID, reason string) Result {
	return Result{
		ApplicationID: applicationID,
		Status:        ResultError,
		Error:         reason,
		ProcessedAt:   time.Now().UTC(),
	}
}

// ValidationResult aggregates every rule violation found on an application.
// Valid is true iff Errors is empty.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidationSuccess is the empty, valid result.
func ValidationSuccess() ValidationResult {
	return ValidationResult{Valid: true}
}

// ValidationFailure wraps a non-empty violation list.
func ValidationFailure(errs []string) ValidationResult {
	return ValidationResult{Valid: false, Errors: errs}
}
