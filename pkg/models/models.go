// Package models defines the domain models for the visual lifecycle service.
package models

import (
	"encoding/json"
	"time"
)

// RecordStatus represents the validation status carried by a lifecycle
// record. It is only meaningful while the record sits in the generated or
// validation pools.
type RecordStatus string

const (
	StatusGenerated       RecordStatus = "generated"
	StatusValidating      RecordStatus = "validating"
	StatusValid           RecordStatus = "valid"
	StatusInvalid         RecordStatus = "invalid"
	StatusNeedsRefinement RecordStatus = "needs-refinement"
)

// VerdictStatus represents the outcome reported by the validation service.
type VerdictStatus string

const (
	VerdictValid           VerdictStatus = "VALID"
	VerdictNeedsRefinement VerdictStatus = "NEEDS_REFINEMENT"
	VerdictInvalid         VerdictStatus = "INVALID"
)

// ItemDefinition is the immutable catalog entry for a known visual.
type ItemDefinition struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SourceHandle string `json:"sourceHandle"`
	Description  string `json:"description,omitempty"`
}

// Record is the mutable unit tracked through the lifecycle collections.
// Outcome fields (notes, rejectionReason, ...) are only populated on records
// living in the valid/invalid logs.
type Record struct {
	ID                   string          `json:"id"`
	Question             string          `json:"question"`
	Name                 string          `json:"name"`
	SourceHandle         string          `json:"sourceHandle"`
	Description          string          `json:"description,omitempty"`
	RequiredCapabilities []string        `json:"requiredCapabilities,omitempty"`
	Position             json.RawMessage `json:"position,omitempty"`
	Status               RecordStatus    `json:"status,omitempty"`

	// Validation outcome metadata.
	Notes                 string   `json:"notes,omitempty"`
	DataRequirements      []string `json:"dataRequirements,omitempty"`
	ValidationID          string   `json:"validationId,omitempty"`
	RejectionReason       string   `json:"rejectionReason,omitempty"`
	MissingData           []string `json:"missingData,omitempty"`
	SuggestedAlternatives []string `json:"suggestedAlternatives,omitempty"`
}

// ValidationRequest is the payload sent to the validation service.
type ValidationRequest struct {
	Question              string `json:"question"`
	CapabilityDescription string `json:"capabilityDescription"`
}

// Verdict is the structured response of the validation service. Exactly one
// of the three statuses is expected; which fields are populated depends on it.
type Verdict struct {
	Status                VerdictStatus `json:"status"`
	ValidatedQuestion     string        `json:"validatedQuestion,omitempty"`
	Notes                 string        `json:"notes,omitempty"`
	RequiredCapabilities  []string      `json:"requiredCapabilities,omitempty"`
	DataRequirements      []string      `json:"dataRequirements,omitempty"`
	RejectionReason       string        `json:"rejectionReason,omitempty"`
	MissingData           []string      `json:"missingData,omitempty"`
	SuggestedAlternatives []string      `json:"suggestedAlternatives,omitempty"`
}

// ValidationResult is returned to callers of the validate transition.
type ValidationResult struct {
	Status VerdictStatus `json:"status"`
	Record Record        `json:"record"`
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}
