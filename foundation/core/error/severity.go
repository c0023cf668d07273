// File: severity.go
// Title: Error Severity Levels
// Description: Severity levels used to pick a log level for an error and to
//              decide whether an operator needs to look at it.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with severity levels
// - 2026-10-15 v0.2.0: Severity mapping for numerical codes

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow indicates rejected input; the caller can fix it
	SeverityLow Severity = iota

	// SeverityMedium indicates a failure that may succeed with different parameters,
	// such as a solver run that did not converge
	SeverityMedium

	// SeverityHigh indicates a broken dependency such as the solution database
	SeverityHigh

	// SeverityCritical indicates corrupted persistent data
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ShouldAlert returns true if this severity level should trigger alerts
func (s Severity) ShouldAlert() bool {
	return s >= SeverityHigh
}

// GetSeverityFromCode determines appropriate severity level based on error code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	case CodeDataCorruption:
		return SeverityCritical

	case CodeDatabaseError, CodeServiceUnavailable, CodeInternal:
		return SeverityHigh

	case CodeConvergenceFailed, CodeSingularMatrix, CodeNetworkError, CodeTimeout,
		CodeConfigError, CodeMissingConfig, CodeInvalidConfig:
		return SeverityMedium

	case CodeInvalidInput, CodeNotFound, CodeValidationFailed, CodeInvalidFormat,
		CodeValueOutOfRange, CodeDimensionMismatch, CodeNotComputed, CodeCanceled:
		return SeverityLow

	default:
		return SeverityMedium
	}
}
