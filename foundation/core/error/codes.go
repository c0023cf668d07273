// File: codes.go
// Title: Error Code Definitions
// Description: Standardized error codes used to classify failures of the
//              laplace toolkit: malformed numeric text, rejected solver input,
//              numerical breakdown, persistence and transport problems.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with core error codes
// - 2026-10-15 v0.2.0: Numerical codes (convergence, singular matrix, dimensions)

package error

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeTimeout      Code = "TIMEOUT"
	CodeCanceled     Code = "CANCELED"

	// Numerical procedure
	CodeConvergenceFailed Code = "CONVERGENCE_FAILED"
	CodeSingularMatrix    Code = "SINGULAR_MATRIX"
	CodeDimensionMismatch Code = "DIMENSION_MISMATCH"
	CodeNotComputed       Code = "NOT_COMPUTED"

	// Storage
	CodeDatabaseError  Code = "DATABASE_ERROR"
	CodeDataCorruption Code = "DATA_CORRUPTION"

	// Service and network
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeNetworkError       Code = "NETWORK_ERROR"

	// Configuration and environment
	CodeConfigError   Code = "CONFIG_ERROR"
	CodeMissingConfig Code = "MISSING_CONFIG"
	CodeInvalidConfig Code = "INVALID_CONFIG"

	// Validation
	CodeValidationFailed Code = "VALIDATION_FAILED"
	CodeInvalidFormat    Code = "INVALID_FORMAT"
	CodeValueOutOfRange  Code = "VALUE_OUT_OF_RANGE"
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// IsValid checks if the error code is a known valid code
func (c Code) IsValid() bool {
	switch c {
	case CodeUnknown, CodeInternal, CodeNotFound, CodeInvalidInput, CodeTimeout, CodeCanceled,
		CodeConvergenceFailed, CodeSingularMatrix, CodeDimensionMismatch, CodeNotComputed,
		CodeDatabaseError, CodeDataCorruption,
		CodeServiceUnavailable, CodeNetworkError,
		CodeConfigError, CodeMissingConfig, CodeInvalidConfig,
		CodeValidationFailed, CodeInvalidFormat, CodeValueOutOfRange:
		return true
	default:
		return false
	}
}

// Category returns the high-level category of the error code
func (c Code) Category() string {
	switch c {
	case CodeConvergenceFailed, CodeSingularMatrix, CodeDimensionMismatch, CodeNotComputed:
		return "numerical"
	case CodeDatabaseError, CodeDataCorruption:
		return "database"
	case CodeServiceUnavailable, CodeNetworkError:
		return "service"
	case CodeConfigError, CodeMissingConfig, CodeInvalidConfig:
		return "configuration"
	case CodeValidationFailed, CodeInvalidFormat, CodeValueOutOfRange, CodeInvalidInput:
		return "validation"
	default:
		return "generic"
	}
}

// GRPCCode returns the numeric gRPC status code matching this error code.
// The values follow google.golang.org/grpc/codes.
func (c Code) GRPCCode() uint32 {
	switch c {
	case CodeInvalidInput, CodeValidationFailed, CodeInvalidFormat,
		CodeValueOutOfRange, CodeDimensionMismatch:
		return 3 // InvalidArgument
	case CodeTimeout:
		return 4 // DeadlineExceeded
	case CodeNotFound:
		return 5 // NotFound
	case CodeConvergenceFailed, CodeSingularMatrix, CodeNotComputed:
		return 9 // FailedPrecondition
	case CodeCanceled:
		return 1 // Canceled
	case CodeServiceUnavailable, CodeNetworkError:
		return 14 // Unavailable
	case CodeDataCorruption:
		return 15 // DataLoss
	default:
		return 13 // Internal
	}
}
