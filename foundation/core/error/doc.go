// Package error provides structured errors for the laplace toolkit.
//
// Package: error
// Title: Structured Error Handling
// Description: Errors carry a Code, a Severity, the failing operation and a
//              set of key/value details. Numeric parsing, solver input checks,
//              convergence failures and storage failures each get their own code
//              so callers can branch on the kind of failure.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with contextual errors and codes
// - 2026-10-15 v0.2.0: Numerical codes
//
// Usage:
//
//	import mdwerror "github.com/msto63/laplace/foundation/core/error"
//
//	err := mdwerror.New("iteration budget exhausted").
//		WithCode(mdwerror.CodeConvergenceFailed).
//		WithOperation("minimax.Compute").
//		WithDetail("k", 8)
//
//	if mdwerror.HasCode(err, mdwerror.CodeConvergenceFailed) {
//		// retry with a larger budget
//	}
package error
