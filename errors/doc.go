// Package errors defines the error type shared by every etlkit component.
//
// Failures travel as *PipelineError values tagged with the Kind of
// component they originated from, so callers can branch on failure class
// without string matching. The taxonomy is closed: every error produced by
// this module carries exactly one Kind.
//
// # Usage
//
//	err := errors.Source("empty CSV file").WithDetail("path", path)
//
//	if errors.HasKind(err, errors.KindSource) {
//	    // handle unreadable source
//	}
package errors
