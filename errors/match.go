package errors

import (
	stderrors "errors"
)

// AsPipelineError extracts a *PipelineError from err's chain.
func AsPipelineError(err error) (*PipelineError, bool) {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsPipelineError reports whether err's chain contains a *PipelineError.
func IsPipelineError(err error) bool {
	var pe *PipelineError
	return stderrors.As(err, &pe)
}

// KindOf returns the kind of the first PipelineError in err's chain.
// Errors from outside the taxonomy report KindIO, the catch-all for
// unclassified failures crossing a component boundary.
func KindOf(err error) Kind {
	if pe, ok := AsPipelineError(err); ok {
		return pe.Kind
	}
	return KindIO
}

// HasKind reports whether err's chain contains a PipelineError of the given kind.
func HasKind(err error, kind Kind) bool {
	for err != nil {
		if pe, ok := err.(*PipelineError); ok && pe.Kind == kind {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}
