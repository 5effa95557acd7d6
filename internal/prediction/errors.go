package prediction

import (
	"fmt"

	"pharmsight/m/domain"
)

// UnavailableError reports a failed round trip to the prediction service.
// It matches domain.ErrPredictionUnavailable under errors.Is.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, domain.ErrPredictionUnavailable, e.Err)
}

func (e *UnavailableError) Unwrap() []error {
	return []error{domain.ErrPredictionUnavailable, e.Err}
}
