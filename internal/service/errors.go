package service

import "errors"

// Error kinds surfaced to the initiating action. Wrap with fmt.Errorf("%w: ...")
// and match with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrAuth       = errors.New("authentication failed")
	ErrNotFound   = errors.New("not found")
)
