package lingocache

import (
	"errors"
	"fmt"
)

// ErrNoSizer is returned by Usage when the provider cannot report its size.
var ErrNoSizer = errors.New("lingocache: provider does not report bytes in use")

// PersistError describes a failed provider or generation-store operation.
// It never reaches Get/Set callers; it is logged and passed to Hooks.
type PersistError struct {
	Op        string // "get", "set", "del", "gen", "clear", "usage"
	Namespace Namespace
	Key       string
	Err       error
}

func (e *PersistError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("lingocache: %s %s: %v", e.Op, e.Namespace, e.Err)
	}
	return fmt.Sprintf("lingocache: %s %s/%q: %v", e.Op, e.Namespace, e.Key, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// CloseError is returned by Close when releasing the generation store or the
// provider failed.
type CloseError struct {
	GenErr      error
	ProviderErr error
}

func (e *CloseError) Error() string {
	switch {
	case e.GenErr != nil && e.ProviderErr != nil:
		return fmt.Sprintf("lingocache: close failed: genstore=%v; provider=%v", e.GenErr, e.ProviderErr)
	case e.GenErr != nil:
		return fmt.Sprintf("lingocache: close genstore: %v", e.GenErr)
	case e.ProviderErr != nil:
		return fmt.Sprintf("lingocache: close provider: %v", e.ProviderErr)
	default:
		return "lingocache: close: unknown error"
	}
}

func (e *CloseError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.GenErr != nil {
		errs = append(errs, e.GenErr)
	}
	if e.ProviderErr != nil {
		errs = append(errs, e.ProviderErr)
	}
	return errs
}
