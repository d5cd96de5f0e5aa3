package feed

import "fmt"

// ErrColumnMissing indicates the configured link column is absent from the
// source header.
type ErrColumnMissing struct {
	Column string
	Header []string
}

func (e ErrColumnMissing) Error() string {
	return fmt.Sprintf("feed: column %q not found in header %v", e.Column, e.Header)
}

// ErrOpenSource indicates the source could not be opened or fetched.
type ErrOpenSource struct {
	Source string
	Err    error
}

func (e ErrOpenSource) Error() string {
	return fmt.Errorf("feed: open %s: %w", e.Source, e.Err).Error()
}

func (e ErrOpenSource) Unwrap() error {
	return e.Err
}
