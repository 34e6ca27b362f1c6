package roofscore

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidUpdate rejects an update batch before any state change.
	ErrInvalidUpdate = errors.New("invalid score update")
	// ErrConflict is returned while another recompute holds the mission, or when creating a
	// mission score that already exists.
	ErrConflict = errors.New("mission score is updating")
	// ErrNotFound is returned for a missing mission score or image.
	ErrNotFound = errors.New("not found")
	// ErrUpstreamUnavailable wraps failures of mission metadata and storage collaborators.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrNothingToRevert is returned when reverting a mission without update history.
	ErrNothingToRevert = fmt.Errorf("%w: no mission score updated yet", ErrInvalidUpdate)
)

// ImageError is a failure scoring one image. It never aborts the rest of the batch.
type ImageError struct {
	ImageName string `json:"img_name"`
	Err       error  `json:"-"`
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("image %s: %v", e.ImageName, e.Err)
}

func (e *ImageError) Unwrap() error {
	return e.Err
}

// ImageErrors collects the per image failures of a batch.
type ImageErrors []*ImageError

func (errs ImageErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (errs ImageErrors) Unwrap() []error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
}
