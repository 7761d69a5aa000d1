package ork

import (
	"errors"
	"fmt"
)

// Sentinel errors for opening and validating .ork documents.
var (
	// ErrFileNotFound indicates the input path does not exist.
	ErrFileNotFound = errors.New("ork file or zip archive does not exist")
	// ErrNotUTF8 indicates the design document is not UTF-8 encoded.
	ErrNotUTF8 = errors.New("ork file is not UTF-8 encoded")
	// ErrNoSimulationData indicates the document carries no recorded simulation.
	ErrNoSimulationData = errors.New("ork file contains no simulation data")
	// ErrUnsupportedLanguage indicates the recorded columns are not labelled in English.
	ErrUnsupportedLanguage = errors.New("simulation columns are not in a supported language")
	// ErrNoRocket indicates the document has no <rocket> element.
	ErrNoRocket = errors.New("ork file has no rocket element")
	// ErrMissingArchiveMember indicates a zip archive without a rocket.ork member.
	ErrMissingArchiveMember = errors.New("zip archive has no rocket.ork member")
	// ErrNoChild is returned by Component.Child for an out-of-range index.
	// Callers treat it as the end of the child list.
	ErrNoChild = errors.New("no child at index")
	// ErrMissingField indicates a required tag is absent.
	ErrMissingField = errors.New("required field missing")
	// ErrInvalidValue indicates a tag is present but cannot be parsed.
	ErrInvalidValue = errors.New("invalid field value")
)

// PreconditionError is returned before any extraction starts. It carries the
// remediation a user should apply to the input file.
type PreconditionError struct {
	Path        string
	Remediation string
	Err         error
}

func (e *PreconditionError) Error() string {
	if e.Remediation == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v. %s", e.Path, e.Err, e.Remediation)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// FieldError identifies which tag of which component could not be read.
type FieldError struct {
	Component string
	Field     string
	Value     string
	Err       error
}

func (e *FieldError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: field %q: %v (%q)", e.Component, e.Field, e.Err, e.Value)
	}
	return fmt.Sprintf("%s: field %q: %v", e.Component, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
