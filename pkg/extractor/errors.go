package extractor

import (
	"errors"
	"fmt"
)

var (
	// ErrNotTargetPage is returned for pages outside the photo section
	ErrNotTargetPage = errors.New("not a photo page")

	// ErrMissingElement is returned when a required element is absent
	ErrMissingElement = errors.New("required element not found")

	// ErrMissingAttribute is returned when a required attribute is absent
	ErrMissingAttribute = errors.New("required attribute not found")

	// ErrNoDownloadLink is returned for photo pages that offer no download.
	// Nothing is emitted for such pages.
	ErrNoDownloadLink = errors.New("photo page has no download link")
)

// ExtractionError describes which field of which mode could not be read
type ExtractionError struct {
	Mode     Mode
	Field    string
	Selector string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s extraction: %s (%s): %v", e.Mode, e.Field, e.Selector, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
