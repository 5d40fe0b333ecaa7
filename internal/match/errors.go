// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/doi-enricher/pkg/types"
)

var (
	// ErrInvalidConfiguration is returned by NewEngine before any evaluation runs.
	ErrInvalidConfiguration = errors.New("invalid match configuration")

	// ErrAmbiguousMatch marks an evaluation where more than one candidate verified.
	ErrAmbiguousMatch = errors.New("ambiguous match")

	// ErrNotFound is wrapped by detail fetchers when the identifier does not exist.
	ErrNotFound = errors.New("identifier not found")

	// ErrTransientFetch is wrapped by detail fetchers for failures worth retrying later.
	ErrTransientFetch = errors.New("transient fetch failure")
)

// AmbiguousMatchError reports that several candidates passed every enabled
// check. The engine never picks one; the caller adjudicates.
type AmbiguousMatchError struct {
	Record      types.SourceRecord
	Identifiers []string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%s for record %q: %d candidates verified (%s)",
		ErrAmbiguousMatch, e.Record.ID, len(e.Identifiers), strings.Join(e.Identifiers, ", "))
}

func (e *AmbiguousMatchError) Unwrap() error { return ErrAmbiguousMatch }

// DetailFetchError wraps a collaborator failure for one candidate. The
// candidate is excluded and the evaluation is marked incomplete.
type DetailFetchError struct {
	Identifier string
	Cause      error
}

func (e *DetailFetchError) Error() string {
	return fmt.Sprintf("fetching detail for %s: %v", e.Identifier, e.Cause)
}

func (e *DetailFetchError) Unwrap() error { return e.Cause }

// NotFound reports whether the metadata source does not know the identifier.
func (e *DetailFetchError) NotFound() bool { return errors.Is(e.Cause, ErrNotFound) }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
