package schema

import "errors"

// Common errors shared by the adapters and the sync orchestrator.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, schema.ErrTransport) {
//	    // network or API failure, the current item is lost but the batch goes on
//	}
var (
	// ErrTransport is returned when a remote API call fails: network errors,
	// timeouts and non-2xx responses from GitHub or the record store.
	ErrTransport = errors.New("transport error")

	// ErrConfiguration is returned when a required credential or setting is
	// missing. It is fatal at construction time.
	ErrConfiguration = errors.New("configuration error")

	// ErrMalformedIssue is returned by Normalize when a raw issue carries no
	// source identity. Such issues are skipped without being reported.
	ErrMalformedIssue = errors.New("malformed issue: missing source identity")

	// ErrEnrichment is returned by description generators. Enrichers recover
	// from it internally by falling back to the template description.
	ErrEnrichment = errors.New("enrichment failed")

	// ErrInvalidIssueURL is returned when a string is not a GitHub issue URL.
	ErrInvalidIssueURL = errors.New("invalid GitHub issue URL")
)

// IsTransport returns true if the error came from a remote API call.
func IsTransport(err error) bool {
	return err != nil && errors.Is(err, ErrTransport)
}

// IsFatal returns true if the error cannot be recovered by retrying or
// skipping an item.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	// Missing credentials need the operator to fix the configuration
	return errors.Is(err, ErrConfiguration)
}
