// Package market provides instrument identity helpers shared by the
// ingestion engine and its callers.
package market

import "strings"

// DefaultSuffix is the exchange suffix appended to bare ASX codes.
const DefaultSuffix = "AX"

// InstrumentID returns the fully-qualified instrument identifier for a
// bare exchange code. Codes already carrying the suffix are returned
// unchanged; the code's case is preserved.
func InstrumentID(bareCode, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	if HasSuffix(bareCode, suffix) {
		return bareCode
	}
	return bareCode + "." + suffix
}

// BareCode strips the exchange suffix from a fully-qualified identifier.
// Identifiers without the suffix are returned unchanged.
func BareCode(instrumentID, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return strings.TrimSuffix(instrumentID, "."+suffix)
}

// HasSuffix reports whether the identifier carries the given exchange suffix.
func HasSuffix(instrumentID, suffix string) bool {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return strings.HasSuffix(instrumentID, "."+suffix)
}
