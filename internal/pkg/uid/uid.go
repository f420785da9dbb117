// Package uid provides ID generators used across the service.
//
// Numeric IDs (token records) come from a snowflake generator so they stay
// sortable by creation time. String IDs (correlation IDs) are UUIDs.
package uid

// NumberID generates int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}
