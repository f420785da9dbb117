// Package validator abstracts struct validation behind a small interface.
//
// Callers depend on Validator rather than a concrete engine; the v10
// implementation here wires go-playground/validator with translated,
// snake_case field errors suitable for API responses.
package validator
