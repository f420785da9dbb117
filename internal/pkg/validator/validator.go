package validator

// Validator validates a struct according to its declared rules.
type Validator interface {
	Validate(data any) error
}
