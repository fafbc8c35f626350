package models

// A description of an error state
type ModelError struct {

	// A human readable description of the error state
	Description string `json:"description,omitempty"`

	// The engine query id when the error comes from a dispatched query
	QueryID string `json:"queryId,omitempty"`
}
