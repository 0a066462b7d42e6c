package model

// Actor identifies who is performing a mutation. Authentication happens
// upstream; the service only consumes the resolved identity. Elevated actors
// may cancel any reservation and list across all owners.
type Actor struct {
	ID       string `json:"id"`
	Elevated bool   `json:"elevated"`
}
