package canopy

// Enumerable is the interface implemented by types that can only be represented by enumerable, constant values.
//
// Environments, action verbs and swap strategies are all Enumerable.
type Enumerable interface {
	String() string
	Valid() error
}
