package domain

import "strings"

// DocID uniquely identifies one item in the source repository.
// Any string is a valid identifier, including the empty string.
type DocID struct {
	uniqueID string
}

// NewDocID creates a DocID wrapping the given identifier.
func NewDocID(uniqueID string) DocID {
	return DocID{uniqueID: uniqueID}
}

// NewDocIDs wraps each identifier in a DocID, preserving order.
func NewDocIDs(uniqueIDs ...string) []DocID {
	ids := make([]DocID, len(uniqueIDs))
	for i, id := range uniqueIDs {
		ids[i] = NewDocID(id)
	}
	return ids
}

// UniqueID returns the wrapped identifier.
func (d DocID) UniqueID() string {
	return d.uniqueID
}

// String implements fmt.Stringer.
func (d DocID) String() string {
	return "DocId(" + d.uniqueID + ")"
}

// Less reports whether d sorts before other using byte-wise comparison.
func (d DocID) Less(other DocID) bool {
	return strings.Compare(d.uniqueID, other.uniqueID) < 0
}

