// Package connectors holds the repository listers the adaptor publishes.
// Each lister implements driven.Lister, and optionally
// driven.IncrementalLister, for one kind of repository.
//
// The filesystem lister is the only one so far.
package connectors
