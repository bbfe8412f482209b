// Package domain defines the core business entities for the Sercha adaptor.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocID: An opaque identifier for one repository item
//   - Record: A document to add to or delete from the appliance index
//   - AclItem: A named resource carrying an access-control list
//   - GroupEntry: A group definition with its ordered members
//   - Acl, Principal: Access-control data carried by feeds
//   - FeedConfig: The configuration subset the feed engine consumes
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
