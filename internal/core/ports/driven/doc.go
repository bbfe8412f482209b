// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the feed engine to function:
//
//   - FeedMaker: Serialises batches into feed XML
//   - FeedTransport: Delivers feed XML to the appliance
//   - FeedArchiver: Keeps sent and failed feeds for audit
//   - Lister: Produces the repository's full listing
//   - ExceptionHandler: Decides whether a failed batch is retried
//   - FeedConfigProvider: Supplies the feed configuration for each push
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - IncrementalLister: Only needed for incremental pushes.
//   - SchedulerStore: Only needed when pushes are scheduled.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or services package
package driven
