// Package domain defines the core business types for the ReachPoint outreach
// tracker.
//
// Types in this package are pure value objects with no behavior, no storage
// dependencies, and no HTTP concerns. They are the shared language between
// handlers, services, and the key-value persistence layer.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No storage clients, no http.Request, no context.Context in struct fields
//   - JSON tags are allowed and match the persisted record layout exactly
//   - Small pure helpers on the types are allowed
package domain
