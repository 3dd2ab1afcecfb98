// Package campaign implements the campaign registry.
//
// Campaigns are stored as one ordered JSON array under a single key. The
// service layer holds the business logic (creation from a filtered dataset,
// delete cascading to progress) and depends on the Repository interface
// defined in this package.
//
// Concurrent Save and Delete calls are not synchronized: the last write of
// the array wins.
package campaign
