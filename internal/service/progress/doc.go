// Package progress owns the per-campaign calling record: attempts, outcomes,
// survey answers and notes for every touched contact, plus the totals derived
// from them.
//
// Every mutation is a whole-record read-modify-write against the key-value
// store, serialized per campaign by a Locker. Made, Answered and Missed are
// recomputed from the contact map on each write and never incremented.
//
// Nothing outside this package reads or writes the reachpoint.progress.* and
// reachpoint.survey.* keys.
package progress
