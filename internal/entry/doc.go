// Package entry implements container entries and their compressed storage.
//
// Content is gzip-compressed at rest in a Blob. Two blob strategies are
// interchangeable:
//   - memory: compressed bytes held in a buffer, zeroed on Dispose
//   - staged: compressed bytes in a private temp file, removed on Dispose
//
// A Spool picks the strategy by size (ModeAuto) or caller preference, and
// reports compression progress through a ProgressFunc.
package entry
