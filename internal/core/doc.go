// Package core provides the container session and its operations.
//
// A Container is either Locked or Unlocked:
//   - Create: new empty container with a fresh salt, nothing written yet
//   - Open: decrypt an existing file into an in-memory entry table
//   - Save: encrypt the table and atomically replace the file
//   - Close: dispose all entries and wipe password and key
//
// Entry operations (AddEntry, AddFile, RemoveEntry, Entry, List, Extract,
// ExtractFile, ExtractAll, Diff, ChangePassword) require Unlocked and fail
// with ErrInvalidState otherwise.
//
// ExtractAll resolves conflicts with existing files using a MergeStrategy:
//   - Keep local version
//   - Use container version (overwrite)
//   - Keep both (saves container version as .from-container)
//   - Ask a caller-supplied resolver, which may return an edited merge
//   - Abort at the first conflict with ErrConflict
//
// The package-level functions (CreateContainer, OpenContainer, SaveContainer,
// AddEntry, ExtractEntry, ListEntries) work on a bare entry table.
package core
