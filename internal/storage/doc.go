// Package storage handles the on-disk framing of a container file.
//
// A container file is laid out as:
//
//	offset 0..16   salt (raw bytes)
//	offset 16..32  IV (raw bytes)
//	offset 32..EOF ciphertext
//
// Files are replaced atomically: new content is written to a uniquely named
// temp file in the same directory, synced, and renamed over the target.
package storage
