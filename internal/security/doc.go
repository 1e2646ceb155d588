// Package security confines extraction of container entries to a
// destination directory.
package security
