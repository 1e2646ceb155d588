// Package codec serializes an entry table to the binary layout stored
// inside a container's ciphertext.
//
// Layout (all integers big-endian):
//
//	magic    [4]byte  "BBOX"
//	version  uint16
//	count    uint32
//	count x {
//	    nameLen uint32, name []byte
//	    typeLen uint32, type []byte
//	    dataLen uint64, data []byte  (gzip stream)
//	}
//
// Decoding is strict: truncation, over-long declared lengths, empty fields,
// duplicate names and trailing bytes all fail with ErrFormat.
package codec
