package entry

import (
	"bytes"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	Unknown            = "unknown"
	SniffSize          = 512  // Bytes inspected by content sniffing
	BinarySampleSize   = 8192 // Bytes to sample for text/binary detection
	BinaryThresholdPct = 10   // Max % non-printable chars for text files
)

// extensionTypes override the host mime tables for the files people
// usually keep in a container, so labels do not depend on the machine.
var extensionTypes = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".env":  "text/plain",
	".ini":  "text/plain",
	".conf": "text/plain",
	".toml": "application/toml",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".json": "application/json",
	".xml":  "application/xml",
	".pem":  "application/x-pem-file",
	".key":  "application/x-pem-file",
	".sql":  "application/sql",
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".zip":  "application/zip",
	".gz":   "application/gzip",
	".tar":  "application/x-tar",
}

func init() {
	for ext, t := range extensionTypes {
		if err := mime.AddExtensionType(ext, t); err != nil {
			panic(err)
		}
	}
}

// DetectMediaType guesses a media type from the file name, then from the
// leading content bytes. It returns Unknown when neither is conclusive.
func DetectMediaType(name string, sample []byte) string {
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		if t := mime.TypeByExtension(ext); t != "" {
			return stripParams(t)
		}
	}
	if len(sample) == 0 {
		return Unknown
	}
	if len(sample) > SniffSize {
		sample = sample[:SniffSize]
	}
	t := stripParams(http.DetectContentType(sample))
	if t == "application/octet-stream" {
		return Unknown
	}
	return t
}

func stripParams(t string) string {
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	if i := strings.IndexByte(t, ';'); i >= 0 {
		return strings.TrimSpace(t[:i])
	}
	return t
}

// IsText determines if content is likely text.
//
// Detection heuristic (in order):
//  1. Null bytes present → binary (executables, images, etc.)
//  2. Invalid UTF-8 → binary
//  3. >10% non-printable control chars → binary
func IsText(data []byte) bool {
	if len(data) == 0 {
		return true
	}

	if bytes.IndexByte(data, 0) != -1 {
		return false
	}

	sampleSize := BinarySampleSize
	if len(data) < sampleSize {
		sampleSize = len(data)
	}
	sample := data[:sampleSize]

	if !utf8.Valid(sample) {
		return false
	}

	nonPrintable := 0
	for _, b := range sample {
		// Allow common whitespace: space, tab, newline, carriage return
		if b < 32 && b != 9 && b != 10 && b != 13 {
			nonPrintable++
		}
		if b == 127 {
			nonPrintable++
		}
	}

	threshold := len(sample) * BinaryThresholdPct / 100
	return nonPrintable <= threshold
}
