package source

import "encoding/hex"

// DigestHex returns the document digest as lowercase hex.
func (d *Document) DigestHex() string {
	return hex.EncodeToString(d.Digest[:])
}

// SameContent reports whether two documents hold identical bytes.
// A nil document never matches.
func SameContent(a, b *Document) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Digest == b.Digest
}
