package entity

import (
	"crypto/rand"
	"encoding/hex"
)

// workCodeAlphabet deliberately drops 0/O/1/I so codes survive being read
// aloud or typed from a phone screen.
const workCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// WorkCodeLength is the issued code length.
const WorkCodeLength = 8

// NewWorkCode returns a fresh human-typable code. Uniqueness is the
// repository's problem; this is just the draw.
func NewWorkCode() string {
	buf := make([]byte, WorkCodeLength)
	_, _ = rand.Read(buf) // never fails, see crypto/rand docs
	out := make([]byte, WorkCodeLength)
	for i, b := range buf {
		out[i] = workCodeAlphabet[int(b)%len(workCodeAlphabet)]
	}
	return string(out)
}

// FallbackWorkCode is used after repeated uniqueness collisions, which with
// a 32^8 space means something is pathologically wrong. It trades the
// friendly alphabet for a longer random hex code that will not collide.
func FallbackWorkCode() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
