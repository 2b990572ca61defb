// Package chordring implements the Chord node: identifier arithmetic on a
// ring of size 2^m, the finger-table lookup engine, the stabilize/notify/
// fix-fingers/check-predecessor maintenance protocols, and the storage
// dispatcher. Grounded on the `internal/dht` package of the INF-3200
// assignment this module started from, generalized from a hardcoded m=16
// to an arbitrary configured ring size.
package chordring

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
)

// NodeRef is the address/id pair every Chord operation passes between
// peers. A NodeRef received over the wire is used with the id it carries;
// the recipient does not recompute it from the address.
type NodeRef struct {
	ID      uint64
	Address string
}

func (n NodeRef) String() string {
	return fmt.Sprintf("%s(%d)", n.Address, n.ID)
}

// IsZero reports whether n is the unset NodeRef, used to represent "no
// predecessor".
func (n NodeRef) IsZero() bool {
	return n.Address == ""
}

// HashID hashes s with SHA-1 and reduces it modulo 2^bits. Used
// identically for node addresses and for keys, so node ids and key ids
// live in the same space.
func HashID(s string, bits int) uint64 {
	sum := sha1.Sum([]byte(s))
	// Fold the 160-bit digest into a uint64 before reducing mod 2^bits,
	// so bits beyond 64 still mix all of the hash's entropy in.
	var folded uint64
	for i := 0; i < len(sum); i += 8 {
		end := i + 8
		if end > len(sum) {
			end = len(sum)
		}
		var chunk [8]byte
		copy(chunk[8-(end-i):], sum[i:end])
		folded ^= binary.BigEndian.Uint64(chunk[:])
	}
	return folded & Mask(bits)
}

// Mask returns 2^bits - 1, the bitmask of a ring with 2^bits identifiers.
func Mask(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(bits)) - 1
}

// ModSize returns 2^bits, the number of identifiers on the ring.
func ModSize(bits int) uint64 {
	if bits >= 64 {
		return 0 // 2^64 does not fit in a uint64, so 0 is returned instead.
	}
	return uint64(1) << uint(bits)
}

// BetweenOpenOpen reports whether x lies strictly between a and b going
// clockwise around the ring, i.e. x ∈ (a, b). If a == b, every id but a
// itself is considered between them (the whole ring minus one point).
func BetweenOpenOpen(x, a, b uint64) bool {
	if a == b {
		return x != a
	}
	if a < b {
		return x > a && x < b
	}
	return x > a || x < b
}

// BetweenOpenClosed reports whether x ∈ (a, b].
func BetweenOpenClosed(x, a, b uint64) bool {
	if x == b {
		return true
	}
	return BetweenOpenOpen(x, a, b)
}

// BetweenClosedOpen reports whether x ∈ [a, b).
func BetweenClosedOpen(x, a, b uint64) bool {
	if x == a {
		return true
	}
	return BetweenOpenOpen(x, a, b)
}

// FingerStart returns start_i = (id + 2^i) mod 2^bits for finger entry i.
func FingerStart(id uint64, i, bits int) uint64 {
	if bits >= 64 {
		return id + (uint64(1) << uint(i))
	}
	return (id + (uint64(1) << uint(i))) & Mask(bits)
}
