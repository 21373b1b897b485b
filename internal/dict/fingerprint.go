package dict

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
)

// FingerprintPrefix tags the hash algorithm in rendered fingerprints.
const FingerprintPrefix = "fnv1a64:"

// SectionTag opens the canonical (MQ2) dictionary section.
var SectionTag = []byte("~T")

// AppendCanonical appends the canonical serialization of d to dst:
//
//	"~T" { code:1 len:u16be pattern }...
//
// Entries are written in ascending code order regardless of insertion order.
// This is the exact dictionary section the MQ2 framing emits.
func (d *Dictionary) AppendCanonical(dst []byte) []byte {
	dst = append(dst, SectionTag...)
	for _, e := range d.Sorted() {
		dst = append(dst, e.Code)
		dst = binary.BigEndian.AppendUint16(dst, uint16(len(e.Pattern)))
		dst = append(dst, e.Pattern...)
	}
	return dst
}

// Fingerprint returns the FNV-1a 64 fingerprint of the canonical serialization,
// formatted as "fnv1a64:<16 lowercase hex>".
func (d *Dictionary) Fingerprint() string {
	return FingerprintBytes(d.AppendCanonical(nil))
}

// FingerprintBytes renders the FNV-1a 64 fingerprint of raw section bytes.
// Used by metadata probes that hash a section without parsing it.
func FingerprintBytes(section []byte) string {
	h := fnv.New64a()
	h.Write(section)
	return fmt.Sprintf("%s%016x", FingerprintPrefix, h.Sum64())
}
