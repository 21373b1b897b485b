// Package dict provides the dictionary model shared by every marqant codec.
//
// A Dictionary is an immutable, ordered list of (code, pattern) entries. A
// code is a single byte in the assignable range 0x80-0xFE; a pattern is the
// non-empty byte sequence the code expands to on decode. Bytes 0x00-0x7F are
// always passthrough and 0xFF is reserved as the escape byte.
//
// Key invariants:
//   - Each code appears at most once (DUPLICATE_TOKEN otherwise)
//   - Patterns are never empty (EMPTY_PATTERN)
//   - Codes never leave 0x80-0xFE (RESERVED_CODE_USED)
//   - Insertion order is preserved; Sorted() gives the canonical order
//
// This package imports nothing internal, so every codec package can depend
// on it without cycles.
package dict
