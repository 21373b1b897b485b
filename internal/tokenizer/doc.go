// Package tokenizer implements the token-substitution engine.
//
// Encode performs a single left-to-right greedy longest-match scan: at each
// position the longest dictionary pattern that matches wins, ties at equal
// length go to the entry inserted first, and the scan never backtracks.
// Decode is the exact inverse.
//
// Literal bytes that could be mistaken for a token are escaped with the
// reserved byte 0xFF (dict.Escape). In Lenient mode only bytes that collide
// with an assigned code (or 0xFF itself) are escaped; in Strict mode every
// literal byte >= 0x80 is escaped so that any unescaped high byte in the
// stream must be a known token. Strict mode is used when the dictionary
// travels out-of-band and the decoder has to detect a mismatch.
//
// Round-trip contract: Decode(Encode(b, d, m), d, m) == b for every byte
// slice b and every dictionary d that passes dict.Validate.
//
// Build derives a dictionary from one input by counting candidate
// substrings and keeping only those with positive net savings.
package tokenizer
