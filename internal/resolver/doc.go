// Package resolver looks up shared dictionaries published as TXT records.
//
// A dictionary named "docs" lives at "_marqant.docs[.<zone>]". Each record
// payload holds whitespace-separated base64(token)=base64(pattern) pairs.
//
// Resolve has three outcomes that callers must keep apart:
//
//   - present: the records parsed into a Mapping
//   - absent: the name service says the name does not exist
//   - failure: *Error with MALFORMED_RECORD (bad payload) or
//     RESOLUTION_FAILED (transport error or timeout)
//
// Only transport failures are retried. Present results are cached in
// memory and, when a Store is configured, on disk.
package resolver
