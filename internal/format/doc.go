// Package format frames token streams into self-describing documents.
//
// Two wire families share the dict model:
//
// # MQ2 (fixed demo)
//
//	MQ2~UNI~<ts_hex>~<orig_hex>~<comp_hex>~<tokc_hex>~<level>\n
//	~T{<code:1><len:u16be><pattern>}...\n~~~~\n
//	<token stream>
//
// The dictionary section is binary and always complete, so decoding runs
// the tokenizer in Lenient mode.
//
// # Native (flagged)
//
//	MARQANT <ts> <orig> <comp> [-semantic] [-zlib] [-std:<name>]\n
//	<HH>=<escaped pattern>\n   (ascending code order)
//	---\n
//	<body>
//
// Flags compose independently. Encoding tokenizes (splitting the input at
// heading lines and inserting section markers when -semantic is set) and
// then deflates and base64-armors the result when -zlib is set. Decoding
// undoes these in exact reverse: un-armor, strip markers, detokenize.
//
// With -std:<name> the named baseline dictionary seeds construction; its
// entries are never repeated in the explicit dictionary section and the
// decoder merges them back from its own registry.
//
// # Metadata
//
// ReadMetadata probes the header (and the dictionary section, for the
// fingerprint) of either family without decoding the body. Unrecognized
// input yields Kind "UNKNOWN" instead of an error.
package format
