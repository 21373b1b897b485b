// Package harness runs codec scenarios described in YAML.
//
// A scenario names an input document, the wire family to frame it in and a
// list of assertions about the result:
//
//	name: native_semantic
//	description: "Headings are tagged before tokenizing"
//	kind: native
//	flags: "-semantic"
//	timestamp: 0
//	input: |
//	  # Intro
//	  text
//	assertions:
//	  - type: round_trip
//	  - type: metadata
//	    field: kind
//	    expect: MARQANT
//	  - type: sections
//	    titles: [Intro]
//
// # Kinds
//
//   - mq2: MQ2 framing. The dictionary defaults to the builtin demo set;
//     "derived" builds one from the input, any other value names a
//     registered standard dictionary.
//   - native: native framing with the scenario's flags.
//   - demo: the raw demo codec without framing.
//
// # Assertion Types
//
//   - round_trip: decoding the document yields the input exactly
//   - contains / not_contains: the encoded document contains value
//   - metadata: a metadata field renders as expect
//   - smaller: the body is shorter than the input
//   - sections: the native body carries exactly these section titles
//
// Every scenario encodes with a fixed clock so documents are byte-stable and
// can be compared against golden files with RunWithGolden.
package harness
