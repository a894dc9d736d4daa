// Package velocypack implements a compact, self-describing binary
// serialization format for a JSON-superset data model.
//
// A Builder composes a value into a growing byte buffer, a Slice
// navigates the encoded bytes in place without copying, and a Dumper
// renders a slice back to JSON text. Arrays and objects carry an index
// table behind their payload so members are addressable without scanning;
// object keys may be sorted on close so readers can binary search.
package velocypack
