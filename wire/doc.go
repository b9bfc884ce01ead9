// Package wire implements the udigest canonical stream.
//
// Every value in the stream is either a leaf (an opaque byte string) or a
// list of values. Metadata is written after content, so values of unknown
// length can be streamed straight into a hash:
//
//	value    ::= leaf | leaf_ctx | list | list_ctx
//	leaf     ::= bytestring len(bytestring) LEAF
//	leaf_ctx ::= bytestring len(bytestring) tag len(tag) LEAF_CTX
//	list     ::= value* len(count) LIST
//	list_ctx ::= value* len(count) tag len(tag) LIST_CTX
//	len(n)   ::= n_be32 LEN_32                      (n <= 0xFFFFFFFF)
//	           | stripped_be(n) len_of_that BIGLEN  (n > 0xFFFFFFFF)
//
// Encoders are obtained from a Value, which is turned into exactly one of
// Leaf, List, Struct or Enum. A List finishes the previous item when the
// next one is requested and finishes any open item when it is finished
// itself, so the suffix of every opened encoder is written exactly once.
//
// Misuse that would otherwise corrupt the stream (appending to a finished
// leaf, choosing a Value's shape twice, leaving a list item unencoded)
// panics. Those are programming errors, not input errors.
package wire
