// Package udigest hashes structured data through an unambiguous encoding.
//
// A type takes part by implementing Digestable: it drives a *wire.Value to
// describe itself as leaves and lists. Two distinct values never produce
// the same stream, so any streaming hash over the stream is a hash of the
// value itself.
//
//	type Person struct {
//		Name      string
//		JobTitle  string   `udigest:"job_title"`
//		Skills    []string `udigest:"skills"`
//		Password  string   `udigest:"-"`
//	}
//
//	sum, err := udigest.HashValue(sha256.New, Person{...})
//
// Types that cannot be encoded canonically (Go maps without an explicit
// ordering, floats) are refused rather than given an arbitrary encoding.
package udigest
