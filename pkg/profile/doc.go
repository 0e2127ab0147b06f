// Package profile reads per-protein coverage profiles.
//
// A profile file has one protein per line: an identifier followed by
// whitespace-separated values. Every field is kept as a Token, which is an
// integer when the field parses as one and raw text otherwise, so that
// arithmetic over non-numeric values can fail explicitly later on.
package profile
