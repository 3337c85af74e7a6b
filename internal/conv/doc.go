// Package conv provides checked integer conversions.
//
// Counts read from a field stream are untrusted; they pass through these
// helpers before they size an allocation. Conversions that are safe by
// construction use plain casts.
package conv
