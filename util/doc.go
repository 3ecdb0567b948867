// Package util provides small parsing helpers shared by etlkit packages.
//
// It includes option-string parsing (buffer sizes, delimiters) for
// adapter factories.
package util
