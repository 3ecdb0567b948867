// Package validation provides struct-tag validation for etlkit
// configuration types using go-playground/validator.
//
// Adapter factories decode loader options into typed config structs and
// call Validate before constructing the component, so malformed pipeline
// definitions surface as CONFIG errors with per-field details.
//
// # Usage
//
//	type Options struct {
//	    Path      string `mapstructure:"path" validate:"required"`
//	    Delimiter string `mapstructure:"delimiter" validate:"omitempty,max=4"`
//	}
//
//	if err := validation.Validate(opts); err != nil { ... }
package validation
