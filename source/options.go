package source

import "github.com/kbukum/etlkit/util"

const defaultBufferSize = 64 * 1024

// Option configures a file-backed source. Options an adapter does not
// read are ignored; each constructor documents the options that apply.
type Option func(*options)

type options struct {
	delimiter  byte
	hasHeader  bool
	bufferSize int
}

func defaultOptions() options {
	return options{
		delimiter:  ',',
		hasHeader:  true,
		bufferSize: defaultBufferSize,
	}
}

// WithDelimiter sets the byte separating fields. Default ','.
func WithDelimiter(d byte) Option {
	return func(o *options) { o.delimiter = d }
}

// WithHeader declares whether the first line is a header row rather
// than data. Default true.
func WithHeader(has bool) Option {
	return func(o *options) { o.hasHeader = has }
}

// WithBufferSize sets the line buffer size from a human-readable size
// string such as "256KB". Lines longer than the buffer fail the read.
func WithBufferSize(size string) Option {
	return func(o *options) { o.bufferSize = int(util.ParseSize(size, defaultBufferSize)) }
}
