package sink

import "github.com/kbukum/etlkit/util"

const defaultBufferSize = 64 * 1024

// Option configures a file-backed sink. Options an adapter does not
// read are ignored; each constructor documents the options that apply.
type Option func(*options)

type options struct {
	delimiter  byte
	headers    []string
	bufferSize int
}

func defaultOptions() options {
	return options{
		delimiter:  ',',
		bufferSize: defaultBufferSize,
	}
}

// WithDelimiter sets the byte separating cells. Default ','.
func WithDelimiter(d byte) Option {
	return func(o *options) { o.delimiter = d }
}

// WithHeaders fixes the header line and column order up front. Without
// it the first written record decides both.
func WithHeaders(headers []string) Option {
	return func(o *options) { o.headers = headers }
}

// WithBufferSize sets the write buffer size from a human-readable size
// string such as "64KB".
func WithBufferSize(size string) Option {
	return func(o *options) { o.bufferSize = int(util.ParseSize(size, defaultBufferSize)) }
}
