package bmp

import "errors"

// ErrShortRead is returned when the input ends before a header or a pixel
// row has been read completely.
var ErrShortRead = errors.New("bmp: short read")

// FormatError reports that the input is not a valid BMP.
type FormatError string

func (e FormatError) Error() string { return "bmp: invalid format: " + string(e) }

// UnsupportedError reports that the input uses a valid but unimplemented BMP feature.
type UnsupportedError string

func (e UnsupportedError) Error() string { return "bmp: unsupported feature: " + string(e) }
