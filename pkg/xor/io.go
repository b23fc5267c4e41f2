package xor

import (
	"io"
)

var _ io.Reader = (*Reader)(nil)

// Reader performs XOR operations on all bytes read from its source.
type Reader struct {
	source io.Reader
	scr    *xorScreen
}

// NewReader constructs a new Reader that will screen all bytes read from r with the provided key, starting at the absolute stream position pos.
func NewReader(r io.Reader, key []byte, pos ...int) (*Reader, error) {
	scr, err := newXorScreen(key, pos...)
	if err != nil {
		return nil, err
	}
	return &Reader{
		source: r,
		scr:    scr,
	}, nil
}

func (r *Reader) Read(out []byte) (n int, err error) {
	n, err = r.source.Read(out)
	for i := 0; i < n; i++ {
		out[i] = r.scr.screen(out[i])
	}
	return n, err
}

var _ io.Writer = (*Writer)(nil)

// Writer performs XOR operations on all bytes written to its target.
type Writer struct {
	target io.Writer
	scr    *xorScreen
}

// NewWriter constructs a new Writer that will screen all bytes written to target with the provided key, starting at the absolute stream position pos.
func NewWriter(target io.Writer, key []byte, pos ...int) (*Writer, error) {
	scr, err := newXorScreen(key, pos...)
	if err != nil {
		return nil, err
	}
	return &Writer{
		target: target,
		scr:    scr,
	}, nil
}

// Write screens a copy of in, so the caller's buffer is left untouched.
func (w *Writer) Write(in []byte) (n int, err error) {
	buf := make([]byte, len(in))
	for i := 0; i < len(in); i++ {
		buf[i] = w.scr.screen(in[i])
	}
	return w.target.Write(buf)
}
