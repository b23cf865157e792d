package world

import (
	"github.com/pkg/errors"
	crunch "github.com/superwhiskers/crunch/v3"

	"assaultwing/wire"
)

// segmentWriter appends little-endian fields to a growing buffer.
type segmentWriter struct {
	buf *crunch.Buffer
}

func newSegmentWriter() *segmentWriter {
	return &segmentWriter{buf: crunch.NewBuffer()}
}

func (w *segmentWriter) byte(bs ...byte) {
	w.buf.Grow(int64(len(bs)))
	for _, b := range bs {
		w.buf.WriteByteNext(b)
	}
}

func (w *segmentWriter) u16(vs ...uint16) {
	w.buf.Grow(int64(2 * len(vs)))
	w.buf.WriteU16LENext(vs)
}

func (w *segmentWriter) f32(vs ...float32) {
	w.buf.Grow(int64(4 * len(vs)))
	w.buf.WriteF32LENext(vs)
}

func (w *segmentWriter) str(s string) {
	if len(s) > 255 {
		s = s[:255]
	}
	w.byte(byte(len(s)))
	w.buf.Grow(int64(len(s)))
	w.buf.WriteBytesNext([]byte(s))
}

func (w *segmentWriter) bytes() []byte {
	return w.buf.Bytes()
}

// segmentReader reads what segmentWriter wrote. Reading past the end yields
// an error wrapping wire.ErrCorrupt instead of a panic.
type segmentReader struct {
	buf  *crunch.Buffer
	off  int64
	size int64
}

func newSegmentReader(b []byte) *segmentReader {
	return &segmentReader{buf: crunch.NewBuffer(b), size: int64(len(b))}
}

func (r *segmentReader) need(n int64) error {
	if r.off+n > r.size {
		return errors.Wrapf(wire.ErrCorrupt, "segment truncated: need %d bytes at offset %d of %d", n, r.off, r.size)
	}
	r.off += n
	return nil
}

func (r *segmentReader) byte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	return r.buf.ReadByteNext(), nil
}

func (r *segmentReader) u16(n int) ([]uint16, error) {
	if err := r.need(int64(2 * n)); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return r.buf.ReadU16LENext(int64(n)), nil
}

func (r *segmentReader) f32(n int) ([]float32, error) {
	if err := r.need(int64(4 * n)); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return r.buf.ReadF32LENext(int64(n)), nil
}

func (r *segmentReader) str() (string, error) {
	n, err := r.byte()
	if err != nil {
		return "", err
	}
	if err := r.need(int64(n)); err != nil {
		return "", err
	}
	s := make([]byte, n)
	for i := range s {
		s[i] = r.buf.ReadByteNext()
	}
	return string(s), nil
}

func (r *segmentReader) remaining() int64 {
	return r.size - r.off
}
