// Package stream implements the byte-stream abstraction that codec
// contexts read from and write to: fixed-buffer, dynamic-buffer, and
// file-backed variants, per spec §3 "Byte Stream".
package stream

import (
	"io"
	"os"

	"github.com/spiral/errors"
	"go.uber.org/multierr"

	"github.com/prxmesh/prxcore/pkg/perr"
	"github.com/prxmesh/prxcore/pkg/pool"
)

// Stream is the capability set every byte stream variant implements.
type Stream interface {
	// Read reads up to len(p) bytes, like io.Reader.
	Read(p []byte) (int, error)
	// Write writes up to len(p) bytes, like io.Writer.
	Write(p []byte) (int, error)
	// ResetRead rewinds the read position to the start.
	ResetRead() error
	// ResetWrite rewinds the write position to the start.
	ResetWrite() error
	// Readable reports how many bytes remain readable from the
	// current read position.
	Readable() int
	// Close releases any held resources (file handles). A dynamic
	// stream's buffer survives Close once ownership has been taken
	// via TakeBuffer.
	Close() error
}

// Fixed wraps a pre-existing immutable input range and a mutable,
// fixed-capacity output range. Write fails once the output range is
// exhausted.
type Fixed struct {
	in     []byte
	inPos  int
	out    []byte
	outPos int
}

// NewFixed creates a fixed-buffer stream over in (read side) and out
// (write side). Either may be nil for a stream used in only one
// direction.
func NewFixed(in, out []byte) *Fixed {
	return &Fixed{in: in, out: out}
}

// Read implements Stream.
func (f *Fixed) Read(p []byte) (int, error) {
	if f.inPos >= len(f.in) {
		return 0, io.EOF
	}
	n := copy(p, f.in[f.inPos:])
	f.inPos += n
	return n, nil
}

// Write implements Stream.
func (f *Fixed) Write(p []byte) (int, error) {
	const op = errors.Op("stream: fixed write")
	remaining := len(f.out) - f.outPos
	if remaining < len(p) {
		return 0, errors.E(op, perr.ErrWriting)
	}
	n := copy(f.out[f.outPos:], p)
	f.outPos += n
	return n, nil
}

// ResetRead implements Stream.
func (f *Fixed) ResetRead() error {
	f.inPos = 0
	return nil
}

// ResetWrite implements Stream.
func (f *Fixed) ResetWrite() error {
	f.outPos = 0
	return nil
}

// Readable implements Stream.
func (f *Fixed) Readable() int {
	return len(f.in) - f.inPos
}

// Close implements Stream. Fixed streams hold no external resources.
func (f *Fixed) Close() error { return nil }

// Written returns the output bytes produced so far.
func (f *Fixed) Written() []byte {
	return f.out[:f.outPos]
}

// Dynamic grows its output buffer on demand from a Dynamic pool. Its
// input view is the accumulated output, readable from position 0.
type Dynamic struct {
	pool      *pool.Dynamic
	buf       []byte
	increment int
	inPos     int
	owned     bool
}

// NewDynamic creates a dynamic-buffer stream backed by p, growing in
// steps of increment bytes.
func NewDynamic(p *pool.Dynamic, increment int) (*Dynamic, error) {
	const op = errors.Op("stream: new dynamic")
	if increment <= 0 {
		increment = 512
	}
	buf, err := p.New(0)
	if err != nil {
		return nil, errors.E(op, err)
	}
	return &Dynamic{pool: p, buf: buf, increment: increment}, nil
}

// Read implements Stream; it reads from the accumulated output.
func (d *Dynamic) Read(p []byte) (int, error) {
	if d.inPos >= len(d.buf) {
		return 0, io.EOF
	}
	n := copy(p, d.buf[d.inPos:])
	d.inPos += n
	return n, nil
}

// Write implements Stream; it grows the buffer as needed.
func (d *Dynamic) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if need := len(d.buf) + len(p); need > cap(d.buf) {
		steps := (need + d.increment - 1) / d.increment
		larger := make([]byte, len(d.buf), steps*d.increment)
		copy(larger, d.buf)
		d.buf = larger
	}
	grown, tail := d.pool.Grow(d.buf, len(p))
	d.buf = grown
	copy(tail, p)
	return len(p), nil
}

// ResetRead implements Stream.
func (d *Dynamic) ResetRead() error {
	d.inPos = 0
	return nil
}

// ResetWrite implements Stream. Dynamic streams only grow; resetting
// the write position truncates back to empty so callers re-encoding
// into the same stream start clean.
func (d *Dynamic) ResetWrite() error {
	d.buf = d.buf[:0]
	return nil
}

// Readable implements Stream.
func (d *Dynamic) Readable() int {
	return len(d.buf) - d.inPos
}

// Bytes returns the accumulated output without transferring ownership.
func (d *Dynamic) Bytes() []byte {
	return d.buf
}

// TakeBuffer transfers ownership of the accumulated buffer to the
// caller; after this call Close is a no-op with respect to the
// buffer's pool accounting.
func (d *Dynamic) TakeBuffer() []byte {
	d.owned = true
	return d.buf
}

// Close implements Stream. If ownership was not transferred via
// TakeBuffer, the buffer is released back to its pool.
func (d *Dynamic) Close() error {
	if !d.owned {
		d.pool.Release(d.buf)
	}
	return nil
}

// File reads from an optional read handle and writes to an optional
// write handle.
type File struct {
	r *os.File
	w *os.File
}

// NewFile creates a file-backed stream. Either handle may be nil.
func NewFile(r, w *os.File) *File {
	return &File{r: r, w: w}
}

// Read implements Stream.
func (f *File) Read(p []byte) (int, error) {
	const op = errors.Op("stream: file read")
	if f.r == nil {
		return 0, errors.E(op, perr.ErrReading)
	}
	n, err := f.r.Read(p)
	if err != nil && err != io.EOF {
		return n, errors.E(op, perr.ErrReading, err)
	}
	return n, err
}

// Write implements Stream.
func (f *File) Write(p []byte) (int, error) {
	const op = errors.Op("stream: file write")
	if f.w == nil {
		return 0, errors.E(op, perr.ErrWriting)
	}
	n, err := f.w.Write(p)
	if err != nil {
		return n, errors.E(op, perr.ErrWriting, err)
	}
	return n, nil
}

// ResetRead implements Stream by seeking the read handle to 0.
func (f *File) ResetRead() error {
	const op = errors.Op("stream: file reset read")
	if f.r == nil {
		return nil
	}
	if _, err := f.r.Seek(0, io.SeekStart); err != nil {
		return errors.E(op, perr.ErrReading, err)
	}
	return nil
}

// ResetWrite implements Stream by seeking the write handle to 0 and
// truncating.
func (f *File) ResetWrite() error {
	const op = errors.Op("stream: file reset write")
	if f.w == nil {
		return nil
	}
	if _, err := f.w.Seek(0, io.SeekStart); err != nil {
		return errors.E(op, perr.ErrWriting, err)
	}
	if err := f.w.Truncate(0); err != nil {
		return errors.E(op, perr.ErrWriting, err)
	}
	return nil
}

// Readable implements Stream by comparing the current offset to the
// file size; it returns 0 if the read handle is absent.
func (f *File) Readable() int {
	if f.r == nil {
		return 0
	}
	pos, err := f.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0
	}
	info, err := f.r.Stat()
	if err != nil {
		return 0
	}
	remaining := info.Size() - pos
	if remaining < 0 {
		return 0
	}
	return int(remaining)
}

// Close implements Stream, closing both handles if present and
// aggregating any errors.
func (f *File) Close() error {
	var err error
	if f.r != nil {
		err = multierr.Append(err, f.r.Close())
	}
	if f.w != nil && f.w != f.r {
		err = multierr.Append(err, f.w.Close())
	}
	return err
}
