// Package pool implements the fixed-size and growable-buffer pool
// abstractions that back the message factory's payload arenas, in the
// spirit of the sync.Pool-backed buffer/frame pools in the teacher's
// rpc.Codec (pkg/rpc/codec.go bPool/fPool).
package pool

import (
	"sync"

	"github.com/spiral/errors"
	"go.uber.org/zap"

	"github.com/prxmesh/prxcore/pkg/perr"
)

// Direction identifies which watermark a callback crossing refers to.
type Direction int

const (
	// Above fires when population crosses the high watermark going up.
	Above Direction = iota
	// Below fires when population crosses the low watermark going down.
	Below
)

// WatermarkFunc is invoked synchronously from inside Alloc/Release. It
// must not re-enter the pool it was invoked from.
type WatermarkFunc func(dir Direction, ctx any)

// Fixed is a typed pool of uniformly-sized slots bounded by MaxPool.
// Allocation above MaxPool fails with ErrOutOfMemory.
type Fixed struct {
	mu       sync.Mutex
	free     [][]byte
	size     int
	maxPool  int
	lowWM    int
	highWM   int
	cb       WatermarkFunc
	ctx      any
	inUse    int64
	aboveHWM bool
	log      *zap.Logger
}

// NewFixed creates a fixed-size pool. initial pre-warms the free list;
// maxPool bounds total outstanding allocations.
func NewFixed(size, initial, maxPool, lowWM, highWM int, cb WatermarkFunc, ctx any, log *zap.Logger) *Fixed {
	if log == nil {
		log = zap.NewNop()
	}
	f := &Fixed{
		size:    size,
		maxPool: maxPool,
		lowWM:   lowWM,
		highWM:  highWM,
		cb:      cb,
		ctx:     ctx,
		log:     log,
	}
	for i := 0; i < initial; i++ {
		f.free = append(f.free, make([]byte, size))
	}
	return f
}

// Alloc returns a slot of the pool's fixed size.
func (f *Fixed) Alloc() ([]byte, error) {
	const op = errors.Op("pool: fixed alloc")
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.maxPool > 0 && int(f.inUse) >= f.maxPool {
		return nil, errors.E(op, perr.ErrOutOfMemory)
	}

	var buf []byte
	if n := len(f.free); n > 0 {
		buf = f.free[n-1]
		f.free = f.free[:n-1]
	} else {
		buf = make([]byte, f.size)
	}
	f.inUse++
	f.fireLocked()
	return buf, nil
}

// Release returns a slot to the pool.
func (f *Fixed) Release(buf []byte) {
	if buf == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.free = append(f.free, buf[:f.size])
	if f.inUse > 0 {
		f.inUse--
	}
	f.fireLocked()
}

// fireLocked must be called with f.mu held.
func (f *Fixed) fireLocked() {
	if f.cb == nil {
		return
	}
	switch {
	case !f.aboveHWM && f.highWM > 0 && int(f.inUse) >= f.highWM:
		f.aboveHWM = true
		f.cb(Above, f.ctx)
	case f.aboveHWM && int(f.inUse) <= f.lowWM:
		f.aboveHWM = false
		f.cb(Below, f.ctx)
	}
}

// InUse returns the current number of outstanding allocations.
func (f *Fixed) InUse() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int(f.inUse)
}

// Free releases all pooled memory.
func (f *Fixed) Free() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.free = nil
	f.log.Debug("fixed pool freed")
}

// Dynamic is a growable-buffer pool; per-buffer size is tracked
// separately from capacity so buffers can grow in increments without
// reallocation as long as capacity allows.
type Dynamic struct {
	mu        sync.Mutex
	increment int
	maxPool   int
	lowWM     int
	highWM    int
	cb        WatermarkFunc
	ctx       any
	live      int64
	aboveHWM  bool
	log       *zap.Logger
}

// NewDynamic creates a dynamic pool. increment is the growth step used
// by Grow; maxPool bounds the number of simultaneously live buffers.
func NewDynamic(increment, maxPool, lowWM, highWM int, cb WatermarkFunc, ctx any, log *zap.Logger) *Dynamic {
	if log == nil {
		log = zap.NewNop()
	}
	if increment <= 0 {
		increment = 512
	}
	return &Dynamic{
		increment: increment,
		maxPool:   maxPool,
		lowWM:     lowWM,
		highWM:    highWM,
		cb:        cb,
		ctx:       ctx,
		log:       log,
	}
}

// New allocates a buffer with the given initial size (rounded up to
// the pool's increment).
func (d *Dynamic) New(size int) ([]byte, error) {
	const op = errors.Op("pool: dynamic new")
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.maxPool > 0 && int(d.live) >= d.maxPool {
		return nil, errors.E(op, perr.ErrOutOfMemory)
	}
	cap := d.roundUp(size)
	buf := make([]byte, size, cap)
	d.live++
	d.fireLocked()
	return buf, nil
}

// Grow extends buf by extra bytes, appending zeroed tail space and
// returning the pointer to the newly-appended tail (the slice that
// was just added), matching allocate_buffer's "pointer into the
// newly-appended tail" contract. A zero-length extra is a no-op that
// returns nil.
func (d *Dynamic) Grow(buf []byte, extra int) ([]byte, []byte) {
	if extra == 0 {
		return buf, nil
	}
	oldLen := len(buf)
	newLen := oldLen + extra
	if newLen <= cap(buf) {
		buf = buf[:newLen]
		return buf, buf[oldLen:newLen]
	}
	grown := make([]byte, newLen, d.roundUp(newLen))
	copy(grown, buf)
	return grown, grown[oldLen:newLen]
}

func (d *Dynamic) roundUp(size int) int {
	if size <= 0 {
		return d.increment
	}
	n := ((size + d.increment - 1) / d.increment) * d.increment
	return n
}

// Release returns a buffer's accounting slot to the pool (the backing
// array itself is left to the garbage collector; this tracks live
// population for watermark purposes only).
func (d *Dynamic) Release(buf []byte) {
	_ = buf
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.live > 0 {
		d.live--
	}
	d.log.Debug("dynamic buffer released", zap.Int("live", int(d.live)))
	d.fireLocked()
}

func (d *Dynamic) fireLocked() {
	if d.cb == nil {
		return
	}
	switch {
	case !d.aboveHWM && d.highWM > 0 && int(d.live) >= d.highWM:
		d.aboveHWM = true
		d.cb(Above, d.ctx)
	case d.aboveHWM && int(d.live) <= d.lowWM:
		d.aboveHWM = false
		d.cb(Below, d.ctx)
	}
}

// Live returns the number of currently tracked live buffers.
func (d *Dynamic) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int(d.live)
}
