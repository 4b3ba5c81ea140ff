package mcu

import "sync/atomic"

// BV returns the bit value of bit n, like _BV in avr-libc.
func BV(n uint) byte {
	return 1 << n
}

// Reg8 is an 8-bit I/O register. It's safe to be accessed from the CPU
// and from emulated peripherals concurrently.
type Reg8 struct {
	v uint32
}

// Get reads the register.
func (r *Reg8) Get() byte {
	return byte(atomic.LoadUint32(&r.v))
}

// Set writes the register.
func (r *Reg8) Set(v byte) {
	atomic.StoreUint32(&r.v, uint32(v))
}

// SetBits performs reg |= mask.
func (r *Reg8) SetBits(mask byte) {
	r.update(func(v byte) byte { return v | mask })
}

// ClearBits performs reg &= ^mask.
func (r *Reg8) ClearBits(mask byte) {
	r.update(func(v byte) byte { return v &^ mask })
}

// HasBits indicates all bits in mask are set.
func (r *Reg8) HasBits(mask byte) bool {
	return r.Get()&mask == mask
}

func (r *Reg8) update(fn func(byte) byte) {
	for {
		old := atomic.LoadUint32(&r.v)
		if atomic.CompareAndSwapUint32(&r.v, old, uint32(fn(byte(old)))) {
			return
		}
	}
}

// Reg16 is a 16-bit I/O register pair.
type Reg16 struct {
	v uint32
}

// Get reads the register.
func (r *Reg16) Get() uint16 {
	return uint16(atomic.LoadUint32(&r.v))
}

// Set writes the register.
func (r *Reg16) Set(v uint16) {
	atomic.StoreUint32(&r.v, uint32(v))
}
