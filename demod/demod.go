// Package demod implements the stateful FM demodulator used by the receive
// pipeline: arg(sample * conj(prev)) * gain, one complex sample at a time.
package demod

import (
	"fmt"
	"math"
	"math/cmplx"
)

// FM is a quadrature FM demodulator. It carries the previous input sample
// as its only state, so one FM belongs to exactly one pipeline run.
type FM struct {
	gain float32
	prev complex64
}

// NewFM builds a demodulator for the given deviation and sample rate, both
// in Hz. deviation must be no more than half the sample rate; violating
// that is a configuration error, not a panic (spec section 7.1).
func NewFM(deviation, sampleRate uint32) (*FM, error) {
	if deviation > sampleRate/2 {
		return nil, fmt.Errorf("demod: deviation %d exceeds half the sample rate %d", deviation, sampleRate)
	}

	gain := 2 * math.Pi * float32(deviation) / float32(sampleRate)
	return &FM{gain: 1 / gain}, nil
}

// Update demodulates one sample and advances the demodulator's state. The
// very first call always returns 0, since there is no previous sample to
// compare against yet.
func (f *FM) Update(sample complex64) float32 {
	next := cmplx.Phase(complex128(sample)*cmplx.Conj(complex128(f.prev))) * float64(f.gain)
	f.prev = sample
	return float32(next)
}
