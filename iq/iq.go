// Package iq provides the sample-source abstraction the receive pipeline
// reads from: a lazy, finite sequence of complex baseband samples, plus
// the two on-disk formats the rest of the repo trades in (.cu8 raw capture
// bytes, .f32 intermediate observation dumps).
package iq

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Source yields complex baseband samples one at a time. Next returns
// ok=false, err=nil on a clean end of stream; a non-nil err is always an
// I/O error from the underlying reader.
type Source interface {
	Next() (sample complex64, ok bool, err error)
}

// cu8Source reads unsigned, interleaved I/Q byte pairs and maps each byte
// b to (b-128)/128, per the .cu8 wire format (spec section 6).
type cu8Source struct {
	r   io.Reader
	buf [2]byte
}

// NewCU8Source wraps r as a Source of .cu8 samples. A trailing odd byte at
// end of stream is silently dropped.
func NewCU8Source(r io.Reader) Source {
	return &cu8Source{r: r}
}

func (c *cu8Source) Next() (complex64, bool, error) {
	if _, err := io.ReadFull(c.r, c.buf[:]); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("iq: reading cu8 sample: %w", err)
	}

	re := (float32(c.buf[0]) - 128) / 128
	im := (float32(c.buf[1]) - 128) / 128
	return complex(re, im), true, nil
}

// ReadF32 reads a raw little-endian float32 dump (the optional .f32
// intermediate format) into memory.
func ReadF32(r io.Reader) ([]float32, error) {
	var out []float32
	var buf [4]byte
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			if err == io.EOF {
				return out, nil
			}
			if err == io.ErrUnexpectedEOF {
				return out, nil
			}
			return nil, fmt.Errorf("iq: reading f32 sample: %w", err)
		}
		bits := binary.LittleEndian.Uint32(buf[:])
		out = append(out, math.Float32frombits(bits))
	}
}

// WriteF32 writes data as a raw little-endian float32 dump.
func WriteF32(w io.Writer, data []float32) error {
	buf := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	_, err := w.Write(buf)
	if err != nil {
		return fmt.Errorf("iq: writing f32 samples: %w", err)
	}
	return nil
}
