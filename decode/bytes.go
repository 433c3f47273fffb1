package decode

import (
	"bytes"
	"math"
)

const knownHeader = "jack"

// clockSweepSteps bounds the bit-clock search to +/- 3.0 samples around the
// nominal edge length, in steps of 0.01 samples (spec section 4.6).
const clockSweepSteps = 300

// recoverBytesIter sweeps every candidate bit clock and bit-alignment
// offset, packing runs into bytes and calling yield once per header match
// with the bytes following the literal "jack" preamble. Iteration stops
// early if yield returns true.
//
// This is the lazy form of the clock sweep: callers that only need the
// first match (decode.DecodeFast) can short-circuit without materialising
// the whole (clock, offset) space, while callers needing every match
// (RecoverBytes, tests) simply never return true.
func recoverBytesIter(runs []Run, edgeLength float32, yield func(candidate []byte) (stop bool)) {
	header := []byte(knownHeader)

	for k := -clockSweepSteps; k < clockSweepSteps; k++ {
		clock := edgeLength + float32(k)/100

		bits := make([]bool, 0, len(runs)*6)
		for _, run := range runs {
			count := int(math.Round(float64(run.Length) / float64(clock)))
			for i := 0; i < count; i++ {
				bits = append(bits, !run.Positive)
			}
		}

		if len(bits) < 32 {
			continue
		}

		for offset := 0; offset < 8; offset++ {
			aligned := bits[offset:]
			n := len(aligned) / 8
			cand := make([]byte, n)
			for i := 0; i < n; i++ {
				cand[i] = BitsToByte(aligned[i*8 : i*8+8])
			}

			idx := bytes.Index(cand, header)
			if idx < 0 {
				continue
			}

			if yield(cand[idx+len(header):]) {
				return
			}
		}
	}
}

// RecoverBytes runs the full clock/offset sweep and returns every distinct
// candidate byte sequence that followed a "jack" header match, deduplicated
// by content.
func RecoverBytes(runs []Run, edgeLength float32) [][]byte {
	seen := make(map[string][]byte)
	recoverBytesIter(runs, edgeLength, func(candidate []byte) bool {
		key := string(candidate)
		if _, ok := seen[key]; !ok {
			seen[key] = append([]byte(nil), candidate...)
		}
		return false
	})

	out := make([][]byte, 0, len(seen))
	for _, v := range seen {
		out = append(out, v)
	}
	return out
}
