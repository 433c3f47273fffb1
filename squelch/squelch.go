// Package squelch turns a raw IQ sample source into a list of bursts:
// contiguous, normalised stretches of the FM-demodulated, decimated
// observation stream that look like they might carry a signal.
package squelch

import (
	"fmt"
	"math"
	"sort"

	"github.com/FauxFaux/shinelink/demod"
	"github.com/FauxFaux/shinelink/iq"
)

// Config holds the parameters of one pipeline run. It is immutable once
// built by NewConfig.
type Config struct {
	// Decimation is how many demodulated samples are averaged into one
	// observation.
	Decimation int
	// SampleRate is the original IQ sample rate, in Hz.
	SampleRate uint32
	// Deviation is the width of the FM signal, in Hz.
	Deviation uint32
	// Shift is where the signal sits in the capture, in Hz, signed.
	Shift float64
}

// NewConfig validates and returns a Config. deviation must be no more than
// half the sample rate, and shift must fit within +/- half the sample
// rate; both are fatal configuration errors per spec section 7.1.
func NewConfig(decimation int, sampleRate, deviation uint32, shift float64) (Config, error) {
	if decimation <= 0 {
		return Config{}, fmt.Errorf("squelch: decimation must be positive, got %d", decimation)
	}
	if deviation > sampleRate/2 {
		return Config{}, fmt.Errorf("squelch: deviation %d must be at most half the sample rate %d", deviation, sampleRate)
	}
	if math.Abs(shift) > float64(sampleRate)/2 {
		return Config{}, fmt.Errorf("squelch: shift %v must be at most half the sample rate %d", shift, sampleRate)
	}

	return Config{
		Decimation: decimation,
		SampleRate: sampleRate,
		Deviation:  deviation,
		Shift:      shift,
	}, nil
}

// Burst is one contiguous, normalised stretch of observations that
// squelch judged to carry a signal, along with the index of the chunk
// immediately following the run that produced it.
type Burst struct {
	StartChunk int
	Samples    []float32
}

const chunkSize = 16

// ShiftDemodDecimate mixes src by a complex tone at cfg.Shift, FM-demodulates
// it, and averages runs of cfg.Decimation outputs into one real-valued
// observation each. A trailing partial average is discarded.
func ShiftDemodDecimate(src iq.Source, cfg Config) ([]float32, error) {
	fm, err := demod.NewFM(cfg.Deviation, cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	shiftRate := 2 * math.Pi * cfg.Shift / float64(cfg.SampleRate)

	buf := make([]float32, 0, cfg.Decimation)
	var observations []float32

	var i float64
	for {
		sample, ok, err := src.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		i++
		phase := shiftRate * i
		rotated := sample * complex(float32(math.Cos(phase)), float32(math.Sin(phase)))

		buf = append(buf, fm.Update(rotated))

		if len(buf) == cfg.Decimation {
			var sum float32
			for _, v := range buf {
				sum += v
			}
			observations = append(observations, sum/float32(len(buf)))
			buf = buf[:0]
		}
	}

	return observations, nil
}

// Squelch runs the full shift/demod/decimate + burst-extraction chain over
// src. A capture with no stable interval returns a nil slice and a nil
// error: that is a normal, successful outcome (spec section 7.3), not a
// failure.
func Squelch(src iq.Source, cfg Config) ([]Burst, error) {
	observations, err := ShiftDemodDecimate(src, cfg)
	if err != nil {
		return nil, err
	}

	perfects := classifyChunks(observations)
	smoothed := smooth(perfects)

	return mergeRuns(observations, smoothed), nil
}

// classifyChunks marks each fixed-size chunk of observations as "perfect":
// likely noise-free, because its dynamic range is small.
func classifyChunks(observations []float32) []bool {
	n := (len(observations) + chunkSize - 1) / chunkSize
	perfects := make([]bool, n)
	for i := range perfects {
		start := i * chunkSize
		end := start + chunkSize
		if end > len(observations) {
			end = len(observations)
		}
		perfects[i] = isPerfect(observations[start:end])
	}
	return perfects
}

func isPerfect(chunk []float32) bool {
	min, max := chunk[0], chunk[0]
	for _, v := range chunk[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return max-min < 2.0
}

// smooth dilates the perfect-chunk flags by 2 in either direction: a chunk
// is "in burst" if it, or any chunk within 2 of it, was perfect. Chunks
// closer than 2 to either end of the sequence keep their raw flag.
func smooth(orig []bool) []bool {
	smoothed := make([]bool, len(orig))
	copy(smoothed, orig)

	for i := 2; i+2 < len(orig); i++ {
		if smoothed[i] {
			continue
		}
		for j := i - 2; j <= i+2; j++ {
			if orig[j] {
				smoothed[i] = true
				break
			}
		}
	}
	return smoothed
}

// mergeRuns scans the smoothed in-burst flags and concatenates each maximal
// run of "in burst" chunks into one normalised Burst. A run still open when
// the input ends is discarded, matching the original implementation.
func mergeRuns(observations []float32, smoothed []bool) []Burst {
	var picked []Burst
	var buf [][]float32

	for chunkNo, inBurst := range smoothed {
		start := chunkNo * chunkSize
		end := start + chunkSize
		if end > len(observations) {
			end = len(observations)
		}
		chunk := observations[start:end]

		if inBurst {
			buf = append(buf, chunk)
			continue
		}
		if len(buf) == 0 {
			continue
		}

		var total int
		for _, c := range buf {
			total += len(c)
		}
		concatenated := make([]float32, 0, total)
		for _, c := range buf {
			concatenated = append(concatenated, c...)
		}

		picked = append(picked, Burst{StartChunk: chunkNo, Samples: normalise(concatenated)})
		buf = buf[:0]
	}

	return picked
}

// normalise maps orig onto roughly [-1, 1] using its 5th and 95th
// percentile values (by truncating integer division), so that the bulk of
// a burst's samples land within the unit range regardless of the
// demodulator's absolute scale. Outliers are not clipped; they map outside
// [-1, 1].
func normalise(orig []float32) []float32 {
	sorted := make([]float32, len(orig))
	copy(sorted, orig)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	const percentile = 5
	low := sorted[len(sorted)*percentile/100]
	high := sorted[len(sorted)*(100-percentile)/100]

	mid := (high + low) / 2
	rng := (high - low) / 2

	out := make([]float32, len(orig))
	for i, v := range orig {
		out[i] = (v - mid) / rng
	}
	return out
}
