package decode

// Run is the gap between two adjacent detected edges: a sample count and
// the polarity of the edge that ended the run.
type Run struct {
	Length   int
	Positive bool
}

type edgeSample struct {
	index int
	value float32
}

// FindRuns scans a differential (edge-correlation) stream, treating any
// sample with |v| > 0.5 as "inside an edge". Each maximal in-edge stretch
// yields one Run: the distance from the previous peak to this one, and the
// sign of the strongest (highest-magnitude) sample in the stretch. A
// stretch still open when the stream ends is discarded.
func FindRuns(differential []float32) []Run {
	var runs []Run
	prev := 0
	var buf []edgeSample

	for i, v := range differential {
		if abs32(v) > 0.5 {
			buf = append(buf, edgeSample{i, v})
			continue
		}
		if len(buf) == 0 {
			continue
		}

		peak := buf[0]
		for _, s := range buf[1:] {
			if abs32(s.value) > abs32(peak.value) {
				peak = s
			}
		}
		runs = append(runs, Run{Length: peak.index - prev, Positive: peak.value > 0})
		prev = peak.index
		buf = buf[:0]
	}

	return runs
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
