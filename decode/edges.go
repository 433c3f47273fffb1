package decode

import "math"

// DetectEdges correlates input against a pair of half-sine templates of
// length round(edgeLength)+1, returning, for every sliding window, how
// strongly that window resembles a rising edge (positive output) or a
// falling edge (negative output). The output is shorter than input by
// round(edgeLength).
func DetectEdges(input []float32, edgeLength float32) []float32 {
	edgePos := edgeTemplate(edgeLength)
	edgeNeg := make([]float32, len(edgePos))
	for i, v := range edgePos {
		edgeNeg[len(edgePos)-1-i] = v
	}

	n := len(edgePos)
	if len(input) < n {
		return nil
	}

	out := make([]float32, len(input)-n+1)
	for w := range out {
		window := input[w : w+n]
		var pos, neg float32
		for i, v := range window {
			pos += float32(math.Abs(float64(v - edgePos[i])))
			neg += float32(math.Abs(float64(v - edgeNeg[i])))
		}
		pos /= float32(n)
		neg /= float32(n)
		out[w] = neg - pos
	}
	return out
}

// edgeTemplate builds the monotonic soft step from -1 to +1 used as the
// rising-edge template: edgePos[i] = sin(pi * (i/edgeLength - 0.5)).
func edgeTemplate(edgeLength float32) []float32 {
	l := int(math.Round(float64(edgeLength)))
	template := make([]float32, l+1)
	for i := range template {
		template[i] = float32(math.Sin(math.Pi * (float64(i)/float64(edgeLength) - 0.5)))
	}
	return template
}
