package decode

import (
	"encoding/binary"
	"testing"
)

func TestBitsToByte(t *testing.T) {
	got := BitsToByte([]bool{true, false, true, false, false, true, false, true})
	if got != 0xA5 {
		t.Fatalf("BitsToByte = %#02x, want 0xa5", got)
	}
}

func buildCRCFrame(body []byte) []byte {
	crc := CRC16Modbus(body)
	out := append([]byte(nil), body...)
	return append(out, byte(crc>>8), byte(crc))
}

// runsFromBits mirrors the clock-sweep's bit reconstruction so tests can
// build a Run list directly, skipping the edge-detection stage.
func runsFromBits(bits []bool, clock float32) []Run {
	var runs []Run
	i := 0
	for i < len(bits) {
		j := i
		for j < len(bits) && bits[j] == bits[i] {
			j++
		}
		count := j - i
		runs = append(runs, Run{Length: int(float32(count) * clock), Positive: !bits[i]})
		i = j
	}
	return runs
}

func bytesToBits(data []byte) []bool {
	bits := make([]bool, 0, len(data)*8)
	for _, b := range data {
		for k := 7; k >= 0; k-- {
			bits = append(bits, (b>>uint(k))&1 == 1)
		}
	}
	return bits
}

func TestRecoverBytesAndAttemptDecryptRoundTrip(t *testing.T) {
	const edgeLength = float32(18)
	const keyOffset = 3

	body := []byte{}
	body = append(body, "RF"...)
	body = append(body, 0x07)
	body = append(body, "ABC"...)
	body = append(body, "SN12345678ABCDEFGHIJ"...)
	body = append(body, 0x00)
	reqBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(reqBuf, 0x00AA)
	body = append(body, reqBuf...)
	body = append(body, "hello"...)

	framed := buildCRCFrame(body)

	plaintext := append([]byte{0xFF}, framed...) // leading scaffold byte, excluded from CRC

	encrypted := xorRotate(plaintext, keyOffset)

	full := append([]byte("jack"), encrypted...)
	bits := bytesToBits(full)

	runs := runsFromBits(bits, edgeLength)

	candidates := RecoverBytes(runs, edgeLength)
	if len(candidates) == 0 {
		t.Fatalf("expected at least one candidate, got none")
	}

	matchesCRC, _ := AttemptDecrypt(candidates)
	found := false
	for _, m := range matchesCRC {
		if string(m) == string(body) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected CRC match equal to %q, got %v", body, matchesCRC)
	}
}

func TestDecodeFastMatchesDecodeWhenExhaustive(t *testing.T) {
	const edgeLength = float32(18)

	body := append([]byte("RF"), 0x01)
	body = append(body, "ABC"...)
	body = append(body, "SN00000000000000000X"[:20]...)
	body = append(body, 0x00, 0x00, 0x01)
	body = append(body, "payload"...)
	framed := buildCRCFrame(body)
	plaintext := append([]byte{0x00}, framed...)
	encrypted := xorRotate(plaintext, 0)
	full := append([]byte("jack"), encrypted...)
	bits := bytesToBits(full)
	runs := runsFromBits(bits, edgeLength)

	// Reuse Decode's own DetectEdges-free path by going through RecoverBytes
	// directly on both sides, which is exactly what Decode and DecodeFast
	// (non-short-circuiting) do internally.
	exhaustiveCRC, exhaustivePlausible := AttemptDecrypt(RecoverBytes(runs, edgeLength))

	crcSeen := make(map[string][]byte)
	plausibleSeen := make(map[string][]byte)
	recoverBytesIter(runs, edgeLength, func(candidate []byte) bool {
		crc, plaus := attemptDecryptOne(candidate)
		for _, b := range crc {
			crcSeen[string(b)] = b
		}
		for _, b := range plaus {
			plausibleSeen[string(b)] = b
		}
		return false
	})

	if len(crcSeen) != len(exhaustiveCRC) {
		t.Fatalf("lazy CRC set size %d != exhaustive size %d", len(crcSeen), len(exhaustiveCRC))
	}
	for _, m := range exhaustiveCRC {
		if _, ok := crcSeen[string(m)]; !ok {
			t.Fatalf("lazy CRC set missing %q", m)
		}
	}

	if len(plausibleSeen) != len(exhaustivePlausible) {
		t.Fatalf("lazy plausible set size %d != exhaustive size %d", len(plausibleSeen), len(exhaustivePlausible))
	}
	for _, m := range exhaustivePlausible {
		if _, ok := plausibleSeen[string(m)]; !ok {
			t.Fatalf("lazy plausible set missing %q", m)
		}
	}
}

// synthesizeWaveform renders bits as a continuous float32 observation
// vector: each maximal run of equal bits becomes a flat stretch at +1 (bit
// true) or -1 (bit false), joined by a half-sine transition scaled to
// edgeLength samples - the same template DetectEdges correlates against.
// A single-bit run is shorter than the template itself, so its transition
// is truncated at the point the next run's transition begins; every other
// run gets the template in full followed by a flat remainder. A leading
// silence lengthens the (meaningless) first run by a few bits, which the
// bit-offset sweep and header search step past, and a trailing dummy
// transition closes out the final run,
// since FindRuns never emits a run for a peak that is never followed by
// another.
func synthesizeWaveform(bits []bool, edgeLength float32) []float32 {
	l := int(edgeLength)
	tmpl := edgeTemplate(edgeLength)
	n := len(tmpl)

	levelFor := func(bit bool) float32 {
		if bit {
			return 1
		}
		return -1
	}

	type group struct {
		level float32
		count int
	}
	var groups []group
	for i := 0; i < len(bits); {
		j := i
		for j < len(bits) && bits[j] == bits[i] {
			j++
		}
		groups = append(groups, group{levelFor(bits[i]), j - i})
		i = j
	}
	// Dummy closing transition so the last real run gets a following peak.
	groups = append(groups, group{-groups[len(groups)-1].level, 2})

	var out []float32
	for i := 0; i < l*4; i++ {
		out = append(out, groups[0].level)
	}

	level := groups[0].level
	for i := 0; i < groups[0].count*l; i++ {
		out = append(out, level)
	}

	for gi := 1; gi < len(groups); gi++ {
		g := groups[gi]
		rising := g.level > level
		span := g.count * l
		tmplLen := n
		if span < tmplLen {
			tmplLen = span
		}
		for idx := 0; idx < span; idx++ {
			if idx < tmplLen {
				if rising {
					out = append(out, tmpl[idx])
				} else {
					out = append(out, tmpl[n-1-idx])
				}
			} else {
				out = append(out, g.level)
			}
		}
		level = g.level
	}

	return out
}

func TestDetectEdgesFindRunsRecoverBytesWaveformRoundTrip(t *testing.T) {
	const edgeLength = float32(18)
	const keyOffset = 5

	body := []byte{}
	body = append(body, "RF"...)
	body = append(body, 0x02)
	body = append(body, "XYZ"...)
	body = append(body, "SN98765432ZYXWVUTSRQ"...)
	body = append(body, 0x00)
	reqBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(reqBuf, 0x1234)
	body = append(body, reqBuf...)
	body = append(body, "burstwaveform"...)

	framed := buildCRCFrame(body)
	plaintext := append([]byte{0x00}, framed...)
	encrypted := xorRotate(plaintext, keyOffset)
	full := append([]byte("jack"), encrypted...)

	bits := bytesToBits(full)
	burst := synthesizeWaveform(bits, edgeLength)

	matchesCRC, _ := Decode(burst, edgeLength)
	found := false
	for _, m := range matchesCRC {
		if string(m) == string(body) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected CRC match equal to %q from waveform round trip, got %v", body, matchesCRC)
	}
}

func TestDecodeFastShortCircuitSubsetOfDecode(t *testing.T) {
	const edgeLength = float32(18)

	body := append([]byte("RF"), 0x03)
	body = append(body, "QRS"...)
	body = append(body, "SN11111111222222222Z"...)
	body = append(body, 0x00, 0x00, 0x02)
	body = append(body, "fastpath"...)
	framed := buildCRCFrame(body)
	plaintext := append([]byte{0x00}, framed...)
	encrypted := xorRotate(plaintext, 0)
	full := append([]byte("jack"), encrypted...)

	bits := bytesToBits(full)
	burst := synthesizeWaveform(bits, edgeLength)

	exhaustiveCRC, _ := Decode(burst, edgeLength)
	if len(exhaustiveCRC) == 0 {
		t.Fatalf("exhaustive Decode found no CRC matches to compare against")
	}

	fastCRC, _ := DecodeFast(burst, edgeLength, true)
	if len(fastCRC) == 0 {
		t.Fatalf("expected DecodeFast(shortCircuit=true) to find at least one match")
	}

	exhaustiveSet := make(map[string]bool, len(exhaustiveCRC))
	for _, m := range exhaustiveCRC {
		exhaustiveSet[string(m)] = true
	}
	for _, m := range fastCRC {
		if !exhaustiveSet[string(m)] {
			t.Fatalf("DecodeFast produced %q, not present in exhaustive Decode result", m)
		}
	}
}

func TestFindRunsDiscardsTrailingOpenEdge(t *testing.T) {
	// A differential that never drops back below threshold should not
	// emit a trailing run.
	differential := make([]float32, 10)
	for i := range differential {
		differential[i] = 0.9
	}
	runs := FindRuns(differential)
	if len(runs) != 0 {
		t.Fatalf("expected no runs for a never-closing edge, got %v", runs)
	}
}

func TestFindRunsPicksPeakAndSign(t *testing.T) {
	differential := []float32{0, 0, 0.6, 0.9, 0.7, 0, 0, -0.6, -0.95, -0.7, 0, 0}
	runs := FindRuns(differential)
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d: %v", len(runs), runs)
	}
	if !runs[0].Positive {
		t.Errorf("first run should be positive, got %v", runs[0])
	}
	if runs[1].Positive {
		t.Errorf("second run should be negative, got %v", runs[1])
	}
}

func TestDetectEdgesShorterThanTemplateReturnsEmpty(t *testing.T) {
	got := DetectEdges([]float32{0, 1}, 18)
	if len(got) != 0 {
		t.Fatalf("expected empty output for input shorter than template, got %v", got)
	}
}

