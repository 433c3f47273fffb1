// Package decode recovers symbol timing from a squelched burst and
// validates the resulting byte stream against the protocol's fixed header,
// encryption key and CRC.
package decode

// Decode runs the full per-burst pipeline: edge detection, run finding,
// the clock/offset sweep, and decryption + CRC validation. It always
// enumerates the complete candidate space, so it is the reference that
// DecodeFast's short-circuit results are checked against.
func Decode(burst []float32, edgeLength float32) (matchesCRC, plausible [][]byte) {
	differential := DetectEdges(burst, edgeLength)
	runs := FindRuns(differential)
	candidates := RecoverBytes(runs, edgeLength)
	return AttemptDecrypt(candidates)
}

// minRecognisedFrameLength is the shortest a CRC-validated candidate can be
// and still be a recognised application frame (spec section 6's packet
// layout table: magic through request code is 29 bytes, plus at least one
// payload byte).
const minRecognisedFrameLength = 30

// DecodeFast is the lazily-evaluated form of Decode: it validates each
// (clock, offset) candidate as it is generated instead of materialising
// the whole candidate set first. When shortCircuit is true, it stops as
// soon as it has found one recognised-length CRC match, which is the
// common case for batch scanning where a burst either contains one clean
// frame or nothing. When shortCircuit is false it enumerates the entire
// space exactly like Decode, and the two must then agree - see
// TestDecodeFastMatchesDecodeWhenExhaustive.
func DecodeFast(burst []float32, edgeLength float32, shortCircuit bool) (matchesCRC, plausible [][]byte) {
	differential := DetectEdges(burst, edgeLength)
	runs := FindRuns(differential)

	crcSeen := make(map[string][]byte)
	plausibleSeen := make(map[string][]byte)

	recoverBytesIter(runs, edgeLength, func(candidate []byte) bool {
		crc, plaus := attemptDecryptOne(candidate)
		for _, body := range crc {
			crcSeen[string(body)] = body
		}
		for _, body := range plaus {
			plausibleSeen[string(body)] = body
		}

		if !shortCircuit {
			return false
		}
		for _, body := range crc {
			if len(body) >= minRecognisedFrameLength {
				return true
			}
		}
		return false
	})

	return mapValues(crcSeen), mapValues(plausibleSeen)
}
