package decode

const encryptionKey = "GROWATTRF."

// AttemptDecrypt tries every candidate byte sequence against the
// repeating encryption key at every rotation offset, returning the set of
// plaintexts whose CRC validates and the (independent, overlapping) set
// that merely look plausible.
func AttemptDecrypt(candidates [][]byte) (matchesCRC, plausible [][]byte) {
	crcSeen := make(map[string][]byte)
	plausibleSeen := make(map[string][]byte)

	for _, cand := range candidates {
		for offset := 0; offset < len(encryptionKey); offset++ {
			decrypted := xorRotate(cand, offset)
			collectCRCMatches(decrypted, crcSeen)
			if likelyValid(decrypted) {
				plausibleSeen[string(decrypted)] = decrypted
			}
		}
	}

	return mapValues(crcSeen), mapValues(plausibleSeen)
}

// attemptDecryptOne runs the same per-candidate logic as AttemptDecrypt but
// for a single candidate, used by decode.DecodeFast to validate candidates
// as they're generated instead of after materialising the whole set.
func attemptDecryptOne(cand []byte) (matchesCRC, plausible [][]byte) {
	crcSeen := make(map[string][]byte)
	plausibleSeen := make(map[string][]byte)

	for offset := 0; offset < len(encryptionKey); offset++ {
		decrypted := xorRotate(cand, offset)
		collectCRCMatches(decrypted, crcSeen)
		if likelyValid(decrypted) {
			plausibleSeen[string(decrypted)] = decrypted
		}
	}

	return mapValues(crcSeen), mapValues(plausibleSeen)
}

// collectCRCMatches scans every prefix of decrypted from longest to
// shortest, excluding the leading byte, for one that CRC-validates against
// its own trailing two bytes. Scanning longest-first finds the canonical
// frame first, but shorter accidental matches are kept too (spec section
// 4.7); the leading-byte exclusion is preserved exactly per an open
// question in the original design - it is not reinterpreted here.
func collectCRCMatches(decrypted []byte, into map[string][]byte) {
	for i := len(decrypted); i >= 1; i-- {
		data := decrypted[1:i]
		if body, ok := crcSuffixed(data); ok {
			key := string(body)
			if _, exists := into[key]; !exists {
				into[key] = append([]byte(nil), body...)
			}
		}
	}
}

func xorRotate(cand []byte, offset int) []byte {
	out := make([]byte, len(cand))
	for i, c := range cand {
		out[i] = c ^ encryptionKey[(offset+i)%len(encryptionKey)]
	}
	return out
}

// likelyValid reports whether input contains a 20-byte window of only
// [0-9A-Z] (a device serial number) or a 10-byte window of only zero
// bytes - a cheap "this is at least interesting" diagnostic signal, not an
// authoritative validity check.
func likelyValid(input []byte) bool {
	for i := 0; i+20 <= len(input); i++ {
		if isSerialWindow(input[i : i+20]) {
			return true
		}
	}
	for i := 0; i+10 <= len(input); i++ {
		if isZeroWindow(input[i : i+10]) {
			return true
		}
	}
	return false
}

func isSerialWindow(w []byte) bool {
	for _, v := range w {
		if !(v >= '0' && v <= '9') && !(v >= 'A' && v <= 'Z') {
			return false
		}
	}
	return true
}

func isZeroWindow(w []byte) bool {
	for _, v := range w {
		if v != 0 {
			return false
		}
	}
	return true
}

func mapValues(m map[string][]byte) [][]byte {
	out := make([][]byte, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
