package analysis

import (
	"strings"
)

// Chord-symbol to roman-numeral derivation used when the caller supplies
// chord symbols and a key hint but no roman numerals. Degrees are named
// relative to the major scale of the tonic regardless of mode, the usual
// convention in pop and modal analysis (bVII in A minor, not VI).

var noteSemitones = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

var degreeNames = [12]string{
	"I", "bII", "II", "bIII", "III", "IV", "bV", "V", "bVI", "VI", "bVII", "VII",
}

// parseKeyHint extracts the tonic pitch class and mode from hints like
// "C major", "F# minor", "Bb", "d dorian". Returns ok=false when the hint
// is empty or unparseable.
func parseKeyHint(hint string) (tonic int, mode string, ok bool) {
	fields := strings.Fields(strings.TrimSpace(hint))
	if len(fields) == 0 {
		return 0, "", false
	}

	tonic, ok = parsePitchClass(fields[0])
	if !ok {
		return 0, "", false
	}

	mode = "major"
	if len(fields) > 1 {
		mode = strings.ToLower(fields[1])
	} else if fields[0][0] >= 'a' && fields[0][0] <= 'g' {
		// Lowercase bare tonic is the minor-key shorthand
		mode = "minor"
	}

	return tonic, mode, true
}

// parsePitchClass reads a note name with any number of trailing accidentals
func parsePitchClass(name string) (int, bool) {
	if name == "" {
		return 0, false
	}

	letter := name[0]
	if letter >= 'a' && letter <= 'g' {
		letter -= 'a' - 'A'
	}
	semitone, ok := noteSemitones[letter]
	if !ok {
		return 0, false
	}

	for _, r := range name[1:] {
		switch r {
		case '#', '♯':
			semitone++
		case 'b', '♭':
			semitone--
		default:
			return pitchClass(semitone), true
		}
	}

	return pitchClass(semitone), true
}

func pitchClass(semitone int) int {
	semitone %= 12
	if semitone < 0 {
		semitone += 12
	}
	return semitone
}

// chordQuality is the coarse quality derived from a chord symbol's suffix
type chordQuality int

const (
	qualityMajor chordQuality = iota
	qualityMinor
	qualityDiminished
	qualityAugmented
)

// parseChordSymbol splits a chord symbol like "F#m7" into its root pitch
// class, quality and whether it carries a seventh
func parseChordSymbol(symbol string) (root int, quality chordQuality, seventh bool, ok bool) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return 0, qualityMajor, false, false
	}

	letter := symbol[0]
	if letter >= 'a' && letter <= 'g' {
		letter -= 'a' - 'A'
	}
	semitone, found := noteSemitones[letter]
	if !found {
		return 0, qualityMajor, false, false
	}

	rest := symbol[1:]
	for len(rest) > 0 {
		if rest[0] == '#' {
			semitone++
			rest = rest[1:]
		} else if rest[0] == 'b' && !strings.HasPrefix(rest, "b5") {
			semitone--
			rest = rest[1:]
		} else {
			break
		}
	}

	quality = qualityMajor
	lower := strings.ToLower(rest)
	switch {
	case strings.HasPrefix(lower, "dim") || strings.HasPrefix(rest, "°") || strings.HasPrefix(lower, "ø"):
		quality = qualityDiminished
	case strings.HasPrefix(lower, "aug") || strings.HasPrefix(rest, "+"):
		quality = qualityAugmented
	case strings.HasPrefix(rest, "m") && !strings.HasPrefix(lower, "maj"):
		quality = qualityMinor
	}

	seventh = strings.Contains(rest, "7")

	return pitchClass(semitone), quality, seventh, true
}

// romanizeChords derives roman numerals for chord symbols in the hinted key.
// Chords that do not parse keep their literal symbol so span indices stay
// aligned with the input.
func romanizeChords(chords []string, keyHint string) ([]string, bool) {
	tonic, _, ok := parseKeyHint(keyHint)
	if !ok {
		return nil, false
	}

	romans := make([]string, len(chords))
	for i, symbol := range chords {
		root, quality, seventh, parsed := parseChordSymbol(symbol)
		if !parsed {
			romans[i] = symbol
			continue
		}

		degree := degreeNames[pitchClass(root-tonic)]
		switch quality {
		case qualityMinor:
			degree = lowerRoman(degree)
		case qualityDiminished:
			degree = lowerRoman(degree) + "°"
		case qualityAugmented:
			degree += "+"
		}
		if seventh {
			degree += "7"
		}

		romans[i] = degree
	}

	return romans, true
}

func lowerRoman(degree string) string {
	var b strings.Builder
	for _, r := range degree {
		switch r {
		case 'I':
			b.WriteRune('i')
		case 'V':
			b.WriteRune('v')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// romanBase strips quality and extension suffixes from a roman numeral,
// keeping the accidental prefix and degree letters: "V7" -> "V",
// "bVII9" -> "bVII", "i°" -> "i"
func romanBase(token string) string {
	end := 0
	for end < len(token) {
		c := token[end]
		if c == 'b' && end == 0 || c == '#' && end == 0 {
			end++
			continue
		}
		if c == 'I' || c == 'V' || c == 'i' || c == 'v' {
			end++
			continue
		}
		break
	}
	if end == 0 {
		return token
	}
	return token[:end]
}

// outsideKeyRatio is the fraction of roman tokens carrying an accidental
// prefix, a cheap proxy for chromaticism relative to the hinted key
func outsideKeyRatio(romans []string) float64 {
	if len(romans) == 0 {
		return 0.0
	}

	outside := 0
	for _, token := range romans {
		if strings.HasPrefix(token, "b") || strings.HasPrefix(token, "#") ||
			strings.HasPrefix(token, "♭") || strings.HasPrefix(token, "♯") {
			outside++
		}
	}

	return float64(outside) / float64(len(romans))
}
