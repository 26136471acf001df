package compress

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrMalformed is returned by Expand for input that InPlace cannot produce
var ErrMalformed = errors.New("compress: malformed encoding")

// maxLabelLen is the longest label a run can get: the decimal digits of an int
// plus the letter
const maxLabelLen = 20 + 1

// --------------------------------------------------------------------------
// Compression
// --------------------------------------------------------------------------

// InPlace compresses buf in place and returns the compressed prefix of buf.
//
// buf must only contain lowercase ascii letters. Runs of a letter are replaced
// by their length followed by the letter ("aaa" becomes "3a") when that label
// is strictly shorter than the run, otherwise the run is kept as is. The
// result is never longer than buf, an empty buf compresses to itself.
//
// No memory is allocated: runs are written back behind the read cursor. Each
// run is emitted into the window buf[w:r], the bytes between the write cursor
// and the start of the next run, so the writer can never overtake the reader.
func InPlace(buf []byte) []byte {
	if len(buf) == 0 {
		return buf[:0]
	}

	w := 0
	letter, count := buf[0], 0
	for r := 0; r < len(buf); r++ {
		if buf[r] == letter {
			count++
			continue
		}
		w += writeRun(buf[w:r], letter, count)
		letter, count = buf[r], 1
	}
	w += writeRun(buf[w:], letter, count)

	return buf[:w]
}

// writeRun writes the shorter representation of a run of count letters to
// the start of window and returns the number of bytes written.
// window is at least count bytes long.
func writeRun(window []byte, letter byte, count int) int {
	var label [maxLabelLen]byte
	encoded := strconv.AppendInt(label[:0], int64(count), 10)
	encoded = append(encoded, letter)

	// ties favour the literal run
	if len(encoded) < count {
		return copy(window, encoded)
	}

	for i := 0; i < count; i++ {
		window[i] = letter
	}
	return count
}

// --------------------------------------------------------------------------
// Expansion
// --------------------------------------------------------------------------

// Expand reverses InPlace. It returns ErrMalformed for input InPlace never
// produces, like a count without a letter or a label that does not beat the
// literal run.
func Expand(encoded []byte) ([]byte, error) {
	out := make([]byte, 0, len(encoded))

	for i := 0; i < len(encoded); {
		c := encoded[i]

		// literal letter
		if c >= 'a' && c <= 'z' {
			out = append(out, c)
			i++
			continue
		}

		if c < '1' || c > '9' {
			return nil, fmt.Errorf("%w: unexpected byte %q at %d", ErrMalformed, c, i)
		}

		// label: count followed by the letter
		start := i
		for i < len(encoded) && encoded[i] >= '0' && encoded[i] <= '9' {
			i++
		}
		if i == len(encoded) {
			return nil, fmt.Errorf("%w: count without letter at %d", ErrMalformed, start)
		}
		count, err := strconv.Atoi(string(encoded[start:i]))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if i-start+1 >= count {
			return nil, fmt.Errorf("%w: label %q is not shorter than its run", ErrMalformed, encoded[start:i+1])
		}

		letter := encoded[i]
		if letter < 'a' || letter > 'z' {
			return nil, fmt.Errorf("%w: unexpected byte %q at %d", ErrMalformed, letter, i)
		}
		for j := 0; j < count; j++ {
			out = append(out, letter)
		}
		i++
	}

	return out, nil
}
