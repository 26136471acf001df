package compress

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInPlace(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"a", "a"},
		{"aa", "aa"},
		{"aaa", "3a"},
		{"aaaaabbb", "5a3b"},
		{"aaaaabbbbbbaaabb", "5a6b3abb"},
		{"abcdefg", "abcdefg"},
		{"aaaccddddhhhhi", "3acc4d4hi"},
		{"crosssection", "cro3section"},
		{"aaabbbbc", "3a4bc"},
		{strings.Repeat("z", 10), "10z"},
		{strings.Repeat("q", 100) + "r", "100qr"},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			buf := []byte(tc.in)
			out := InPlace(buf)
			require.Equal(t, tc.want, string(out))
		})
	}
}

func TestInPlaceReusesMemory(t *testing.T) {
	buf := []byte("aaaaabbbbbb")
	out := InPlace(buf)

	require.Equal(t, "5a6b", string(out))
	require.Same(t, &buf[0], &out[0], "result must alias the input buffer")
	require.Equal(t, cap(buf), cap(out))
}

func TestInPlaceDoesNotTouchBytesBehindInput(t *testing.T) {
	// the payload usually sits inside a larger read buffer
	backing := []byte("STRYxxaaaaaaNEXT")
	payload := backing[6:12]

	out := InPlace(payload)

	require.Equal(t, "6a", string(out))
	require.Equal(t, "NEXT", string(backing[12:]))
	require.Equal(t, "STRYxx", string(backing[:6]))
}

func TestNonExpansionAndRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		in := randomRuns(rng, rng.Intn(300))
		original := append([]byte(nil), in...)

		out := InPlace(in)
		require.LessOrEqual(t, len(out), len(original), "input %q", original)

		expanded, err := Expand(out)
		require.NoError(t, err, "input %q", original)
		require.True(t, bytes.Equal(original, expanded), "round trip of %q gave %q", original, expanded)
	}
}

func TestExpandRejectsMalformed(t *testing.T) {
	for _, in := range []string{"3", "0a", "2a", "12", "a-", "3A", "10"} {
		_, err := Expand([]byte(in))
		require.ErrorIs(t, err, ErrMalformed, "input %q", in)
	}
}

// randomRuns builds a lowercase string made of runs of random length
func randomRuns(rng *rand.Rand, n int) []byte {
	out := make([]byte, 0, n)
	for len(out) < n {
		letter := byte('a' + rng.Intn(4))
		run := 1 + rng.Intn(15)
		for j := 0; j < run && len(out) < n; j++ {
			out = append(out, letter)
		}
	}
	return out
}

func BenchmarkInPlace(b *testing.B) {
	src := randomRuns(rand.New(rand.NewSource(1)), 16*1024)
	buf := make([]byte, len(src))

	b.SetBytes(int64(len(src)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(buf, src)
		InPlace(buf)
	}
}
