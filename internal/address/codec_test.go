package address

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	usdtHex  = "41a614f803b6fd780986a42c78ec9c7f77e6ded13c"
	usdtText = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"
)

func TestDecodeHex_KnownVectors(t *testing.T) {
	tests := []struct {
		name string
		hex  string
		want string
	}{
		{name: "token contract", hex: usdtHex, want: usdtText},
		{name: "zero account", hex: "410000000000000000000000000000000000000000", want: "T9yD14Nj9j7xAB4dbGeiX9h8unkKHxuWwb"},
		{name: "with 0x prefix", hex: "0x" + usdtHex, want: usdtText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeHex(tt.hex)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, h := range []string{
		usdtHex,
		"41ea06cab892cc41244d394fe110ffec5dad3f2980",
		"4137349aeb75a32f8c4c090daff376cf975f5d2eba",
		"415ce5f085777890e0ea35892990d3826ad71b04e5",
	} {
		text, err := DecodeHex(h)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(text, "T"), text)

		raw, err := Encode(text)
		require.NoError(t, err)
		require.Len(t, raw, RawLength)

		again, err := Decode(raw)
		require.NoError(t, err)
		require.Equal(t, text, again)
	}
}

func TestEncode_CorruptedChecksum(t *testing.T) {
	// Swap the last character for a different alphabet symbol.
	last := usdtText[len(usdtText)-1]
	repl := byte('u')
	if last == repl {
		repl = 'v'
	}
	corrupted := usdtText[:len(usdtText)-1] + string(repl)

	_, err := Encode(corrupted)
	require.Error(t, err)

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	require.Equal(t, corrupted, decErr.Input)
	require.ErrorIs(t, err, ErrChecksum)
}

func TestEncode_InvalidFormat(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "illegal character", input: "T0000000000000000000000000000000OI"},
		{name: "too short", input: "T9y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.input)
			var decErr *DecodeError
			require.ErrorAs(t, err, &decErr)
			require.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestDecode_WrongLength(t *testing.T) {
	_, err := Decode([]byte{0x41, 0x01, 0x02})
	require.ErrorIs(t, err, ErrInvalidFormat)

	_, err = DecodeHex("41zz")
	require.ErrorIs(t, err, ErrInvalidFormat)
}

func TestCanonical(t *testing.T) {
	got, err := Canonical(usdtHex)
	require.NoError(t, err)
	require.Equal(t, usdtText, got)

	got, err = Canonical("  " + usdtText + " ")
	require.NoError(t, err)
	require.Equal(t, usdtText, got)

	_, err = Canonical("not-an-address")
	require.Error(t, err)
}
