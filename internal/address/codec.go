// Package address converts ledger account addresses between their raw form
// (one version byte followed by a 20-byte account hash) and the base58check
// text form used for comparison, storage and display.
package address

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	// HashLength is the length of the account hash that follows the version byte.
	HashLength = 20

	// RawLength is the length of a raw address: version byte + account hash.
	RawLength = 1 + HashLength
)

var (
	// ErrChecksum is the cause of a DecodeError when the 4-byte checksum does not match.
	ErrChecksum = errors.New("checksum mismatch")

	// ErrInvalidFormat is the cause of a DecodeError for alphabet or length violations.
	ErrInvalidFormat = errors.New("invalid format")
)

// DecodeError reports an address that could not be converted.
type DecodeError struct {
	Input string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid address %q: %v", e.Input, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode renders a raw address as text. The checksum is the first four bytes of
// the double SHA-256 of version+hash and is appended before base58 encoding.
func Decode(raw []byte) (string, error) {
	if len(raw) != RawLength {
		return "", &DecodeError{
			Input: hexutil.Encode(raw),
			Err:   fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidFormat, RawLength, len(raw)),
		}
	}

	return base58.CheckEncode(raw[1:], raw[0]), nil
}

// DecodeHex renders a hex encoded raw address ("41…", with or without 0x) as text.
func DecodeHex(s string) (string, error) {
	raw, err := hexutil.Decode("0x" + strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
	if err != nil {
		return "", &DecodeError{Input: s, Err: fmt.Errorf("%w: %v", ErrInvalidFormat, err)}
	}

	return Decode(raw)
}

// Encode is the inverse of Decode: it verifies the checksum of a text address
// and returns version byte + account hash.
func Encode(text string) ([]byte, error) {
	payload, version, err := base58.CheckDecode(text)
	switch {
	case errors.Is(err, base58.ErrChecksum):
		return nil, &DecodeError{Input: text, Err: ErrChecksum}
	case err != nil:
		return nil, &DecodeError{Input: text, Err: fmt.Errorf("%w: %v", ErrInvalidFormat, err)}
	case len(payload) != HashLength:
		return nil, &DecodeError{
			Input: text,
			Err:   fmt.Errorf("%w: expected %d byte hash, got %d", ErrInvalidFormat, HashLength, len(payload)),
		}
	}

	raw := make([]byte, 0, RawLength)
	raw = append(raw, version)
	return append(raw, payload...), nil
}

// Canonical accepts an address in either text or hex form and returns the text form.
func Canonical(s string) (string, error) {
	s = strings.TrimSpace(s)
	if _, err := Encode(s); err == nil {
		return s, nil
	}

	return DecodeHex(s)
}
