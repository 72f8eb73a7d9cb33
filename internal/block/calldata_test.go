package block

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const (
	transferData = "a9059cbb" +
		"0000000000000000000000005ce5f085777890e0ea35892990d3826ad71b04e5" +
		"00000000000000000000000000000000000000000000000029a2241af62c0000"
)

func TestTransferSelector(t *testing.T) {
	require.Equal(t, "a9059cbb", TransferSelector)
}

func TestDecodeTransferCall(t *testing.T) {
	call, err := DecodeTransferCall(transferData)
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0x5ce5f085777890e0ea35892990d3826ad71b04e5"), call.Recipient)

	want, ok := new(big.Int).SetString("29a2241af62c0000", 16)
	require.True(t, ok)
	require.Equal(t, 0, want.Cmp(call.Amount))
}

func TestDecodeTransferCall_IgnoresTrailingData(t *testing.T) {
	call, err := DecodeTransferCall("0x" + strings.ToUpper(transferData) + "deadbeef")
	require.NoError(t, err)
	require.Equal(t, "3000000000000000000", call.Amount.String())
}

func TestDecodeTransferCall_Rejections(t *testing.T) {
	zeroAmount := transferData[:amountStart] + strings.Repeat("0", 64)

	tests := []struct {
		name string
		data string
		want error
	}{
		{name: "empty", data: "", want: ErrNotTransfer},
		{name: "approve selector", data: "095ea7b3" + transferData[selectorEnd:], want: ErrNotTransfer},
		{name: "truncated amount", data: transferData[:100], want: ErrShortCallData},
		{name: "zero amount", data: zeroAmount, want: ErrZeroAmount},
		{name: "bad recipient hex", data: transferData[:recipientStart] + strings.Repeat("z", 40) + transferData[amountStart:], want: ErrInvalidCallData},
		{name: "bad amount hex", data: transferData[:amountStart] + strings.Repeat("0", 60) + "zz01", want: ErrInvalidCallData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTransferCall(tt.data)
			require.ErrorIs(t, err, tt.want)
		})
	}
}
