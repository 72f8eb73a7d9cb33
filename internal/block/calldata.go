package block

import (
	"encoding/hex"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// TransferSignature is the only contract call shape the processor recognizes.
const TransferSignature = "transfer(address,uint256)"

// Call data layout of a transfer call, in hex characters:
//
//	[0,8)     function selector
//	[8,32)    zero padding of the first parameter slot
//	[32,72)   recipient, the low 20 bytes of the first slot
//	[72,136)  amount, the whole second slot
//
// Anything beyond 136 characters is ignored.
const (
	selectorEnd    = 8
	recipientStart = 32
	recipientEnd   = 72
	amountStart    = 72
	amountEnd      = 136
)

// TransferSelector is the hex encoded selector of TransferSignature ("a9059cbb").
var TransferSelector = hex.EncodeToString(crypto.Keccak256([]byte(TransferSignature))[:4])

var (
	ErrNotTransfer     = errors.New("call data is not a transfer call")
	ErrShortCallData   = errors.New("call data too short for a transfer call")
	ErrInvalidCallData = errors.New("call data is not valid hex")
	ErrZeroAmount      = errors.New("transfer amount is zero")
)

// TransferCall holds the decoded parameters of a transfer call.
type TransferCall struct {
	Recipient common.Address
	Amount    *big.Int
}

// DecodeTransferCall extracts recipient and amount from transfer call data.
func DecodeTransferCall(data string) (TransferCall, error) {
	data = strings.ToLower(strings.TrimPrefix(data, "0x"))

	if len(data) < selectorEnd || data[:selectorEnd] != TransferSelector {
		return TransferCall{}, ErrNotTransfer
	}

	if len(data) < amountEnd {
		return TransferCall{}, ErrShortCallData
	}

	recipient, err := hex.DecodeString(data[recipientStart:recipientEnd])
	if err != nil {
		return TransferCall{}, ErrInvalidCallData
	}

	digits := strings.TrimLeft(data[amountStart:amountEnd], "0")
	if digits == "" {
		return TransferCall{}, ErrZeroAmount
	}

	amount, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return TransferCall{}, ErrInvalidCallData
	}

	return TransferCall{
		Recipient: common.BytesToAddress(recipient),
		Amount:    amount,
	}, nil
}
