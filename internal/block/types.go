package block

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// BlockIdentity is the part of a block that is recorded regardless of its transactions.
type BlockIdentity struct {
	Height     uint64
	BlockID    string
	ParentHash string
	TxCount    int
}

// TransferRecord is a successful token transfer recovered from a transaction.
type TransferRecord struct {
	TxID         string
	BlockHeight  uint64
	From         string
	To           string
	AmountRaw    *big.Int
	AmountScaled decimal.Decimal
}

// MalformedError is returned when a block payload lacks the fields that identify it.
type MalformedError struct {
	Field string
	Err   error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed block payload (%s): %v", e.Field, e.Err)
	}
	return fmt.Sprintf("malformed block payload: missing %s", e.Field)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// rawBlock mirrors the subset of the node's getblock response the processor reads.
type rawBlock struct {
	BlockID     *string `json:"blockID"`
	BlockHeader struct {
		RawData struct {
			Number     *uint64 `json:"number"`
			ParentHash *string `json:"parentHash"`
		} `json:"raw_data"`
	} `json:"block_header"`
	Transactions []json.RawMessage `json:"transactions"`
}

type rawTransaction struct {
	TxID string `json:"txID"`
	Ret  []struct {
		ContractRet string `json:"contractRet"`
	} `json:"ret"`
	RawData struct {
		Contract []rawContract `json:"contract"`
	} `json:"raw_data"`
}

type rawContract struct {
	Type      string `json:"type"`
	Parameter struct {
		Value struct {
			ContractAddress string `json:"contract_address"`
			OwnerAddress    string `json:"owner_address"`
			Data            string `json:"data"`
		} `json:"value"`
	} `json:"parameter"`
}
