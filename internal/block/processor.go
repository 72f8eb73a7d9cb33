package block

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/goran-ethernal/TransferCrawler/internal/address"
	"github.com/goran-ethernal/TransferCrawler/internal/logger"
	"github.com/goran-ethernal/TransferCrawler/internal/metrics"
	"github.com/shopspring/decimal"
)

const (
	contractRetSuccess   = "SUCCESS"
	triggerSmartContract = "TriggerSmartContract"
)

// Skip reasons reported in logs and the transactions_skipped metric.
const (
	SkipFailed          = "failed"
	SkipContractCount   = "contract_count"
	SkipContractType    = "contract_type"
	SkipForeignContract = "foreign_contract"
	SkipNotTransfer     = "not_transfer"
	SkipShortCallData   = "short_call_data"
	SkipInvalidCallData = "invalid_call_data"
	SkipZeroAmount      = "zero_amount"
	SkipBadAddress      = "bad_address"
	SkipMissingTxID     = "missing_tx_id"
	SkipMalformedTx     = "malformed_tx"
)

// Processor turns raw block payloads into a block identity and the token
// transfers it contains.
type Processor struct {
	tokenContract  string
	addressVersion byte
	factor         decimal.Decimal
	precision      int32
	log            *logger.Logger
}

// NewProcessor creates a processor that accepts transfers of tokenContract
// (text or hex form) and scales amounts by factor.
func NewProcessor(tokenContract string, addressVersion byte, factor decimal.Decimal, log *logger.Logger) (*Processor, error) {
	canonical, err := address.Canonical(tokenContract)
	if err != nil {
		return nil, fmt.Errorf("token contract: %w", err)
	}

	if !factor.IsPositive() {
		return nil, fmt.Errorf("currency factor must be positive, got %s", factor)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Processor{
		tokenContract:  canonical,
		addressVersion: addressVersion,
		factor:         factor,
		precision:      scalePrecision(factor),
		log:            log,
	}, nil
}

// TokenContract returns the canonical text form of the accepted token contract.
func (p *Processor) TokenContract() string {
	return p.tokenContract
}

// Ingest parses a getblock response. A payload that does not identify its
// block yields a *MalformedError. Transactions that are not successful
// transfers of the configured token are skipped and never fail the block.
func (p *Processor) Ingest(body []byte) (BlockIdentity, []TransferRecord, error) {
	var raw rawBlock
	if err := json.Unmarshal(body, &raw); err != nil {
		return BlockIdentity{}, nil, &MalformedError{Field: "body", Err: err}
	}

	switch {
	case raw.BlockHeader.RawData.Number == nil:
		return BlockIdentity{}, nil, &MalformedError{Field: "block_header.raw_data.number"}
	case raw.BlockID == nil:
		return BlockIdentity{}, nil, &MalformedError{Field: "blockID"}
	case raw.BlockHeader.RawData.ParentHash == nil:
		return BlockIdentity{}, nil, &MalformedError{Field: "block_header.raw_data.parentHash"}
	}

	identity := BlockIdentity{
		Height:     *raw.BlockHeader.RawData.Number,
		BlockID:    *raw.BlockID,
		ParentHash: *raw.BlockHeader.RawData.ParentHash,
		TxCount:    len(raw.Transactions),
	}

	transfers := make([]TransferRecord, 0)
	for i, rawTx := range raw.Transactions {
		var tx rawTransaction
		if err := json.Unmarshal(rawTx, &tx); err != nil {
			metrics.TransactionSkippedInc(SkipMalformedTx)
			p.log.Debugw("transaction skipped", "height", identity.Height, "index", i,
				"reason", SkipMalformedTx, "error", err)
			continue
		}

		record, reason := p.decodeTransaction(identity.Height, &tx)
		if reason != "" {
			metrics.TransactionSkippedInc(reason)
			p.log.Debugw("transaction skipped", "height", identity.Height, "tx_id", tx.TxID, "reason", reason)
			continue
		}

		transfers = append(transfers, record)
	}

	return identity, transfers, nil
}

// decodeTransaction applies the transfer filters in order. A non-empty reason
// means the transaction does not produce a record.
func (p *Processor) decodeTransaction(height uint64, tx *rawTransaction) (TransferRecord, string) {
	if len(tx.Ret) == 0 || tx.Ret[0].ContractRet != contractRetSuccess {
		return TransferRecord{}, SkipFailed
	}

	if len(tx.RawData.Contract) != 1 {
		return TransferRecord{}, SkipContractCount
	}

	contract := tx.RawData.Contract[0]
	if contract.Type != triggerSmartContract {
		return TransferRecord{}, SkipContractType
	}

	value := contract.Parameter.Value
	contractAddr, err := address.Canonical(value.ContractAddress)
	if err != nil || contractAddr != p.tokenContract {
		return TransferRecord{}, SkipForeignContract
	}

	call, err := DecodeTransferCall(value.Data)
	if err != nil {
		return TransferRecord{}, skipReason(err)
	}

	to, err := address.Decode(append([]byte{p.addressVersion}, call.Recipient.Bytes()...))
	if err != nil {
		return TransferRecord{}, SkipBadAddress
	}

	from, err := address.Canonical(value.OwnerAddress)
	if err != nil {
		return TransferRecord{}, SkipBadAddress
	}

	if tx.TxID == "" {
		return TransferRecord{}, SkipMissingTxID
	}

	return TransferRecord{
		TxID:         tx.TxID,
		BlockHeight:  height,
		From:         from,
		To:           to,
		AmountRaw:    call.Amount,
		AmountScaled: p.Scale(call.Amount),
	}, ""
}

// Scale divides a raw token amount by the currency factor.
func (p *Processor) Scale(raw *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(raw, 0).DivRound(p.factor, p.precision)
}

// scalePrecision is the number of decimal places needed to divide by factor
// without rounding when factor is a power of ten.
func scalePrecision(factor decimal.Decimal) int32 {
	precision := int32(len(factor.BigInt().String()))
	if exp := factor.Exponent(); exp < 0 {
		precision -= exp
	}
	return precision
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, ErrNotTransfer):
		return SkipNotTransfer
	case errors.Is(err, ErrShortCallData):
		return SkipShortCallData
	case errors.Is(err, ErrZeroAmount):
		return SkipZeroAmount
	default:
		return SkipInvalidCallData
	}
}
