package db

import (
	"database/sql"
	"fmt"
	"math/big"

	"github.com/russross/meddler"
	"github.com/shopspring/decimal"
)

func init() {
	// Register custom meddler converters for arbitrary precision amounts
	meddler.Register("bigint", BigIntMeddler{})
	meddler.Register("decimal", DecimalMeddler{})
}

// BigIntMeddler stores *big.Int values as base-10 strings, which both NUMERIC
// and TEXT columns accept without loss.
type BigIntMeddler struct{}

func (b BigIntMeddler) PreRead(fieldAddr interface{}) (scanTarget interface{}, err error) {
	return new(sql.NullString), nil
}

func (b BigIntMeddler) PostRead(fieldAddr, scanTarget interface{}) error {
	ns, ok := scanTarget.(*sql.NullString)
	if !ok {
		return fmt.Errorf("expected *sql.NullString, got %T", scanTarget)
	}

	ptr, ok := fieldAddr.(**big.Int)
	if !ok {
		return fmt.Errorf("expected **big.Int, got %T", fieldAddr)
	}

	if !ns.Valid {
		*ptr = nil
		return nil
	}

	value, ok := new(big.Int).SetString(ns.String, 10)
	if !ok {
		return fmt.Errorf("invalid integer %q", ns.String)
	}
	*ptr = value
	return nil
}

func (b BigIntMeddler) PreWrite(field interface{}) (saveValue interface{}, err error) {
	value, ok := field.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("expected *big.Int, got %T", field)
	}
	if value == nil {
		return nil, nil
	}
	return value.String(), nil
}

// DecimalMeddler stores decimal.Decimal values as their exact string form.
type DecimalMeddler struct{}

func (d DecimalMeddler) PreRead(fieldAddr interface{}) (scanTarget interface{}, err error) {
	return new(sql.NullString), nil
}

func (d DecimalMeddler) PostRead(fieldAddr, scanTarget interface{}) error {
	ns, ok := scanTarget.(*sql.NullString)
	if !ok {
		return fmt.Errorf("expected *sql.NullString, got %T", scanTarget)
	}

	ptr, ok := fieldAddr.(*decimal.Decimal)
	if !ok {
		return fmt.Errorf("expected *decimal.Decimal, got %T", fieldAddr)
	}

	if !ns.Valid {
		*ptr = decimal.Zero
		return nil
	}

	value, err := decimal.NewFromString(ns.String)
	if err != nil {
		return fmt.Errorf("invalid decimal %q: %w", ns.String, err)
	}
	*ptr = value
	return nil
}

func (d DecimalMeddler) PreWrite(field interface{}) (saveValue interface{}, err error) {
	value, ok := field.(decimal.Decimal)
	if !ok {
		return nil, fmt.Errorf("expected decimal.Decimal, got %T", field)
	}
	return value.String(), nil
}
