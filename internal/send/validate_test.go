package send

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Hardhat account #1, with a valid EIP-55 checksum.
const goodAddr = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

func newValidator(balance string, decimals int) Validator {
	b, ok := new(big.Int).SetString(balance, 10)
	if !ok {
		panic("bad balance literal: " + balance)
	}
	return Validator{Balance: b, Decimals: decimals}
}

// --- recipient ---

func TestValidateRecipient(t *testing.T) {
	v := newValidator("0", 18)

	tests := []struct {
		name string
		to   string
		want error
	}{
		{"valid checksummed", goodAddr, nil},
		{"valid all lowercase", "0x70997970c51812dc3a010c7d01b50e0d17dc79c8", nil},
		{"valid with whitespace", "  " + goodAddr + "  ", nil},
		{"empty", "", ErrRecipientEmpty},
		{"whitespace only", "   ", ErrRecipientEmpty},
		{"missing prefix", "70997970C51812dc3A010C7d01b50e0d17dc79C8", ErrRecipientPrefix},
		{"numeric no prefix", "123", ErrRecipientPrefix},
		{"too short", "0x7099", ErrRecipientInvalid},
		{"too long", goodAddr + "00", ErrRecipientInvalid},
		{"non-hex chars", "0x70997970C51812dc3A010C7d01b50e0d17dc79Zz", ErrRecipientInvalid},
		{"bad checksum", "0x70997970C51812dc3A010C7d01b50e0d17dc79c8", ErrRecipientChecksum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateRecipient(tt.to)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

// --- amount ---

func TestValidateAmount(t *testing.T) {
	// 100 tokens at 6 decimals.
	v := newValidator("100000000", 6)

	tests := []struct {
		name   string
		amount string
		want   error
	}{
		{"whole tokens", "50", nil},
		{"exact balance", "100", nil},
		{"smallest unit", "0.000001", nil},
		{"empty", "", ErrAmountEmpty},
		{"not a number", "abc", ErrAmountNotNumber},
		{"two dots", "1.2.3", ErrAmountNotNumber},
		{"too many places", "0.0000001", ErrAmountNotNumber},
		{"zero", "0", ErrAmountNotPositive},
		{"zero with places", "0.000000", ErrAmountNotPositive},
		{"negative", "-1", ErrAmountNotPositive},
		{"just over balance", "100.000001", ErrInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateAmount(tt.amount)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestValidateAmountNilBalanceSkipsCap(t *testing.T) {
	// No balance snapshot yet: amounts still validate structurally but the
	// balance cap can't apply.
	v := Validator{Decimals: 18}
	assert.NoError(t, v.ValidateAmount("999999"))
}

// --- combined ---

func TestValidateReportsBothFields(t *testing.T) {
	v := newValidator("1000000", 6)

	errs := v.Validate("123", "abc")
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs["to"], ErrRecipientPrefix)
	assert.ErrorIs(t, errs["amount"], ErrAmountNotNumber)
}

func TestValidateCleanFormReturnsNil(t *testing.T) {
	v := newValidator("1000000", 6)
	assert.Nil(t, v.Validate(goodAddr, "1"))
}

func TestValidateOneBadField(t *testing.T) {
	v := newValidator("1000000", 6)

	errs := v.Validate(goodAddr, "")
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs["amount"], ErrAmountEmpty)
}
