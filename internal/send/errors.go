package send

import (
	"errors"
	"strings"
)

// Field-scoped validation errors, surfaced inline next to the form field.
var (
	ErrRecipientEmpty    = errors.New("address is empty")
	ErrRecipientPrefix   = errors.New("address must start with 0x")
	ErrRecipientInvalid  = errors.New("invalid address")
	ErrRecipientChecksum = errors.New("address checksum mismatch")

	ErrAmountEmpty         = errors.New("amount is empty")
	ErrAmountNotNumber     = errors.New("amount must be a number")
	ErrAmountNotPositive   = errors.New("amount must be greater than 0")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// ErrNotConfirmable is returned when Confirm is called outside the
// confirmation dialog, including while a transfer is already in flight.
var ErrNotConfirmable = errors.New("no transfer awaiting confirmation")

// ErrMineTimeout reports that a broadcast transfer was not mined within the
// tracking bound. The transaction is already on the network and may still
// mine; re-submitting would risk a second transfer.
var ErrMineTimeout = errors.New("transfer not mined in time; it may still confirm")

// rejectionPhrases are the wallet-provider strings that mean the user
// declined to sign. These are expected, not failures: the dialog stays
// open and no notice is shown.
var rejectionPhrases = []string{
	"user denied transaction signature",
	"user rejected",
	"request rejected",
}

// IsUserRejected reports whether err is the user declining the signature
// prompt, matched by message content since wallet providers don't expose
// a typed error for it.
func IsUserRejected(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range rejectionPhrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
