package send

import (
	"math/big"
	"strings"

	"github.com/Mohsinsiddi/w3send/internal/token"
	"golang.org/x/crypto/sha3"
)

// FieldErrors maps a form field ("to", "amount") to its first failing rule.
type FieldErrors map[string]error

// Validator checks the transfer form against the current balance snapshot.
// First failing rule wins per field; fields are validated independently so
// one bad field doesn't hide errors on the other.
type Validator struct {
	Balance  *big.Int // smallest-unit balance of the connected wallet
	Decimals int
}

// Validate runs both field validations. An empty map means the form is valid.
func (v Validator) Validate(to, amount string) FieldErrors {
	errs := make(FieldErrors)
	if err := v.ValidateRecipient(to); err != nil {
		errs["to"] = err
	}
	if err := v.ValidateAmount(amount); err != nil {
		errs["amount"] = err
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateRecipient checks the destination address: non-empty, 0x-prefixed,
// 40 hex characters, and a valid EIP-55 checksum when mixed-case.
func (v Validator) ValidateRecipient(to string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return ErrRecipientEmpty
	}
	if !strings.HasPrefix(to, "0x") {
		return ErrRecipientPrefix
	}
	hexPart := to[2:]
	if len(hexPart) != 40 || !isHex(hexPart) {
		return ErrRecipientInvalid
	}
	// All-lower and all-upper addresses carry no checksum.
	if hexPart == strings.ToLower(hexPart) || hexPart == strings.ToUpper(hexPart) {
		return nil
	}
	if !checksumValid(hexPart) {
		return ErrRecipientChecksum
	}
	return nil
}

// ValidateAmount checks the amount string and, converted to the smallest
// unit, compares it against the balance. Insufficient balance is a
// validation error, not a submission-time failure.
func (v Validator) ValidateAmount(amount string) error {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return ErrAmountEmpty
	}
	if strings.HasPrefix(amount, "-") {
		return ErrAmountNotPositive
	}
	n, err := token.ParseAmount(amount, v.Decimals)
	if err != nil {
		return ErrAmountNotNumber
	}
	if n.Sign() == 0 {
		return ErrAmountNotPositive
	}
	if v.Balance != nil && n.Cmp(v.Balance) > 0 {
		return ErrInsufficientBalance
	}
	return nil
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// checksumValid verifies an EIP-55 mixed-case checksum: each hex letter is
// uppercase iff the corresponding nibble of keccak256(lowercase address)
// is >= 8.
func checksumValid(hexPart string) bool {
	lower := strings.ToLower(hexPart)
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower)) //nolint:errcheck
	hash := h.Sum(nil)

	for i, c := range hexPart {
		if c >= '0' && c <= '9' {
			continue
		}
		nibble := hash[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		upper := c >= 'A' && c <= 'F'
		if upper != (nibble >= 8) {
			return false
		}
	}
	return true
}
