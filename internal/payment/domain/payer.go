package domain

import (
	"strings"

	"github.com/bwmarrin/snowflake"
)

// PayerKind tags the two payer arms.
type PayerKind string

const (
	PayerKindAccount PayerKind = "account"
	PayerKindGuest   PayerKind = "guest"
)

// Payer identifies who paid: a platform account or a guest. Exactly one arm
// is populated; the constructors are the only way to build a valid value.
type Payer struct {
	Kind       PayerKind
	AccountID  snowflake.ID
	GuestName  string
	GuestEmail string
}

// AccountPayer builds the account arm.
func AccountPayer(id snowflake.ID) Payer {
	return Payer{Kind: PayerKindAccount, AccountID: id}
}

// GuestPayer builds the guest arm.
func GuestPayer(name, email string) Payer {
	return Payer{
		Kind:       PayerKindGuest,
		GuestName:  strings.TrimSpace(name),
		GuestEmail: strings.TrimSpace(email),
	}
}

// Validate checks that exactly one arm is populated.
func (p Payer) Validate() error {
	switch p.Kind {
	case PayerKindAccount:
		if p.AccountID == 0 || p.GuestName != "" || p.GuestEmail != "" {
			return ErrInvalidPayer
		}
	case PayerKindGuest:
		if p.AccountID != 0 || p.GuestName == "" || p.GuestEmail == "" {
			return ErrInvalidPayer
		}
	default:
		return ErrInvalidPayer
	}
	return nil
}
