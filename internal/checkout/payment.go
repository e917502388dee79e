package checkout

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"zatix-checkout/models"
)

var (
	ErrCardNumber   = errors.New("checkout: invalid card number")
	ErrCardExpiry   = errors.New("checkout: invalid card expiry")
	ErrCardCVV      = errors.New("checkout: invalid cvv")
	ErrBankRequired = errors.New("checkout: bank selection required")
	ErrBadMethod    = errors.New("checkout: payment details do not match method")
)

// ValidateCard performs local format checks only: Luhn, expiry range,
// CVV digit count. Nothing here talks to a card network.
func ValidateCard(card models.CardDetails, now time.Time) error {
	if !luhnValid(card.Number) {
		return ErrCardNumber
	}
	if card.ExpiryMonth < 1 || card.ExpiryMonth > 12 {
		return ErrCardExpiry
	}
	endOfMonth := time.Date(card.ExpiryYear, time.Month(card.ExpiryMonth)+1, 1, 0, 0, 0, 0, time.UTC)
	if !now.Before(endOfMonth) {
		return ErrCardExpiry
	}
	if !digitsOnly(card.CVV) || len(card.CVV) < 3 || len(card.CVV) > 4 {
		return ErrCardCVV
	}
	return nil
}

// ValidateBankTransfer only requires that a bank was picked.
func ValidateBankTransfer(details models.BankTransferDetails) error {
	if strings.TrimSpace(details.BankCode) == "" {
		return ErrBankRequired
	}
	return nil
}

// BuildSubmission validates the details for the chosen method and
// assembles the typed order payload. Items pass through unmodified.
func BuildSubmission(method models.PaymentMethod, card *models.CardDetails, bank *models.BankTransferDetails, items []models.LimitCheckItem, now time.Time) (*models.PaymentSubmission, error) {
	switch method.Type {
	case "credit_card":
		if card == nil {
			return nil, ErrBadMethod
		}
		if err := ValidateCard(*card, now); err != nil {
			return nil, err
		}
		return &models.PaymentSubmission{Method: method, Card: card, Items: items}, nil

	case "bank_transfer":
		if bank == nil {
			return nil, ErrBadMethod
		}
		if err := ValidateBankTransfer(*bank); err != nil {
			return nil, err
		}
		return &models.PaymentSubmission{Method: method, BankTransfer: bank, Items: items}, nil

	default:
		// E-wallet and QRIS methods carry no client-side details.
		return &models.PaymentSubmission{Method: method, Items: items}, nil
	}
}

// luhnValid checks a PAN with the Luhn algorithm after stripping spaces
// and dashes. Lengths outside 13..19 fail outright.
func luhnValid(number string) bool {
	cleaned := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, number)

	if len(cleaned) < 13 || len(cleaned) > 19 || !digitsOnly(cleaned) {
		return false
	}

	sum := 0
	double := false
	for i := len(cleaned) - 1; i >= 0; i-- {
		d := int(cleaned[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
