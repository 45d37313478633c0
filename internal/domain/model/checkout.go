package model

import (
	"strings"

	"dreams-membership/internal/domain"
)

type CheckoutMode string

const (
	CheckoutModeSubscription CheckoutMode = "subscription"
	CheckoutModePayment      CheckoutMode = "payment"
)

// CheckoutSelection is either a recurring plan (PriceID) or a one-time custom
// amount in minor currency units. Build it with NewPlanSelection or
// NewAmountSelection; the zero value is invalid.
type CheckoutSelection struct {
	PriceID      string
	CustomAmount int64
}

func NewPlanSelection(priceID string) (CheckoutSelection, error) {
	priceID = strings.TrimSpace(priceID)
	if priceID == "" {
		return CheckoutSelection{}, domain.ErrInvalidSelection
	}
	return CheckoutSelection{PriceID: priceID}, nil
}

func NewAmountSelection(amount int64) (CheckoutSelection, error) {
	if amount <= 0 {
		return CheckoutSelection{}, domain.ErrInvalidSelection
	}
	return CheckoutSelection{CustomAmount: amount}, nil
}

// Validate rejects selections that are neither a plan nor a positive amount,
// and selections that are both.
func (s CheckoutSelection) Validate() error {
	hasPlan := strings.TrimSpace(s.PriceID) != ""
	hasAmount := s.CustomAmount > 0
	if hasPlan == hasAmount || s.CustomAmount < 0 {
		return domain.ErrInvalidSelection
	}
	return nil
}

func (s CheckoutSelection) Mode() CheckoutMode {
	if s.PriceID != "" {
		return CheckoutModeSubscription
	}
	return CheckoutModePayment
}

// LineItem is the single item of a checkout session. For plans only PriceID is
// set; for one-time payments the inline price fields are used.
type LineItem struct {
	PriceID     string
	UnitAmount  int64
	Currency    string
	ProductName string
	Quantity    int64
}

// CheckoutRequest is what the billing provider needs to open a session.
type CheckoutRequest struct {
	CustomerID string
	Mode       CheckoutMode
	Item       LineItem
	SuccessURL string
	CancelURL  string
}

// Plan is a recurring tier shown on the plan-selection page.
type Plan struct {
	Name    string `yaml:"name" json:"name"`
	PriceID string `yaml:"price_id" json:"price_id"`
	Amount  int64  `yaml:"amount" json:"amount"`
}
