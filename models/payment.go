package models

// PaymentMethod is one entry of the server-supplied payment catalog.
type PaymentMethod struct {
	ID   int    `json:"id"`
	Code string `json:"code"` // e.g. bca_va, credit_card, gopay
	Name string `json:"name"`
	Type string `json:"type"` // bank_transfer, credit_card, ewallet, qris
	Logo string `json:"logo,omitempty"`
}

type PaymentMethodGroup struct {
	Name    string          `json:"name"`
	Methods []PaymentMethod `json:"payment_methods"`
}

type PaymentMethodsResponse struct {
	Groups []PaymentMethodGroup `json:"groups"`
}

// CardDetails is captured client-side for card payments. Only local
// format checks apply; the number is never verified against a card
// network here.
type CardDetails struct {
	Number      string `json:"card_number"`
	HolderName  string `json:"holder_name"`
	ExpiryMonth int    `json:"expiry_month"`
	ExpiryYear  int    `json:"expiry_year"`
	CVV         string `json:"cvv"`
}

type BankTransferDetails struct {
	BankCode string `json:"bank_code"`
}

// PaymentSubmission is the typed payload handed to order creation once a
// method is chosen and its details validated.
type PaymentSubmission struct {
	Method       PaymentMethod        `json:"method"`
	Card         *CardDetails         `json:"card,omitempty"`
	BankTransfer *BankTransferDetails `json:"bank_transfer,omitempty"`
	Items        []LimitCheckItem     `json:"items"`
}
