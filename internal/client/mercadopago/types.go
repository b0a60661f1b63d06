package mercadopago

import (
	"time"

	"github.com/shopspring/decimal"
)

type Identification struct {
	Type   string `json:"type,omitempty"`
	Number string `json:"number,omitempty"`
}

type Payer struct {
	ID             string         `json:"id,omitempty"`
	Email          string         `json:"email,omitempty"`
	FirstName      string         `json:"first_name,omitempty"`
	LastName       string         `json:"last_name,omitempty"`
	Identification Identification `json:"identification,omitempty"`
}

type Card struct {
	FirstSixDigits string `json:"first_six_digits"`
	LastFourDigits string `json:"last_four_digits"`
}

// Payment is the gateway's payment resource normalized into internal types.
type Payment struct {
	ID                int64           `json:"id"`
	Status            string          `json:"status"`
	StatusDetail      string          `json:"status_detail"`
	ExternalReference string          `json:"external_reference"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	CurrencyID        string          `json:"currency_id"`
	PaymentMethodID   string          `json:"payment_method_id"`
	Installments      int             `json:"installments"`
	DateCreated       *time.Time      `json:"date_created"`
	DateApproved      *time.Time      `json:"date_approved"`
	Card              Card            `json:"card"`
	Payer             Payer           `json:"payer"`
}

// PaymentRequest is the body for creating a payment. Either a pre-generated
// token or one minted from raw card data (sandbox only) must be set.
type PaymentRequest struct {
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	Token             string          `json:"token"`
	Description       string          `json:"description,omitempty"`
	Installments      int             `json:"installments"`
	PaymentMethodID   string          `json:"payment_method_id,omitempty"`
	ExternalReference string          `json:"external_reference"`
	Payer             Payer           `json:"payer"`
	Capture           *bool           `json:"capture,omitempty"`
}

type Paging struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type SearchResult struct {
	Paging  Paging    `json:"paging"`
	Results []Payment `json:"results"`
}

type Refund struct {
	ID          int64           `json:"id"`
	PaymentID   int64           `json:"payment_id"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	Reason      string          `json:"reason,omitempty"`
	DateCreated *time.Time      `json:"date_created"`
}

type CardTokenRequest struct {
	CardNumber      string `json:"card_number"`
	SecurityCode    string `json:"security_code"`
	ExpirationMonth int    `json:"expiration_month"`
	ExpirationYear  int    `json:"expiration_year"`
	CardholderName  string `json:"cardholder_name"`
}

type CardToken struct {
	ID             string `json:"id"`
	FirstSixDigits string `json:"first_six_digits"`
	LastFourDigits string `json:"last_four_digits"`
}

type Customer struct {
	ID             string         `json:"id"`
	Email          string         `json:"email"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Identification Identification `json:"identification"`
}

type CustomerRequest struct {
	Email          string         `json:"email"`
	FirstName      string         `json:"first_name,omitempty"`
	LastName       string         `json:"last_name,omitempty"`
	Identification Identification `json:"identification,omitempty"`
}

type CustomerSearchResult struct {
	Paging  Paging     `json:"paging"`
	Results []Customer `json:"results"`
}

type PaymentMethod struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PaymentTypeID string `json:"payment_type_id"`
	Status        string `json:"status"`
}

type IdentificationType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// apiError is the gateway's error envelope.
type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Cause   []struct {
		Code        interface{} `json:"code"`
		Description string      `json:"description"`
	} `json:"cause"`
}
