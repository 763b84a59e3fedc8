package paystack

import "encoding/json"

// Transaction statuses Paystack reports on verify and in webhook events.
const (
	TransactionStatusSuccess   = "success"
	TransactionStatusFailed    = "failed"
	TransactionStatusAbandoned = "abandoned"
)

// Webhook event types the billing core dispatches on.
const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)

// InitializeTransactionParams describes a hosted-checkout initialization.
type InitializeTransactionParams struct {
	Email       string
	AmountMinor int64
	Currency    string
	Reference   string
	CallbackURL string
	Metadata    map[string]any
}

func (p InitializeTransactionParams) toRequest() initializeRequest {
	return initializeRequest{
		Email:       p.Email,
		Amount:      p.AmountMinor,
		Currency:    p.Currency,
		Reference:   p.Reference,
		CallbackURL: p.CallbackURL,
		Metadata:    p.Metadata,
	}
}

// TransactionAuthorization is the usable part of an initialize response.
type TransactionAuthorization struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// TransactionVerification is the settled state of a transaction.
type TransactionVerification struct {
	Reference     string
	Status        string
	AmountMinor   int64
	Currency      string
	Channel       string
	GatewayTxnID  string
	GatewayStatus string
	PaidAt        string
	Raw           json.RawMessage
}

// Event is the gateway webhook envelope.
type Event struct {
	Event string          `json:"event"`
	Data  EventData       `json:"data"`
	Raw   json.RawMessage `json:"-"`
}

// EventData carries the charge fields the reconciliation path consumes.
type EventData struct {
	ID              int64  `json:"id"`
	Reference       string `json:"reference"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Status          string `json:"status"`
	Channel         string `json:"channel"`
	GatewayResponse string `json:"gateway_response"`
	PaidAt          string `json:"paid_at"`
}

type initializeRequest struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency,omitempty"`
	Reference   string         `json:"reference"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID              int64  `json:"id"`
		Reference       string `json:"reference"`
		Amount          int64  `json:"amount"`
		Currency        string `json:"currency"`
		Status          string `json:"status"`
		Channel         string `json:"channel"`
		GatewayResponse string `json:"gateway_response"`
		PaidAt          string `json:"paid_at"`
	} `json:"data"`
}
