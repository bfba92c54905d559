package models

// PaymobCallback is the processed-callback body Paymob POSTs after a transaction.
type PaymobCallback struct {
	Type string            `json:"type"`
	Obj  PaymobTransaction `json:"obj"`
}

type PaymobTransaction struct {
	ID                   int64            `json:"id"`
	Pending              bool             `json:"pending"`
	AmountCents          int64            `json:"amount_cents"`
	Success              bool             `json:"success"`
	IsAuth               bool             `json:"is_auth"`
	IsCapture            bool             `json:"is_capture"`
	IsStandalonePayment  bool             `json:"is_standalone_payment"`
	IsVoided             bool             `json:"is_voided"`
	IsRefunded           bool             `json:"is_refunded"`
	Is3DSecure           bool             `json:"is_3d_secure"`
	IntegrationID        int64            `json:"integration_id"`
	HasParentTransaction bool             `json:"has_parent_transaction"`
	Order                PaymobOrderRef   `json:"order"`
	CreatedAt            string           `json:"created_at"`
	Currency             string           `json:"currency"`
	SourceData           PaymobSourceData `json:"source_data"`
	ErrorOccured         bool             `json:"error_occured"`
	Owner                int64            `json:"owner"`
}

type PaymobOrderRef struct {
	ID int64 `json:"id"`
}

type PaymobSourceData struct {
	Pan     string `json:"pan"`
	Type    string `json:"type"`
	SubType string `json:"sub_type"`
}

// PaymobCallbackStatus describes what a callback did to the order.
type PaymobCallbackStatus string

const (
	CallbackIgnored      PaymobCallbackStatus = "ignored"
	CallbackUnknownOrder PaymobCallbackStatus = "unknown_order"
	CallbackPending      PaymobCallbackStatus = "pending"
	CallbackPaid         PaymobCallbackStatus = "paid"
	CallbackFailed       PaymobCallbackStatus = "failed"
	CallbackDuplicate    PaymobCallbackStatus = "duplicate"
)

type PaymobCallbackResult struct {
	Status PaymobCallbackStatus `json:"status"`
}
