package types

// ReceiptStatusOK is the status recorded for an applied transaction. Failed
// operations never produce a receipt: the node returns the typed error and
// discards all effects instead.
const ReceiptStatusOK = "ok"

// TxReceipt summarises one applied operation for the submitting client.
type TxReceipt struct {
	Hash   string  `json:"hash"`
	Status string  `json:"status"`
	Events []Event `json:"events,omitempty"`
}
