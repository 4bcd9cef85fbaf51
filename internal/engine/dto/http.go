package dto

// IngestBulletinRequest is the payload pushed by the retrieval
// collaborator. MessageID is the stable external identity.
type IngestBulletinRequest struct {
	MessageID string `json:"message_id"`
	Subject   string `json:"subject"`
	Date      string `json:"date"`
	Body      string `json:"body"`
}

// StorePriceRequest is one daily close pushed by the price-feed
// collaborator.
type StorePriceRequest struct {
	Ticker string   `json:"ticker"`
	Date   string   `json:"date"`
	Close  *float64 `json:"close"`
	Source string   `json:"source"`
}

// RunAutoCancelRequest triggers a breach check for a date. Date defaults
// to today when empty.
type RunAutoCancelRequest struct {
	Date string `json:"date"`
}

// ErrorResponse is a generic error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
