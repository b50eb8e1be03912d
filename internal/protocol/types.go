package protocol

import "github.com/bryanmjl/Real-Time-Quote-Server/pkg/models"

// Message type tags. The event names are fixed by the existing client
// contract and must not change.
const (
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"

	TypeSubscriptionSuccess   = "subscription_success"
	TypeUnsubscriptionSuccess = "unsubscription_success"
	TypeQuoteChange           = "quote_change"
	TypeError                 = "error"
)

// Request is a client command. Symbols are opaque and case-sensitive;
// the gateway rejects a missing or empty symbol before it reaches the
// registry.
type Request struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

// Ack acknowledges a subscribe or unsubscribe. It is sent to the
// requesting session only and carries the symbol's full subscriber
// list after the mutation.
type Ack struct {
	Type    string   `json:"type"`
	Symbol  string   `json:"symbol"`
	Clients []string `json:"clients"`
}

// QuoteChange is the periodic broadcast payload. The price fields sit
// flat next to the type tag.
type QuoteChange struct {
	Type string `json:"type"`
	models.Quote
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewError(msg string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Message: msg}
}
