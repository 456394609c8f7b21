// Package payments talks to the payment processor: hosted checkout and connected payout accounts
package payments

import "encoding/json"

// CheckoutRequest describes a one-item hosted checkout that pays out to a connected account
type CheckoutRequest struct {
	ProductName        string
	Amount             int64
	Currency           string
	ApplicationFee     int64
	DestinationAccount string
	CustomerEmail      string
	SuccessURL         string
	CancelURL          string
}

// CheckoutSession is the processor-side state of a hosted checkout
type CheckoutSession struct {
	ID      string
	URL     string
	Paid    bool
	Expired bool
}

// Account is a connected payout account
type Account struct {
	ID             string
	ChargesEnabled bool
	// Snapshot is the account as returned by the processor
	Snapshot json.RawMessage
}
