package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/faheemkodi/lms-server/internal/errs"
	"github.com/faheemkodi/lms-server/internal/models"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// stripeGateway implements the payment operations with Stripe Checkout and Connect
type stripeGateway struct {
	api *client.API
}

// NewStripeGateway creates a Stripe gateway. Nil backends use the live Stripe API.
func NewStripeGateway(secretKey string, backends *stripe.Backends) *stripeGateway {
	return &stripeGateway{api: client.New(secretKey, backends)}
}

// CreateCheckoutSession starts a hosted checkout whose payment is transferred to the destination account minus the application fee
func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ProductName),
					},
					UnitAmount: stripe.Int64(req.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(req.ApplicationFee),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(req.DestinationAccount),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, errs.Upstream("create checkout session", err)
	}

	return toCheckoutSession(s), nil
}

// GetCheckoutSession retrieves a hosted checkout by id.
// A session Stripe does not know returns errs.ErrNotFound.
func (g *stripeGateway) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.Get(id, params)
	if err != nil {
		if isResourceMissing(err) {
			return nil, errs.New(errs.ErrNotFound, "checkout session %s not found", id)
		}
		return nil, errs.Upstream("retrieve checkout session", err)
	}

	return toCheckoutSession(s), nil
}

func isResourceMissing(err error) bool {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return false
	}
	return stripeErr.Code == stripe.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == http.StatusNotFound
}

func toCheckoutSession(s *stripe.CheckoutSession) *CheckoutSession {
	return &CheckoutSession{
		ID:      s.ID,
		URL:     s.URL,
		Paid:    s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Expired: s.Status == stripe.CheckoutSessionStatusExpired,
	}
}

// CreateAccount creates a standard connected account for the instructor
func (g *stripeGateway) CreateAccount(ctx context.Context, email string) (string, error) {
	params := &stripe.AccountParams{
		Type:  stripe.String(string(stripe.AccountTypeStandard)),
		Email: stripe.String(email),
	}
	params.Context = ctx

	acct, err := g.api.Accounts.New(params)
	if err != nil {
		return "", errs.Upstream("create account", err)
	}

	return acct.ID, nil
}

// CreateAccountLink creates an onboarding link for a connected account
func (g *stripeGateway) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx

	link, err := g.api.AccountLinks.New(params)
	if err != nil {
		return "", errs.Upstream("create account link", err)
	}

	return link.URL, nil
}

// GetAccount retrieves a connected account
func (g *stripeGateway) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx

	acct, err := g.api.Accounts.GetByID(accountID, params)
	if err != nil {
		return nil, errs.Upstream("retrieve account", err)
	}

	snapshot, err := json.Marshal(acct)
	if err != nil {
		return nil, fmt.Errorf("failed to encode account snapshot: %w", err)
	}

	return &Account{
		ID:             acct.ID,
		ChargesEnabled: acct.ChargesEnabled,
		Snapshot:       snapshot,
	}, nil
}

// GetBalance retrieves the balance of a connected account
func (g *stripeGateway) GetBalance(ctx context.Context, accountID string) (*models.Balance, error) {
	params := &stripe.BalanceParams{}
	params.SetStripeAccount(accountID)
	params.Context = ctx

	b, err := g.api.Balance.Get(params)
	if err != nil {
		return nil, errs.Upstream("retrieve balance", err)
	}

	return &models.Balance{
		Available: toMoney(b.Available),
		Pending:   toMoney(b.Pending),
	}, nil
}

func toMoney(amounts []*stripe.Amount) []models.Money {
	out := make([]models.Money, 0, len(amounts))
	for _, a := range amounts {
		out = append(out, models.Money{Amount: a.Amount, Currency: string(a.Currency)})
	}
	return out
}

// CreateLoginLink creates a dashboard login link for a connected account
func (g *stripeGateway) CreateLoginLink(ctx context.Context, accountID string) (string, error) {
	params := &stripe.LoginLinkParams{
		Account: stripe.String(accountID),
	}
	params.Context = ctx

	link, err := g.api.LoginLinks.New(params)
	if err != nil {
		return "", errs.Upstream("create login link", err)
	}

	return link.URL, nil
}
