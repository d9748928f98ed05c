package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type NowPaymentsConfig struct {
	APIKey      string
	BaseURL     string
	PayCurrency string

	// NGNPerUSD prices naira totals in USD for the invoice.
	NGNPerUSD float64
	Timeout   time.Duration
}

type NowPayments struct {
	client      *resty.Client
	breaker     *Breaker
	payCurrency string
	ngnPerUSD   float64
	log         *zap.Logger
}

func NewNowPayments(cfg NowPaymentsConfig, breaker *Breaker, log *zap.Logger) *NowPayments {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("x-api-key", cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	return &NowPayments{
		client:      client,
		breaker:     breaker,
		payCurrency: cfg.PayCurrency,
		ngnPerUSD:   cfg.NGNPerUSD,
		log:         log.With(zap.String("gateway", "nowpayments")),
	}
}

type invoiceBody struct {
	PriceAmount      float64 `json:"price_amount"`
	PriceCurrency    string  `json:"price_currency"`
	PayCurrency      string  `json:"pay_currency,omitempty"`
	OrderID          string  `json:"order_id"`
	OrderDescription string  `json:"order_description,omitempty"`
	SuccessURL       string  `json:"success_url,omitempty"`
	CancelURL        string  `json:"cancel_url,omitempty"`
}

type invoiceResponse struct {
	ID         json.Number `json:"id"`
	InvoiceURL string      `json:"invoice_url"`
	OrderID    string      `json:"order_id"`
	Message    string      `json:"message"`
}

type paymentListResponse struct {
	Data []struct {
		PaymentID     json.Number `json:"payment_id"`
		PaymentStatus string      `json:"payment_status"`
		PriceAmount   float64     `json:"price_amount"`
		PriceCurrency string      `json:"price_currency"`
		OrderID       string      `json:"order_id"`
	} `json:"data"`
	Message string `json:"message"`
}

// USDAmount converts a naira amount to a two-decimal USD price.
func (n *NowPayments) USDAmount(amount float64, currency string) float64 {
	if strings.EqualFold(currency, "USD") || n.ngnPerUSD <= 0 {
		return amount
	}
	return math.Round(amount/n.ngnPerUSD*100) / 100
}

func (n *NowPayments) Initialize(ctx context.Context, req InitRequest) (*InitResult, error) {
	body := invoiceBody{
		PriceAmount:      n.USDAmount(req.Amount, req.Currency),
		PriceCurrency:    "usd",
		PayCurrency:      n.payCurrency,
		OrderID:          req.Reference,
		OrderDescription: req.Description,
		SuccessURL:       req.CallbackURL,
		CancelURL:        req.CallbackURL,
	}

	result, err := n.breaker.Execute(func() (any, error) {
		var out invoiceResponse
		resp, err := n.client.R().
			SetContext(ctx).
			SetBody(body).
			SetResult(&out).
			SetError(&out).
			Post("/v1/invoice")
		if err != nil {
			return nil, fmt.Errorf("HTTP error: %w", err)
		}
		if resp.IsError() || out.InvoiceURL == "" {
			return nil, fmt.Errorf("nowpayments returned status %d: %s", resp.StatusCode(), out.Message)
		}
		return &out, nil
	})
	if err != nil {
		n.log.Error("Failed to create invoice",
			zap.Error(err),
			zap.String("reference", req.Reference),
		)
		return nil, fmt.Errorf("%w: %v", ErrInitFailed, err)
	}

	out := result.(*invoiceResponse)
	return &InitResult{
		RedirectURL:       out.InvoiceURL,
		ProviderReference: out.ID.String(),
	}, nil
}

func (n *NowPayments) Status(ctx context.Context, reference, invoiceID string) (*StatusResult, error) {
	if invoiceID == "" {
		return nil, ErrReferenceNotFound
	}

	result, err := n.breaker.Execute(func() (any, error) {
		var out paymentListResponse
		resp, err := n.client.R().
			SetContext(ctx).
			SetQueryParam("invoiceId", invoiceID).
			SetResult(&out).
			SetError(&out).
			Get("/v1/payment/")
		if err != nil {
			return nil, fmt.Errorf("HTTP error: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("nowpayments returned status %d: %s", resp.StatusCode(), out.Message)
		}
		return &out, nil
	})
	if err != nil {
		n.log.Error("Failed to fetch invoice payments",
			zap.Error(err),
			zap.String("reference", reference),
			zap.String("invoice_id", invoiceID),
		)
		return nil, fmt.Errorf("%w: %v", ErrStatusFailed, err)
	}

	out := result.(*paymentListResponse)

	// no payment yet means the invoice is still waiting for funds
	status := "waiting"
	var amount float64
	var currency string
	for i, p := range out.Data {
		if i == 0 || p.PaymentStatus == "finished" {
			status, amount, currency = p.PaymentStatus, p.PriceAmount, p.PriceCurrency
		}
		if p.PaymentStatus == "finished" {
			break
		}
	}

	outcome, terminal := ClassifyNowPayments(status)
	return &StatusResult{
		Status:   status,
		Outcome:  outcome,
		Terminal: terminal,
		Amount:   amount,
		Currency: currency,
	}, nil
}

// ClassifyNowPayments maps a NOWPayments payment_status. Settlement in progress is pending
// and only "finished" verifies.
func ClassifyNowPayments(status string) (Outcome, bool) {
	switch status {
	case "finished":
		return OutcomeSuccess, true
	case "waiting", "confirming", "confirmed", "sending":
		return OutcomePending, false
	case "failed", "expired", "refunded":
		return OutcomeFailed, true
	}
	return OutcomeFailed, false
}
