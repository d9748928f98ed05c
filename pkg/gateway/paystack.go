package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type PaystackConfig struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

type Paystack struct {
	client    *resty.Client
	breaker   *Breaker
	secretKey string
	log       *zap.Logger
}

func NewPaystack(cfg PaystackConfig, breaker *Breaker, log *zap.Logger) *Paystack {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetAuthToken(cfg.SecretKey).
		SetHeader("Content-Type", "application/json")

	return &Paystack{
		client:    client,
		breaker:   breaker,
		secretKey: cfg.SecretKey,
		log:       log.With(zap.String("gateway", "paystack")),
	}
}

type paystackInitBody struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency,omitempty"`
	Reference   string         `json:"reference"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type paystackInitResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type paystackVerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID        int64  `json:"id"`
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
	} `json:"data"`
}

// ToMinorUnits converts naira to kobo.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (p *Paystack) Initialize(ctx context.Context, req InitRequest) (*InitResult, error) {
	body := paystackInitBody{
		Email:       req.Customer.Email,
		Amount:      ToMinorUnits(req.Amount),
		Currency:    req.Currency,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	}

	result, err := p.breaker.Execute(func() (any, error) {
		var out paystackInitResponse
		resp, err := p.client.R().
			SetContext(ctx).
			SetBody(body).
			SetResult(&out).
			SetError(&out).
			Post("/transaction/initialize")
		if err != nil {
			return nil, fmt.Errorf("HTTP error: %w", err)
		}
		if resp.IsError() || !out.Status || out.Data.AuthorizationURL == "" {
			return nil, fmt.Errorf("paystack returned status %d: %s", resp.StatusCode(), out.Message)
		}
		return &out, nil
	})
	if err != nil {
		p.log.Error("Failed to initialize transaction",
			zap.Error(err),
			zap.String("reference", req.Reference),
		)
		return nil, fmt.Errorf("%w: %v", ErrInitFailed, err)
	}

	out := result.(*paystackInitResponse)
	return &InitResult{
		RedirectURL:       out.Data.AuthorizationURL,
		ProviderReference: out.Data.AccessCode,
	}, nil
}

func (p *Paystack) Status(ctx context.Context, reference, _ string) (*StatusResult, error) {
	result, err := p.breaker.Execute(func() (any, error) {
		var out paystackVerifyResponse
		resp, err := p.client.R().
			SetContext(ctx).
			SetResult(&out).
			SetError(&out).
			Get("/transaction/verify/" + url.PathEscape(reference))
		if err != nil {
			return nil, fmt.Errorf("HTTP error: %w", err)
		}
		// unknown references are an answer, not a provider fault
		if resp.StatusCode() == http.StatusNotFound || resp.StatusCode() == http.StatusBadRequest {
			return (*paystackVerifyResponse)(nil), nil
		}
		if resp.IsError() || !out.Status {
			return nil, fmt.Errorf("paystack returned status %d: %s", resp.StatusCode(), out.Message)
		}
		return &out, nil
	})
	if err != nil {
		p.log.Error("Failed to verify transaction",
			zap.Error(err),
			zap.String("reference", reference),
		)
		return nil, fmt.Errorf("%w: %v", ErrStatusFailed, err)
	}

	out := result.(*paystackVerifyResponse)
	if out == nil {
		return nil, ErrReferenceNotFound
	}

	outcome, terminal := ClassifyPaystack(out.Data.Status)
	return &StatusResult{
		Status:   out.Data.Status,
		Outcome:  outcome,
		Terminal: terminal,
		Amount:   float64(out.Data.Amount) / 100,
		Currency: out.Data.Currency,
	}, nil
}

// ClassifyPaystack maps a transaction status. Only "success" verifies; "failed" and
// "reversed" are final, anything else may still change.
func ClassifyPaystack(status string) (Outcome, bool) {
	switch status {
	case "success":
		return OutcomeSuccess, true
	case "failed", "reversed":
		return OutcomeFailed, true
	}
	return OutcomeFailed, false
}

// VerifySignature checks the x-paystack-signature header of a webhook body.
func (p *Paystack) VerifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(p.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
