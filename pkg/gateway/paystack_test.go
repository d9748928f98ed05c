package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPaystack(t *testing.T, handler http.HandlerFunc) *Paystack {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := zap.NewNop()
	return NewPaystack(PaystackConfig{
		SecretKey: "sk_test_123",
		BaseURL:   srv.URL,
		Timeout:   2 * time.Second,
	}, NewBreaker(t.Name(), 3, time.Minute, log), log)
}

func TestPaystack_Initialize(t *testing.T) {
	var got paystackInitBody
	p := newTestPaystack(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":true,"message":"ok","data":{"authorization_url":"https://checkout.paystack.com/x","access_code":"ac_1","reference":"HOTEL_x_1"}}`))
	})

	res, err := p.Initialize(context.Background(), InitRequest{
		Reference:   "HOTEL_x_1",
		Amount:      100000.5,
		Currency:    "NGN",
		Customer:    Customer{Email: "jane@x.com"},
		CallbackURL: "https://shop.test/payment/callback",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.paystack.com/x", res.RedirectURL)
	assert.Equal(t, "ac_1", res.ProviderReference)
	assert.Equal(t, int64(10000050), got.Amount)
	assert.Equal(t, "jane@x.com", got.Email)
	assert.Equal(t, "HOTEL_x_1", got.Reference)
}

func TestPaystack_InitializeRejected(t *testing.T) {
	p := newTestPaystack(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":false,"message":"Invalid key"}`))
	})

	_, err := p.Initialize(context.Background(), InitRequest{Reference: "r", Amount: 1})
	assert.ErrorIs(t, err, ErrInitFailed)
	assert.Contains(t, err.Error(), "Invalid key")
}

func TestPaystack_Status(t *testing.T) {
	tests := []struct {
		name         string
		code         int
		body         string
		wantErr      error
		wantOutcome  Outcome
		wantTerminal bool
		wantAmount   float64
	}{
		{
			name:         "success",
			code:         http.StatusOK,
			body:         `{"status":true,"data":{"status":"success","reference":"r","amount":10000000,"currency":"NGN"}}`,
			wantOutcome:  OutcomeSuccess,
			wantTerminal: true,
			wantAmount:   100000,
		},
		{
			name:        "abandoned may still be paid",
			code:        http.StatusOK,
			body:        `{"status":true,"data":{"status":"abandoned","reference":"r"}}`,
			wantOutcome: OutcomeFailed,
		},
		{
			name:    "unknown reference",
			code:    http.StatusBadRequest,
			body:    `{"status":false,"message":"Transaction reference not found"}`,
			wantErr: ErrReferenceNotFound,
		},
		{
			name:    "provider outage",
			code:    http.StatusBadGateway,
			body:    `{"status":false,"message":"upstream"}`,
			wantErr: ErrStatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPaystack(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/transaction/verify/r", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.code)
				w.Write([]byte(tt.body))
			})

			res, err := p.Status(context.Background(), "r", "")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, res.Outcome)
			assert.Equal(t, tt.wantTerminal, res.Terminal)
			assert.Equal(t, tt.wantAmount, res.Amount)
		})
	}
}

func TestPaystack_BreakerOpensAfterFailures(t *testing.T) {
	calls := 0
	p := newTestPaystack(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 5; i++ {
		_, err := p.Status(context.Background(), "r", "")
		assert.ErrorIs(t, err, ErrStatusFailed)
	}
	assert.Equal(t, 3, calls)
}

func TestClassifyPaystack(t *testing.T) {
	tests := []struct {
		status   string
		outcome  Outcome
		terminal bool
	}{
		{"success", OutcomeSuccess, true},
		{"failed", OutcomeFailed, true},
		{"reversed", OutcomeFailed, true},
		{"abandoned", OutcomeFailed, false},
		{"ongoing", OutcomeFailed, false},
		{"", OutcomeFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			outcome, terminal := ClassifyPaystack(tt.status)
			assert.Equal(t, tt.outcome, outcome)
			assert.Equal(t, tt.terminal, terminal)
		})
	}
}

func TestPaystack_VerifySignature(t *testing.T) {
	p := newTestPaystack(t, func(w http.ResponseWriter, r *http.Request) {})
	body := []byte(`{"event":"charge.success","data":{"reference":"r"}}`)

	mac := hmac.New(sha512.New, []byte("sk_test_123"))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, p.VerifySignature(body, signature))
	assert.False(t, p.VerifySignature(body, ""))
	assert.False(t, p.VerifySignature([]byte(`{"event":"charge.success"}`), signature))
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(5000000), ToMinorUnits(50000))
	assert.Equal(t, int64(1999), ToMinorUnits(19.99))
}
