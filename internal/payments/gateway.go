// Package payments talks to the external payment gateway. The gateway
// is best-effort: one attempt per call, failures surface to the caller
// and never fall through to order creation.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	requestTimeout = 15 * time.Second
	currency       = "IDR"
)

// Gateway is the port the checkout sequencer depends on.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
	VerifyPayment(ctx context.Context, correlationID string) (Verification, error)
}

type IntentRequest struct {
	Amount        int64
	CorrelationID string
	CustomerName  string
	CustomerEmail string
}

// Intent is what the client-side payment widget needs.
type Intent struct {
	Token         string `json:"token"`
	CorrelationID string `json:"correlation_id"`
	Amount        int64  `json:"amount"`
}

type Verification struct {
	CorrelationID string `json:"reference"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	Raw           []byte `json:"-"`
}

func (v Verification) Authorized() bool {
	return v.Status == "authorized" || v.Status == "captured"
}

// NewCorrelationID must be called before the gateway request so the id
// can be reused on the follow-up confirmation.
func NewCorrelationID() string {
	return uuid.NewString()
}

type HTTPGateway struct {
	baseURL   string
	apiKey    string
	apiSecret string
	client    *http.Client
}

func NewHTTPGatewayFromEnv() *HTTPGateway {
	return NewHTTPGateway(
		os.Getenv("PAYMENT_GATEWAY_URL"),
		os.Getenv("PAYMENT_GATEWAY_KEY"),
		os.Getenv("PAYMENT_GATEWAY_SECRET"),
	)
}

func NewHTTPGateway(baseURL, apiKey, apiSecret string) *HTTPGateway {
	return &HTTPGateway{
		baseURL:   baseURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		client:    &http.Client{Timeout: requestTimeout},
	}
}

type intentPayload struct {
	Amount    int64          `json:"amount"`
	Currency  string         `json:"currency"`
	Reference string         `json:"reference"`
	Customer  customerDetail `json:"customer"`
}

type customerDetail struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type intentResult struct {
	Token     string `json:"token"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
}

func (g *HTTPGateway) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	payload := intentPayload{
		Amount:    req.Amount,
		Currency:  currency,
		Reference: req.CorrelationID,
		Customer: customerDetail{
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Intent{}, fmt.Errorf("failed to marshal intent payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/intents", bytes.NewBuffer(body))
	if err != nil {
		return Intent{}, fmt.Errorf("failed to build intent request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(g.apiKey, g.apiSecret)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return Intent{}, fmt.Errorf("failed to reach payment gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Intent{}, fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	var result intentResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Intent{}, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"reference": req.CorrelationID,
		"amount":    req.Amount,
	}).Info("payment intent created")

	return Intent{
		Token:         result.Token,
		CorrelationID: result.Reference,
		Amount:        result.Amount,
	}, nil
}

func (g *HTTPGateway) VerifyPayment(ctx context.Context, correlationID string) (Verification, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/payments/"+correlationID, nil)
	if err != nil {
		return Verification{}, fmt.Errorf("failed to build verification request: %w", err)
	}
	httpReq.SetBasicAuth(g.apiKey, g.apiSecret)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return Verification{}, fmt.Errorf("failed to reach payment gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Verification{}, fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Verification{}, fmt.Errorf("failed to read gateway response: %w", err)
	}

	var verification Verification
	if err := json.Unmarshal(raw, &verification); err != nil {
		return Verification{}, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	verification.Raw = raw
	return verification, nil
}
