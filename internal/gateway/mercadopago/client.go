package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xtreino/platform/internal/config"
	reconciledomain "github.com/xtreino/platform/internal/reconcile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ErrMissingCredential is returned when no access token is configured.
var ErrMissingCredential = errors.New("gateway credential not configured")

// GatewayError carries the upstream HTTP status and body so handlers can
// surface the gateway's own explanation on a 502.
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.StatusCode, e.Body)
}

type Params struct {
	fx.In

	Cfg config.Config
	Log *zap.Logger
}

// Client talks to the Mercado Pago REST API.
type Client struct {
	baseURL     string
	accessToken string
	backURLs    BackURLs
	notifyURL   string
	httpClient  *http.Client
	log         *zap.Logger
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

func NewClient(p Params) *Client {
	return &Client{
		baseURL:     strings.TrimRight(p.Cfg.MPBaseURL, "/"),
		accessToken: p.Cfg.MPAccessToken,
		backURLs: BackURLs{
			Success: p.Cfg.MPSuccessURL,
			Failure: p.Cfg.MPFailureURL,
			Pending: p.Cfg.MPPendingURL,
		},
		notifyURL: p.Cfg.MPNotificationURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: p.Log.Named("gateway.mercadopago"),
	}
}

type PreferenceRequest struct {
	Title             string
	UnitPrice         float64
	Quantity          int
	Currency          string
	ExternalReference string
}

// Preference is the gateway-side offer-to-pay. init_point is where the
// buyer is redirected.
type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

type preferenceItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type preferencePayload struct {
	Items             []preferenceItem `json:"items"`
	BackURLs          BackURLs         `json:"back_urls"`
	AutoReturn        string           `json:"auto_return"`
	ExternalReference string           `json:"external_reference,omitempty"`
	NotificationURL   string           `json:"notification_url,omitempty"`
}

func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	if c.accessToken == "" {
		return nil, ErrMissingCredential
	}

	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "BRL"
	}

	payload := preferencePayload{
		Items: []preferenceItem{{
			Title:      req.Title,
			Quantity:   quantity,
			UnitPrice:  req.UnitPrice,
			CurrencyID: currency,
		}},
		BackURLs:          c.backURLs,
		AutoReturn:        "approved",
		ExternalReference: req.ExternalReference,
		NotificationURL:   c.notifyURL,
	}

	var pref Preference
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", payload, &pref); err != nil {
		return nil, err
	}
	return &pref, nil
}

type paymentPayload struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	StatusDetail      string      `json:"status_detail"`
	ExternalReference string      `json:"external_reference"`
	Description       string      `json:"description"`
	TransactionAmount float64     `json:"transaction_amount"`
	Payer             struct {
		Email string `json:"email"`
	} `json:"payer"`
}

// GetPayment fetches the authoritative payment object after a webhook
// notification. Implements the reconciliation gateway contract.
func (c *Client) GetPayment(ctx context.Context, id string) (*reconciledomain.Payment, error) {
	if c.accessToken == "" {
		return nil, ErrMissingCredential
	}

	var payload paymentPayload
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+id, nil, &payload); err != nil {
		return nil, err
	}

	paymentID := payload.ID.String()
	if paymentID == "" || paymentID == "0" {
		paymentID = id
	}

	return &reconciledomain.Payment{
		ID:                paymentID,
		Status:            strings.TrimSpace(payload.Status),
		StatusDetail:      payload.StatusDetail,
		ExternalReference: strings.TrimSpace(payload.ExternalReference),
		Description:       payload.Description,
		PayerEmail:        strings.ToLower(strings.TrimSpace(payload.Payer.Email)),
		Amount:            payload.TransactionAmount,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("gateway request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return &GatewayError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode gateway response: %w", err)
		}
	}
	return nil
}

var Module = fx.Module("gateway.mercadopago",
	fx.Provide(NewClient),
	fx.Provide(func(c *Client) reconciledomain.Gateway { return c }),
)
