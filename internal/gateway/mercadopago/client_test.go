package mercadopago_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xtreino/platform/internal/config"
	"github.com/xtreino/platform/internal/gateway/mercadopago"
	"go.uber.org/zap"
)

func newTestClient(baseURL, token string) *mercadopago.Client {
	return mercadopago.NewClient(mercadopago.Params{
		Cfg: config.Config{
			MPAccessToken:     token,
			MPBaseURL:         baseURL,
			MPSuccessURL:      "https://xtreino.com.br/ok",
			MPFailureURL:      "https://xtreino.com.br/fail",
			MPPendingURL:      "https://xtreino.com.br/pending",
			MPNotificationURL: "https://xtreino.com.br/api/payments/webhook",
		},
		Log: zap.NewNop(),
	})
}

func TestCreatePreference(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pref-1","init_point":"https://mp/init","sandbox_init_point":"https://mp/sandbox"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "token-1")
	pref, err := client.CreatePreference(context.Background(), mercadopago.PreferenceRequest{
		Title:     "3 Tokens",
		UnitPrice: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "pref-1", pref.ID)
	assert.Equal(t, "https://mp/init", pref.InitPoint)

	items, ok := captured["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, float64(1), item["quantity"], "quantity defaults to 1")
	assert.Equal(t, "BRL", item["currency_id"], "currency defaults to BRL")
	assert.Equal(t, "approved", captured["auto_return"])
}

func TestCreatePreferenceWithoutCredential(t *testing.T) {
	client := newTestClient("https://api.mercadopago.com", "")

	_, err := client.CreatePreference(context.Background(), mercadopago.PreferenceRequest{
		Title:     "3 Tokens",
		UnitPrice: 3,
	})
	assert.ErrorIs(t, err, mercadopago.ErrMissingCredential)
}

func TestCreatePreferenceGatewayRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid items"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "token-1")
	_, err := client.CreatePreference(context.Background(), mercadopago.PreferenceRequest{
		Title:     "3 Tokens",
		UnitPrice: 3,
	})

	var gatewayErr *mercadopago.GatewayError
	require.True(t, errors.As(err, &gatewayErr), "expected GatewayError, got %v", err)
	assert.Equal(t, http.StatusBadRequest, gatewayErr.StatusCode)
	assert.Equal(t, `{"message":"invalid items"}`, gatewayErr.Body)
}

func TestGetPaymentNormalizesFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/123", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 123,
			"status": "approved",
			"status_detail": "accredited",
			"external_reference": " tok-abc ",
			"description": "5 Tokens XTreino",
			"transaction_amount": 15.5,
			"payer": {"email": " Buyer@Example.COM "}
		}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "token-1")
	payment, err := client.GetPayment(context.Background(), "123")
	require.NoError(t, err)

	assert.Equal(t, "123", payment.ID)
	assert.Equal(t, "tok-abc", payment.ExternalReference, "reference is trimmed")
	assert.Equal(t, "buyer@example.com", payment.PayerEmail, "payer email is lowercased")
	assert.Equal(t, 15.5, payment.Amount)
}
