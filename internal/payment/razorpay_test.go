package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScriptServer(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(hits.Add(1)) - 1
		status := http.StatusOK
		if n < len(statuses) {
			status = statuses[n]
		}
		w.WriteHeader(status)
		w.Write([]byte("/* checkout */"))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestRazorpay_LoadCachesSuccessOnly(t *testing.T) {
	server, hits := newScriptServer(t, http.StatusServiceUnavailable, http.StatusOK)
	g := NewRazorpay(RazorpayConfig{KeyID: "rzp_test", ScriptURL: server.URL, Timeout: time.Second}, zerolog.Nop())

	err := g.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	require.NoError(t, g.Load(context.Background()))
	require.NoError(t, g.Load(context.Background()))

	assert.Equal(t, int32(2), hits.Load())
}

func TestRazorpay_OpenRequiresLoad(t *testing.T) {
	server, _ := newScriptServer(t)
	g := NewRazorpay(RazorpayConfig{KeyID: "rzp_test", ScriptURL: server.URL}, zerolog.Nop())

	_, err := g.Open(context.Background(), OpenRequest{GatewayOrderID: "order_1"})
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestRazorpay_Open(t *testing.T) {
	server, _ := newScriptServer(t)
	g := NewRazorpay(RazorpayConfig{
		KeyID:      "rzp_test",
		ScriptURL:  server.URL,
		StoreName:  "Tanariri",
		ThemeColor: "#172554",
	}, zerolog.Nop())
	require.NoError(t, g.Load(context.Background()))

	widget, err := g.Open(context.Background(), OpenRequest{
		GatewayOrderID: "order_1",
		Amount:         26250,
		Currency:       "INR",
		Customer:       Customer{Name: "Asha", Email: "asha@example.com", Contact: "9999999999"},
	})
	require.NoError(t, err)

	assert.Equal(t, "rzp_test", widget.Key)
	assert.Equal(t, "order_1", widget.OrderID)
	assert.Equal(t, int64(26250), widget.Amount)
	assert.Equal(t, "INR", widget.Currency)
	assert.Equal(t, "Tanariri", widget.Name)
	assert.Equal(t, "asha@example.com", widget.Prefill.Email)
	assert.Equal(t, "#172554", widget.Theme.Color)

	_, err = g.Open(context.Background(), OpenRequest{})
	assert.Error(t, err)
}

func TestOutcome_Valid(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		valid   bool
	}{
		{name: "complete success", outcome: Outcome{Kind: OutcomeSuccess, GatewayOrderID: "o", PaymentID: "p", Signature: "s"}, valid: true},
		{name: "success without signature", outcome: Outcome{Kind: OutcomeSuccess, GatewayOrderID: "o", PaymentID: "p"}, valid: false},
		{name: "failure", outcome: Outcome{Kind: OutcomeFailure, Reason: "card declined"}, valid: true},
		{name: "dismissed", outcome: Outcome{Kind: OutcomeDismissed}, valid: true},
		{name: "unknown kind", outcome: Outcome{Kind: "maybe"}, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.outcome.Valid())
		})
	}
}
