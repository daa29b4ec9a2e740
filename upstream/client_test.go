package upstream_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boma/quote-engine/motor"
	"github.com/boma/quote-engine/upstream"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *upstream.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return upstream.New(srv.URL)
}

func TestClient_CalculateMotorPremium(t *testing.T) {
	// GIVEN a backend returning a priced response
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/motor/premium", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"premium":40000,"total_premium":40240,"underwriter_name":"CIC"}`))
	})

	// WHEN a premium is requested
	raw, err := c.CalculateMotorPremium(context.Background(), motor.PricingRequest{
		SumInsured: 1000000, DurationDays: 365,
	})

	// THEN the payload decodes as-is
	require.NoError(t, err)
	assert.Equal(t, "40240", raw.TotalPremium.String())
	assert.Equal(t, "CIC", raw.UnderwriterName)
}

func TestClient_CalculateForUnderwriter_PinsCode(t *testing.T) {
	var gotBody string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		w.Write([]byte(`{"premium":5000}`))
	})

	_, err := c.CalculateForUnderwriter(context.Background(), motor.PricingRequest{SumInsured: 500000, DurationDays: 365}, "JUBILEE")
	require.NoError(t, err)
	assert.Contains(t, gotBody, `"underwriter_code":"JUBILEE"`)
}

func TestClient_CompareMotorPricing_NestedResult(t *testing.T) {
	// GIVEN a backend nesting pricing under "result" for one entry and
	// inlining it for another
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/motor/compare", r.URL.Path)
		w.Write([]byte(`{"results":[
			{"underwriter_code":"CIC","result":{"total_premium":42230,"underwriter_name":"CIC"}},
			{"underwriter_code":"JUBILEE","total_premium":45000,"underwriter_name":"Jubilee"}
		]}`))
	})

	resp, err := c.CompareMotorPricing(context.Background(), motor.PricingRequest{SumInsured: 1000000, DurationDays: 365}, nil)
	require.NoError(t, err)
	require.Len(t, resp.Entries, 2)

	// THEN Pricing resolves both shapes
	assert.Equal(t, "42230", resp.Entries[0].Pricing().TotalPremium.String())
	assert.Equal(t, "45000", resp.Entries[1].Pricing().TotalPremium.String())
}

func TestClient_GetUnderwriters_BothShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare array", `[{"underwriter_code":"CIC","underwriter_name":"CIC General"}]`},
		{"wrapped object", `{"underwriters":[{"underwriter_code":"CIC","underwriter_name":"CIC General"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "MOTOR_PRIVATE", r.URL.Query().Get("category"))
				assert.Equal(t, "MOTOR_PRIVATE_COMP", r.URL.Query().Get("subcategory"))
				w.Write([]byte(tt.body))
			})

			uws, err := c.GetUnderwriters(context.Background(), "MOTOR_PRIVATE", "MOTOR_PRIVATE_COMP")
			require.NoError(t, err)
			require.Len(t, uws, 1)
			assert.Equal(t, "CIC", uws[0].Code)
			assert.Equal(t, "CIC General", uws[0].Name)
		})
	}
}

func TestClient_SubmitQuotation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/motor/quotations", r.URL.Path)
		w.Write([]byte(`{"reference":"REF-2026-0001","status":"received"}`))
	})

	ack, err := c.SubmitQuotation(context.Background(), map[string]any{"sum_insured": 1000000})
	require.NoError(t, err)
	assert.Equal(t, "REF-2026-0001", ack.Reference)
	assert.Equal(t, "received", ack.Status)
}

func TestClient_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"code":"UPSTREAM_TIMEOUT","message":"rating engine unavailable"}`))
	})

	_, err := c.CalculateMotorPremium(context.Background(), motor.PricingRequest{DurationDays: 365})
	require.Error(t, err)

	var apiErr *upstream.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "UPSTREAM_TIMEOUT", apiErr.Code)
	assert.Equal(t, "rating engine unavailable", apiErr.Message)
	assert.True(t, upstream.IsServerError(err))
}

func TestClient_ClientErrorIsNotServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"sum insured is required"}`))
	})

	_, err := c.CalculateMotorPremium(context.Background(), motor.PricingRequest{DurationDays: 365})
	require.Error(t, err)
	assert.False(t, upstream.IsServerError(err))
}

func TestClient_ContextCancellation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.CalculateMotorPremium(ctx, motor.PricingRequest{DurationDays: 365})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
