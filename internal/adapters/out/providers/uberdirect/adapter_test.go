package uberdirect_test

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"deliveryhub/internal/adapters/out/providers"
	"deliveryhub/internal/adapters/out/providers/uberdirect"
	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/core/ports"
	"deliveryhub/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdapter(t *testing.T, handler http.HandlerFunc) *uberdirect.Adapter {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer uber-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return uberdirect.NewAdapter(uberdirect.Config{
		BaseURL:    srv.URL,
		CustomerID: "cus_42",
		Token:      "uber-token",
		Timeout:    time.Second,
	})
}

func reply(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}

func TestAdapter_Quote(t *testing.T) {
	t.Run("should convert minor units", func(t *testing.T) {
		a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/customers/cus_42/delivery_quotes", r.URL.Path)
			reply(w, http.StatusOK, `{"id":"dqt_1","fee":1250,"currency":"pen","dropoff_eta":"2026-03-01T18:00:00Z"}`)
		})

		quote, err := a.Quote(t.Context(), ports.AvailabilityRequest{DropOffAddress: "Av. Larco 101"})

		require.NoError(t, err)
		assert.Equal(t, "12.50", quote.Fee.Amount().StringFixed(2))
		assert.Equal(t, "PEN", quote.Fee.Currency())
		assert.Equal(t, "dqt_1", quote.ExternalID)
		require.NotNil(t, quote.DropoffEta)
	})

	t.Run("should report undeliverable address as unavailable", func(t *testing.T) {
		a := newAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
			reply(w, http.StatusBadRequest, `{"code":"address_undeliverable","message":"The specified location is not in a deliverable area."}`)
		})

		availability, err := a.CheckAvailability(t.Context(), ports.AvailabilityRequest{})
		require.NoError(t, err)
		assert.False(t, availability.Available)
		assert.Contains(t, availability.Reason, "deliverable area")

		_, err = a.Quote(t.Context(), ports.AvailabilityRequest{})
		require.ErrorIs(t, err, errs.ErrProviderUnavailable)
	})

	t.Run("should return other failures as errors", func(t *testing.T) {
		a := newAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
			reply(w, http.StatusInternalServerError, `{"code":"internal"}`)
		})

		_, err := a.CheckAvailability(t.Context(), ports.AvailabilityRequest{})

		require.Error(t, err)
	})
}

func TestAdapter_DispatchAndCancel(t *testing.T) {
	pickUp, err := delivery.NewStop("pickUp", "Cevichería Norte", "+5114445555", "Jr. Cusco 120", "", delivery.StopWindow{})
	require.NoError(t, err)
	dropOff, err := delivery.NewStop("dropOff", "Ana", "+51999888777", "Av. Larco 101", "", delivery.StopWindow{})
	require.NoError(t, err)
	fee, err := kernel.MoneyFromString("8.50", "PEN")
	require.NoError(t, err)
	d, err := delivery.NewDelivery(kernel.NewUUID(), "order_1", "rest_1", delivery.ChannelThirdParty,
		pickUp, dropOff, fee, delivery.ProviderUberDirect)
	require.NoError(t, err)

	t.Run("should create delivery", func(t *testing.T) {
		a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/customers/cus_42/deliveries", r.URL.Path)
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, d.ID().String(), body["external_id"])
			assert.Equal(t, "Av. Larco 101", body["dropoff_address"])
			reply(w, http.StatusOK, `{"id":"del_1","status":"pending","tracking_url":"https://track.uber.com/del_1","fee":910,"currency":"pen"}`)
		})

		confirmation, err := a.Dispatch(t.Context(), d)

		require.NoError(t, err)
		assert.Equal(t, "del_1", confirmation.ProviderIdentifier)
		assert.Equal(t, "https://track.uber.com/del_1", confirmation.TrackingURL)
		require.NotNil(t, confirmation.Fee)
		assert.Equal(t, "9.10", confirmation.Fee.Amount().StringFixed(2))
	})

	t.Run("should mark server errors retryable", func(t *testing.T) {
		a := newAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
			reply(w, http.StatusServiceUnavailable, `{}`)
		})

		_, err := a.Dispatch(t.Context(), d)

		require.ErrorIs(t, err, errs.ErrDispatch)
		assert.True(t, errs.IsRetryable(err))
	})

	t.Run("should cancel idempotently", func(t *testing.T) {
		a := newAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/customers/cus_42/deliveries/del_1/cancel", r.URL.Path)
			reply(w, http.StatusConflict, `{"code":"noncancelable_delivery"}`)
		})

		assert.NoError(t, a.Cancel(t.Context(), "del_1"))
	})

	t.Run("should surface refused cancel", func(t *testing.T) {
		a := newAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
			reply(w, http.StatusForbidden, `{}`)
		})

		err := a.Cancel(t.Context(), "del_1")

		require.ErrorIs(t, err, errs.ErrCancel)
		assert.False(t, errs.IsRetryable(err))
	})
}

func TestAdapter_NormalizeWebhook(t *testing.T) {
	a := uberdirect.NewAdapter(uberdirect.Config{BaseURL: "http://unused"})

	t.Run("should map delivery statuses", func(t *testing.T) {
		cases := map[string]delivery.Status{
			"pickup":          delivery.Pickup,
			"pickup_complete": delivery.PickupComplete,
			"dropoff":         delivery.Dropoff,
			"delivered":       delivery.Delivered,
			"canceled":        delivery.Cancelled,
			"returned":        delivery.Returned,
			"pending":         "",
		}
		for uberStatus, want := range cases {
			event, err := a.NormalizeWebhook([]byte(`{"kind":"event.delivery_status","delivery_id":"del_1",` +
				`"status":"` + uberStatus + `","created":"2026-03-01T17:00:00Z"}`))
			require.NoError(t, err, uberStatus)
			assert.Equal(t, want, event.Status, uberStatus)
			assert.Equal(t, delivery.ProviderUberDirect, event.Provider)
		}
	})

	t.Run("should read courier update", func(t *testing.T) {
		event, err := a.NormalizeWebhook([]byte(`{
			"event_type": "event.courier_update",
			"delivery_id": "del_1",
			"location": {"lat": -12.11, "lng": -77.02},
			"data": {"courier": {"name": "Pedro", "phone_number": "+51955111222", "img_href": "https://img/p.png"}}
		}`))

		require.NoError(t, err)
		assert.False(t, event.HasStatus())
		require.NotNil(t, event.Courier)
		assert.Equal(t, "+51955111222", event.Courier.ID())
		assert.Equal(t, "Pedro", event.Courier.Name())
		require.NotNil(t, event.Location)
		assert.InDelta(t, -12.11, event.Location.Latitude(), 1e-9)
	})

	t.Run("should reject unknown kinds and statuses", func(t *testing.T) {
		for _, p := range []string{
			`{"kind":"event.refund_request","delivery_id":"del_1"}`,
			`{"kind":"event.delivery_status","delivery_id":"del_1","status":"scheduled"}`,
			`{"kind":"event.delivery_status","status":"pickup"}`,
			`{`,
		} {
			_, err := a.NormalizeWebhook([]byte(p))
			assert.ErrorIs(t, err, errs.ErrUnrecognizedPayload, p)
		}
	})
}

func TestAdapter_StatusesReachDeliveredUnderDefaultTolerance(t *testing.T) {
	a := uberdirect.NewAdapter(uberdirect.Config{BaseURL: "http://unused"})
	registry, err := providers.NewRegistry(
		providers.NewRetryingAdapter(a, providers.RetryConfig{MaxAttempts: 1}, slog.New(slog.DiscardHandler)))
	require.NoError(t, err)

	base, err := delivery.NewSkipTolerance()
	require.NoError(t, err)
	tolerance, err := registry.Tolerance(base)
	require.NoError(t, err)
	policy := tolerance.PolicyFor(delivery.ProviderUberDirect)

	pickUp, err := delivery.NewStop("pickUp", "Cevichería Norte", "", "Jr. Cusco 120", "", delivery.StopWindow{})
	require.NoError(t, err)
	dropOff, err := delivery.NewStop("dropOff", "Ana", "", "Av. Larco 101", "", delivery.StopWindow{})
	require.NoError(t, err)
	fee, err := kernel.MoneyFromString("8.50", "PEN")
	require.NoError(t, err)
	d, err := delivery.NewDelivery(kernel.NewUUID(), "order_1", "rest_1", delivery.ChannelThirdParty,
		pickUp, dropOff, fee, delivery.ProviderUberDirect)
	require.NoError(t, err)

	for i, uberStatus := range []string{"pickup", "pickup_complete", "dropoff", "delivered"} {
		event, err := a.NormalizeWebhook([]byte(fmt.Sprintf(
			`{"kind":"event.delivery_status","delivery_id":"del_1","status":%q,"created":"2026-03-01T17:0%d:00Z"}`,
			uberStatus, i)))
		require.NoError(t, err, uberStatus)

		require.NoError(t, d.ApplyStatus(event.Status, policy, event.OccurredAt), uberStatus)
	}

	assert.Equal(t, delivery.Delivered, d.Status())

	t.Run("a real skip is still rejected", func(t *testing.T) {
		_, err := delivery.Transition(delivery.Pickup, delivery.Delivered, policy)
		require.ErrorIs(t, err, errs.ErrInvalidTransition)
	})
}
