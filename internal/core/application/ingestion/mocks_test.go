package ingestion_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"deliveryhub/internal/core/application/usecases/commands"
	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/core/ports"
	"deliveryhub/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProviderAdapter struct {
	mock.Mock
	provider delivery.Provider
}

func (m *MockProviderAdapter) Provider() delivery.Provider { return m.provider }

func (m *MockProviderAdapter) CheckAvailability(ctx context.Context, req ports.AvailabilityRequest) (ports.Availability, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(ports.Availability), args.Error(1)
}

func (m *MockProviderAdapter) Quote(ctx context.Context, req ports.AvailabilityRequest) (ports.Quote, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(ports.Quote), args.Error(1)
}

func (m *MockProviderAdapter) Dispatch(ctx context.Context, d *delivery.Delivery) (delivery.DispatchConfirmation, error) {
	args := m.Called(ctx, d)
	return args.Get(0).(delivery.DispatchConfirmation), args.Error(1)
}

func (m *MockProviderAdapter) Cancel(ctx context.Context, providerIdentifier string) error {
	return m.Called(ctx, providerIdentifier).Error(0)
}

func (m *MockProviderAdapter) NormalizeWebhook(payload []byte) (ports.ProviderEvent, error) {
	args := m.Called(payload)
	return args.Get(0).(ports.ProviderEvent), args.Error(1)
}

type MockStatusPoller struct {
	mock.Mock
}

func (m *MockStatusPoller) Poll(ctx context.Context, providerIdentifier string) (ports.ProviderEvent, error) {
	args := m.Called(ctx, providerIdentifier)
	return args.Get(0).(ports.ProviderEvent), args.Error(1)
}

type fakeRegistry struct {
	adapters map[delivery.Provider]ports.ProviderAdapter
	pollers  map[delivery.Provider]ports.StatusPoller
}

func (r fakeRegistry) Adapter(provider delivery.Provider) (ports.ProviderAdapter, error) {
	a, ok := r.adapters[provider]
	if !ok {
		return nil, errs.NewObjectNotFoundError("provider adapter", provider)
	}
	return a, nil
}

func (r fakeRegistry) Poller(provider delivery.Provider) (ports.StatusPoller, bool) {
	p, ok := r.pollers[provider]
	return p, ok
}

func (r fakeRegistry) Providers() []delivery.Provider {
	return delivery.Providers()
}

// recordingApplier stores applied events and answers with errors keyed by status.
type recordingApplier struct {
	mu      sync.Mutex
	applied []ports.ProviderEvent
	errFor  map[delivery.Status]error
}

func (a *recordingApplier) Handle(_ context.Context, command commands.ApplyProviderEventCommand) error {
	event := command.Event()
	if err, ok := a.errFor[event.Status]; ok {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.applied = append(a.applied, event)
	return nil
}

func (a *recordingApplier) Applied() []ports.ProviderEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]ports.ProviderEvent(nil), a.applied...)
}

type MockDeliveryRepository struct {
	mock.Mock
}

func (m *MockDeliveryRepository) Add(ctx context.Context, d *delivery.Delivery) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDeliveryRepository) Update(ctx context.Context, d *delivery.Delivery) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDeliveryRepository) Get(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*delivery.Delivery)
	return d, args.Error(1)
}

func (m *MockDeliveryRepository) GetByOrderID(ctx context.Context, orderID string) (*delivery.Delivery, error) {
	args := m.Called(ctx, orderID)
	d, _ := args.Get(0).(*delivery.Delivery)
	return d, args.Error(1)
}

func (m *MockDeliveryRepository) GetByProviderIdentifier(
	ctx context.Context,
	provider delivery.Provider,
	providerIdentifier string,
) (*delivery.Delivery, error) {
	args := m.Called(ctx, provider, providerIdentifier)
	d, _ := args.Get(0).(*delivery.Delivery)
	return d, args.Error(1)
}

func (m *MockDeliveryRepository) GetAwaitingDispatch(ctx context.Context, limit int) ([]*delivery.Delivery, error) {
	args := m.Called(ctx, limit)
	ds, _ := args.Get(0).([]*delivery.Delivery)
	return ds, args.Error(1)
}

func (m *MockDeliveryRepository) GetActiveByProvider(
	ctx context.Context,
	provider delivery.Provider,
) ([]*delivery.Delivery, error) {
	args := m.Called(ctx, provider)
	ds, _ := args.Get(0).([]*delivery.Delivery)
	return ds, args.Error(1)
}

// readOnlyUoW is enough for the poller, which only reads outside a transaction.
type readOnlyUoW struct {
	repo *MockDeliveryRepository
}

func (u readOnlyUoW) Begin(context.Context) error    { return nil }
func (u readOnlyUoW) Commit(context.Context) error   { return nil }
func (u readOnlyUoW) Rollback(context.Context) error { return nil }

func (u readOnlyUoW) DeliveryRepository() ports.DeliveryRepository { return u.repo }

type readOnlyUoWFactory struct {
	repo *MockDeliveryRepository
}

func (f readOnlyUoWFactory) Create() commands.DeliveryUoW { return readOnlyUoW(f) }

func dispatchedDelivery(t *testing.T, identifier string, status delivery.Status) *delivery.Delivery {
	t.Helper()
	pickUp, err := delivery.NewStop("pickUp", "Cevichería Norte", "", "Jr. Cusco 120", "", delivery.StopWindow{})
	require.NoError(t, err)
	dropOff, err := delivery.NewStop("dropOff", "Ana", "+51999888777", "Av. Larco 101", "", delivery.StopWindow{})
	require.NoError(t, err)
	fee, err := kernel.MoneyFromString("8.50", "PEN")
	require.NoError(t, err)

	d, err := delivery.NewDelivery(kernel.NewUUID(), "order_"+identifier, "rest_1", delivery.ChannelNative,
		pickUp, dropOff, fee, delivery.ProviderChaskis)
	require.NoError(t, err)
	require.NoError(t, d.ConfirmDispatch(delivery.DispatchConfirmation{ProviderIdentifier: identifier}))
	if status != delivery.Pending {
		require.NoError(t, d.ApplyStatus(status, delivery.TransitionPolicy{AllowSkip: true}, time.Time{}))
	}
	d.ClearDomainEvents()
	return d
}

func mustPoint(t *testing.T) kernel.GeoPoint {
	t.Helper()
	p, err := kernel.NewGeoPoint(-12.1211, -77.0297)
	require.NoError(t, err)
	return p
}
