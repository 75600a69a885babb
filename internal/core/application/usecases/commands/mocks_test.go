package commands_test

import (
	"context"
	"errors"
	"testing"

	"deliveryhub/internal/core/application/usecases/commands"
	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/core/domain/model/restaurant"
	"deliveryhub/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDeliveryRepository struct{ mock.Mock }

func (m *MockDeliveryRepository) Add(ctx context.Context, d *delivery.Delivery) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDeliveryRepository) Update(ctx context.Context, d *delivery.Delivery) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDeliveryRepository) Get(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*delivery.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) GetByOrderID(ctx context.Context, orderID string) (*delivery.Delivery, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*delivery.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) GetByProviderIdentifier(
	ctx context.Context,
	provider delivery.Provider,
	providerIdentifier string,
) (*delivery.Delivery, error) {
	args := m.Called(ctx, provider, providerIdentifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*delivery.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) GetAwaitingDispatch(ctx context.Context, limit int) ([]*delivery.Delivery, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*delivery.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) GetActiveByProvider(
	ctx context.Context,
	provider delivery.Provider,
) ([]*delivery.Delivery, error) {
	args := m.Called(ctx, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*delivery.Delivery), args.Error(1)
}

type MockSettingsRepository struct{ mock.Mock }

func (m *MockSettingsRepository) Get(ctx context.Context, restaurantID string) (restaurant.Settings, error) {
	args := m.Called(ctx, restaurantID)
	return args.Get(0).(restaurant.Settings), args.Error(1)
}

func (m *MockSettingsRepository) Save(ctx context.Context, settings restaurant.Settings) error {
	return m.Called(ctx, settings).Error(0)
}

// MockUoW satisfies every unit of work shape used by the handlers.
type MockUoW struct {
	mock.Mock
	deliveries *MockDeliveryRepository
	settings   *MockSettingsRepository
}

func newMockUoW() *MockUoW {
	return &MockUoW{deliveries: new(MockDeliveryRepository), settings: new(MockSettingsRepository)}
}

func (m *MockUoW) Begin(ctx context.Context) error    { return m.Called(ctx).Error(0) }
func (m *MockUoW) Commit(ctx context.Context) error   { return m.Called(ctx).Error(0) }
func (m *MockUoW) Rollback(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockUoW) DeliveryRepository() ports.DeliveryRepository { return m.deliveries }

func (m *MockUoW) RestaurantSettingsRepository() ports.RestaurantSettingsRepository {
	return m.settings
}

// expectTx allows a transaction that commits (or not) and is always rolled back by defer.
func (m *MockUoW) expectTx(commit bool) {
	m.On("Begin", mock.Anything).Return(nil)
	if commit {
		m.On("Commit", mock.Anything).Return(nil).Once()
	}
	m.On("Rollback", mock.Anything).Return(nil)
}

type uowFactory struct{ uow *MockUoW }

func (f uowFactory) Create() commands.UoW { return f.uow }

type deliveryUoWFactory struct{ uow *MockUoW }

func (f deliveryUoWFactory) Create() commands.DeliveryUoW { return f.uow }

type settingsUoWFactory struct{ uow *MockUoW }

func (f settingsUoWFactory) Create() commands.SettingsUoW { return f.uow }

type MockProviderAdapter struct{ mock.Mock }

func (m *MockProviderAdapter) Provider() delivery.Provider {
	return m.Called().Get(0).(delivery.Provider)
}

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

var errNoAdapter = errors.New("no adapter registered")

// staticRegistry maps providers to adapters without expectations.
type staticRegistry map[delivery.Provider]ports.ProviderAdapter

func (r staticRegistry) Adapter(p delivery.Provider) (ports.ProviderAdapter, error) {
	if a, ok := r[p]; ok {
		return a, nil
	}
	return nil, errNoAdapter
}

func (r staticRegistry) Poller(delivery.Provider) (ports.StatusPoller, bool) { return nil, false }

func (r staticRegistry) Providers() []delivery.Provider {
	providers := make([]delivery.Provider, 0, len(r))
	for p := range r {
		providers = append(providers, p)
	}
	return providers
}

func mustStop(t *testing.T, prefix, address string) delivery.Stop {
	t.Helper()
	s, err := delivery.NewStop(prefix, "Ana", "+51999888777", address, "", delivery.StopWindow{})
	require.NoError(t, err)
	return s
}

func mustMoney(t *testing.T, amount string) kernel.Money {
	t.Helper()
	m, err := kernel.MoneyFromString(amount, "PEN")
	require.NoError(t, err)
	return m
}

func newDelivery(t *testing.T, channel delivery.Channel, provider delivery.Provider) *delivery.Delivery {
	t.Helper()
	d, err := delivery.NewDelivery(kernel.NewUUID(), "order_1", "rest_1", channel,
		mustStop(t, "pickUp", "Jr. Cusco 120"), mustStop(t, "dropOff", "Av. Larco 101"),
		mustMoney(t, "8.50"), provider)
	require.NoError(t, err)
	return d
}

// restore returns an independent copy, the way a repository hands out a fresh aggregate per read.
func restore(t *testing.T, d *delivery.Delivery) *delivery.Delivery {
	t.Helper()
	c, err := delivery.RestoreDelivery(d.Snapshot())
	require.NoError(t, err)
	return c
}
