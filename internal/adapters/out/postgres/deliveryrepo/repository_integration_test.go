package deliveryrepo_test

import (
	"context"
	"testing"
	"time"

	"deliveryhub/internal/adapters/out/postgres/deliveryrepo"
	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate any) {
	m.Called(id, aggregate)
}

type DeliveryRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *deliveryrepo.GormDeliveryRepository
	tracker    *MockAggregateTracker
}

func (suite *DeliveryRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&deliveryrepo.DeliveryDTO{}))
}

func (suite *DeliveryRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE deliveries").Error)

	suite.tracker = new(MockAggregateTracker)
	suite.tracker.On("TrackAggregate", mock.Anything, mock.Anything).Return()
	suite.repository = deliveryrepo.NewGormDeliveryRepository(suite.db, suite.tracker)
}

func (suite *DeliveryRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *DeliveryRepositoryIntegrationTestSuite) newDelivery(orderID string, provider delivery.Provider) *delivery.Delivery {
	ready := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pickUp, err := delivery.NewStop("pickUp", "Pollos Ana", "+5101", "Jr. Cusco 120", "door 2",
		delivery.StopWindow{ReadyTime: &ready})
	suite.Require().NoError(err)
	dropOff, err := delivery.NewStop("dropOff", "Rosa", "+5102", "Av. Larco 101", "", delivery.StopWindow{})
	suite.Require().NoError(err)
	fees, err := kernel.MoneyFromString("8.50", "PEN")
	suite.Require().NoError(err)

	channel := delivery.ChannelNative
	if provider == delivery.ProviderUnset {
		channel = delivery.ChannelThirdParty
	}
	d, err := delivery.NewDelivery(kernel.NewUUID(), orderID, "rest_1", channel, pickUp, dropOff, fees, provider)
	suite.Require().NoError(err)
	return d
}

func (suite *DeliveryRepositoryIntegrationTestSuite) TestAdd_TracksAggregateAndRoundTrips() {
	ctx := context.Background()
	d := suite.newDelivery("order_1", delivery.ProviderChaskis)

	suite.Require().NoError(suite.repository.Add(ctx, d))
	suite.tracker.AssertCalled(suite.T(), "TrackAggregate", d.ID(), d)

	stored, err := suite.repository.Get(ctx, d.ID())
	suite.Require().NoError(err)
	suite.True(stored.IsEqual(d))
	suite.Equal("order_1", stored.OrderID())
	suite.Equal(delivery.ProviderChaskis, stored.Provider())
	suite.Equal(delivery.Pending, stored.Status())
	suite.Equal("8.50 PEN", stored.Fees().String())
	suite.Equal("door 2", stored.PickUp().Note())
	suite.Require().NotNil(stored.PickUp().ReadyTime())
	suite.Nil(stored.Courier())
	suite.Nil(stored.Refund())
}

func (suite *DeliveryRepositoryIntegrationTestSuite) TestAdd_SecondDeliveryForOrderFails() {
	ctx := context.Background()
	suite.Require().NoError(suite.repository.Add(ctx, suite.newDelivery("order_1", delivery.ProviderChaskis)))

	err := suite.repository.Add(ctx, suite.newDelivery("order_1", delivery.ProviderStore))

	suite.Require().ErrorIs(err, errs.ErrObjectExists)
}

func (suite *DeliveryRepositoryIntegrationTestSuite) TestUpdate_PersistsLifecycleState() {
	ctx := context.Background()
	d := suite.newDelivery("order_1", delivery.ProviderChaskis)
	suite.Require().NoError(suite.repository.Add(ctx, d))

	suite.Require().NoError(d.ConfirmDispatch(delivery.DispatchConfirmation{
		ProviderIdentifier: "chk_1",
		TrackingURL:        "https://track.example/chk_1",
	}))
	suite.Require().NoError(d.ApplyStatus(delivery.Pickup, delivery.StrictPolicy, time.Now()))
	courier, err := delivery.NewCourier("drv_1", "Luis", "+51911", "")
	suite.Require().NoError(err)
	suite.Require().NoError(d.AssignCourier(courier))
	point, err := kernel.NewGeoPoint(-12.0464, -77.0428)
	suite.Require().NoError(err)
	_, err = d.UpdateCourierLocation(point, time.Now())
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.Update(ctx, d))

	stored, err := suite.repository.GetByProviderIdentifier(ctx, delivery.ProviderChaskis, "chk_1")
	suite.Require().NoError(err)
	suite.True(stored.IsDispatched())
	suite.Equal(delivery.Pickup, stored.Status())
	suite.Equal("https://track.example/chk_1", stored.TrackingURL())
	suite.Require().NotNil(stored.Courier())
	suite.Equal("Luis", stored.Courier().Name())
	suite.Require().NotNil(stored.Courier().Location())
	suite.True(stored.Courier().Location().IsEqual(point))
	suite.NotNil(stored.CourierLocationAt())
}

func (suite *DeliveryRepositoryIntegrationTestSuite) TestUpdate_PersistsRefund() {
	ctx := context.Background()
	d := suite.newDelivery("order_1", delivery.ProviderUnset)
	suite.Require().NoError(suite.repository.Add(ctx, d))

	suite.Require().NoError(d.Cancel("no courier"))
	refund, err := delivery.NewRefund(d.Fees(), "courier never arrived", time.Time{})
	suite.Require().NoError(err)
	suite.Require().NoError(d.AttachRefund(refund))
	suite.Require().NoError(suite.repository.Update(ctx, d))

	stored, err := suite.repository.GetByOrderID(ctx, "order_1")
	suite.Require().NoError(err)
	suite.Equal(delivery.Cancelled, stored.Status())
	suite.Require().NotNil(stored.Refund())
	suite.Equal("8.50 PEN", stored.Refund().Amount().String())
	suite.Equal("courier never arrived", stored.Refund().Reason())
}

func (suite *DeliveryRepositoryIntegrationTestSuite) TestUpdate_UnknownDeliveryFails() {
	err := suite.repository.Update(context.Background(), suite.newDelivery("order_9", delivery.ProviderStore))

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *DeliveryRepositoryIntegrationTestSuite) TestGet_NotFound() {
	ctx := context.Background()

	_, err := suite.repository.Get(ctx, kernel.NewUUID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)

	_, err = suite.repository.GetByOrderID(ctx, "missing")
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)

	_, err = suite.repository.GetByProviderIdentifier(ctx, delivery.ProviderUberDirect, "del_x")
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *DeliveryRepositoryIntegrationTestSuite) TestGetAwaitingDispatch() {
	ctx := context.Background()

	awaiting := suite.newDelivery("order_1", delivery.ProviderChaskis)
	unassigned := suite.newDelivery("order_2", delivery.ProviderUnset)
	dispatched := suite.newDelivery("order_3", delivery.ProviderChaskis)
	suite.Require().NoError(dispatched.ConfirmDispatch(delivery.DispatchConfirmation{ProviderIdentifier: "chk_3"}))
	failed := suite.newDelivery("order_4", delivery.ProviderChaskis)
	suite.Require().NoError(failed.MarkFailed("gave up"))

	for _, d := range []*delivery.Delivery{awaiting, unassigned, dispatched, failed} {
		suite.Require().NoError(suite.repository.Add(ctx, d))
	}

	result, err := suite.repository.GetAwaitingDispatch(ctx, 10)

	suite.Require().NoError(err)
	suite.Require().Len(result, 1)
	suite.True(result[0].IsEqual(awaiting))

	_, err = suite.repository.GetAwaitingDispatch(ctx, 0)
	suite.Require().ErrorIs(err, errs.ErrValueIsOutOfRange)
}

func (suite *DeliveryRepositoryIntegrationTestSuite) TestGetAwaitingDispatch_DoesNotSkipLockedRows() {
	ctx := context.Background()
	awaiting := suite.newDelivery("order_1", delivery.ProviderChaskis)
	suite.Require().NoError(suite.repository.Add(ctx, awaiting))

	tx := suite.db.Begin()
	suite.Require().NoError(tx.Error)
	defer tx.Rollback()

	locked, err := deliveryrepo.NewGormDeliveryRepository(tx, suite.tracker).Get(ctx, awaiting.ID())
	suite.Require().NoError(err)
	suite.True(locked.IsEqual(awaiting))

	result, err := suite.repository.GetAwaitingDispatch(ctx, 10)

	suite.Require().NoError(err)
	suite.Require().Len(result, 1)
	suite.True(result[0].IsEqual(awaiting))
}

func (suite *DeliveryRepositoryIntegrationTestSuite) TestGet_LockSerializesLookupsByIDAndProviderIdentifier() {
	ctx := context.Background()

	d := suite.newDelivery("order_1", delivery.ProviderChaskis)
	suite.Require().NoError(d.ConfirmDispatch(delivery.DispatchConfirmation{ProviderIdentifier: "chk_1"}))
	suite.Require().NoError(suite.repository.Add(ctx, d))

	byID := suite.db.Begin()
	suite.Require().NoError(byID.Error)
	_, err := deliveryrepo.NewGormDeliveryRepository(byID, suite.tracker).Get(ctx, d.ID())
	suite.Require().NoError(err)

	done := make(chan error, 1)
	go func() {
		byIdentifier := suite.db.Begin()
		if byIdentifier.Error != nil {
			done <- byIdentifier.Error
			return
		}
		defer byIdentifier.Rollback()
		_, err := deliveryrepo.NewGormDeliveryRepository(byIdentifier, suite.tracker).
			GetByProviderIdentifier(ctx, delivery.ProviderChaskis, "chk_1")
		done <- err
	}()

	select {
	case err = <-done:
		suite.Failf("lookup by provider identifier did not wait for the lock", "err: %v", err)
	case <-time.After(300 * time.Millisecond):
	}

	suite.Require().NoError(byID.Commit().Error)

	select {
	case err = <-done:
		suite.Require().NoError(err)
	case <-time.After(5 * time.Second):
		suite.Fail("lookup by provider identifier still blocked after commit")
	}
}

func (suite *DeliveryRepositoryIntegrationTestSuite) TestGetActiveByProvider() {
	ctx := context.Background()

	active := suite.newDelivery("order_1", delivery.ProviderUberDirect)
	suite.Require().NoError(active.ConfirmDispatch(delivery.DispatchConfirmation{ProviderIdentifier: "del_1"}))
	delivered := suite.newDelivery("order_2", delivery.ProviderUberDirect)
	suite.Require().NoError(delivered.ConfirmDispatch(delivery.DispatchConfirmation{ProviderIdentifier: "del_2"}))
	suite.Require().NoError(delivered.ApplyStatus(delivery.Delivered, delivery.TransitionPolicy{AllowSkip: true}, time.Now()))
	other := suite.newDelivery("order_3", delivery.ProviderChaskis)
	suite.Require().NoError(other.ConfirmDispatch(delivery.DispatchConfirmation{ProviderIdentifier: "chk_3"}))
	notDispatched := suite.newDelivery("order_4", delivery.ProviderUberDirect)

	for _, d := range []*delivery.Delivery{active, delivered, other, notDispatched} {
		suite.Require().NoError(suite.repository.Add(ctx, d))
	}

	result, err := suite.repository.GetActiveByProvider(ctx, delivery.ProviderUberDirect)

	suite.Require().NoError(err)
	suite.Require().Len(result, 1)
	suite.Equal("del_1", result[0].ProviderIdentifier())
}

func TestDeliveryRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(DeliveryRepositoryIntegrationTestSuite))
}
