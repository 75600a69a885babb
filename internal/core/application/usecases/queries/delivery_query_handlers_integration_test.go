package queries_test

import (
	"context"
	"testing"
	"time"

	"deliveryhub/internal/adapters/out/postgres/deliveryrepo"
	"deliveryhub/internal/core/application/usecases/queries"
	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type DeliveryQueryHandlersTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	repo      *deliveryrepo.GormDeliveryRepository
}

func (suite *DeliveryQueryHandlersTestSuite) SetupSuite() {
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

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&deliveryrepo.DeliveryDTO{}))
	suite.repo = deliveryrepo.NewGormDeliveryRepository(db, noopTracker{})
}

func (suite *DeliveryQueryHandlersTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *DeliveryQueryHandlersTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE deliveries").Error)
}

func (suite *DeliveryQueryHandlersTestSuite) addDelivery(orderID, restaurantID string, provider delivery.Provider) *delivery.Delivery {
	pickUp, err := delivery.NewStop("pickUp", "Pollos Ana", "", "Jr. Cusco 120", "", delivery.StopWindow{})
	suite.Require().NoError(err)
	dropOff, err := delivery.NewStop("dropOff", "Rosa", "", "Av. Larco 101", "", delivery.StopWindow{})
	suite.Require().NoError(err)
	fees, err := kernel.MoneyFromString("8.50", "PEN")
	suite.Require().NoError(err)

	d, err := delivery.NewDelivery(kernel.NewUUID(), orderID, restaurantID, delivery.ChannelNative,
		pickUp, dropOff, fees, provider)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repo.Add(context.Background(), d))
	return d
}

func (suite *DeliveryQueryHandlersTestSuite) TestGetDelivery_ByIDAndOrder() {
	ctx := context.Background()
	d := suite.addDelivery("order_1", "rest_1", delivery.ProviderChaskis)

	eta := time.Now().Add(20 * time.Minute)
	suite.Require().NoError(d.ConfirmDispatch(delivery.DispatchConfirmation{
		ProviderIdentifier: "chk_1",
		TrackingURL:        "https://track.example/chk_1",
		DropoffEta:         &eta,
	}))
	suite.Require().NoError(d.ApplyStatus(delivery.Pickup, delivery.StrictPolicy, time.Now()))
	courier, err := delivery.NewCourier("drv_1", "Luis", "+51911", "")
	suite.Require().NoError(err)
	suite.Require().NoError(d.AssignCourier(courier))
	suite.Require().NoError(suite.repo.Update(ctx, d))

	handler := queries.NewGetDeliveryQueryHandler(suite.db)

	byID, err := queries.NewGetDeliveryQuery(d.ID())
	suite.Require().NoError(err)
	view, err := handler.Handle(ctx, byID)
	suite.Require().NoError(err)
	suite.Equal(d.ID(), view.ID)
	suite.Equal(delivery.Pickup, view.Status)
	suite.Equal(delivery.ProviderChaskis, view.Provider)
	suite.Equal("chk_1", view.ProviderIdentifier)
	suite.Equal("8.50 PEN", view.Fee.String())
	suite.Require().NotNil(view.DropOffEta)
	suite.Require().NotNil(view.Courier)
	suite.Equal("Luis", view.Courier.Name)
	suite.Nil(view.Courier.Location)
	suite.Nil(view.Refund)

	byOrder, err := queries.NewGetDeliveryByOrderQuery("order_1")
	suite.Require().NoError(err)
	view, err = handler.Handle(ctx, byOrder)
	suite.Require().NoError(err)
	suite.Equal(d.ID(), view.ID)
}

func (suite *DeliveryQueryHandlersTestSuite) TestGetDelivery_NotFound() {
	query, err := queries.NewGetDeliveryByOrderQuery("missing")
	suite.Require().NoError(err)

	_, err = queries.NewGetDeliveryQueryHandler(suite.db).Handle(context.Background(), query)

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *DeliveryQueryHandlersTestSuite) TestGetActiveDeliveries_FiltersTerminalAndRestaurant() {
	ctx := context.Background()
	first := suite.addDelivery("order_1", "rest_1", delivery.ProviderChaskis)
	second := suite.addDelivery("order_2", "rest_2", delivery.ProviderStore)
	cancelled := suite.addDelivery("order_3", "rest_1", delivery.ProviderChaskis)
	suite.Require().NoError(cancelled.Cancel("duplicate"))
	suite.Require().NoError(suite.repo.Update(ctx, cancelled))

	handler := queries.NewGetActiveDeliveriesQueryHandler(suite.db)

	all, err := handler.Handle(ctx, queries.NewGetActiveDeliveriesQuery(""))
	suite.Require().NoError(err)
	suite.Require().Len(all, 2)
	ids := []kernel.UUID{all[0].ID, all[1].ID}
	suite.ElementsMatch([]kernel.UUID{first.ID(), second.ID()}, ids)

	scoped, err := handler.Handle(ctx, queries.NewGetActiveDeliveriesQuery("rest_1"))
	suite.Require().NoError(err)
	suite.Require().Len(scoped, 1)
	suite.Equal(first.ID(), scoped[0].ID)
}

func (suite *DeliveryQueryHandlersTestSuite) TestGetActiveDeliveries_EmptyTable() {
	result, err := queries.NewGetActiveDeliveriesQueryHandler(suite.db).
		Handle(context.Background(), queries.NewGetActiveDeliveriesQuery(""))

	suite.Require().NoError(err)
	suite.NotNil(result)
	suite.Empty(result)
}

func (suite *DeliveryQueryHandlersTestSuite) TestHandle_InvalidQuery() {
	_, err := queries.NewGetActiveDeliveriesQueryHandler(suite.db).
		Handle(context.Background(), queries.GetActiveDeliveriesQuery{})

	suite.Require().ErrorIs(err, queries.ErrGetActiveDeliveriesQueryIsNotConstructed)
}

func TestDeliveryQueryHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(DeliveryQueryHandlersTestSuite))
}

// noopTracker satisfies the repository's aggregate tracker; query tests publish nothing.
type noopTracker struct{}

func (noopTracker) TrackAggregate(kernel.UUID, any) {}
