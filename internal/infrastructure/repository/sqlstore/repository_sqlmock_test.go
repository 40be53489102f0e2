package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/riskibarqy/plus-predictor/internal/domain/fixture"
	"github.com/riskibarqy/plus-predictor/internal/domain/league"
	"github.com/riskibarqy/plus-predictor/internal/domain/shop"
	"github.com/riskibarqy/plus-predictor/internal/domain/team"
)

type RepositorySQLMockSuite struct {
	suite.Suite
	db   *sqlx.DB
	mock sqlmock.Sqlmock
	ctx  context.Context
	at   time.Time
}

func TestRepositorySQLMockSuite(t *testing.T) {
	suite.Run(t, new(RepositorySQLMockSuite))
}

func (s *RepositorySQLMockSuite) SetupTest() {
	mockDB, mock, err := sqlmock.New()
	require.NoError(s.T(), err)

	s.db = sqlx.NewDb(mockDB, "sqlmock")
	s.mock = mock
	s.ctx = context.Background()
	s.at = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
}

func (s *RepositorySQLMockSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
	s.db.Close()
}

func (s *RepositorySQLMockSuite) TestPaymentTransition_PaidMarksOrderInSameTx() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`^UPDATE shop_payments SET status = \?, updated_at = \?, paid_at = \? WHERE id = \? AND status = \?$`).
		WithArgs(shop.PaymentPaid, sqlmock.AnyArg(), sqlmock.AnyArg(), "pay-1", shop.PaymentPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(`^UPDATE shop_orders SET status = \?, updated_at = \? WHERE id = \(SELECT order_id FROM shop_payments WHERE id = \?\) AND status = \?$`).
		WithArgs(shop.OrderPaid, sqlmock.AnyArg(), "pay-1", shop.OrderPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(`^UPDATE shop_payments SET status = \?, updated_at = \? WHERE order_id = \(SELECT order_id FROM shop_payments WHERE id = \?\) AND status = \? AND id <> \?$`).
		WithArgs(shop.PaymentExpired, sqlmock.AnyArg(), "pay-1", shop.PaymentPending, "pay-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	applied, err := NewPaymentRepository(s.db).Transition(s.ctx, shop.Transition{PaymentID: "pay-1", To: shop.PaymentPaid, At: s.at})
	s.Require().NoError(err)
	s.True(applied)
}

func (s *RepositorySQLMockSuite) TestPaymentTransition_PaidOnClosedOrderRollsBack() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`^UPDATE shop_payments SET status = \?, updated_at = \?, paid_at = \? WHERE id = \? AND status = \?$`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(`^UPDATE shop_orders SET status = \?, updated_at = \? WHERE id = \(SELECT order_id FROM shop_payments WHERE id = \?\) AND status = \?$`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectRollback()

	applied, err := NewPaymentRepository(s.db).Transition(s.ctx, shop.Transition{PaymentID: "pay-1", To: shop.PaymentPaid, At: s.at})
	s.Require().ErrorIs(err, shop.ErrOrderNotPending)
	s.False(applied)
}

func (s *RepositorySQLMockSuite) TestOrderCancel_ExpiresPendingPaymentsInSameTx() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`^UPDATE shop_orders SET status = \?, updated_at = \? WHERE id = \? AND status = \?$`).
		WithArgs(shop.OrderCancelled, sqlmock.AnyArg(), "ord-1", shop.OrderPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(`^UPDATE shop_payments SET status = \?, updated_at = \? WHERE order_id = \? AND status = \?$`).
		WithArgs(shop.PaymentExpired, sqlmock.AnyArg(), "ord-1", shop.PaymentPending).
		WillReturnResult(sqlmock.NewResult(0, 2))
	s.mock.ExpectQuery(`^SELECT \* FROM shop_order_items WHERE order_id = \?$`).
		WithArgs("ord-1").
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "position", "product_id", "name", "unit_price_cents", "quantity"}))
	s.mock.ExpectCommit()

	cancelled, err := NewOrderRepository(s.db).Cancel(s.ctx, "ord-1", s.at)
	s.Require().NoError(err)
	s.True(cancelled)
}

func (s *RepositorySQLMockSuite) TestOrderMarkPaid_ExpireFailureRollsBack() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`^UPDATE shop_orders SET status = \?, updated_at = \? WHERE id = \? AND status = \?$`).
		WithArgs(shop.OrderPaid, sqlmock.AnyArg(), "ord-1", shop.OrderPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(`^UPDATE shop_payments SET status = \?, updated_at = \? WHERE order_id = \? AND status = \?$`).
		WillReturnError(errors.New("disk I/O error"))
	s.mock.ExpectRollback()

	_, err := NewOrderRepository(s.db).MarkPaid(s.ctx, "ord-1", s.at)
	s.Require().ErrorContains(err, "expire pending payments")
}

func (s *RepositorySQLMockSuite) TestPaymentTransition_LostRaceLeavesOrderAlone() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`^UPDATE shop_payments SET status = \?, updated_at = \?, paid_at = \? WHERE id = \? AND status = \?$`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectCommit()

	applied, err := NewPaymentRepository(s.db).Transition(s.ctx, shop.Transition{PaymentID: "pay-1", To: shop.PaymentPaid, At: s.at})
	s.Require().NoError(err)
	s.False(applied)
}

func (s *RepositorySQLMockSuite) TestPaymentTransition_ExpiredDoesNotTouchOrder() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`^UPDATE shop_payments SET status = \?, updated_at = \? WHERE id = \? AND status = \?$`).
		WithArgs(shop.PaymentExpired, sqlmock.AnyArg(), "pay-1", shop.PaymentPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	applied, err := NewPaymentRepository(s.db).Transition(s.ctx, shop.Transition{PaymentID: "pay-1", To: shop.PaymentExpired, At: s.at})
	s.Require().NoError(err)
	s.True(applied)
}

func (s *RepositorySQLMockSuite) TestOrderCreate_InsufficientStockRollsBack() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`^UPDATE shop_products SET stock = stock - \?, updated_at = \? WHERE id = \? AND active = \? AND stock >= \?$`).
		WithArgs(3, sqlmock.AnyArg(), "prod-1", true, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery(`^SELECT active FROM shop_products WHERE id = \?$`).
		WithArgs("prod-1").
		WillReturnRows(sqlmock.NewRows([]string{"active"}).AddRow(true))
	s.mock.ExpectRollback()

	err := NewOrderRepository(s.db).Create(s.ctx, shop.Order{
		ID:        "ord-1",
		Items:     []shop.OrderItem{{ProductID: "prod-1", Name: "Scarf", UnitPriceCents: 1490, Quantity: 3}},
		CreatedAt: s.at,
	})
	s.Require().Error(err)
	s.True(errors.Is(err, shop.ErrInsufficientStock))
}

func (s *RepositorySQLMockSuite) TestOrderCreate_InactiveProduct() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`^UPDATE shop_products SET stock`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectQuery(`^SELECT active FROM shop_products WHERE id = \?$`).
		WillReturnRows(sqlmock.NewRows([]string{"active"}).AddRow(false))
	s.mock.ExpectRollback()

	err := NewOrderRepository(s.db).Create(s.ctx, shop.Order{
		ID:    "ord-1",
		Items: []shop.OrderItem{{ProductID: "prod-1", Quantity: 1}},
	})
	s.Require().Error(err)
	s.True(errors.Is(err, shop.ErrProductInactive))
}

func (s *RepositorySQLMockSuite) TestProductDelete_ReferencedByOrders() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`^SELECT COUNT\(1\) FROM shop_order_items WHERE product_id = \?$`).
		WithArgs("prod-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	s.mock.ExpectRollback()

	deleted, err := NewProductRepository(s.db).Delete(s.ctx, "prod-1")
	s.Require().Error(err)
	s.False(deleted)
	s.True(errors.Is(err, shop.ErrProductInUse))
}

func (s *RepositorySQLMockSuite) TestProductCreate_DuplicateSlug() {
	s.mock.ExpectExec(`^INSERT INTO shop_products`).
		WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: shop_products.slug (2067)"))

	err := NewProductRepository(s.db).Create(s.ctx, shop.Product{ID: "prod-1", Slug: "caneca"})
	s.Require().Error(err)
	s.True(errors.Is(err, shop.ErrDuplicateSlug))
}

func (s *RepositorySQLMockSuite) TestTeamDelete_ReferencedByFixtures() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`^SELECT COUNT\(1\) FROM fixtures WHERE home_team_id = \? OR away_team_id = \?$`).
		WithArgs("team-1", "team-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	s.mock.ExpectRollback()

	_, err := NewTeamRepository(s.db).Delete(s.ctx, "team-1")
	s.Require().Error(err)
	s.True(errors.Is(err, team.ErrInUse))
}

func (s *RepositorySQLMockSuite) TestLeagueCreate_DuplicateInviteCode() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`^INSERT INTO leagues \(id, name, owner_user_id, invite_code, created_at, updated_at\) VALUES`).
		WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "leagues_invite_code_key"`))
	s.mock.ExpectRollback()

	err := NewLeagueRepository(s.db).Create(s.ctx,
		league.League{ID: "lg-1", Name: "Amigos", OwnerUserID: "u-1", InviteCode: "ABCDEFGH", CreatedAt: s.at, UpdatedAt: s.at},
		league.Member{LeagueID: "lg-1", UserID: "u-1", Role: league.RoleOwner, JoinedAt: s.at},
	)
	s.Require().Error(err)
	s.True(errors.Is(err, league.ErrDuplicateInviteCode))
}

func (s *RepositorySQLMockSuite) TestUserGetByID_NotFound() {
	s.mock.ExpectQuery(`^SELECT \* FROM users WHERE id = \? LIMIT 1$`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "display_name", "created_at", "updated_at"}))

	_, exists, err := NewUserRepository(s.db).GetByID(s.ctx, "missing")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *RepositorySQLMockSuite) TestFixtureList_AppliesFilter() {
	from := s.at
	s.mock.ExpectQuery(`FROM fixtures f LEFT JOIN teams h ON h.id = f.home_team_id LEFT JOIN teams a ON a.id = f.away_team_id WHERE f.status = \? AND f.competition = \? AND f.kickoff_at >= \? ORDER BY f.kickoff_at ASC, f.id ASC$`).
		WithArgs("SCHEDULED", "Liga Portugal", from).
		WillReturnError(errors.New("boom"))

	_, err := NewFixtureRepository(s.db).List(s.ctx, fixture.Filter{Status: "SCHEDULED", Competition: "Liga Portugal", From: &from})
	s.Require().Error(err)
	s.Contains(err.Error(), "select fixtures")
}
