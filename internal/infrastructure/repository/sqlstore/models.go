package sqlstore

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/plus-predictor/internal/domain/fixture"
	"github.com/riskibarqy/plus-predictor/internal/domain/league"
	"github.com/riskibarqy/plus-predictor/internal/domain/prediction"
	"github.com/riskibarqy/plus-predictor/internal/domain/shop"
	"github.com/riskibarqy/plus-predictor/internal/domain/team"
	"github.com/riskibarqy/plus-predictor/internal/domain/user"
)

type userTableModel struct {
	ID          string    `db:"id"`
	Email       string    `db:"email"`
	DisplayName string    `db:"display_name"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (m userTableModel) toDomain() user.User {
	return user.User{
		ID:          m.ID,
		Email:       m.Email,
		DisplayName: m.DisplayName,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type teamTableModel struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	ShortName string    `db:"short_name"`
	LogoURL   string    `db:"logo_url"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func newTeamTableModel(t team.Team) teamTableModel {
	return teamTableModel{
		ID:        t.ID,
		Name:      t.Name,
		ShortName: t.ShortName,
		LogoURL:   t.LogoURL,
		CreatedAt: t.CreatedAt.UTC(),
		UpdatedAt: t.UpdatedAt.UTC(),
	}
}

func (m teamTableModel) toDomain() team.Team {
	return team.Team{
		ID:        m.ID,
		Name:      m.Name,
		ShortName: m.ShortName,
		LogoURL:   m.LogoURL,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type fixtureTableModel struct {
	ID          string        `db:"id"`
	Competition string        `db:"competition"`
	Matchday    int           `db:"matchday"`
	HomeTeamID  string        `db:"home_team_id"`
	AwayTeamID  string        `db:"away_team_id"`
	KickoffAt   time.Time     `db:"kickoff_at"`
	Venue       string        `db:"venue"`
	Status      string        `db:"status"`
	HomeScore   sql.NullInt64 `db:"home_score"`
	AwayScore   sql.NullInt64 `db:"away_score"`
	Scorers     string        `db:"scorers"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
}

// fixtureRowModel is a fixture joined with its team names.
type fixtureRowModel struct {
	fixtureTableModel
	HomeTeamName sql.NullString `db:"home_team_name"`
	AwayTeamName sql.NullString `db:"away_team_name"`
}

func newFixtureTableModel(f fixture.Fixture) (fixtureTableModel, error) {
	scorers, err := encodeStrings(f.Scorers)
	if err != nil {
		return fixtureTableModel{}, err
	}
	return fixtureTableModel{
		ID:          f.ID,
		Competition: f.Competition,
		Matchday:    f.Matchday,
		HomeTeamID:  f.HomeTeamID,
		AwayTeamID:  f.AwayTeamID,
		KickoffAt:   f.KickoffAt.UTC(),
		Venue:       f.Venue,
		Status:      f.Status,
		HomeScore:   ptrToNullInt(f.HomeScore),
		AwayScore:   ptrToNullInt(f.AwayScore),
		Scorers:     scorers,
		CreatedAt:   f.CreatedAt.UTC(),
		UpdatedAt:   f.UpdatedAt.UTC(),
	}, nil
}

func (m fixtureRowModel) toDomain() fixture.Fixture {
	return fixture.Fixture{
		ID:           m.ID,
		Competition:  m.Competition,
		Matchday:     m.Matchday,
		HomeTeamID:   m.HomeTeamID,
		AwayTeamID:   m.AwayTeamID,
		HomeTeamName: m.HomeTeamName.String,
		AwayTeamName: m.AwayTeamName.String,
		KickoffAt:    m.KickoffAt.UTC(),
		Venue:        m.Venue,
		Status:       m.Status,
		HomeScore:    nullIntToPtr(m.HomeScore),
		AwayScore:    nullIntToPtr(m.AwayScore),
		Scorers:      decodeStrings(m.Scorers),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type predictionTableModel struct {
	ID        string        `db:"id"`
	UserID    string        `db:"user_id"`
	FixtureID string        `db:"fixture_id"`
	HomeScore int           `db:"home_score"`
	AwayScore int           `db:"away_score"`
	Scorer    string        `db:"scorer"`
	Points    sql.NullInt64 `db:"points"`
	ExactHit  bool          `db:"exact_hit"`
	ScoredAt  sql.NullTime  `db:"scored_at"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
}

type predictionRowModel struct {
	predictionTableModel
	DisplayName sql.NullString `db:"display_name"`
	Email       sql.NullString `db:"email"`
}

func (m predictionRowModel) toDomain() prediction.Prediction {
	out := prediction.Prediction{
		ID:        m.ID,
		UserID:    m.UserID,
		FixtureID: m.FixtureID,
		HomeScore: m.HomeScore,
		AwayScore: m.AwayScore,
		Scorer:    m.Scorer,
		Points:    nullIntToPtr(m.Points),
		ExactHit:  m.ExactHit,
		ScoredAt:  nullTimeToPtr(m.ScoredAt),
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
	if m.DisplayName.Valid || m.Email.Valid {
		out.DisplayName = user.User{ID: m.UserID, Email: m.Email.String, DisplayName: m.DisplayName.String}.Name()
	}
	return out
}

type leagueRowModel struct {
	ID          string       `db:"id"`
	Name        string       `db:"name"`
	OwnerUserID string       `db:"owner_user_id"`
	InviteCode  string       `db:"invite_code"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
	DeletedAt   sql.NullTime `db:"deleted_at"`
	MemberCount int          `db:"member_count"`
}

func (m leagueRowModel) toDomain() league.League {
	return league.League{
		ID:          m.ID,
		Name:        m.Name,
		OwnerUserID: m.OwnerUserID,
		InviteCode:  m.InviteCode,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
		DeletedAt:   nullTimeToPtr(m.DeletedAt),
		MemberCount: m.MemberCount,
	}
}

type memberRowModel struct {
	LeagueID    string         `db:"league_id"`
	UserID      string         `db:"user_id"`
	Role        string         `db:"role"`
	JoinedAt    time.Time      `db:"joined_at"`
	DisplayName sql.NullString `db:"display_name"`
	Email       sql.NullString `db:"email"`
}

func (m memberRowModel) toDomain() league.Member {
	return league.Member{
		LeagueID:    m.LeagueID,
		UserID:      m.UserID,
		Role:        m.Role,
		JoinedAt:    m.JoinedAt.UTC(),
		DisplayName: user.User{ID: m.UserID, Email: m.Email.String, DisplayName: m.DisplayName.String}.Name(),
	}
}

type rankingRowModel struct {
	UserID      string         `db:"user_id"`
	DisplayName sql.NullString `db:"display_name"`
	Email       sql.NullString `db:"email"`
	Points      int            `db:"points"`
	ExactHits   int            `db:"exact_hits"`
	Scored      int            `db:"scored"`
}

type productTableModel struct {
	ID          string    `db:"id"`
	Slug        string    `db:"slug"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	PriceCents  int64     `db:"price_cents"`
	Currency    string    `db:"currency"`
	Stock       int       `db:"stock"`
	ImageURL    string    `db:"image_url"`
	Active      bool      `db:"active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func newProductTableModel(p shop.Product) productTableModel {
	return productTableModel{
		ID:          p.ID,
		Slug:        p.Slug,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Currency:    p.Currency,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
}

func (m productTableModel) toDomain() shop.Product {
	return shop.Product{
		ID:          m.ID,
		Slug:        m.Slug,
		Name:        m.Name,
		Description: m.Description,
		PriceCents:  m.PriceCents,
		Currency:    m.Currency,
		Stock:       m.Stock,
		ImageURL:    m.ImageURL,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type orderTableModel struct {
	ID            string    `db:"id"`
	UserID        string    `db:"user_id"`
	Status        string    `db:"status"`
	TotalCents    int64     `db:"total_cents"`
	Currency      string    `db:"currency"`
	CustomerName  string    `db:"customer_name"`
	CustomerEmail string    `db:"customer_email"`
	CustomerPhone string    `db:"customer_phone"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func newOrderTableModel(o shop.Order) orderTableModel {
	return orderTableModel{
		ID:            o.ID,
		UserID:        o.UserID,
		Status:        o.Status,
		TotalCents:    o.TotalCents,
		Currency:      o.Currency,
		CustomerName:  o.Customer.Name,
		CustomerEmail: o.Customer.Email,
		CustomerPhone: o.Customer.Phone,
		CreatedAt:     o.CreatedAt.UTC(),
		UpdatedAt:     o.UpdatedAt.UTC(),
	}
}

func (m orderTableModel) toDomain(items []shop.OrderItem) shop.Order {
	return shop.Order{
		ID:         m.ID,
		UserID:     m.UserID,
		Status:     m.Status,
		TotalCents: m.TotalCents,
		Currency:   m.Currency,
		Customer: shop.Customer{
			Name:  m.CustomerName,
			Email: m.CustomerEmail,
			Phone: m.CustomerPhone,
		},
		Items:     items,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type orderItemTableModel struct {
	OrderID        string `db:"order_id"`
	ProductID      string `db:"product_id"`
	Position       int    `db:"position"`
	Name           string `db:"name"`
	UnitPriceCents int64  `db:"unit_price_cents"`
	Quantity       int    `db:"quantity"`
}

type paymentTableModel struct {
	ID          string       `db:"id"`
	OrderID     string       `db:"order_id"`
	Method      string       `db:"method"`
	Status      string       `db:"status"`
	AmountCents int64        `db:"amount_cents"`
	ProviderRef string       `db:"provider_ref"`
	Entity      string       `db:"entity"`
	Reference   string       `db:"reference"`
	Phone       string       `db:"phone"`
	ExpiresAt   sql.NullTime `db:"expires_at"`
	PaidAt      sql.NullTime `db:"paid_at"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

func newPaymentTableModel(p shop.Payment) paymentTableModel {
	return paymentTableModel{
		ID:          p.ID,
		OrderID:     p.OrderID,
		Method:      p.Method,
		Status:      p.Status,
		AmountCents: p.AmountCents,
		ProviderRef: p.ProviderRef,
		Entity:      p.Entity,
		Reference:   p.Reference,
		Phone:       p.Phone,
		ExpiresAt:   ptrToNullTime(p.ExpiresAt),
		PaidAt:      ptrToNullTime(p.PaidAt),
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
}

func (m paymentTableModel) toDomain() shop.Payment {
	return shop.Payment{
		ID:          m.ID,
		OrderID:     m.OrderID,
		Method:      m.Method,
		Status:      m.Status,
		AmountCents: m.AmountCents,
		ProviderRef: m.ProviderRef,
		Entity:      m.Entity,
		Reference:   m.Reference,
		Phone:       m.Phone,
		ExpiresAt:   nullTimeToPtr(m.ExpiresAt),
		PaidAt:      nullTimeToPtr(m.PaidAt),
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}
