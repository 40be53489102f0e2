package httpapi

import (
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/plus-predictor/internal/domain/fixture"
	"github.com/riskibarqy/plus-predictor/internal/domain/league"
	"github.com/riskibarqy/plus-predictor/internal/domain/prediction"
	"github.com/riskibarqy/plus-predictor/internal/domain/ranking"
	"github.com/riskibarqy/plus-predictor/internal/domain/shop"
	"github.com/riskibarqy/plus-predictor/internal/domain/team"
	"github.com/riskibarqy/plus-predictor/internal/domain/user"
	"github.com/riskibarqy/plus-predictor/internal/usecase"
)

type teamRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	ShortName string `json:"short_name" validate:"required,max=5"`
	LogoURL   string `json:"logo_url" validate:"omitempty,url,max=500"`
}

type fixtureRequest struct {
	Competition string    `json:"competition" validate:"required,max=80"`
	Matchday    int       `json:"matchday" validate:"gte=0,lte=100"`
	HomeTeamID  string    `json:"home_team_id" validate:"required"`
	AwayTeamID  string    `json:"away_team_id" validate:"required,nefield=HomeTeamID"`
	KickoffAt   time.Time `json:"kickoff_at" validate:"required"`
	Venue       string    `json:"venue" validate:"max=120"`
	Status      string    `json:"status" validate:"omitempty,max=20"`
}

type fixtureResultRequest struct {
	Status    string   `json:"status" validate:"required,max=20"`
	HomeScore *int     `json:"home_score" validate:"omitempty,gte=0,lte=99"`
	AwayScore *int     `json:"away_score" validate:"omitempty,gte=0,lte=99"`
	Scorers   []string `json:"scorers" validate:"omitempty,max=30,dive,max=80"`
}

type predictionRequest struct {
	HomeScore *int   `json:"home_score" validate:"required,gte=0,lte=99"`
	AwayScore *int   `json:"away_score" validate:"required,gte=0,lte=99"`
	Scorer    string `json:"scorer" validate:"max=80"`
}

type leagueNameRequest struct {
	Name string `json:"name" validate:"required,min=3,max=50"`
}

type joinLeagueRequest struct {
	InviteCode string `json:"invite_code" validate:"required,min=6,max=12"`
}

type updateMeRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=40"`
}

type productRequest struct {
	Slug        string `json:"slug" validate:"required,max=80"`
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	PriceCents  int64  `json:"price_cents" validate:"required,gt=0"`
	Stock       int    `json:"stock" validate:"gte=0"`
	ImageURL    string `json:"image_url" validate:"omitempty,url,max=500"`
	Active      *bool  `json:"active"`
}

type orderItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1,lte=20"`
}

type createOrderRequest struct {
	Items         []orderItemRequest `json:"items" validate:"required,min=1,max=20,dive"`
	CustomerName  string             `json:"customer_name" validate:"required,max=120"`
	CustomerEmail string             `json:"customer_email" validate:"required,email,max=200"`
	CustomerPhone string             `json:"customer_phone" validate:"max=30"`
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid cancelled"`
}

type createPaymentRequest struct {
	Method string `json:"method" validate:"required,oneof=multibanco mbway"`
	Phone  string `json:"phone" validate:"required_if=Method mbway,max=30"`
}

type paymentWebhookRequest struct {
	ProviderRef string        `json:"provider_ref" validate:"required,max=120"`
	OrderID     string        `json:"order_id" validate:"max=120"`
	Amount      webhookAmount `json:"amount" validate:"required,max=20"`
	Status      string        `json:"status" validate:"required,max=40"`
}

// webhookAmount accepts the amount either as a JSON number or as a decimal string.
type webhookAmount string

func (a *webhookAmount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*a = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var text string
		if err := sonic.Unmarshal(data, &text); err != nil {
			return err
		}
		*a = webhookAmount(text)
		return nil
	}
	*a = webhookAmount(raw)
	return nil
}

type teamDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	LogoURL   string `json:"logo_url,omitempty"`
}

type fixtureTeamDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type fixtureDTO struct {
	ID          string         `json:"id"`
	Competition string         `json:"competition"`
	Matchday    int            `json:"matchday"`
	HomeTeam    fixtureTeamDTO `json:"home_team"`
	AwayTeam    fixtureTeamDTO `json:"away_team"`
	KickoffAt   time.Time      `json:"kickoff_at"`
	Venue       string         `json:"venue,omitempty"`
	Status      string         `json:"status"`
	HomeScore   *int           `json:"home_score"`
	AwayScore   *int           `json:"away_score"`
	Scorers     []string       `json:"scorers"`
}

type predictionDTO struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	DisplayName string     `json:"display_name,omitempty"`
	FixtureID   string     `json:"fixture_id"`
	HomeScore   int        `json:"home_score"`
	AwayScore   int        `json:"away_score"`
	Scorer      string     `json:"scorer,omitempty"`
	Points      *int       `json:"points"`
	ExactHit    bool       `json:"exact_hit"`
	ScoredAt    *time.Time `json:"scored_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type myPredictionDTO struct {
	predictionDTO
	Fixture fixtureDTO `json:"fixture"`
}

type fixtureSyncRequest struct {
	ProviderFixtureID int64 `json:"provider_fixture_id" validate:"required,gt=0"`
}

type fixtureResultDTO struct {
	Fixture fixtureDTO `json:"fixture"`
	Scored  int        `json:"scored"`
}

type leagueDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	OwnerUserID string    `json:"owner_user_id"`
	InviteCode  string    `json:"invite_code,omitempty"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
	Role        string    `json:"role,omitempty"`
	MyRank      int       `json:"my_rank,omitempty"`
}

type rankingEntryDTO struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Points      int    `json:"points"`
	ExactHits   int    `json:"exact_hits"`
	Scored      int    `json:"scored"`
}

type userDTO struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name"`
}

type dashboardDTO struct {
	User              userDTO      `json:"user"`
	GlobalRank        int          `json:"global_rank"`
	TotalPoints       int          `json:"total_points"`
	ExactHits         int          `json:"exact_hits"`
	ScoredPredictions int          `json:"scored_predictions"`
	PendingFixtures   []fixtureDTO `json:"pending_fixtures"`
	Leagues           []leagueDTO  `json:"leagues"`
}

type productDTO struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PriceCents  int64  `json:"price_cents"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
	Stock       int    `json:"stock"`
	ImageURL    string `json:"image_url,omitempty"`
	Active      bool   `json:"active"`
}

type orderItemDTO struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

type orderDTO struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	Status        string         `json:"status"`
	TotalCents    int64          `json:"total_cents"`
	Total         string         `json:"total"`
	Currency      string         `json:"currency"`
	CustomerName  string         `json:"customer_name"`
	CustomerEmail string         `json:"customer_email"`
	CustomerPhone string         `json:"customer_phone,omitempty"`
	Items         []orderItemDTO `json:"items"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type paymentDTO struct {
	ID          string     `json:"id"`
	OrderID     string     `json:"order_id"`
	Method      string     `json:"method"`
	Status      string     `json:"status"`
	AmountCents int64      `json:"amount_cents"`
	Amount      string     `json:"amount"`
	Entity      string     `json:"entity,omitempty"`
	Reference   string     `json:"reference,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type webhookResultDTO struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
	Applied   bool   `json:"applied"`
}

type reconcileDTO struct {
	Checked    int   `json:"checked"`
	Paid       int   `json:"paid"`
	Failed     int   `json:"failed"`
	Expired    int   `json:"expired"`
	Unchanged  int   `json:"unchanged"`
	Errors     int   `json:"errors"`
	DurationMs int64 `json:"duration_ms"`
}

func teamToDTO(v team.Team) teamDTO {
	return teamDTO{
		ID:        v.ID,
		Name:      v.Name,
		ShortName: v.ShortName,
		LogoURL:   v.LogoURL,
	}
}

func fixtureToDTO(v fixture.Fixture) fixtureDTO {
	scorers := v.Scorers
	if scorers == nil {
		scorers = []string{}
	}
	return fixtureDTO{
		ID:          v.ID,
		Competition: v.Competition,
		Matchday:    v.Matchday,
		HomeTeam:    fixtureTeamDTO{ID: v.HomeTeamID, Name: v.HomeTeamName},
		AwayTeam:    fixtureTeamDTO{ID: v.AwayTeamID, Name: v.AwayTeamName},
		KickoffAt:   v.KickoffAt,
		Venue:       v.Venue,
		Status:      v.Status,
		HomeScore:   v.HomeScore,
		AwayScore:   v.AwayScore,
		Scorers:     scorers,
	}
}

func fixturesToDTO(items []fixture.Fixture) []fixtureDTO {
	out := make([]fixtureDTO, 0, len(items))
	for _, item := range items {
		out = append(out, fixtureToDTO(item))
	}
	return out
}

func predictionToDTO(v prediction.Prediction) predictionDTO {
	return predictionDTO{
		ID:          v.ID,
		UserID:      v.UserID,
		DisplayName: v.DisplayName,
		FixtureID:   v.FixtureID,
		HomeScore:   v.HomeScore,
		AwayScore:   v.AwayScore,
		Scorer:      v.Scorer,
		Points:      v.Points,
		ExactHit:    v.ExactHit,
		ScoredAt:    v.ScoredAt,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

func predictionsToDTO(items []prediction.Prediction) []predictionDTO {
	out := make([]predictionDTO, 0, len(items))
	for _, item := range items {
		out = append(out, predictionToDTO(item))
	}
	return out
}

// leagueToDTO hides the invite code unless the caller may share it.
func leagueToDTO(v league.League, withInvite bool) leagueDTO {
	out := leagueDTO{
		ID:          v.ID,
		Name:        v.Name,
		OwnerUserID: v.OwnerUserID,
		MemberCount: v.MemberCount,
		CreatedAt:   v.CreatedAt,
	}
	if withInvite {
		out.InviteCode = v.InviteCode
	}
	return out
}

func leaguesWithRankToDTO(items []usecase.LeagueWithRank) []leagueDTO {
	out := make([]leagueDTO, 0, len(items))
	for _, item := range items {
		dto := leagueToDTO(item.League, true)
		dto.Role = item.Role
		dto.MyRank = item.MyRank
		out = append(out, dto)
	}
	return out
}

func rankingToDTO(entries []ranking.Entry) []rankingEntryDTO {
	out := make([]rankingEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, rankingEntryDTO{
			Rank:        e.Rank,
			UserID:      e.UserID,
			DisplayName: e.DisplayName,
			Points:      e.Points,
			ExactHits:   e.ExactHits,
			Scored:      e.Scored,
		})
	}
	return out
}

func userToDTO(v user.User) userDTO {
	return userDTO{
		ID:          v.ID,
		Email:       v.Email,
		DisplayName: v.Name(),
	}
}

func productToDTO(v shop.Product) productDTO {
	return productDTO{
		ID:          v.ID,
		Slug:        v.Slug,
		Name:        v.Name,
		Description: v.Description,
		PriceCents:  v.PriceCents,
		Price:       shop.FormatAmount(v.PriceCents),
		Currency:    v.Currency,
		Stock:       v.Stock,
		ImageURL:    v.ImageURL,
		Active:      v.Active,
	}
}

func productsToDTO(items []shop.Product) []productDTO {
	out := make([]productDTO, 0, len(items))
	for _, item := range items {
		out = append(out, productToDTO(item))
	}
	return out
}

func orderToDTO(v shop.Order) orderDTO {
	items := make([]orderItemDTO, 0, len(v.Items))
	for _, item := range v.Items {
		items = append(items, orderItemDTO{
			ProductID:      item.ProductID,
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
			SubtotalCents:  item.SubtotalCents(),
		})
	}
	return orderDTO{
		ID:            v.ID,
		UserID:        v.UserID,
		Status:        v.Status,
		TotalCents:    v.TotalCents,
		Total:         shop.FormatAmount(v.TotalCents),
		Currency:      v.Currency,
		CustomerName:  v.Customer.Name,
		CustomerEmail: v.Customer.Email,
		CustomerPhone: v.Customer.Phone,
		Items:         items,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

func ordersToDTO(items []shop.Order) []orderDTO {
	out := make([]orderDTO, 0, len(items))
	for _, item := range items {
		out = append(out, orderToDTO(item))
	}
	return out
}

func paymentToDTO(v shop.Payment) paymentDTO {
	return paymentDTO{
		ID:          v.ID,
		OrderID:     v.OrderID,
		Method:      v.Method,
		Status:      v.Status,
		AmountCents: v.AmountCents,
		Amount:      shop.FormatAmount(v.AmountCents),
		Entity:      v.Entity,
		Reference:   v.Reference,
		Phone:       v.Phone,
		ExpiresAt:   v.ExpiresAt,
		PaidAt:      v.PaidAt,
		CreatedAt:   v.CreatedAt,
	}
}
