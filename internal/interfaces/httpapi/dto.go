package httpapi

import (
	"time"

	"github.com/riskibarqy/bilardeando/internal/domain/customleague"
	"github.com/riskibarqy/bilardeando/internal/domain/matchday"
	"github.com/riskibarqy/bilardeando/internal/domain/player"
	"github.com/riskibarqy/bilardeando/internal/domain/prizepool"
	"github.com/riskibarqy/bilardeando/internal/domain/squad"
	"github.com/riskibarqy/bilardeando/internal/domain/team"
	"github.com/riskibarqy/bilardeando/internal/domain/transaction"
	"github.com/riskibarqy/bilardeando/internal/domain/user"
	"github.com/riskibarqy/bilardeando/internal/usecase"
	"github.com/shopspring/decimal"
)

type playerDTO struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Position string   `json:"position"`
	TeamID   string   `json:"team_id"`
	TeamName string   `json:"team_name"`
	Price    float64  `json:"price"`
	Rating   *float64 `json:"rating"`
	PhotoURL string   `json:"photo_url,omitempty"`
}

type teamDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Short   string `json:"short"`
	LogoURL string `json:"logo_url,omitempty"`
	Tier    int    `json:"tier"`
}

type matchdayDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	StartDate string `json:"start_date,omitempty"`
}

type accountDTO struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	VirtualBudget float64 `json:"virtual_budget"`
	RealBalance   float64 `json:"real_balance"`
	AIUnlocked    bool    `json:"ai_unlocked"`
	CreatedAt     string  `json:"created_at"`
}

type squadMemberDTO struct {
	playerDTO
	IsStarter    bool `json:"is_starter"`
	IsCaptain    bool `json:"is_captain"`
	IsCaptainSub bool `json:"is_captain_sub"`
}

type squadDTO struct {
	ID              string           `json:"id"`
	Formation       string           `json:"formation"`
	RemainingBudget float64          `json:"remaining_budget"`
	Players         []squadMemberDTO `json:"players"`
}

type squadSummaryDTO struct {
	SquadID         string  `json:"squad_id"`
	Formation       string  `json:"formation"`
	PlayerCount     int     `json:"player_count"`
	StarterCount    int     `json:"starter_count"`
	BenchCount      int     `json:"bench_count"`
	TotalValue      float64 `json:"total_value"`
	RemainingBudget float64 `json:"remaining_budget"`
	CaptainID       string  `json:"captain_id,omitempty"`
	CaptainSubID    string  `json:"captain_sub_id,omitempty"`
}

type squadValidationDTO struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

type squadViewDTO struct {
	Squad      *squadDTO           `json:"squad"`
	Summary    *squadSummaryDTO    `json:"summary"`
	Validation *squadValidationDTO `json:"validation"`
}

type formationChangeDTO struct {
	Formation         string   `json:"formation"`
	MovedToBench      []string `json:"moved_to_bench"`
	PromotedToStarter []string `json:"promoted_to_starter"`
}

type toggleResultDTO struct {
	PlayerID  string   `json:"player_id"`
	IsStarter bool     `json:"is_starter"`
	Squad     squadDTO `json:"squad"`
}

type buyResultDTO struct {
	Action          string    `json:"action"`
	Player          playerDTO `json:"player"`
	RemainingBudget float64   `json:"remaining_budget"`
}

type sellResultDTO struct {
	Action          string    `json:"action"`
	Player          playerDTO `json:"player"`
	OriginalPrice   float64   `json:"original_price"`
	Refund          float64   `json:"refund"`
	Tax             float64   `json:"tax"`
	RemainingBudget float64   `json:"remaining_budget"`
}

type transferQuoteDTO struct {
	Action          string    `json:"action"`
	Player          playerDTO `json:"player"`
	Cost            float64   `json:"cost"`
	Tax             float64   `json:"tax"`
	Net             float64   `json:"net"`
	RemainingBudget float64   `json:"remaining_budget"`
}

type walletBalanceDTO struct {
	RealBalance   float64 `json:"real_balance"`
	VirtualBudget float64 `json:"virtual_budget"`
	AIUnlocked    bool    `json:"ai_unlocked"`
	FeeWaived     bool    `json:"fee_waived"`
}

type transactionDTO struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	Amount      float64 `json:"amount"`
	Fee         float64 `json:"fee"`
	Total       float64 `json:"total"`
	Description string  `json:"description"`
	LeagueID    string  `json:"league_id,omitempty"`
	TierID      string  `json:"tier_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

type transactionPageDTO struct {
	Items      []transactionDTO `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

type walletOverviewDTO struct {
	Balance      walletBalanceDTO   `json:"balance"`
	Transactions transactionPageDTO `json:"transactions"`
}

type budgetTierDTO struct {
	ID            string  `json:"id"`
	VirtualAmount float64 `json:"virtual_amount"`
	Price         float64 `json:"price"`
	Fee           float64 `json:"fee"`
	Total         float64 `json:"total"`
}

type budgetTierOfferDTO struct {
	Tiers     []budgetTierDTO `json:"tiers"`
	FeeRate   float64         `json:"fee_rate"`
	FeeWaived bool            `json:"fee_waived"`
}

type checkoutDTO struct {
	TransactionID string  `json:"transaction_id"`
	PreferenceID  string  `json:"preference_id"`
	InitPoint     string  `json:"init_point"`
	Amount        float64 `json:"amount"`
	Fee           float64 `json:"fee"`
	Total         float64 `json:"total"`
}

type leagueDTO struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	InviteCode      string  `json:"invite_code"`
	Status          string  `json:"status"`
	BuyIn           float64 `json:"buy_in"`
	MaxPlayers      int     `json:"max_players"`
	RakePercent     float64 `json:"rake_percent"`
	CreatorID       string  `json:"creator_id"`
	StartMatchdayID int64   `json:"start_matchday_id"`
	EndMatchdayID   int64   `json:"end_matchday_id"`
	CreatedAt       string  `json:"created_at"`
}

type leagueSummaryDTO struct {
	League      leagueDTO `json:"league"`
	MemberCount int       `json:"member_count"`
	PaidCount   int       `json:"paid_count"`
	IsCreator   bool      `json:"is_creator"`
	IsMember    bool      `json:"is_member"`
	IsPaid      bool      `json:"is_paid"`
}

type leagueMemberDTO struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Paid     bool   `json:"paid"`
	JoinedAt string `json:"joined_at"`
}

type prizePlaceDTO struct {
	Position   int     `json:"position"`
	Percentage int     `json:"percentage"`
	Amount     float64 `json:"amount"`
}

type prizePoolDTO struct {
	TotalPool    float64         `json:"total_pool"`
	Rake         float64         `json:"rake"`
	NetPool      float64         `json:"net_pool"`
	Distribution []prizePlaceDTO `json:"distribution"`
}

type leagueDetailDTO struct {
	leagueSummaryDTO
	Members []leagueMemberDTO `json:"members"`
	Pool    prizePoolDTO      `json:"pool"`
}

type myLeaguesDTO struct {
	Leagues   []leagueSummaryDTO `json:"leagues"`
	Matchdays []matchdayDTO      `json:"matchdays"`
}

type createdLeagueDTO struct {
	League leagueDTO    `json:"league"`
	Pool   prizePoolDTO `json:"pool"`
}

type joinLeagueDTO struct {
	League   leagueDTO   `json:"league"`
	Checkout checkoutDTO `json:"checkout"`
}

func money(v decimal.Decimal) float64 {
	return v.InexactFloat64()
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

func playerToDTO(p player.Player) playerDTO {
	return playerDTO{
		ID:       p.ID,
		Name:     p.Name,
		Position: string(p.Position),
		TeamID:   p.TeamID,
		TeamName: p.TeamName,
		Price:    money(p.Price),
		Rating:   p.Rating,
		PhotoURL: p.PhotoURL,
	}
}

func teamToDTO(t team.Team) teamDTO {
	return teamDTO{
		ID:      t.ID,
		Name:    t.Name,
		Short:   t.Short,
		LogoURL: t.LogoURL,
		Tier:    t.Tier,
	}
}

func matchdayToDTO(m matchday.Matchday) matchdayDTO {
	return matchdayDTO{
		ID:        m.ID,
		Name:      m.Name,
		Status:    string(m.Status),
		StartDate: formatTime(m.StartDate),
	}
}

func matchdaysToDTO(items []matchday.Matchday) []matchdayDTO {
	out := make([]matchdayDTO, 0, len(items))
	for _, m := range items {
		out = append(out, matchdayToDTO(m))
	}
	return out
}

func accountToDTO(a user.Account) accountDTO {
	return accountDTO{
		ID:            a.ID,
		Name:          a.Name,
		Email:         a.Email,
		VirtualBudget: money(a.VirtualBudget),
		RealBalance:   money(a.RealBalance),
		AIUnlocked:    a.AIUnlocked,
		CreatedAt:     formatTime(a.CreatedAt),
	}
}

func rosterToDTO(r squad.Roster) squadDTO {
	players := make([]squadMemberDTO, 0, len(r.Squad.Members))
	for _, m := range r.Squad.Members {
		players = append(players, squadMemberDTO{
			playerDTO:    playerToDTO(m.Player),
			IsStarter:    m.IsStarter,
			IsCaptain:    m.IsCaptain,
			IsCaptainSub: m.IsCaptainSub,
		})
	}
	return squadDTO{
		ID:              r.Squad.ID,
		Formation:       string(r.Squad.Formation),
		RemainingBudget: money(r.Budget),
		Players:         players,
	}
}

func summaryToDTO(s squad.Summary) squadSummaryDTO {
	return squadSummaryDTO{
		SquadID:         s.SquadID,
		Formation:       string(s.Formation),
		PlayerCount:     s.PlayerCount,
		StarterCount:    s.StarterCount,
		BenchCount:      s.BenchCount,
		TotalValue:      money(s.TotalValue),
		RemainingBudget: money(s.RemainingBudget),
		CaptainID:       s.CaptainID,
		CaptainSubID:    s.CaptainSubID,
	}
}

func validationToDTO(v squad.Validation) squadValidationDTO {
	errs := v.Errors
	if errs == nil {
		errs = []string{}
	}
	return squadValidationDTO{Valid: v.Valid, Errors: errs}
}

func squadViewToDTO(v usecase.SquadView) squadViewDTO {
	sq := rosterToDTO(v.Roster)
	summary := summaryToDTO(v.Summary)
	validation := validationToDTO(v.Validation)
	return squadViewDTO{Squad: &sq, Summary: &summary, Validation: &validation}
}

func formationChangeToDTO(c squad.FormationChange) formationChangeDTO {
	return formationChangeDTO{
		Formation:         string(c.Formation),
		MovedToBench:      nonNilStrings(c.MovedToBench),
		PromotedToStarter: nonNilStrings(c.PromotedToStarter),
	}
}

func balanceToDTO(b usecase.WalletBalance) walletBalanceDTO {
	return walletBalanceDTO{
		RealBalance:   money(b.RealBalance),
		VirtualBudget: money(b.VirtualBudget),
		AIUnlocked:    b.AIUnlocked,
		FeeWaived:     b.FeeWaived,
	}
}

func transactionToDTO(t transaction.Transaction) transactionDTO {
	return transactionDTO{
		ID:          t.ID,
		Type:        string(t.Type),
		Status:      string(t.Status),
		Amount:      money(t.Amount),
		Fee:         money(t.Fee),
		Total:       money(t.Total()),
		Description: t.Description,
		LeagueID:    t.LeagueID,
		TierID:      t.TierID,
		CreatedAt:   formatTime(t.CreatedAt),
	}
}

func transactionPageToDTO(p usecase.TransactionPage) transactionPageDTO {
	items := make([]transactionDTO, 0, len(p.Items))
	for _, t := range p.Items {
		items = append(items, transactionToDTO(t))
	}
	return transactionPageDTO{
		Items:      items,
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
	}
}

func tierOfferToDTO(o usecase.BudgetTierOffer) budgetTierOfferDTO {
	tiers := make([]budgetTierDTO, 0, len(o.Tiers))
	for _, tier := range o.Tiers {
		fee := tier.Price.Mul(o.FeeRate).Round(2)
		tiers = append(tiers, budgetTierDTO{
			ID:            tier.ID,
			VirtualAmount: money(tier.VirtualAmount),
			Price:         money(tier.Price),
			Fee:           money(fee),
			Total:         money(tier.Price.Add(fee)),
		})
	}
	return budgetTierOfferDTO{
		Tiers:     tiers,
		FeeRate:   money(o.FeeRate),
		FeeWaived: o.FeeWaived,
	}
}

func checkoutToDTO(c usecase.Checkout) checkoutDTO {
	return checkoutDTO{
		TransactionID: c.Transaction.ID,
		PreferenceID:  c.PreferenceID,
		InitPoint:     c.InitPoint,
		Amount:        money(c.Amount),
		Fee:           money(c.Fee),
		Total:         money(c.Total),
	}
}

func leagueToDTO(l customleague.League) leagueDTO {
	return leagueDTO{
		ID:              l.ID,
		Name:            l.Name,
		InviteCode:      l.InviteCode,
		Status:          string(l.Status),
		BuyIn:           money(l.BuyIn),
		MaxPlayers:      l.MaxPlayers,
		RakePercent:     money(l.RakePercent),
		CreatorID:       l.CreatorID,
		StartMatchdayID: l.StartMatchdayID,
		EndMatchdayID:   l.EndMatchdayID,
		CreatedAt:       formatTime(l.CreatedAt),
	}
}

func leagueSummaryToDTO(s usecase.LeagueSummary) leagueSummaryDTO {
	return leagueSummaryDTO{
		League:      leagueToDTO(s.League),
		MemberCount: s.MemberCount,
		PaidCount:   s.PaidCount,
		IsCreator:   s.IsCreator,
		IsMember:    s.IsMember,
		IsPaid:      s.IsPaid,
	}
}

func poolToDTO(p prizepool.Pool) prizePoolDTO {
	places := make([]prizePlaceDTO, 0, len(p.Distribution))
	for _, place := range p.Distribution {
		places = append(places, prizePlaceDTO{
			Position:   place.Position,
			Percentage: place.Percentage,
			Amount:     money(place.Amount),
		})
	}
	return prizePoolDTO{
		TotalPool:    money(p.TotalPool),
		Rake:         money(p.Rake),
		NetPool:      money(p.NetPool),
		Distribution: places,
	}
}

func leagueDetailToDTO(d usecase.LeagueDetail) leagueDetailDTO {
	members := make([]leagueMemberDTO, 0, len(d.Members))
	for _, m := range d.Members {
		members = append(members, leagueMemberDTO{
			UserID:   m.UserID,
			UserName: m.UserName,
			Paid:     m.Paid,
			JoinedAt: formatTime(m.JoinedAt),
		})
	}
	return leagueDetailDTO{
		leagueSummaryDTO: leagueSummaryToDTO(d.LeagueSummary),
		Members:          members,
		Pool:             poolToDTO(d.Pool),
	}
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
