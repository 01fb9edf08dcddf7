package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/bilardeando/internal/domain/customleague"
	"github.com/riskibarqy/bilardeando/internal/domain/formation"
	"github.com/riskibarqy/bilardeando/internal/domain/matchday"
	"github.com/riskibarqy/bilardeando/internal/domain/player"
	"github.com/riskibarqy/bilardeando/internal/domain/squad"
	"github.com/riskibarqy/bilardeando/internal/domain/team"
	"github.com/riskibarqy/bilardeando/internal/domain/transaction"
	"github.com/riskibarqy/bilardeando/internal/domain/user"
	"github.com/shopspring/decimal"
)

type teamTableModel struct {
	ID      string `db:"id"`
	Name    string `db:"name"`
	Short   string `db:"short"`
	LogoURL string `db:"logo_url"`
	Tier    int    `db:"tier"`
}

func (m teamTableModel) toDomain() team.Team {
	return team.Team{
		ID:      m.ID,
		Name:    m.Name,
		Short:   m.Short,
		LogoURL: m.LogoURL,
		Tier:    m.Tier,
	}
}

type playerTableModel struct {
	ID       string          `db:"id"`
	TeamID   string          `db:"team_id"`
	TeamName string          `db:"team_name"`
	Name     string          `db:"name"`
	Position string          `db:"position"`
	Price    decimal.Decimal `db:"price"`
	Rating   sql.NullFloat64 `db:"rating"`
	PhotoURL string          `db:"photo_url"`
}

func (m playerTableModel) toDomain() player.Player {
	p := player.Player{
		ID:       m.ID,
		TeamID:   m.TeamID,
		TeamName: m.TeamName,
		Name:     m.Name,
		Position: player.Position(m.Position),
		Price:    m.Price,
		PhotoURL: m.PhotoURL,
	}
	if m.Rating.Valid {
		rating := m.Rating.Float64
		p.Rating = &rating
	}
	return p
}

type matchdayTableModel struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Status    string    `db:"status"`
	StartDate time.Time `db:"start_date"`
}

func (m matchdayTableModel) toDomain() matchday.Matchday {
	return matchday.Matchday{
		ID:        m.ID,
		Name:      m.Name,
		Status:    matchday.Status(m.Status),
		StartDate: m.StartDate,
	}
}

type userTableModel struct {
	ID            string          `db:"id"`
	Name          string          `db:"name"`
	Email         string          `db:"email"`
	VirtualBudget decimal.Decimal `db:"virtual_budget"`
	RealBalance   decimal.Decimal `db:"real_balance"`
	AIUnlocked    bool            `db:"ai_unlocked"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (m userTableModel) toDomain() user.Account {
	return user.Account{
		ID:            m.ID,
		Name:          m.Name,
		Email:         m.Email,
		VirtualBudget: m.VirtualBudget,
		RealBalance:   m.RealBalance,
		AIUnlocked:    m.AIUnlocked,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

type squadTableModel struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Formation string    `db:"formation"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (m squadTableModel) toDomain(members []squad.Member) squad.Squad {
	return squad.Squad{
		ID:        m.ID,
		UserID:    m.UserID,
		Formation: formation.Code(m.Formation),
		Members:   members,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// squadPlayerRow is a squad_players row joined with its catalog player.
type squadPlayerRow struct {
	playerTableModel
	IsStarter    bool      `db:"is_starter"`
	IsCaptain    bool      `db:"is_captain"`
	IsCaptainSub bool      `db:"is_captain_sub"`
	AddedAt      time.Time `db:"added_at"`
}

func (m squadPlayerRow) toDomain() squad.Member {
	return squad.Member{
		Player:       m.playerTableModel.toDomain(),
		IsStarter:    m.IsStarter,
		IsCaptain:    m.IsCaptain,
		IsCaptainSub: m.IsCaptainSub,
		AddedAt:      m.AddedAt,
	}
}

type transactionTableModel struct {
	ID           string          `db:"id"`
	UserID       string          `db:"user_id"`
	Type         string          `db:"type"`
	Status       string          `db:"status"`
	Amount       decimal.Decimal `db:"amount"`
	Fee          decimal.Decimal `db:"fee"`
	Description  string          `db:"description"`
	LeagueID     sql.NullString  `db:"league_id"`
	TierID       sql.NullString  `db:"tier_id"`
	PreferenceID sql.NullString  `db:"preference_id"`
	PaymentID    sql.NullString  `db:"payment_id"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

func newTransactionTableModel(tx transaction.Transaction) transactionTableModel {
	return transactionTableModel{
		ID:           tx.ID,
		UserID:       tx.UserID,
		Type:         string(tx.Type),
		Status:       string(tx.Status),
		Amount:       tx.Amount,
		Fee:          tx.Fee,
		Description:  tx.Description,
		LeagueID:     nullString(tx.LeagueID),
		TierID:       nullString(tx.TierID),
		PreferenceID: nullString(tx.PreferenceID),
		PaymentID:    nullString(tx.PaymentID),
		CreatedAt:    tx.CreatedAt,
		UpdatedAt:    tx.UpdatedAt,
	}
}

func (m transactionTableModel) toDomain() transaction.Transaction {
	return transaction.Transaction{
		ID:           m.ID,
		UserID:       m.UserID,
		Type:         transaction.Type(m.Type),
		Status:       transaction.Status(m.Status),
		Amount:       m.Amount,
		Fee:          m.Fee,
		Description:  m.Description,
		LeagueID:     m.LeagueID.String,
		TierID:       m.TierID.String,
		PreferenceID: m.PreferenceID.String,
		PaymentID:    m.PaymentID.String,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type privateLeagueTableModel struct {
	ID              string          `db:"id"`
	Name            string          `db:"name"`
	InviteCode      string          `db:"invite_code"`
	Status          string          `db:"status"`
	BuyIn           decimal.Decimal `db:"buy_in"`
	MaxPlayers      int             `db:"max_players"`
	RakePercent     decimal.Decimal `db:"rake_percent"`
	CreatorID       string          `db:"creator_id"`
	StartMatchdayID int64           `db:"start_matchday_id"`
	EndMatchdayID   int64           `db:"end_matchday_id"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

func newPrivateLeagueTableModel(l customleague.League) privateLeagueTableModel {
	return privateLeagueTableModel{
		ID:              l.ID,
		Name:            l.Name,
		InviteCode:      l.InviteCode,
		Status:          string(l.Status),
		BuyIn:           l.BuyIn,
		MaxPlayers:      l.MaxPlayers,
		RakePercent:     l.RakePercent,
		CreatorID:       l.CreatorID,
		StartMatchdayID: l.StartMatchdayID,
		EndMatchdayID:   l.EndMatchdayID,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

func (m privateLeagueTableModel) toDomain() customleague.League {
	return customleague.League{
		ID:              m.ID,
		Name:            m.Name,
		InviteCode:      m.InviteCode,
		Status:          customleague.Status(m.Status),
		BuyIn:           m.BuyIn,
		MaxPlayers:      m.MaxPlayers,
		RakePercent:     m.RakePercent,
		CreatorID:       m.CreatorID,
		StartMatchdayID: m.StartMatchdayID,
		EndMatchdayID:   m.EndMatchdayID,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

type leagueMemberTableModel struct {
	LeagueID string    `db:"league_id"`
	UserID   string    `db:"user_id"`
	UserName string    `db:"user_name"`
	Paid     bool      `db:"paid"`
	JoinedAt time.Time `db:"joined_at"`
}

func (m leagueMemberTableModel) toDomain() customleague.Member {
	return customleague.Member{
		LeagueID: m.LeagueID,
		UserID:   m.UserID,
		UserName: m.UserName,
		Paid:     m.Paid,
		JoinedAt: m.JoinedAt,
	}
}
