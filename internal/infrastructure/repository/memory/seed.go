package memory

import (
	"strconv"
	"time"

	"github.com/riskibarqy/bilardeando/internal/domain/matchday"
	"github.com/riskibarqy/bilardeando/internal/domain/player"
	"github.com/riskibarqy/bilardeando/internal/domain/team"
	"github.com/shopspring/decimal"
)

func SeedTeams() []team.Team {
	return []team.Team{
		{ID: "arg-river", Name: "River Plate", Short: "RIV", Tier: 1},
		{ID: "arg-boca", Name: "Boca Juniors", Short: "BOC", Tier: 1},
		{ID: "arg-racing", Name: "Racing Club", Short: "RAC", Tier: 1},
		{ID: "arg-estudiantes", Name: "Estudiantes de La Plata", Short: "EST", Tier: 2},
		{ID: "arg-velez", Name: "Velez Sarsfield", Short: "VEL", Tier: 2},
		{ID: "arg-lanus", Name: "Lanus", Short: "LAN", Tier: 3},
	}
}

var seedTeamNames = func() map[string]string {
	out := make(map[string]string)
	for _, t := range SeedTeams() {
		out[t.ID] = t.Name
	}
	return out
}()

func seedPlayer(id, teamID, name string, pos player.Position, price string, rating float64) player.Player {
	p := player.Player{
		ID:       id,
		TeamID:   teamID,
		TeamName: seedTeamNames[teamID],
		Name:     name,
		Position: pos,
		Price:    decimal.RequireFromString(price),
	}
	if rating > 0 {
		p.Rating = &rating
	}
	return p
}

// SeedPlayers returns enough players per position to fill any formation
// plus a full bench.
func SeedPlayers() []player.Player {
	const (
		gk  = player.PositionGoalkeeper
		def = player.PositionDefender
		mid = player.PositionMidfielder
		fwd = player.PositionForward
	)
	return []player.Player{
		seedPlayer("arg-gk-01", "arg-river", "Franco Armani", gk, "7.5", 7.1),
		seedPlayer("arg-gk-02", "arg-boca", "Agustin Marchesin", gk, "6.5", 6.9),
		seedPlayer("arg-gk-03", "arg-racing", "Gabriel Arias", gk, "6.0", 7.0),
		seedPlayer("arg-gk-04", "arg-lanus", "Nahuel Losada", gk, "4.5", 0),

		seedPlayer("arg-def-01", "arg-river", "Paulo Diaz", def, "7.0", 7.2),
		seedPlayer("arg-def-02", "arg-river", "Marcos Acuna", def, "7.5", 7.0),
		seedPlayer("arg-def-03", "arg-boca", "Marcos Rojo", def, "6.5", 6.8),
		seedPlayer("arg-def-04", "arg-boca", "Luis Advincula", def, "6.0", 6.9),
		seedPlayer("arg-def-05", "arg-racing", "Marco Di Cesare", def, "5.5", 6.7),
		seedPlayer("arg-def-06", "arg-estudiantes", "Santiago Nunez", def, "5.0", 6.6),
		seedPlayer("arg-def-07", "arg-velez", "Emanuel Mammana", def, "5.0", 6.5),
		seedPlayer("arg-def-08", "arg-lanus", "Jose Canale", def, "4.5", 6.4),
		seedPlayer("arg-def-09", "arg-velez", "Joaquin Garcia", def, "4.0", 0),

		seedPlayer("arg-mid-01", "arg-river", "Manuel Lanzini", mid, "9.0", 7.3),
		seedPlayer("arg-mid-02", "arg-river", "Enzo Perez", mid, "7.0", 7.0),
		seedPlayer("arg-mid-03", "arg-boca", "Cristian Medina", mid, "8.0", 7.1),
		seedPlayer("arg-mid-04", "arg-boca", "Pol Fernandez", mid, "6.5", 6.8),
		seedPlayer("arg-mid-05", "arg-racing", "Juan Fernando Quintero", mid, "9.5", 7.4),
		seedPlayer("arg-mid-06", "arg-estudiantes", "Jose Sosa", mid, "7.5", 7.2),
		seedPlayer("arg-mid-07", "arg-velez", "Claudio Baeza", mid, "5.5", 6.7),
		seedPlayer("arg-mid-08", "arg-lanus", "Raul Loaiza", mid, "5.0", 6.5),
		seedPlayer("arg-mid-09", "arg-lanus", "Marcelino Moreno", mid, "6.0", 0),

		seedPlayer("arg-fwd-01", "arg-river", "Miguel Borja", fwd, "11.0", 7.5),
		seedPlayer("arg-fwd-02", "arg-boca", "Edinson Cavani", fwd, "12.5", 7.3),
		seedPlayer("arg-fwd-03", "arg-racing", "Adrian Martinez", fwd, "10.5", 7.6),
		seedPlayer("arg-fwd-04", "arg-estudiantes", "Guido Carrillo", fwd, "8.0", 7.0),
		seedPlayer("arg-fwd-05", "arg-velez", "Braian Romero", fwd, "8.5", 7.1),
		seedPlayer("arg-fwd-06", "arg-lanus", "Walter Bou", fwd, "7.0", 6.9),
		seedPlayer("arg-fwd-07", "arg-velez", "Thiago Fernandez", fwd, "5.5", 0),
	}
}

// SeedMatchdays returns the demo fixture calendar, one round per week.
func SeedMatchdays() []matchday.Matchday {
	start := time.Date(2026, time.February, 6, 20, 0, 0, 0, time.UTC)
	out := make([]matchday.Matchday, 0, 6)
	for i := int64(1); i <= 6; i++ {
		status := matchday.StatusOpen
		if i == 1 {
			status = matchday.StatusFinished
		}
		out = append(out, matchday.Matchday{
			ID:        i,
			Name:      "Fecha " + strconv.FormatInt(i, 10),
			Status:    status,
			StartDate: start.AddDate(0, 0, int(7*(i-1))),
		})
	}
	return out
}
