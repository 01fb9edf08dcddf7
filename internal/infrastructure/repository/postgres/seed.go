package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/bilardeando/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads the demo catalog into an empty database. It is a no-op
// once any team exists.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM teams`); err != nil {
		return fmt.Errorf("count teams for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	return withTx(ctx, db, "bootstrap seed", func(tx *sqlx.Tx) error {
		for _, t := range memory.SeedTeams() {
			if _, err := execNamed(ctx, tx, `
INSERT INTO teams (id, name, short, logo_url, tier)
VALUES (:id, :name, :short, :logo_url, :tier)
ON CONFLICT (id) DO NOTHING`, map[string]any{
				"id":       t.ID,
				"name":     t.Name,
				"short":    t.Short,
				"logo_url": t.LogoURL,
				"tier":     t.Tier,
			}); err != nil {
				return fmt.Errorf("seed team %s: %w", t.ID, err)
			}
		}

		for _, p := range memory.SeedPlayers() {
			rating := sql.NullFloat64{}
			if p.Rating != nil {
				rating = sql.NullFloat64{Float64: *p.Rating, Valid: true}
			}
			if _, err := execNamed(ctx, tx, `
INSERT INTO players (id, team_id, name, position, price, rating, photo_url)
VALUES (:id, :team_id, :name, :position, :price, :rating, :photo_url)
ON CONFLICT (id) DO NOTHING`, map[string]any{
				"id":        p.ID,
				"team_id":   p.TeamID,
				"name":      p.Name,
				"position":  string(p.Position),
				"price":     p.Price,
				"rating":    rating,
				"photo_url": p.PhotoURL,
			}); err != nil {
				return fmt.Errorf("seed player %s: %w", p.ID, err)
			}
		}

		for _, md := range memory.SeedMatchdays() {
			if _, err := execNamed(ctx, tx, `
INSERT INTO matchdays (id, name, status, start_date)
VALUES (:id, :name, :status, :start_date)
ON CONFLICT (id) DO NOTHING`, map[string]any{
				"id":         md.ID,
				"name":       md.Name,
				"status":     string(md.Status),
				"start_date": md.StartDate,
			}); err != nil {
				return fmt.Errorf("seed matchday %d: %w", md.ID, err)
			}
		}
		return nil
	})
}
