package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"gopkg.in/yaml.v3"

	"github.com/riskibarqy/plus-predictor/internal/domain/fixture"
	"github.com/riskibarqy/plus-predictor/internal/domain/shop"
)

type seedFile struct {
	Teams []struct {
		ID        string `yaml:"id"`
		Name      string `yaml:"name"`
		ShortName string `yaml:"short_name"`
		LogoURL   string `yaml:"logo_url"`
	} `yaml:"teams"`
	Fixtures []struct {
		ID          string `yaml:"id"`
		Competition string `yaml:"competition"`
		Matchday    int    `yaml:"matchday"`
		HomeTeamID  string `yaml:"home_team_id"`
		AwayTeamID  string `yaml:"away_team_id"`
		KickoffIn   string `yaml:"kickoff_in"`
		Venue       string `yaml:"venue"`
	} `yaml:"fixtures"`
	Products []struct {
		ID          string `yaml:"id"`
		Slug        string `yaml:"slug"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Price       string `yaml:"price"`
		Stock       int    `yaml:"stock"`
		ImageURL    string `yaml:"image_url"`
	} `yaml:"products"`
}

// BootstrapSeed loads demo teams, fixtures and products into an empty database.
// It returns false without writing when teams already exist.
func BootstrapSeed(ctx context.Context, db *sqlx.DB, raw []byte, now time.Time) (bool, error) {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM teams`); err != nil {
		return false, fmt.Errorf("count teams for bootstrap seed: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	var data seedFile
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return false, fmt.Errorf("decode seed yaml: %w", err)
	}
	now = now.UTC().Truncate(time.Second)

	err := withTx(ctx, db, "bootstrap seed", func(tx *sqlx.Tx) error {
		for _, t := range data.Teams {
			if err := namedExec(ctx, tx, `
INSERT INTO teams (id, name, short_name, logo_url, created_at, updated_at)
VALUES (:id, :name, :short_name, :logo_url, :now, :now)
ON CONFLICT (id) DO NOTHING`, map[string]any{
				"id":         t.ID,
				"name":       t.Name,
				"short_name": t.ShortName,
				"logo_url":   t.LogoURL,
				"now":        now,
			}); err != nil {
				return fmt.Errorf("seed team %s: %w", t.ID, err)
			}
		}

		for _, f := range data.Fixtures {
			offset, err := time.ParseDuration(f.KickoffIn)
			if err != nil {
				return fmt.Errorf("seed fixture %s kickoff_in: %w", f.ID, err)
			}
			if err := namedExec(ctx, tx, `
INSERT INTO fixtures (id, competition, matchday, home_team_id, away_team_id, kickoff_at, venue, status, scorers, created_at, updated_at)
VALUES (:id, :competition, :matchday, :home_team_id, :away_team_id, :kickoff_at, :venue, :status, '[]', :now, :now)
ON CONFLICT (id) DO NOTHING`, map[string]any{
				"id":           f.ID,
				"competition":  f.Competition,
				"matchday":     f.Matchday,
				"home_team_id": f.HomeTeamID,
				"away_team_id": f.AwayTeamID,
				"kickoff_at":   now.Truncate(time.Hour).Add(offset),
				"venue":        f.Venue,
				"status":       fixture.StatusScheduled,
				"now":          now,
			}); err != nil {
				return fmt.Errorf("seed fixture %s: %w", f.ID, err)
			}
		}

		for _, p := range data.Products {
			price, err := shop.ParseAmount(p.Price)
			if err != nil {
				return fmt.Errorf("seed product %s price: %w", p.ID, err)
			}
			if err := namedExec(ctx, tx, `
INSERT INTO shop_products (id, slug, name, description, price_cents, currency, stock, image_url, active, created_at, updated_at)
VALUES (:id, :slug, :name, :description, :price_cents, :currency, :stock, :image_url, :active, :now, :now)
ON CONFLICT (id) DO NOTHING`, map[string]any{
				"id":          p.ID,
				"slug":        p.Slug,
				"name":        p.Name,
				"description": p.Description,
				"price_cents": price,
				"currency":    shop.CurrencyEUR,
				"stock":       p.Stock,
				"image_url":   p.ImageURL,
				"active":      true,
				"now":         now,
			}); err != nil {
				return fmt.Errorf("seed product %s: %w", p.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func namedExec(ctx context.Context, tx *sqlx.Tx, query string, arg map[string]any) error {
	sqlQuery, args, err := sqlx.Named(query, arg)
	if err != nil {
		return fmt.Errorf("bind query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(sqlQuery), args...); err != nil {
		return err
	}
	return nil
}
