package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mmcloughlin/geohash"

	"github.com/lazatu/realty-api/internal/db"
	"github.com/lazatu/realty-api/internal/property"
)

func main() {
	slog.Info("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		slog.Error("POSTGRES_DSN is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		slog.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	steps := []struct {
		name string
		fn   func(context.Context, *pgxpool.Pool) error
	}{
		{"lookups", seedLookups},
		{"users", seedUsers},
		{"properties", seedProperties},
	}

	for _, step := range steps {
		if err := step.fn(context.Background(), pool); err != nil {
			slog.Error("seed step failed", slog.String("step", step.name), slog.Any("error", err))
			os.Exit(1)
		}
		slog.Info("seed step complete", slog.String("step", step.name))
	}

	slog.Info("seed complete")
}

func seedLookups(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	lookups := map[string][]string{
		"appointment_statuses": {"Confirmed", "Pending", "Rejected", "Cancelled", "Reschedule", "Completed", "Expired"},
		"property_statuses":    {"Published", "Pending", "Rejected", "Closed"},
		"property_types":       {"Condominium", "Office Space", "House and Lot"},
		"property_offer_types": {"For Sale", "For Rent", "Pre-Selling"},
		"furnished_types":      {"Unfurnished", "Semi-Furnished", "Fully Furnished"},
		"roles":                {"super-admin", "admin", "business", "customer"},
		"features":             {"Swimming Pool", "Gym", "Parking", "Balcony", "Garden", "Security", "Elevator", "Pet Friendly"},
	}

	for table, names := range lookups {
		for i, name := range names {
			_, err := tx.Exec(ctx, fmt.Sprintf(`
				INSERT INTO %s (id, name)
				VALUES ($1, $2)
				ON CONFLICT (id) DO NOTHING
			`, table), i+1, name)
			if err != nil {
				return fmt.Errorf("seed %s: %w", table, err)
			}
		}
	}

	return tx.Commit(ctx)
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// id 1 super-admin, 2-4 admins, 5-24 business accounts, rest customers.
	const total = 200

	for id := int64(1); id <= total; id++ {
		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, first_name, last_name, mobile, email, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
			ON CONFLICT (id) DO NOTHING
		`, id, gofakeit.FirstName(), gofakeit.LastName(),
			gofakeit.Phone(), gofakeit.Email())
		if err != nil {
			return err
		}

		roleID := int64(4)
		switch {
		case id == 1:
			roleID = 1
		case id <= 4:
			roleID = 2
		case id <= 24:
			roleID = 3
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO role_user (user_id, role_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, id, roleID)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func seedProperties(ctx context.Context, pool *pgxpool.Pool) error {
	const count = 500

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now()

	for i := int64(1); i <= count; i++ {
		typeID := property.PropertyType(gofakeit.Number(1, 3))
		ownerID := int64(gofakeit.Number(5, 24))
		lat := gofakeit.Float64Range(14.4, 14.8)
		lon := gofakeit.Float64Range(120.9, 121.1)

		status := property.StatusPublished
		var expiredAt *time.Time
		if gofakeit.Number(1, 10) <= 7 {
			t := now.AddDate(0, 0, gofakeit.Number(-10, property.ExpiredAfterDays))
			expiredAt = &t
		} else {
			status = property.Status(gofakeit.Number(2, 4))
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO properties (id, listing_id, property_type_id, offer_type_id,
				furnished_type_id, name, description, bedroom_count, bathroom_count,
				garage_count, lot_size, floor_size, price, price_per_sqm,
				address, formatted_address, unit, building_name, street, barangay,
				city, zip_code, latitude, longitude, location_hash, developer,
				occupied, property_status_id, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
				$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27,
				$28, $29, now(), now())
			ON CONFLICT (id) DO NOTHING
		`,
			i, property.GenerateListingID(typeID, now, ownerID, i), typeID,
			gofakeit.Number(1, 3), gofakeit.Number(1, 3),
			gofakeit.Company()+" "+gofakeit.StreetName(), gofakeit.Paragraph(1, 3, 12, " "),
			gofakeit.Number(0, 5), gofakeit.Number(1, 4), gofakeit.Number(0, 2),
			gofakeit.Float64Range(20, 500), gofakeit.Float64Range(20, 400),
			gofakeit.Float64Range(500_000, 50_000_000), gofakeit.Float64Range(50_000, 300_000),
			gofakeit.Street(), gofakeit.Address().Address, gofakeit.DigitN(3),
			gofakeit.Company(), gofakeit.StreetName(), gofakeit.City(),
			gofakeit.City(), gofakeit.Zip(), lat, lon, geohash.Encode(lat, lon),
			gofakeit.Company(), gofakeit.Bool(), status, ownerID,
		)
		if err != nil {
			return err
		}

		if expiredAt != nil {
			if _, err := tx.Exec(ctx, `
				UPDATE properties SET expired_at = $2, verified_at = now(), verified_by = 2
				WHERE id = $1
			`, i, *expiredAt); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}
