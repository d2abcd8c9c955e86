package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"digital-storefront/internal/config"
	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/infra/db/migrations"
	pg "digital-storefront/internal/infra/db/postgres"
	"digital-storefront/internal/infra/logging"
	"digital-storefront/internal/usecase"
)

func int64p(v int64) *int64 { return &v }

// catalog covers every product type and both delivery modes.
var catalog = []model.Product{
	{ID: "netflix-premium", Name: "Netflix Premium", Category: "streaming", Price: 1200, OriginalPrice: int64p(1500), ProductType: model.ProductTypeAccount, DeliveryType: model.DeliveryAuto, Stock: 50, DurationDays: 30, WarrantyDays: 30},
	{ID: "spotify-family", Name: "Spotify Family", Category: "streaming", Price: 900, ProductType: model.ProductTypeSubscription, DeliveryType: model.DeliveryAuto, Stock: 20, DurationDays: 30, WarrantyDays: 30},
	{ID: "office-pro", Name: "Office Pro", Category: "software", Price: 4500, OriginalPrice: int64p(9900), ProductType: model.ProductTypeLicenseKey, DeliveryType: model.DeliveryAuto, Stock: 100},
	{ID: "photo-editor", Name: "Photo Editor", Category: "software", Price: 2500, ProductType: model.ProductTypeDownload, DeliveryType: model.DeliveryAuto, Stock: 999},
	{ID: "vpn-yearly", Name: "VPN Yearly", Category: "security", Price: 3000, ProductType: model.ProductTypeAccount, DeliveryType: model.DeliveryManual, Stock: 10, DurationDays: 365, WarrantyDays: 90},
	{ID: "game-pass", Name: "Game Pass", Category: "gaming", Price: 1500, ProductType: model.ProductTypeSubscription, DeliveryType: model.DeliveryAuto, Stock: 0, DurationDays: 30},
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	userID := flag.String("credit-user", "", "optional user id to top up with stored balance")
	amount := flag.Int64("credit-amount", 10_000, "stored-balance amount in minor units")
	flag.Parse()

	cfg, err := config.Load(*cfgPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := migrations.Up(cfg.Database.MigrationURL); err != nil {
		logger.Fatal().Err(err).Msg("migrations")
	}
	pool, err := pg.Connect(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	catalogUC := usecase.NewCatalogUseCase(pg.NewProductRepo(pool))
	for i := range catalog {
		p := catalog[i]
		if err := catalogUC.Upsert(ctx, &p); err != nil {
			logger.Fatal().Err(err).Str("product_id", p.ID).Msg("upsert product")
		}
		fmt.Printf("seeded: %s (%s/%s, price=%d, stock=%d)\n", p.ID, p.ProductType, p.DeliveryType, p.Price, p.Stock)
	}

	if *userID != "" {
		balances := usecase.NewBalanceUseCase(pg.NewBalanceRepo(pool), logger)
		agent := model.Actor{UserID: "seed", Role: model.RoleSupport}
		total, err := balances.Credit(ctx, agent, *userID, *amount)
		if err != nil {
			logger.Fatal().Err(err).Msg("credit balance")
		}
		fmt.Printf("credited %s: balance=%d\n", *userID, total)
	}

	fmt.Println("Seeding complete.")
}
