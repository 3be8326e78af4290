package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"catalog-backend/config"
	"catalog-backend/db"
	"catalog-backend/internal/domain"
	pgrepo "catalog-backend/internal/repository/postgres"
	"catalog-backend/internal/usecase"
	"catalog-backend/pkg/logger"
	"catalog-backend/pkg/utils"
)

const usage = `usage: tools <command> [flags]

commands:
  migrate                      apply pending schema migrations
  rebuild-cache [-product ID]  rebuild variant attribute caches
  token [-email E] [-ttl D]    print an admin JWT for local use
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.LoadConfig()
	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "migrate":
		err = runMigrate(cfg)
	case "rebuild-cache":
		err = runRebuildCache(cfg, args)
	case "token":
		err = runToken(cfg, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("Command failed")
	}
}

func runMigrate(cfg *config.Config) error {
	ctx := context.Background()
	pool, err := pgrepo.NewPgxPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	n, err := pgrepo.Migrate(ctx, pool, db.Migrations, "migrations")
	if err != nil {
		return err
	}
	logger.Info().Int("applied", n).Msg("Migrations complete")
	return nil
}

func runRebuildCache(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("rebuild-cache", flag.ExitOnError)
	productID := fs.Int64("product", 0, "rebuild only this product's variants")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CacheRebuildTimeout)
	defer cancel()

	pool, err := pgrepo.NewPgxPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	sync := usecase.NewCacheSyncUsecase(
		pgrepo.NewTransactionManager(pool),
		pgrepo.NewVariantRepository(pool),
		pgrepo.NewAssignmentRepository(pool),
		cfg.CacheRebuildChunkSize,
	)

	if *productID > 0 {
		n, err := sync.RebuildForProduct(ctx, *productID)
		if err != nil {
			return err
		}
		logger.Info().Int64("product_id", *productID).Int("variants", n).Msg("Product cache rebuilt")
		return nil
	}

	var stats domain.RebuildStats
	stats, err = sync.RebuildAll(ctx)
	if err != nil {
		return err
	}
	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d products failed to rebuild", stats.Failed, stats.Products)
	}
	return nil
}

func runToken(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	email := fs.String("email", "admin@localhost", "token subject email")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.Env == "production" {
		return fmt.Errorf("token command is disabled in production")
	}

	utils.SetSecret(cfg.JWTSecret)
	token, err := utils.GenerateJWT("local-admin", *email, domain.RoleAdmin, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
