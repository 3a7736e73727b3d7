package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/spec-kit/inventory-service/internal/config"
	"github.com/spec-kit/inventory-service/internal/observability"
	"github.com/spec-kit/inventory-service/internal/persistence"
	"github.com/spec-kit/inventory-service/internal/repository"
	"github.com/spec-kit/inventory-service/internal/seed"
)

func main() {
	email := flag.String("email", "admin@inventory.com", "admin account email")
	name := flag.String("name", "Admin User", "admin display name")
	sample := flag.Bool("sample", false, "insert the sample catalog")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	if cfg.Postgres.DSN == "" {
		logger.Fatal("POSTGRES_DSN is required to seed")
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	seeder := seed.New(seed.Repositories{
		Users:      repository.NewUserRepository(pg.Pool),
		Categories: repository.NewCategoryRepository(pg.Pool),
		Suppliers:  repository.NewSupplierRepository(pg.Pool),
		Products:   repository.NewProductRepository(pg.Pool),
	}, cfg.Auth.BcryptCost, logger)

	password, err := adminPassword()
	if err != nil {
		logger.Fatal("failed to read admin password", zap.Error(err))
	}

	admin, err := seeder.EnsureAdmin(ctx, *name, *email, password)
	if err != nil {
		logger.Fatal("failed to seed admin", zap.Error(err))
	}
	fmt.Printf("admin ready: %s (%s)\n", admin.Email, admin.ID)

	if *sample {
		if err := seeder.SampleCatalog(ctx); err != nil {
			logger.Fatal("failed to seed sample catalog", zap.Error(err))
		}
	}
}

// adminPassword prefers SEED_ADMIN_PASSWORD, then prompts without echo on a
// terminal, then reads one line from stdin.
func adminPassword() (string, error) {
	if pw := os.Getenv("SEED_ADMIN_PASSWORD"); pw != "" {
		return pw, nil
	}

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Print("Enter admin password: ")
		pw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
