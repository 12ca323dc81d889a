package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"opensails/internal/config"
	"opensails/internal/db"
	apperrors "opensails/internal/errors"
	"opensails/internal/logger"
	"opensails/internal/model"
	"opensails/internal/repository"
)

// seedPassword is shared by every seeded account.
const seedPassword = "password123"

type seedUser struct {
	Name  string
	Email string
	Role  model.Role
}

var seedUsers = []seedUser{
	{Name: "Admin", Email: "admin@opensails.local", Role: model.RoleAdmin},
	{Name: "Olivia Owner", Email: "owner@opensails.local", Role: model.RoleUser},
	{Name: "Bob Bidder", Email: "bob@opensails.local", Role: model.RoleUser},
	{Name: "Carol Bidder", Email: "carol@opensails.local", Role: model.RoleUser},
	{Name: "Dave Bidder", Email: "dave@opensails.local", Role: model.RoleUser},
}

// seedBids are placed on the seeded collection, one per bidder in order.
var seedBids = []string{"100.00", "120.00", "90.00"}

func main() {
	configPath := pflag.StringP("config", "c", "", "path to an optional YAML config file")
	reset := pflag.Bool("reset", false, "drop and recreate every table before seeding")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := seed(context.Background(), cfg, *reset, log); err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}
}

func seed(ctx context.Context, cfg *config.Config, reset bool, log *zap.Logger) error {
	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN, db.Options{})
	if err != nil {
		return err
	}
	log.Info("connected to database", zap.String("driver", cfg.DBDriver))

	if reset || cfg.ResetDB {
		if err := db.Reset(gormDB); err != nil {
			return err
		}
		log.Warn("database reset")
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	users := repository.NewUserRepository(gormDB)
	collections := repository.NewCollectionRepository(gormDB)
	bids := repository.NewBidRepository(gormDB)

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	ids := make([]uint, 0, len(seedUsers))
	created := 0
	for _, su := range seedUsers {
		user, isNew, err := ensureUser(ctx, users, su, string(hash))
		if err != nil {
			return err
		}
		if isNew {
			created++
		}
		ids = append(ids, user.ID)
	}
	log.Info("users seeded", zap.Int("created", created), zap.Int("total", len(ids)))

	ownerID := ids[1]
	owned, err := collections.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return err
	}
	if len(owned) > 0 {
		log.Info("collections already seeded, skipping", zap.Uint("owner_id", ownerID))
		return nil
	}

	desc := "Twelve used 1U servers, racked and tested."
	collection := &model.Collection{
		Name:         "Rack of Dell R640",
		Descriptions: &desc,
		Price:        decimal.RequireFromString("1500.00"),
		Stocks:       12,
		OwnerID:      ownerID,
	}
	if err := collections.Create(ctx, collection); err != nil {
		return err
	}

	for i, price := range seedBids {
		bid := &model.Bid{
			CollectionID: collection.ID,
			UserID:       ids[2+i],
			Price:        decimal.RequireFromString(price),
		}
		if err := bids.Create(ctx, bid); err != nil {
			return err
		}
	}

	log.Info("seed completed",
		zap.Uint("collection_id", collection.ID),
		zap.Int("bids", len(seedBids)),
	)
	return nil
}

// ensureUser returns the existing user with su's email or creates it.
func ensureUser(ctx context.Context, repo repository.UserRepository, su seedUser, hash string) (*model.User, bool, error) {
	existing, err := repo.FindByEmail(ctx, su.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("look up %s: %w", su.Email, err)
	}

	user := &model.User{
		Name:         su.Name,
		Email:        su.Email,
		PasswordHash: hash,
		Role:         su.Role,
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create %s: %w", su.Email, err)
	}
	return user, true, nil
}
