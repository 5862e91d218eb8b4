// Command seed loads a small, idempotent demo dataset for local development:
// a handful of users, merchants with pipelines, and a few activities.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/luisfigueroa/merchantflow-backend/internal/activities"
	"github.com/luisfigueroa/merchantflow-backend/internal/merchants"
	"github.com/luisfigueroa/merchantflow-backend/internal/onboarding"
	"github.com/luisfigueroa/merchantflow-backend/internal/payouts"
	"github.com/luisfigueroa/merchantflow-backend/internal/pipeline"
	"github.com/luisfigueroa/merchantflow-backend/internal/users"
	"github.com/luisfigueroa/merchantflow-backend/pkg/config"
	"github.com/luisfigueroa/merchantflow-backend/pkg/db"
	"github.com/luisfigueroa/merchantflow-backend/pkg/enums"
	"github.com/luisfigueroa/merchantflow-backend/pkg/logger"
	"github.com/luisfigueroa/merchantflow-backend/pkg/migrate"
	"github.com/luisfigueroa/merchantflow-backend/pkg/outbox"
	"github.com/luisfigueroa/merchantflow-backend/pkg/pagination"
	"github.com/luisfigueroa/merchantflow-backend/pkg/security"
)

const demoPassword = "merchantflow-dev"

type seedUser struct {
	name  string
	email string
	role  enums.UserRole
}

type seedMerchant struct {
	name     string
	category enums.MerchantCategory
	city     string
	district string
	repEmail string
	stage    enums.PipelineStage
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})
	ctx := context.Background()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}
	if cfg.App.IsProd() {
		logg.Error(ctx, "refusing to seed", errors.New("seed is not allowed in prod"))
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "seed failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "seed complete")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client) error {
	gdb := dbClient.DB()

	userRepo := users.NewRepository(gdb)
	merchantRepo := merchants.NewRepository(gdb)
	pipelineRepo := pipeline.NewRepository(gdb)
	onboardingRepo := onboarding.NewRepository(gdb)
	activityRepo := activities.NewRepository(gdb)
	payoutRepo := payouts.NewRepository(gdb)
	outboxSvc := outbox.NewService(outbox.NewRepository(gdb), logg)

	payoutSvc, err := payouts.NewService(payoutRepo, dbClient, outboxSvc)
	if err != nil {
		return err
	}
	onboardingSvc, err := onboarding.NewService(onboardingRepo, merchantRepo, payoutSvc, dbClient, outboxSvc, cfg.Payout)
	if err != nil {
		return err
	}
	pipelineSvc, err := pipeline.NewService(pipelineRepo, merchantRepo, onboardingSvc, payoutSvc, dbClient, outboxSvc, cfg.Payout)
	if err != nil {
		return err
	}
	merchantSvc, err := merchants.NewService(merchantRepo, pipelineRepo, userRepo, dbClient, outboxSvc)
	if err != nil {
		return err
	}
	activitySvc, err := activities.NewService(activityRepo, merchantRepo, dbClient, outboxSvc)
	if err != nil {
		return err
	}

	seededUsers, err := seedUsers(ctx, cfg, logg, userRepo)
	if err != nil {
		return err
	}

	admin := seededUsers["admin@merchantflow.example.com"]
	if admin == nil {
		return errors.New("admin user missing after seed")
	}

	return seedMerchants(ctx, logg, seededUsers, admin.ID, merchantSvc, pipelineSvc, activitySvc)
}

func seedUsers(ctx context.Context, cfg *config.Config, logg *logger.Logger, repo users.Repository) (map[string]*seededUser, error) {
	plan := []seedUser{
		{name: "Demo Admin", email: "admin@merchantflow.example.com", role: enums.UserRoleAdmin},
		{name: "Marta Delgado", email: "marta@merchantflow.example.com", role: enums.UserRoleManager},
		{name: "Jorge Castillo", email: "jorge@merchantflow.example.com", role: enums.UserRoleRep},
		{name: "Lucia Paredes", email: "lucia@merchantflow.example.com", role: enums.UserRoleRep},
	}

	hash, err := security.HashPassword(demoPassword, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	out := make(map[string]*seededUser, len(plan))
	for _, u := range plan {
		existing, err := repo.FindByEmail(ctx, u.email)
		if err == nil {
			out[u.email] = &seededUser{ID: existing.ID, Role: existing.Role}
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("lookup %s: %w", u.email, err)
		}

		created, err := repo.Create(ctx, users.CreateUserDTO{
			Name:         u.name,
			Email:        u.email,
			PasswordHash: hash,
			Role:         u.role,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", u.email, err)
		}
		out[u.email] = &seededUser{ID: created.ID, Role: created.Role}
		logg.Info(logg.WithField(ctx, "email", u.email), "seeded user")
	}
	return out, nil
}

type seededUser struct {
	ID   uuid.UUID
	Role enums.UserRole
}

func seedMerchants(
	ctx context.Context,
	logg *logger.Logger,
	seededUsers map[string]*seededUser,
	actorID uuid.UUID,
	merchantSvc merchants.Service,
	pipelineSvc pipeline.Service,
	activitySvc activities.Service,
) error {
	plan := []seedMerchant{
		{name: "La Cevicheria Central", category: enums.MerchantCategoryRestaurant, city: "Lima", district: "Miraflores", repEmail: "jorge@merchantflow.example.com", stage: enums.PipelineStageContacted},
		{name: "Bodega San Martin", category: enums.MerchantCategoryGrocery, city: "Lima", district: "Surquillo", repEmail: "jorge@merchantflow.example.com", stage: enums.PipelineStagePendingFirstVisit},
		{name: "Farmacia El Sol", category: enums.MerchantCategoryPharmacy, city: "Arequipa", district: "Cercado", repEmail: "lucia@merchantflow.example.com", stage: enums.PipelineStageMeetingScheduled},
		{name: "TecnoHogar Express", category: enums.MerchantCategoryElectronics, city: "Lima", district: "San Isidro", repEmail: "lucia@merchantflow.example.com", stage: enums.PipelineStagePendingFirstVisit},
	}

	var errs []error
	for _, m := range plan {
		if err := seedOneMerchant(ctx, logg, m, seededUsers, actorID, merchantSvc, pipelineSvc, activitySvc); err != nil {
			errs = append(errs, err)
		}
	}
	return multierr.Combine(errs...)
}

func seedOneMerchant(
	ctx context.Context,
	logg *logger.Logger,
	m seedMerchant,
	seededUsers map[string]*seededUser,
	actorID uuid.UUID,
	merchantSvc merchants.Service,
	pipelineSvc pipeline.Service,
	activitySvc activities.Service,
) error {
	rep := seededUsers[m.repEmail]
	if rep == nil {
		return fmt.Errorf("rep %s missing for merchant %s", m.repEmail, m.name)
	}

	existing, err := merchantSvc.List(ctx, pagination.Params{Limit: 1}, merchants.ListFilters{Query: m.name})
	if err != nil {
		return fmt.Errorf("lookup merchant %s: %w", m.name, err)
	}
	if len(existing.Merchants) > 0 {
		return nil
	}

	city := m.city
	district := m.district
	created, err := merchantSvc.Create(ctx, merchants.CreateInput{
		Name:          m.name,
		Category:      m.category,
		City:          &city,
		District:      &district,
		AssignedRepID: rep.ID,
		ActorUserID:   actorID,
		ActorRole:     string(enums.UserRoleAdmin),
	})
	if err != nil {
		return fmt.Errorf("create merchant %s: %w", m.name, err)
	}
	logg.Info(logg.WithField(ctx, "merchant", m.name), "seeded merchant")

	// New merchants start at PENDING_FIRST_VISIT; walk the demo pipeline
	// forward one stage at a time.
	for _, stage := range stagePath(m.stage) {
		if _, err := pipelineSvc.Transition(ctx, pipeline.TransitionInput{
			MerchantID:  created.ID,
			NewStage:    stage,
			ActorUserID: rep.ID,
			ActorRole:   string(rep.Role),
		}); err != nil {
			return fmt.Errorf("transition %s to %s: %w", m.name, stage, err)
		}
	}

	if m.stage != enums.PipelineStagePendingFirstVisit {
		notes := "Intro visit during seed"
		if _, err := activitySvc.Log(ctx, activities.LogInput{
			MerchantID:      created.ID,
			Type:            enums.ActivityTypeVisit,
			Outcome:         enums.ActivityOutcomePositive,
			DurationMinutes: 20,
			Notes:           &notes,
			CompletedAt:     time.Now().UTC(),
			ActorUserID:     rep.ID,
			ActorRole:       string(rep.Role),
		}); err != nil {
			return fmt.Errorf("log activity for %s: %w", m.name, err)
		}
	}
	return nil
}

// stagePath lists the forward transitions needed to reach target from
// PENDING_FIRST_VISIT.
func stagePath(target enums.PipelineStage) []enums.PipelineStage {
	order := []enums.PipelineStage{
		enums.PipelineStageContacted,
		enums.PipelineStageMeetingScheduled,
		enums.PipelineStageContractSent,
		enums.PipelineStageWon,
	}
	var path []enums.PipelineStage
	for _, stage := range order {
		if target == enums.PipelineStagePendingFirstVisit {
			return nil
		}
		path = append(path, stage)
		if stage == target {
			return path
		}
	}
	return path
}
