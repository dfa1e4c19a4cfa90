package seed

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	appModels "github.com/minhvu/attendly/internal/app/models"
	appRepos "github.com/minhvu/attendly/internal/app/repositories"
	pkgAuth "github.com/minhvu/attendly/internal/pkg/auth"
	"github.com/rs/zerolog"
)

// DefaultAdminUsername is the bootstrap account created on first start.
// Change its password immediately on a real deployment.
const DefaultAdminUsername = "admin"

// CreateDefaultData creates the default admin user if it doesn't exist.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	userRepo := appRepos.NewUserRepository(dbPool)

	existing, err := userRepo.GetByUsername(ctx, DefaultAdminUsername)
	if err != nil {
		lgr.Error().Err(err).Msg("Error checking if admin user exists")
		return err
	}
	if existing != nil {
		lgr.Info().Msg("Admin user already exists, skipping creation")
		return nil
	}

	lgr.Info().Msg("Creating default admin user...")

	hashedPassword, err := pkgAuth.HashPassword("Admin123!")
	if err != nil {
		lgr.Error().Err(err).Msg("Error hashing admin password")
		return err
	}

	admin := &appModels.User{
		Username: DefaultAdminUsername,
		Password: hashedPassword,
		RoleType: appModels.RoleAdmin,
	}
	if err := userRepo.CreateUser(ctx, admin); err != nil {
		lgr.Error().Err(err).Msg("Error creating admin user")
		return err
	}

	lgr.Info().Int64("adminID", admin.ID).Msg("Default admin user created successfully")
	return nil
}
