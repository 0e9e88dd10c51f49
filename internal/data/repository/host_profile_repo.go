package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dataweston/Dinewith/internal/data/entity"
	"github.com/dataweston/Dinewith/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type HostProfileRepository interface {
	Create(ctx context.Context, profile *entity.HostProfile) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.HostProfile, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.HostProfile, error)
	// FindByUserIDForUpdate locks the profile row until the surrounding
	// transaction ends.
	FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*entity.HostProfile, error)
}

type hostProfileRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewHostProfileRepository(db database.PgxIface, log *zap.Logger) HostProfileRepository {
	return &hostProfileRepository{
		db:  db,
		log: log.With(zap.String("repository", "host_profile")),
	}
}

const hostProfileColumns = `id, user_id, display_name, bio, avatar_url, is_active, created_at, updated_at`

func scanHostProfile(row pgx.Row) (*entity.HostProfile, error) {
	var p entity.HostProfile
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.DisplayName,
		&p.Bio,
		&p.AvatarURL,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *hostProfileRepository) Create(ctx context.Context, profile *entity.HostProfile) error {
	query := `
		INSERT INTO host_profiles (id, user_id, display_name, bio, avatar_url,
		                           is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		profile.ID,
		profile.UserID,
		profile.DisplayName,
		profile.Bio,
		profile.AvatarURL,
		profile.IsActive,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create host profile",
			zap.Error(err),
			zap.String("user_id", profile.UserID.String()),
		)
		return fmt.Errorf("create host profile for user %s: %w", profile.UserID.String(), err)
	}

	return nil
}

func (r *hostProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.HostProfile, error) {
	query := `SELECT ` + hostProfileColumns + ` FROM host_profiles WHERE id = $1`
	return r.findOne(ctx, query, id, "id")
}

func (r *hostProfileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.HostProfile, error) {
	query := `SELECT ` + hostProfileColumns + ` FROM host_profiles WHERE user_id = $1`
	return r.findOne(ctx, query, userID, "user_id")
}

func (r *hostProfileRepository) FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*entity.HostProfile, error) {
	query := `SELECT ` + hostProfileColumns + ` FROM host_profiles WHERE user_id = $1 FOR UPDATE`
	return r.findOne(ctx, query, userID, "user_id")
}

func (r *hostProfileRepository) findOne(ctx context.Context, query string, key uuid.UUID, field string) (*entity.HostProfile, error) {
	profile, err := scanHostProfile(database.Conn(ctx, r.db).QueryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find host profile",
			zap.Error(err),
			zap.String(field, key.String()),
		)
		return nil, fmt.Errorf("find host profile by %s %s: %w", field, key.String(), err)
	}
	return profile, nil
}
