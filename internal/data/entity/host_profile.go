package entity

import (
	"github.com/google/uuid"
)

type HostProfile struct {
	BaseNoDelete
	UserID      uuid.UUID `db:"user_id"`
	DisplayName string    `db:"display_name"`
	Bio         *string   `db:"bio"`
	AvatarURL   *string   `db:"avatar_url"`
	IsActive    bool      `db:"is_active"`
}
