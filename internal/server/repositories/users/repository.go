package users

import (
	"context"

	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

// Repository is the persistence store for user records.
//
// Lookups return common.ErrorNotFound when no row matches. Writes that would
// duplicate an email return common.ErrorAlreadyExists.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// FindByEmailFold matches the folded stored email (models.FoldEmail)
	// against normalizedEmail. When
	// several rows fold to the same value the earliest created one wins.
	FindByEmailFold(ctx context.Context, normalizedEmail string) (*models.User, error)
	// EmailTaken reports whether a row other than exceptID holds email
	// exactly. An empty exceptID excludes nothing.
	EmailTaken(ctx context.Context, email string, exceptID string) (bool, error)
	Update(ctx context.Context, user *models.User) error
}
