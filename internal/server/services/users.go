package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/cryptox"
	"github.com/dmitrijs2005/accountkeeper/internal/dbx"
	"github.com/dmitrijs2005/accountkeeper/internal/logging"
	"github.com/dmitrijs2005/accountkeeper/internal/server/auth"
	"github.com/dmitrijs2005/accountkeeper/internal/server/config"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
	"github.com/dmitrijs2005/accountkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/accountkeeper/internal/server/validation"
)

type UserService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	hasher        cryptox.PasswordHasher
	authenticator *auth.Authenticator
	logger        logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher cryptox.PasswordHasher,
	logger logging.Logger, cfg *config.Config) (*UserService, error) {

	a, err := auth.NewAuthenticator(m.Users(db), hasher, cfg.EqualizeTiming)
	if err != nil {
		return nil, fmt.Errorf("error creating authenticator: %w", err)
	}

	return &UserService{
		db:            db,
		repomanager:   m,
		hasher:        hasher,
		authenticator: a,
		logger:        logger.With("module", "user_service"),
	}, nil
}

// Register validates c and stores it as a new user.
//
// Rejected input is returned as validation.Errors. Store and hashing faults
// are logged and reported as common.ErrorInternal.
func (s *UserService) Register(ctx context.Context, c models.Candidate) (*models.User, error) {
	// a new record has no identity and no digest to fall back on
	c.ID = ""
	c.PasswordDigest = ""

	repo := s.repomanager.Users(s.db)

	errs, err := validation.NewValidator(repo).Validate(ctx, c)
	if err != nil {
		return nil, s.internal(ctx, "error validating user", err)
	}
	if errs.Any() {
		return nil, errs
	}

	digest, err := s.hasher.Hash(c.Password)
	if err != nil {
		return nil, s.internal(ctx, "error hashing password", err)
	}

	user := &models.User{
		ID:             uuid.NewString(),
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		Email:          c.Email,
		PasswordDigest: digest,
	}

	user, err = repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			// lost the race against a concurrent registration
			return nil, emailTaken()
		}
		return nil, s.internal(ctx, "error creating user", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Update replaces the fields of user id with those of c. An empty
// c.Password keeps the current digest.
func (s *UserService) Update(ctx context.Context, id string, c models.Candidate) (*models.User, error) {
	var updated *models.User

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		c.ID = user.ID
		c.PasswordDigest = user.PasswordDigest

		errs, err := validation.NewValidator(repo).Validate(ctx, c)
		if err != nil {
			return err
		}
		if errs.Any() {
			return errs
		}

		if c.Password != "" {
			digest, err := s.hasher.Hash(c.Password)
			if err != nil {
				return err
			}
			user.PasswordDigest = digest
		}

		user.FirstName = c.FirstName
		user.LastName = c.LastName
		user.Email = c.Email

		if err := repo.Update(ctx, user); err != nil {
			return err
		}

		updated = user
		return nil
	})

	var verrs validation.Errors
	switch {
	case err == nil:
		s.logger.Info(ctx, "user updated", "user_id", updated.ID)
		return updated, nil
	case errors.As(err, &verrs):
		return nil, verrs
	case errors.Is(err, common.ErrorNotFound):
		return nil, common.ErrorNotFound
	case errors.Is(err, common.ErrorAlreadyExists):
		return nil, emailTaken()
	default:
		return nil, s.internal(ctx, "error updating user", err)
	}
}

// Authenticate returns the user matching the credentials, or (nil, nil) when
// they are invalid for any reason.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		return nil, s.internal(ctx, "error authenticating user", err)
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "error loading user", err)
	}
	return user, nil
}

func (s *UserService) internal(ctx context.Context, msg string, err error) error {
	s.logger.Error(ctx, msg, "error", err)
	return common.ErrorInternal
}

func emailTaken() validation.Errors {
	errs := validation.Errors{}
	errs.Add(validation.FieldEmail, validation.MsgTaken)
	return errs
}
