package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/snowflake"
	apperrors "github.com/sgatu/bookstore-back/errors"
	"github.com/sgatu/bookstore-back/metrics"
	"github.com/sgatu/bookstore-back/models"
	"golang.org/x/crypto/bcrypt"
)

// maxCredentialBytes is the longest key bcrypt reads; anything past it would
// be ignored by CompareHashAndPassword.
const maxCredentialBytes = 72

// UserDirectory registers identities and verifies credentials. Credentials
// are kept as bcrypt hashes; Authenticate succeeds only for the exact
// credential string given at registration.
type UserDirectory struct {
	users      models.UserRepository
	node       *snowflake.Node
	bcryptCost int
	logger     *slog.Logger

	// Compared against on unknown usernames so both rejection paths cost
	// one bcrypt comparison.
	dummyHash []byte
}

func NewUserDirectory(users models.UserRepository, node *snowflake.Node, bcryptCost int, logger *slog.Logger) *UserDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	dummyHash, err := bcrypt.GenerateFromPassword([]byte("bookstore-unknown-user"), bcryptCost)
	if err != nil {
		logger.Warn("could not prepare dummy credential hash", "error", err)
	}
	return &UserDirectory{
		users:      users,
		node:       node,
		bcryptCost: bcryptCost,
		logger:     logger,
		dummyHash:  dummyHash,
	}
}

func (d *UserDirectory) Exists(ctx context.Context, username string) (bool, error) {
	return d.users.Exists(ctx, username)
}

// Register adds a new identity. It returns apperrors.ErrUserAlreadyExists if
// the username is taken; the stored identity is left untouched in that case.
func (d *UserDirectory) Register(ctx context.Context, username string, credential string) (*models.Identity, error) {
	if username == "" || credential == "" {
		metrics.Registrations.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, apperrors.NewValidationError("MISSING_FIELDS", "Username and password are required")
	}
	// Cheap early rejection; Insert below is the authoritative check.
	exists, err := d.users.Exists(ctx, username)
	if err != nil {
		metrics.Registrations.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("check user: %w", err)
	}
	if exists {
		metrics.Registrations.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, apperrors.ErrUserAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), d.bcryptCost)
	if err != nil {
		metrics.Registrations.WithLabelValues(metrics.ResultRejected).Inc()
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperrors.NewValidationError("PASSWORD_TOO_LONG", "Password must be at most %d bytes", maxCredentialBytes)
		}
		return nil, fmt.Errorf("hash credential: %w", err)
	}
	identity := &models.Identity{
		Id:             d.node.Generate().Int64(),
		Username:       username,
		CredentialHash: string(hash),
		CreatedAt:      time.Now().UTC(),
	}
	if err := d.users.Insert(ctx, identity); err != nil {
		if errors.Is(err, apperrors.ErrUserAlreadyExists) {
			metrics.Registrations.WithLabelValues(metrics.ResultRejected).Inc()
			return nil, err
		}
		metrics.Registrations.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("insert user: %w", err)
	}
	metrics.Registrations.WithLabelValues(metrics.ResultOK).Inc()
	d.logger.Info("user registered", "username", username, "user_id", identity.Id)
	return identity, nil
}

// Authenticate returns the identity matching username and credential, or
// apperrors.ErrInvalidCredentials. Unknown users and wrong credentials are
// indistinguishable to the caller.
func (d *UserDirectory) Authenticate(ctx context.Context, username string, credential string) (*models.Identity, error) {
	identity, err := d.users.FindByUsername(ctx, username)
	if err != nil {
		metrics.Logins.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("find user: %w", err)
	}
	if identity == nil {
		_ = bcrypt.CompareHashAndPassword(d.dummyHash, []byte(credential))
		metrics.Logins.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, apperrors.ErrInvalidCredentials
	}
	err = bcrypt.CompareHashAndPassword([]byte(identity.CredentialHash), []byte(credential))
	if err != nil || len(credential) > maxCredentialBytes {
		metrics.Logins.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, apperrors.ErrInvalidCredentials
	}
	metrics.Logins.WithLabelValues(metrics.ResultOK).Inc()
	return identity, nil
}
