package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sasset/core/internal/account"
	"github.com/sasset/core/internal/auth"
	"github.com/sasset/core/internal/common"
	"github.com/sasset/core/internal/config"
	"github.com/sasset/core/internal/cryptox"
	"github.com/sasset/core/internal/dbx"
	"github.com/sasset/core/internal/logging"
	"github.com/sasset/core/internal/models"
	"github.com/sasset/core/internal/repositories/repomanager"
)

// CreateUserInput is the data accepted by CreateUser. Name may be built with
// models.NameFromParts, NameFromSlice or NameFromString.
type CreateUserInput struct {
	Username string
	Name     models.Name
	Password string
	Admin    bool
	Location string
	Meta     models.Meta
}

// AccountService manages user accounts and issues the tokens that carry an
// account into later requests.
type AccountService struct {
	base
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

func NewAccountService(conn *dbx.Conn, m repomanager.RepositoryManager, log logging.Logger, cfg *config.Config) *AccountService {
	return &AccountService{
		base:                        newBase(conn, m, log),
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// CreateUser persists a new account. Without a username one is built from
// the name parts joined with ".".
func (s *AccountService) CreateUser(ctx context.Context, in CreateUserInput) (*models.Account, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		parts := make([]string, 0, 2)
		if in.Name.First != "" {
			parts = append(parts, in.Name.First)
		}
		if in.Name.Last != "" {
			parts = append(parts, in.Name.Last)
		}
		if len(parts) == 0 {
			return nil, common.NewValidationError("username", nil,
				"unable to define username - no username provided and no first/last name to construct one from")
		}
		username = strings.Join(parts, ".")
	}
	if in.Password == "" {
		return nil, common.NewValidationError("password", nil, "Path `password` is required.")
	}

	db, err := s.alive()
	if err != nil {
		return nil, err
	}

	a := &models.Account{
		Name:     in.Name,
		Username: username,
		Password: cryptox.PasswordHash(in.Password),
		Admin:    in.Admin,
		Location: in.Location,
		Meta:     in.Meta,
	}

	created, err := s.repomanager.Accounts(db).Create(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user created", "account_id", created.ID, "username", created.Username)
	return created, nil
}

// FindUserByUsername returns the account with exactly this username.
func (s *AccountService) FindUserByUsername(ctx context.Context, username string) (*models.Account, error) {
	if username == "" {
		return nil, common.NewValidationError("username", username, "username is empty")
	}

	db, err := s.alive()
	if err != nil {
		return nil, err
	}

	a, err := s.repomanager.Accounts(db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: no user with the name %s found", common.ErrNotFound, username)
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return a, nil
}

// Authenticate checks the credentials and returns the account data to place
// in a request context. Unknown users and wrong passwords both yield
// ErrUnauthorized.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (account.Data, error) {
	a, err := s.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrValidation) {
			return account.Data{}, common.ErrUnauthorized
		}
		return account.Data{}, err
	}
	if !cryptox.PasswordVerify(password, a.Password) {
		s.log.Warn(ctx, "authentication failed", "username", username)
		return account.Data{}, common.ErrUnauthorized
	}
	return account.Data{ID: a.ID, Username: a.Username}, nil
}

// Login authenticates and mints an access token for the account.
func (s *AccountService) Login(ctx context.Context, username, password string) (string, error) {
	data, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	token, err := auth.GenerateToken(data, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", fmt.Errorf("error generating token: %w", err)
	}
	return token, nil
}

// AccountFromToken restores the account data carried by a token.
func (s *AccountService) AccountFromToken(token string) (account.Data, error) {
	return auth.AccountFromToken(token, s.jwtSecret)
}
