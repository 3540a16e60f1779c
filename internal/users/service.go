package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tripmoa/backend/internal/oauth"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const searchResultLimit = 10

var (
	// ErrNotFound indicates the addressed user does not exist.
	ErrNotFound = errors.New("users: user not found")
	// ErrInvalidProfile indicates a profile without the fields reconciliation keys on.
	ErrInvalidProfile = errors.New("users: profile missing email or provider")

	errMissingDatabase   = errors.New("users: database connection required")
	errMissingIDProvider = errors.New("users: id provider required")
)

// ProviderConflictError signals that an email is already registered under a
// different provider. It carries enough context for the boundary to tell the
// end user which provider owns the account instead of a generic failure.
type ProviderConflictError struct {
	Email            string
	ExistingProvider string
}

func (e *ProviderConflictError) Error() string {
	return fmt.Sprintf("users: email %s already registered under provider %s", e.Email, e.ExistingProvider)
}

// ServiceConfig describes the dependencies of the user service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service owns local accounts and the OAuth identity reconciliation path.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService constructs the user service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	if cfg.IDProvider == nil {
		return nil, errMissingIDProvider
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// Reconcile maps a normalized OAuth profile to exactly one local user.
//
// Three outcomes, decided by two lookups:
//  1. a row exists for (email, provider): returning login, so refresh the
//     stored provider tokens and return the row;
//  2. no (email, provider) row, but the email exists under another provider:
//     provider-mismatch conflict. Return *ProviderConflictError naming the
//     owning provider, create nothing, merge nothing;
//  3. the email is unknown entirely: first login, so create a row seeded from
//     the profile.
func (s *Service) Reconcile(ctx context.Context, profile oauth.Profile) (*User, error) {
	email := normalizeEmail(profile.Email)
	provider := normalize(profile.Provider)
	if email == "" || provider == "" {
		return nil, ErrInvalidProfile
	}

	var existing User
	err := s.db.WithContext(ctx).
		Where("email = ? AND provider = ?", email, provider).
		First(&existing).Error
	if err == nil {
		updates := map[string]interface{}{
			"access_token":  profile.AccessToken,
			"refresh_token": profile.RefreshToken,
		}
		if err := s.db.WithContext(ctx).Model(&User{}).
			Where("id = ?", existing.ID).
			Updates(updates).Error; err != nil {
			return nil, err
		}
		existing.AccessToken = profile.AccessToken
		existing.RefreshToken = profile.RefreshToken
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var other User
	err = s.db.WithContext(ctx).
		Where("email = ?", email).
		First(&other).Error
	if err == nil {
		s.logger.Warn("oauth signup rejected: email owned by another provider",
			zap.String("email", email),
			zap.String("attempted_provider", provider),
			zap.String("existing_provider", other.Provider))
		return nil, &ProviderConflictError{Email: email, ExistingProvider: other.Provider}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	id, err := s.idProvider.NewID()
	if err != nil {
		return nil, err
	}
	created := User{
		ID:           id,
		Provider:     provider,
		Email:        email,
		Nickname:     normalize(profile.DisplayName),
		UserImage:    normalize(profile.AvatarURL),
		UserMemo:     "",
		AccessToken:  profile.AccessToken,
		RefreshToken: profile.RefreshToken,
		CreatedAt:    s.clock().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&created).Error; err != nil {
		return nil, err
	}
	s.logger.Info("user created from oauth profile",
		zap.String("user_id", created.ID),
		zap.String("provider", provider))
	return &created, nil
}

// GetByID loads one user.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmails batch-resolves email addresses to users. Unknown emails are
// simply absent from the result; the caller decides whether that matters.
func (s *Service) FindByEmails(ctx context.Context, emails []string) ([]User, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	normalized := make([]string, 0, len(emails))
	for _, email := range emails {
		if e := normalizeEmail(email); e != "" {
			normalized = append(normalized, e)
		}
	}
	var found []User
	if err := s.db.WithContext(ctx).
		Where("email IN ?", normalized).
		Find(&found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

// SearchByEmail returns up to ten users whose email contains the query,
// case-insensitively. The query is a literal substring, not a pattern.
func (s *Service) SearchByEmail(ctx context.Context, query string) ([]User, error) {
	trimmed := normalize(query)
	if trimmed == "" {
		return nil, nil
	}
	pattern := "%" + escapeLike(normalizeEmail(trimmed)) + "%"
	var found []User
	if err := s.db.WithContext(ctx).
		Where(`lower(email) LIKE ? ESCAPE '\'`, pattern).
		Limit(searchResultLimit).
		Find(&found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE metacharacters so query text matches literally.
func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}

// UpdateNickname sets the display nickname.
func (s *Service) UpdateNickname(ctx context.Context, id, nickname string) error {
	return s.updateColumn(ctx, id, "nickname", normalize(nickname))
}

// UpdateMemo sets the free-form profile memo.
func (s *Service) UpdateMemo(ctx context.Context, id, memo string) error {
	return s.updateColumn(ctx, id, "user_memo", memo)
}

// UpdateImage sets the profile image URL.
func (s *Service) UpdateImage(ctx context.Context, id, imageURL string) error {
	return s.updateColumn(ctx, id, "user_image", normalize(imageURL))
}

func (s *Service) updateColumn(ctx context.Context, id, column string, value string) error {
	result := s.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", id).
		Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the account and its trip memberships in one transaction.
// The membership table is owned by the trips package; it is addressed by name
// here to keep the dependency pointing trips -> users only.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM trip_schedule_members WHERE user_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// TripIDsForUser lists the trip schedule ids the user is a member of.
func (s *Service) TripIDsForUser(ctx context.Context, id string) ([]uint, error) {
	var tripIDs []uint
	if err := s.db.WithContext(ctx).
		Table("trip_schedule_members").
		Where("user_id = ?", id).
		Pluck("trip_id", &tripIDs).Error; err != nil {
		return nil, err
	}
	return tripIDs, nil
}
