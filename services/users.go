package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// Users looks up and registers accounts.
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// SignupInput is what the signup form collects.
type SignupInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// ByUsername returns ErrNotFound for unknown usernames.
func (s *Users) ByUsername(ctx context.Context, username string) (*models.User, error) {
	return userByUsername(s.db.WithContext(ctx), username)
}

func (s *Users) ByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return &u, nil
}

// Register creates a password account.
func (s *Users) Register(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	verr := &ValidationError{}
	switch {
	case in.Username == "":
		verr.Add("username", "This field is required.")
	case len([]rune(in.Username)) > 150:
		verr.Add("username", "Ensure this value has at most 150 characters.")
	case !usernamePattern.MatchString(in.Username):
		verr.Add("username", "Letters, digits and @/./+/-/_ only.")
	}
	if len(in.Password) < utils.MinPasswordLength {
		verr.Add("password", fmt.Sprintf("Ensure this value has at least %d characters.", utils.MinPasswordLength))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		verr.Add("username", "A user with that username already exists.")
		return nil, verr
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		Username:     in.Username,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
	}
	if err := db.Create(u).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Authenticate checks a username/password pair. Bad credentials are a ValidationError.
func (s *Users) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.ByUsername(ctx, strings.TrimSpace(username))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if u == nil || !utils.CheckPassword(u.PasswordHash, password) {
		return nil, &ValidationError{Fields: map[string]string{
			"__all__": "Please enter a correct username and password.",
		}}
	}
	return u, nil
}

// OAuthProfile is the subset of a provider profile we keep.
type OAuthProfile struct {
	Provider   string
	ProviderID string
	Login      string
	Name       string
	Email      string
	AvatarURL  string
}

// UpsertOAuth finds the account linked to the provider identity or creates one.
// A taken login gets a numeric suffix.
func (s *Users) UpsertOAuth(ctx context.Context, p OAuthProfile) (*models.User, error) {
	db := s.db.WithContext(ctx)
	var u models.User
	err := db.Where("provider = ? AND provider_id = ?", p.Provider, p.ProviderID).First(&u).Error
	if err == nil {
		u.AvatarURL = p.AvatarURL
		if p.Email != "" {
			u.Email = p.Email
		}
		if err := db.Model(&u).Select("avatar_url", "email").Updates(&u).Error; err != nil {
			return nil, fmt.Errorf("refresh oauth user: %w", err)
		}
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find oauth user: %w", err)
	}

	base := p.Login
	if base == "" || !usernamePattern.MatchString(base) {
		base = p.Provider + "_" + p.ProviderID
	}
	username := base
	for i := 1; ; i++ {
		var count int64
		if err := db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if count == 0 {
			break
		}
		username = fmt.Sprintf("%s%d", base, i)
	}

	u = models.User{
		Username:   username,
		FirstName:  p.Name,
		Email:      p.Email,
		Provider:   p.Provider,
		ProviderID: p.ProviderID,
		AvatarURL:  p.AvatarURL,
	}
	if err := db.Create(&u).Error; err != nil {
		return nil, fmt.Errorf("create oauth user: %w", err)
	}
	return &u, nil
}

// Delete removes the account; its posts, comments and follow edges go with it.
func (s *Users) Delete(ctx context.Context, username string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := userByUsername(tx, username)
		if err != nil {
			return err
		}
		return tx.Delete(u).Error
	})
}

func userByUsername(db *gorm.DB, username string) (*models.User, error) {
	var u models.User
	if err := db.Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load user %q: %w", username, err)
	}
	return &u, nil
}
