package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"connext-backend/internal/auth"
	"connext-backend/internal/imagestore"
	"connext-backend/internal/models"
	"connext-backend/internal/repositories"
	"connext-backend/internal/telemetry"
	"connext-backend/internal/ws"
)

const minPasswordLength = 6

// TokenIssuer mints access tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID int) (string, error)
}

// UserService owns accounts and the contact/block relations between users.
type UserService struct {
	users    repositories.UserRepository
	images   imagestore.Store
	notifier Notifier
	tokens   TokenIssuer
}

func NewUserService(users repositories.UserRepository, images imagestore.Store, notifier Notifier, tokens TokenIssuer) *UserService {
	return &UserService{users: users, images: images, notifier: notifier, tokens: tokens}
}

// Signup registers an account and returns it with an access token.
func (s *UserService) Signup(ctx context.Context, fullName, email, password string) (models.User, string, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" || password == "" {
		return models.User{}, "", fmt.Errorf("%w: all fields are required", ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return models.User{}, "", fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, "", err
	}
	user, err := s.users.CreateUser(ctx, email, fullName, hash)
	if errors.Is(err, repositories.ErrEmailTaken) {
		return models.User{}, "", ErrEmailTaken
	}
	if err != nil {
		return models.User{}, "", err
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// Login checks credentials and returns the user with a fresh token.
func (s *UserService) Login(ctx context.Context, email, password string) (models.User, string, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repositories.ErrUserNotFound) {
		return models.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, "", err
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return models.User{}, "", ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return models.User{}, "", err
	}
	return user, token, nil
}

// Check returns the authenticated user.
func (s *UserService) Check(ctx context.Context, userID int) (models.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, mapUserErr(err)
	}
	return user, nil
}

// UpdateProfile replaces the profile picture.
func (s *UserService) UpdateProfile(ctx context.Context, userID int, image string) (models.User, error) {
	if image == "" {
		return models.User{}, fmt.Errorf("%w: profile picture is required", ErrInvalidInput)
	}
	current, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, mapUserErr(err)
	}
	url, err := upload(ctx, s.images, image)
	if err != nil {
		return models.User{}, err
	}
	user, err := s.users.UpdateProfilePic(ctx, userID, url)
	if err != nil {
		destroyImage(ctx, s.images, url)
		return models.User{}, mapUserErr(err)
	}
	destroyImage(ctx, s.images, current.ProfilePic)
	return user, nil
}

// Block blocks targetID for blockerID. Contacts between the pair and their direct
// history are removed in the same transaction.
func (s *UserService) Block(ctx context.Context, blockerID, targetID int) error {
	ctx, span := telemetry.StartSpan(ctx, "user.block")
	defer span.End()

	if blockerID == targetID {
		return ErrSelfBlock
	}
	if _, err := s.users.GetUser(ctx, targetID); err != nil {
		return mapUserErr(err)
	}
	blocked, err := s.users.IsBlocked(ctx, blockerID, targetID)
	if err != nil {
		return err
	}
	if blocked {
		return ErrAlreadyBlocked
	}
	if err := s.users.BlockUser(ctx, blockerID, targetID); err != nil {
		if errors.Is(err, repositories.ErrBlockExists) {
			return ErrAlreadyBlocked
		}
		return err
	}

	notify(ctx, s.notifier, models.EventBlockSuccess, models.BlockSuccessPayload{BlockedUserID: targetID}, ws.ToUser(blockerID))
	notify(ctx, s.notifier, models.EventUserBlocked, models.UserBlockedPayload{BlockedBy: blockerID}, ws.ToUser(targetID))
	return nil
}

// Unblock lifts the block. Contacts and deleted history are not restored.
func (s *UserService) Unblock(ctx context.Context, blockerID, targetID int) error {
	err := s.users.UnblockUser(ctx, blockerID, targetID)
	if errors.Is(err, repositories.ErrBlockNotFound) {
		return ErrNotBlocked
	}
	return err
}

// ListBlocked returns the users blocked by userID.
func (s *UserService) ListBlocked(ctx context.Context, userID int) ([]models.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	return s.users.ListUsers(ctx, user.BlockedUsers)
}

// Search matches other users by name or email, hiding blocks in either direction.
func (s *UserService) Search(ctx context.Context, userID int, query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.User{}, nil
	}
	return s.users.SearchUsers(ctx, userID, query)
}

// BlockedBetween reports whether either user has blocked the other.
func (s *UserService) BlockedBetween(ctx context.Context, a, b int) (bool, error) {
	blocked, err := s.users.IsBlocked(ctx, a, b)
	if err != nil || blocked {
		return blocked, err
	}
	return s.users.IsBlocked(ctx, b, a)
}
