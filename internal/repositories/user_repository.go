package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"connext-backend/internal/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrBlockExists   = errors.New("block already exists")
	ErrBlockNotFound = errors.New("block not found")
)

const userColumns = `id, email, full_name, password_hash, profile_pic, created_at, updated_at`

// UserRepository abstracts user, contact and block persistence.
type UserRepository interface {
	CreateUser(ctx context.Context, email, fullName, passwordHash string) (models.User, error)
	GetUser(ctx context.Context, userID int) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateProfilePic(ctx context.Context, userID int, url string) (models.User, error)
	ListUsers(ctx context.Context, ids []int) ([]models.User, error)
	SearchUsers(ctx context.Context, userID int, query string) ([]models.User, error)
	IsBlocked(ctx context.Context, blockerID, blockedID int) (bool, error)
	BlockUser(ctx context.Context, blockerID, blockedID int) error
	UnblockUser(ctx context.Context, blockerID, blockedID int) error
	ListProfileImages(ctx context.Context) ([]string, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// CreateUser inserts a new account.
func (r *UserRepo) CreateUser(ctx context.Context, email, fullName, passwordHash string) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx, `INSERT INTO users (email, full_name, password_hash) VALUES ($1, $2, $3) RETURNING `+userColumns,
		email, fullName, passwordHash).StructScan(&user)
	if isUniqueViolation(err) {
		return models.User{}, ErrEmailTaken
	}
	if err != nil {
		return models.User{}, err
	}
	user.Contacts = []int{}
	user.BlockedUsers = []int{}
	return user, nil
}

// GetUser fetches a user with its contacts and blocked users.
func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return r.loadRelations(ctx, user)
}

// GetUserByEmail fetches a user by login email.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return r.loadRelations(ctx, user)
}

// UpdateProfilePic replaces the user's profile picture url.
func (r *UserRepo) UpdateProfilePic(ctx context.Context, userID int, url string) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx, `UPDATE users SET profile_pic=$2, updated_at=NOW() WHERE id=$1 RETURNING `+userColumns, userID, url).StructScan(&user)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return r.loadRelations(ctx, user)
}

// ListUsers returns the users with the given ids ordered by name.
func (r *UserRepo) ListUsers(ctx context.Context, ids []int) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users WHERE id = ANY($1) ORDER BY full_name ASC`, pq.Array(toInt64s(ids)))
	return users, err
}

// SearchUsers matches name or email, skipping the caller and anyone blocked in either direction.
func (r *UserRepo) SearchUsers(ctx context.Context, userID int, query string) ([]models.User, error) {
	pattern := "%" + escapeLike(query) + "%"
	users := []models.User{}
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users u
        WHERE u.id <> $1
        AND NOT EXISTS (
            SELECT 1 FROM user_blocks b
            WHERE (b.blocker_id = $1 AND b.blocked_id = u.id) OR (b.blocker_id = u.id AND b.blocked_id = $1)
        )
        AND (u.full_name ILIKE $2 OR u.email ILIKE $2)
        ORDER BY u.full_name ASC
        LIMIT 50`, userID, pattern)
	return users, err
}

// IsBlocked reports whether blockerID has blocked blockedID.
func (r *UserRepo) IsBlocked(ctx context.Context, blockerID, blockedID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM user_blocks WHERE blocker_id=$1 AND blocked_id=$2)`, blockerID, blockedID)
	return exists, err
}

// BlockUser records the block, tears down both contact edges and deletes the pair's direct history atomically.
func (r *UserRepo) BlockUser(ctx context.Context, blockerID, blockedID int) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `INSERT INTO user_blocks (blocker_id, blocked_id) VALUES ($1, $2)`, blockerID, blockedID); err != nil {
		if isUniqueViolation(err) {
			return ErrBlockExists
		}
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM user_contacts
        WHERE (user_id=$1 AND contact_id=$2) OR (user_id=$2 AND contact_id=$1)`, blockerID, blockedID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM messages
        WHERE receiver_id IS NOT NULL
        AND ((sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1))`, blockerID, blockedID); err != nil {
		return err
	}
	return tx.Commit()
}

// UnblockUser removes the block only; contacts and history stay as they are.
func (r *UserRepo) UnblockUser(ctx context.Context, blockerID, blockedID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_blocks WHERE blocker_id=$1 AND blocked_id=$2`, blockerID, blockedID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrBlockNotFound
	}
	return nil
}

// ListProfileImages returns every non-empty profile picture url.
func (r *UserRepo) ListProfileImages(ctx context.Context) ([]string, error) {
	var urls []string
	err := r.db.SelectContext(ctx, &urls, `SELECT profile_pic FROM users WHERE profile_pic <> ''`)
	return urls, err
}

func (r *UserRepo) loadRelations(ctx context.Context, user models.User) (models.User, error) {
	user.Contacts = []int{}
	if err := r.db.SelectContext(ctx, &user.Contacts, `SELECT contact_id FROM user_contacts WHERE user_id=$1 ORDER BY created_at ASC`, user.ID); err != nil {
		return models.User{}, err
	}
	user.BlockedUsers = []int{}
	if err := r.db.SelectContext(ctx, &user.BlockedUsers, `SELECT blocked_id FROM user_blocks WHERE blocker_id=$1 ORDER BY created_at ASC`, user.ID); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func toInt64s(ids []int) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		out = append(out, int64(id))
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
