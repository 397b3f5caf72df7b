package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"connext-backend/internal/models"
)

var ErrInvalidAddressing = errors.New("message must target exactly one of receiver or group")

const messageColumns = `id, sender_id, receiver_id, group_id, text, image, created_at`

// MessageRepository defines interactions for direct and group messages.
type MessageRepository interface {
	CreateDirectMessage(ctx context.Context, msg models.Message) (models.Message, error)
	CreateGroupMessage(ctx context.Context, msg models.Message) (models.Message, error)
	ListConversation(ctx context.Context, userID, otherID int) ([]models.Message, error)
	ListGroupMessages(ctx context.Context, groupID int) ([]models.Message, error)
	ListConversationPartners(ctx context.Context, userID int) ([]models.ContactSummary, error)
	ListMessageImages(ctx context.Context) ([]string, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateDirectMessage stores a direct message and makes sender and receiver
// mutual contacts in one transaction.
func (r *MessageRepo) CreateDirectMessage(ctx context.Context, msg models.Message) (saved models.Message, err error) {
	if !msg.IsDirect() {
		return models.Message{}, ErrInvalidAddressing
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if saved, err = insertMessage(ctx, tx, msg); err != nil {
		return models.Message{}, err
	}
	for _, pair := range [][2]int{{msg.SenderID, *msg.ReceiverID}, {*msg.ReceiverID, msg.SenderID}} {
		if _, err = tx.ExecContext(ctx, `INSERT INTO user_contacts (user_id, contact_id) VALUES ($1, $2)
            ON CONFLICT (user_id, contact_id) DO NOTHING`, pair[0], pair[1]); err != nil {
			return models.Message{}, err
		}
	}
	if err = tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return saved, nil
}

// CreateGroupMessage stores a group message and bumps the group's last-activity
// timestamp in one transaction.
func (r *MessageRepo) CreateGroupMessage(ctx context.Context, msg models.Message) (saved models.Message, err error) {
	if !msg.IsGroup() {
		return models.Message{}, ErrInvalidAddressing
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `UPDATE groups SET updated_at=NOW() WHERE id=$1`, *msg.GroupID)
	if err != nil {
		return models.Message{}, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return models.Message{}, err
	}
	if count == 0 {
		err = ErrGroupNotFound
		return models.Message{}, err
	}
	if saved, err = insertMessage(ctx, tx, msg); err != nil {
		return models.Message{}, err
	}
	if err = tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return saved, nil
}

func insertMessage(ctx context.Context, tx *sqlx.Tx, msg models.Message) (models.Message, error) {
	var saved models.Message
	err := tx.QueryRowxContext(ctx, `INSERT INTO messages (sender_id, receiver_id, group_id, text, image) VALUES ($1, $2, $3, $4, $5) RETURNING `+messageColumns,
		msg.SenderID, msg.ReceiverID, msg.GroupID, msg.Text, msg.Image).StructScan(&saved)
	return saved, err
}

// ListConversation returns the direct messages between two users, oldest first.
func (r *MessageRepo) ListConversation(ctx context.Context, userID, otherID int) ([]models.Message, error) {
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+`
        FROM messages
        WHERE receiver_id IS NOT NULL
        AND ((sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1))
        ORDER BY created_at ASC, id ASC`, userID, otherID)
	return msgs, err
}

// ListGroupMessages returns a group's messages, oldest first.
func (r *MessageRepo) ListGroupMessages(ctx context.Context, groupID int) ([]models.Message, error) {
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+`
        FROM messages WHERE group_id=$1
        ORDER BY created_at ASC, id ASC`, groupID)
	return msgs, err
}

// ListConversationPartners returns everyone the user exchanged direct messages with,
// newest conversation first, skipping blocks in either direction.
func (r *MessageRepo) ListConversationPartners(ctx context.Context, userID int) ([]models.ContactSummary, error) {
	query := `WITH partners AS (
            SELECT CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS partner_id,
                   CASE WHEN text <> '' THEN text ELSE 'Photo' END AS text,
                   created_at, id
            FROM messages
            WHERE receiver_id IS NOT NULL AND (sender_id = $1 OR receiver_id = $1)
        ), latest AS (
            SELECT DISTINCT ON (partner_id) partner_id, text, created_at
            FROM partners ORDER BY partner_id, created_at DESC, id DESC
        )
        SELECT u.id, u.email, u.full_name, u.password_hash, u.profile_pic, u.created_at, u.updated_at,
               l.text AS last_message_text, l.created_at AS last_message_at
        FROM latest l INNER JOIN users u ON u.id = l.partner_id
        WHERE NOT EXISTS (
            SELECT 1 FROM user_blocks b
            WHERE (b.blocker_id = $1 AND b.blocked_id = u.id) OR (b.blocker_id = u.id AND b.blocked_id = $1)
        )
        ORDER BY l.created_at DESC`
	summaries := []models.ContactSummary{}
	err := r.db.SelectContext(ctx, &summaries, query, userID)
	return summaries, err
}

// ListMessageImages returns every non-empty message image url.
func (r *MessageRepo) ListMessageImages(ctx context.Context) ([]string, error) {
	var urls []string
	err := r.db.SelectContext(ctx, &urls, `SELECT image FROM messages WHERE image <> ''`)
	return urls, err
}
