package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"connext-backend/internal/models"
)

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrEmptyGroup    = errors.New("group must keep at least one member")
)

const groupColumns = `id, name, group_image, admin_id, created_at, updated_at`

// GroupRepository abstracts group persistence.
type GroupRepository interface {
	CreateGroup(ctx context.Context, group models.Group) (models.Group, error)
	GetGroup(ctx context.Context, groupID int) (models.Group, error)
	SaveGroup(ctx context.Context, group models.Group) (models.Group, error)
	DeleteGroup(ctx context.Context, groupID int) error
	ListGroupsForUser(ctx context.Context, userID int) ([]models.GroupSummary, error)
	ListGroupImages(ctx context.Context) ([]string, error)
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// CreateGroup creates a group and its members atomically. Member order is preserved.
func (r *GroupRepo) CreateGroup(ctx context.Context, group models.Group) (created models.Group, err error) {
	members := dedupeIDs(group.Members)
	if len(members) == 0 {
		return models.Group{}, ErrEmptyGroup
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = tx.QueryRowxContext(ctx, `INSERT INTO groups (name, group_image, admin_id) VALUES ($1, $2, $3) RETURNING `+groupColumns,
		group.Name, group.Image, group.AdminID).StructScan(&created); err != nil {
		return models.Group{}, err
	}
	for _, id := range members {
		if _, err = tx.ExecContext(ctx, `INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)`, created.ID, id); err != nil {
			return models.Group{}, err
		}
	}
	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}
	created.Members = members
	return created, nil
}

// GetGroup fetches a single group with members in join order.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group, `SELECT `+groupColumns+` FROM groups WHERE id=$1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	if err != nil {
		return models.Group{}, err
	}
	group.Members = []int{}
	if err := r.db.SelectContext(ctx, &group.Members, `SELECT user_id FROM group_members WHERE group_id=$1 ORDER BY id ASC`, groupID); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// SaveGroup writes name, image, admin and the member list in one transaction.
// Members missing from group.Members are removed; new ones are appended in order.
func (r *GroupRepo) SaveGroup(ctx context.Context, group models.Group) (saved models.Group, err error) {
	members := dedupeIDs(group.Members)
	if len(members) == 0 {
		return models.Group{}, ErrEmptyGroup
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	err = tx.QueryRowxContext(ctx, `UPDATE groups SET name=$2, group_image=$3, admin_id=$4, updated_at=NOW() WHERE id=$1 RETURNING `+groupColumns,
		group.ID, group.Name, group.Image, group.AdminID).StructScan(&saved)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrGroupNotFound
		return models.Group{}, err
	}
	if err != nil {
		return models.Group{}, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM group_members WHERE group_id=$1 AND NOT (user_id = ANY($2))`, group.ID, pq.Array(toInt64s(members))); err != nil {
		return models.Group{}, err
	}
	for _, id := range members {
		if _, err = tx.ExecContext(ctx, `INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)
            ON CONFLICT (group_id, user_id) DO NOTHING`, group.ID, id); err != nil {
			return models.Group{}, err
		}
	}
	saved.Members = []int{}
	if err = tx.SelectContext(ctx, &saved.Members, `SELECT user_id FROM group_members WHERE group_id=$1 ORDER BY id ASC`, group.ID); err != nil {
		return models.Group{}, err
	}
	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}
	return saved, nil
}

// DeleteGroup removes the group; members and messages cascade.
func (r *GroupRepo) DeleteGroup(ctx context.Context, groupID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id=$1`, groupID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// ListGroupsForUser returns the user's groups, most recently active first.
func (r *GroupRepo) ListGroupsForUser(ctx context.Context, userID int) ([]models.GroupSummary, error) {
	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, `SELECT g.id, g.name, g.group_image, g.admin_id, g.created_at, g.updated_at
        FROM groups g INNER JOIN group_members gm ON gm.group_id = g.id
        WHERE gm.user_id=$1`, userID); err != nil {
		return nil, err
	}
	summaries := make([]models.GroupSummary, 0, len(groups))
	if len(groups) == 0 {
		return summaries, nil
	}

	ids := make([]int64, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, int64(g.ID))
	}

	var memberRows []struct {
		GroupID int `db:"group_id"`
		UserID  int `db:"user_id"`
	}
	if err := r.db.SelectContext(ctx, &memberRows, `SELECT group_id, user_id FROM group_members WHERE group_id = ANY($1) ORDER BY id ASC`, pq.Array(ids)); err != nil {
		return nil, err
	}
	members := make(map[int][]int, len(groups))
	for _, row := range memberRows {
		members[row.GroupID] = append(members[row.GroupID], row.UserID)
	}

	var latest []models.Message
	if err := r.db.SelectContext(ctx, &latest, `SELECT DISTINCT ON (group_id) `+messageColumns+`
        FROM messages WHERE group_id = ANY($1)
        ORDER BY group_id, created_at DESC, id DESC`, pq.Array(ids)); err != nil {
		return nil, err
	}
	lastByGroup := make(map[int]models.Message, len(latest))
	for _, m := range latest {
		lastByGroup[*m.GroupID] = m
	}

	for _, g := range groups {
		g.Members = members[g.ID]
		summary := models.GroupSummary{Group: g, LastMessageTime: g.UpdatedAt}
		if m, ok := lastByGroup[g.ID]; ok {
			msg := m
			summary.LastMessage = &msg
			summary.LastMessageTime = m.CreatedAt
		}
		summaries = append(summaries, summary)
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastMessageTime.After(summaries[j].LastMessageTime)
	})
	return summaries, nil
}

// ListGroupImages returns every non-empty group image url.
func (r *GroupRepo) ListGroupImages(ctx context.Context) ([]string, error) {
	var urls []string
	err := r.db.SelectContext(ctx, &urls, `SELECT group_image FROM groups WHERE group_image <> ''`)
	return urls, err
}

func dedupeIDs(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
