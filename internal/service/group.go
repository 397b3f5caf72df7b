package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"connext-backend/internal/cache"
	"connext-backend/internal/imagestore"
	"connext-backend/internal/models"
	"connext-backend/internal/repositories"
	"connext-backend/internal/telemetry"
	"connext-backend/internal/ws"
)

const groupCacheTTL = 5 * time.Minute

// GroupService enforces membership rules: admin is always a member, a group is
// never stored empty, and the first remaining member inherits an exiting admin's role.
// Concurrent edits to one group are last-writer-wins.
type GroupService struct {
	groups   repositories.GroupRepository
	users    repositories.UserRepository
	messages repositories.MessageRepository
	images   imagestore.Store
	notifier Notifier
	cache    cache.Cache
}

func NewGroupService(groups repositories.GroupRepository, users repositories.UserRepository, messages repositories.MessageRepository,
	images imagestore.Store, notifier Notifier, c cache.Cache) *GroupService {
	return &GroupService{groups: groups, users: users, messages: messages, images: images, notifier: notifier, cache: c}
}

// ExitResult describes what happened to the group after a member left.
type ExitResult struct {
	Group      *models.Group `json:"group,omitempty"`
	Deleted    bool          `json:"deleted"`
	NewAdminID int           `json:"newAdminId,omitempty"`
}

// CreateGroup creates a group administered by adminID. Invitees outside the admin's
// contacts are ignored; if none remain the call fails with ErrInvalidMembers.
func (s *GroupService) CreateGroup(ctx context.Context, adminID int, name string, memberIDs []int, image string) (models.Group, error) {
	ctx, span := telemetry.StartSpan(ctx, "group.create")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return models.Group{}, fmt.Errorf("%w: group name is required", ErrInvalidInput)
	}
	admin, err := s.users.GetUser(ctx, adminID)
	if err != nil {
		return models.Group{}, mapUserErr(err)
	}

	members := []int{adminID}
	seen := map[int]struct{}{adminID: {}}
	for _, id := range memberIDs {
		if _, dup := seen[id]; dup || !admin.HasContact(id) {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}
	if len(members) == 1 {
		return models.Group{}, ErrInvalidMembers
	}

	var imageURL string
	if image != "" {
		if imageURL, err = upload(ctx, s.images, image); err != nil {
			return models.Group{}, err
		}
	}

	group, err := s.groups.CreateGroup(ctx, models.Group{Name: name, Image: imageURL, AdminID: adminID, Members: members})
	if err != nil {
		destroyImage(ctx, s.images, imageURL)
		return models.Group{}, err
	}
	span.SetAttributes(attribute.Int("group_id", group.ID), attribute.Int("members", len(group.Members)))

	notify(ctx, s.notifier, models.EventGroupCreated, group, ws.ToMembers(group.Members))
	return group, nil
}

// AddMember adds targetID to the group. Only the admin may add.
func (s *GroupService) AddMember(ctx context.Context, actorID, groupID, targetID int) (models.Group, error) {
	ctx, span := telemetry.StartSpan(ctx, "group.add_member")
	defer span.End()

	group, err := s.load(ctx, groupID)
	if err != nil {
		return models.Group{}, err
	}
	if group.AdminID != actorID {
		return models.Group{}, ErrNotAdmin
	}
	if group.HasMember(targetID) {
		return models.Group{}, ErrAlreadyMember
	}
	if _, err := s.users.GetUser(ctx, targetID); err != nil {
		return models.Group{}, mapUserErr(err)
	}

	group.Members = append(group.Members, targetID)
	saved, err := s.save(ctx, group)
	if err != nil {
		return models.Group{}, err
	}

	notify(ctx, s.notifier, models.EventMemberAdded, models.MembershipPayload{GroupID: groupID, MemberID: targetID}, ws.ToUser(targetID))
	return saved, nil
}

// AddMembers adds every existing user in ids that is not already a member.
// It returns the ids that were actually added.
func (s *GroupService) AddMembers(ctx context.Context, actorID, groupID int, ids []int) (models.Group, []int, error) {
	ctx, span := telemetry.StartSpan(ctx, "group.add_members")
	defer span.End()

	group, err := s.load(ctx, groupID)
	if err != nil {
		return models.Group{}, nil, err
	}
	if group.AdminID != actorID {
		return models.Group{}, nil, ErrNotAdmin
	}

	var candidates []int
	for _, id := range ws.ToMembers(ids).UserIDs() {
		if !group.HasMember(id) {
			candidates = append(candidates, id)
		}
	}
	existing, err := s.users.ListUsers(ctx, candidates)
	if err != nil {
		return models.Group{}, nil, err
	}
	found := make(map[int]struct{}, len(existing))
	for _, u := range existing {
		found[u.ID] = struct{}{}
	}
	added := make([]int, 0, len(candidates))
	for _, id := range candidates {
		if _, ok := found[id]; ok {
			added = append(added, id)
		}
	}
	if len(added) == 0 {
		return models.Group{}, nil, ErrInvalidMembers
	}

	group.Members = append(group.Members, added...)
	saved, err := s.save(ctx, group)
	if err != nil {
		return models.Group{}, nil, err
	}

	for _, id := range added {
		notify(ctx, s.notifier, models.EventMemberAdded, models.MembershipPayload{GroupID: groupID, MemberID: id}, ws.ToUser(id))
	}
	return saved, added, nil
}

// RemoveMember removes targetID from the group. Only the admin may remove, and not themselves.
func (s *GroupService) RemoveMember(ctx context.Context, actorID, groupID, targetID int) (models.Group, error) {
	ctx, span := telemetry.StartSpan(ctx, "group.remove_member")
	defer span.End()

	group, err := s.load(ctx, groupID)
	if err != nil {
		return models.Group{}, err
	}
	if group.AdminID != actorID {
		return models.Group{}, ErrNotAdmin
	}
	if !group.HasMember(targetID) {
		return models.Group{}, ErrNotAMember
	}
	if targetID == group.AdminID {
		return models.Group{}, ErrAdminMustExit
	}

	group.Members = group.WithoutMember(targetID)
	saved, err := s.save(ctx, group)
	if err != nil {
		return models.Group{}, err
	}

	notify(ctx, s.notifier, models.EventMemberRemoved, models.MembershipPayload{GroupID: groupID, MemberID: targetID}, ws.ToUser(targetID))
	return saved, nil
}

// Exit removes userID from the group. The last member leaving deletes the group;
// an exiting admin is succeeded by the first remaining member.
func (s *GroupService) Exit(ctx context.Context, userID, groupID int) (ExitResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "group.exit")
	defer span.End()

	group, err := s.load(ctx, groupID)
	if err != nil {
		return ExitResult{}, err
	}
	if !group.HasMember(userID) {
		return ExitResult{}, ErrNotAMember
	}

	remaining := group.WithoutMember(userID)
	exited := models.MembershipPayload{GroupID: groupID, MemberID: userID}

	if len(remaining) == 0 {
		if err := s.groups.DeleteGroup(ctx, groupID); err != nil {
			return ExitResult{}, mapGroupErr(err)
		}
		s.invalidate(ctx, groupID)
		span.SetAttributes(attribute.Bool("deleted", true))
		notify(ctx, s.notifier, models.EventMemberExited, exited, ws.ToUser(userID))
		return ExitResult{Deleted: true}, nil
	}

	result := ExitResult{}
	group.Members = remaining
	if group.AdminID == userID {
		group.AdminID = remaining[0]
		result.NewAdminID = remaining[0]
	}
	saved, err := s.save(ctx, group)
	if err != nil {
		return ExitResult{}, err
	}
	result.Group = &saved

	if result.NewAdminID != 0 {
		notify(ctx, s.notifier, models.EventAdminTransferred,
			models.AdminTransferPayload{GroupID: groupID, NewAdminID: result.NewAdminID}, ws.ToUser(result.NewAdminID))
	}
	notify(ctx, s.notifier, models.EventMemberExited, exited, ws.ToMembers(append(remaining, userID)))
	return result, nil
}

// GetGroup returns a group the caller belongs to, served from cache when possible.
func (s *GroupService) GetGroup(ctx context.Context, userID, groupID int) (models.Group, error) {
	group, err := s.cached(ctx, groupID)
	if err != nil {
		return models.Group{}, err
	}
	if !group.HasMember(userID) {
		return models.Group{}, ErrMembersOnly
	}
	return group, nil
}

// ListGroups returns the caller's groups with their latest message, most recent first.
func (s *GroupService) ListGroups(ctx context.Context, userID int) ([]models.GroupSummary, error) {
	return s.groups.ListGroupsForUser(ctx, userID)
}

// EligibleUsers lists the caller's contacts who are not yet in the group.
func (s *GroupService) EligibleUsers(ctx context.Context, userID, groupID int) ([]models.User, error) {
	group, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, ErrMembersOnly
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	var ids []int
	for _, id := range user.Contacts {
		if !group.HasMember(id) {
			ids = append(ids, id)
		}
	}
	return s.users.ListUsers(ctx, ids)
}

// GroupMessages returns the group's history to a member.
func (s *GroupService) GroupMessages(ctx context.Context, userID, groupID int) ([]models.Message, error) {
	group, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, ErrMembersOnly
	}
	return s.messages.ListGroupMessages(ctx, groupID)
}

// ChangeImage uploads a new group image. Admin only.
func (s *GroupService) ChangeImage(ctx context.Context, actorID, groupID int, image string) (models.Group, error) {
	ctx, span := telemetry.StartSpan(ctx, "group.change_image")
	defer span.End()

	if image == "" {
		return models.Group{}, fmt.Errorf("%w: image is required", ErrInvalidInput)
	}
	group, err := s.load(ctx, groupID)
	if err != nil {
		return models.Group{}, err
	}
	if group.AdminID != actorID {
		return models.Group{}, ErrNotAdmin
	}
	url, err := upload(ctx, s.images, image)
	if err != nil {
		return models.Group{}, err
	}

	previous := group.Image
	group.Image = url
	saved, err := s.save(ctx, group)
	if err != nil {
		destroyImage(ctx, s.images, url)
		return models.Group{}, err
	}
	destroyImage(ctx, s.images, previous)
	return saved, nil
}

// RemoveImage clears the group image. Admin only.
func (s *GroupService) RemoveImage(ctx context.Context, actorID, groupID int) (models.Group, error) {
	group, err := s.load(ctx, groupID)
	if err != nil {
		return models.Group{}, err
	}
	if group.AdminID != actorID {
		return models.Group{}, ErrNotAdmin
	}
	if group.Image == "" {
		return models.Group{}, ErrNoImageToRemove
	}

	previous := group.Image
	group.Image = ""
	saved, err := s.save(ctx, group)
	if err != nil {
		return models.Group{}, err
	}
	destroyImage(ctx, s.images, previous)
	return saved, nil
}

func (s *GroupService) load(ctx context.Context, groupID int) (models.Group, error) {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return models.Group{}, mapGroupErr(err)
	}
	return group, nil
}

func (s *GroupService) save(ctx context.Context, group models.Group) (models.Group, error) {
	saved, err := s.groups.SaveGroup(ctx, group)
	if err != nil {
		return models.Group{}, mapGroupErr(err)
	}
	s.invalidate(ctx, group.ID)
	return saved, nil
}

func (s *GroupService) cached(ctx context.Context, groupID int) (models.Group, error) {
	key := groupCacheKey(groupID)
	if raw, err := s.cache.Get(ctx, key); err == nil {
		var group models.Group
		if err := json.Unmarshal([]byte(raw), &group); err == nil {
			return group, nil
		}
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Warn().Err(err).Int("group_id", groupID).Msg("group cache read")
	}

	group, err := s.load(ctx, groupID)
	if err != nil {
		return models.Group{}, err
	}
	if raw, err := json.Marshal(group); err == nil {
		if err := s.cache.Set(ctx, key, string(raw), groupCacheTTL); err != nil {
			log.Warn().Err(err).Int("group_id", groupID).Msg("group cache write")
		}
	}
	return group, nil
}

func (s *GroupService) invalidate(ctx context.Context, groupID int) {
	invalidateGroup(ctx, s.cache, groupID)
}

func invalidateGroup(ctx context.Context, c cache.Cache, groupID int) {
	if _, err := c.Del(ctx, groupCacheKey(groupID)); err != nil {
		log.Warn().Err(err).Int("group_id", groupID).Msg("group cache invalidate")
	}
}

func groupCacheKey(groupID int) string {
	return fmt.Sprintf("group:%d", groupID)
}
