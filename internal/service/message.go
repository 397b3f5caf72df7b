package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"connext-backend/internal/cache"
	"connext-backend/internal/imagestore"
	"connext-backend/internal/models"
	"connext-backend/internal/repositories"
	"connext-backend/internal/telemetry"
	"connext-backend/internal/ws"
)

// MessageService runs the send pipeline: validate, upload, persist, side effects, fanout.
// A failed step aborts the send; the message and its side effects are stored together or not at all.
type MessageService struct {
	messages repositories.MessageRepository
	users    repositories.UserRepository
	groups   repositories.GroupRepository
	images   imagestore.Store
	notifier Notifier
	cache    cache.Cache
}

func NewMessageService(messages repositories.MessageRepository, users repositories.UserRepository, groups repositories.GroupRepository,
	images imagestore.Store, notifier Notifier, c cache.Cache) *MessageService {
	return &MessageService{messages: messages, users: users, groups: groups, images: images, notifier: notifier, cache: c}
}

// SendDirect stores a direct message, makes sender and receiver mutual contacts and
// pushes newMessage to the receiver. Blocks are checked by the caller.
func (s *MessageService) SendDirect(ctx context.Context, senderID, receiverID int, content models.Content) (models.Message, error) {
	ctx, span := telemetry.StartSpan(ctx, "message.send_direct")
	defer span.End()
	span.SetAttributes(attribute.Int("sender_id", senderID), attribute.Int("receiver_id", receiverID))

	if content.Empty() {
		return models.Message{}, ErrNoContent
	}
	if senderID == receiverID {
		return models.Message{}, ErrSelfMessage
	}
	if _, err := s.users.GetUser(ctx, receiverID); err != nil {
		return models.Message{}, mapUserErr(err)
	}

	imageURL, err := s.uploadContent(ctx, content)
	if err != nil {
		return models.Message{}, err
	}

	msg, err := s.messages.CreateDirectMessage(ctx, models.NewDirectMessage(senderID, receiverID, content.Text, imageURL))
	if err != nil {
		destroyImage(ctx, s.images, imageURL)
		return models.Message{}, fmt.Errorf("store direct message: %w", err)
	}

	notify(ctx, s.notifier, models.EventNewMessage, msg, ws.ToUser(receiverID))
	return msg, nil
}

// SendGroup stores a group message, bumps the group's activity and pushes
// newMessage to every member, sender included.
func (s *MessageService) SendGroup(ctx context.Context, senderID, groupID int, content models.Content) (models.Message, error) {
	ctx, span := telemetry.StartSpan(ctx, "message.send_group")
	defer span.End()
	span.SetAttributes(attribute.Int("sender_id", senderID), attribute.Int("group_id", groupID))

	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		return models.Message{}, mapGroupErr(err)
	}
	if !group.HasMember(senderID) {
		return models.Message{}, ErrNotAMember
	}
	if content.Empty() {
		return models.Message{}, ErrNoContent
	}

	imageURL, err := s.uploadContent(ctx, content)
	if err != nil {
		return models.Message{}, err
	}

	msg, err := s.messages.CreateGroupMessage(ctx, models.NewGroupMessage(senderID, groupID, content.Text, imageURL))
	if err != nil {
		destroyImage(ctx, s.images, imageURL)
		return models.Message{}, fmt.Errorf("store group message: %w", err)
	}
	invalidateGroup(ctx, s.cache, groupID)

	notify(ctx, s.notifier, models.EventNewMessage, msg, ws.ToMembers(group.Members))
	return msg, nil
}

// Conversation returns the direct history between the caller and otherID.
func (s *MessageService) Conversation(ctx context.Context, userID, otherID int) ([]models.Message, error) {
	return s.messages.ListConversation(ctx, userID, otherID)
}

// UsersWithLastMessage lists conversation partners with the latest message, newest first.
func (s *MessageService) UsersWithLastMessage(ctx context.Context, userID int) ([]models.ContactSummary, error) {
	return s.messages.ListConversationPartners(ctx, userID)
}

// Contacts returns the caller's contacts for the sidebar.
func (s *MessageService) Contacts(ctx context.Context, userID int) ([]models.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	return s.users.ListUsers(ctx, user.Contacts)
}

func (s *MessageService) uploadContent(ctx context.Context, content models.Content) (string, error) {
	if content.Image == "" {
		return "", nil
	}
	return upload(ctx, s.images, content.Image)
}
