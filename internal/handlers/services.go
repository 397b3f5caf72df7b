package handlers

import (
	"context"

	"connext-backend/internal/models"
	"connext-backend/internal/service"
)

type userService interface {
	Signup(ctx context.Context, fullName, email, password string) (models.User, string, error)
	Login(ctx context.Context, email, password string) (models.User, string, error)
	Check(ctx context.Context, userID int) (models.User, error)
	UpdateProfile(ctx context.Context, userID int, image string) (models.User, error)
	Block(ctx context.Context, blockerID, targetID int) error
	Unblock(ctx context.Context, blockerID, targetID int) error
	ListBlocked(ctx context.Context, userID int) ([]models.User, error)
	Search(ctx context.Context, userID int, query string) ([]models.User, error)
	BlockedBetween(ctx context.Context, a, b int) (bool, error)
}

type messageService interface {
	SendDirect(ctx context.Context, senderID, receiverID int, content models.Content) (models.Message, error)
	SendGroup(ctx context.Context, senderID, groupID int, content models.Content) (models.Message, error)
	Conversation(ctx context.Context, userID, otherID int) ([]models.Message, error)
	UsersWithLastMessage(ctx context.Context, userID int) ([]models.ContactSummary, error)
	Contacts(ctx context.Context, userID int) ([]models.User, error)
}

type groupService interface {
	CreateGroup(ctx context.Context, adminID int, name string, memberIDs []int, image string) (models.Group, error)
	AddMember(ctx context.Context, actorID, groupID, targetID int) (models.Group, error)
	AddMembers(ctx context.Context, actorID, groupID int, ids []int) (models.Group, []int, error)
	RemoveMember(ctx context.Context, actorID, groupID, targetID int) (models.Group, error)
	Exit(ctx context.Context, userID, groupID int) (service.ExitResult, error)
	GetGroup(ctx context.Context, userID, groupID int) (models.Group, error)
	ListGroups(ctx context.Context, userID int) ([]models.GroupSummary, error)
	EligibleUsers(ctx context.Context, userID, groupID int) ([]models.User, error)
	GroupMessages(ctx context.Context, userID, groupID int) ([]models.Message, error)
	ChangeImage(ctx context.Context, actorID, groupID int, image string) (models.Group, error)
	RemoveImage(ctx context.Context, actorID, groupID int) (models.Group, error)
}
