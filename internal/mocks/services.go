package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"connext-backend/internal/models"
	"connext-backend/internal/service"
)

type UserServiceMock struct {
	mock.Mock
}

func (m *UserServiceMock) Signup(ctx context.Context, fullName, email, password string) (models.User, string, error) {
	args := m.Called(ctx, fullName, email, password)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.String(1), args.Error(2)
}

func (m *UserServiceMock) Login(ctx context.Context, email, password string) (models.User, string, error) {
	args := m.Called(ctx, email, password)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.String(1), args.Error(2)
}

func (m *UserServiceMock) Check(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserServiceMock) UpdateProfile(ctx context.Context, userID int, image string) (models.User, error) {
	args := m.Called(ctx, userID, image)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserServiceMock) Block(ctx context.Context, blockerID, targetID int) error {
	args := m.Called(ctx, blockerID, targetID)
	return args.Error(0)
}

func (m *UserServiceMock) Unblock(ctx context.Context, blockerID, targetID int) error {
	args := m.Called(ctx, blockerID, targetID)
	return args.Error(0)
}

func (m *UserServiceMock) ListBlocked(ctx context.Context, userID int) ([]models.User, error) {
	args := m.Called(ctx, userID)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserServiceMock) Search(ctx context.Context, userID int, query string) ([]models.User, error) {
	args := m.Called(ctx, userID, query)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserServiceMock) BlockedBetween(ctx context.Context, a, b int) (bool, error) {
	args := m.Called(ctx, a, b)
	return args.Bool(0), args.Error(1)
}

type MessageServiceMock struct {
	mock.Mock
}

func (m *MessageServiceMock) SendDirect(ctx context.Context, senderID, receiverID int, content models.Content) (models.Message, error) {
	args := m.Called(ctx, senderID, receiverID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageServiceMock) SendGroup(ctx context.Context, senderID, groupID int, content models.Content) (models.Message, error) {
	args := m.Called(ctx, senderID, groupID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageServiceMock) Conversation(ctx context.Context, userID, otherID int) ([]models.Message, error) {
	args := m.Called(ctx, userID, otherID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageServiceMock) UsersWithLastMessage(ctx context.Context, userID int) ([]models.ContactSummary, error) {
	args := m.Called(ctx, userID)
	var out []models.ContactSummary
	if val := args.Get(0); val != nil {
		out = val.([]models.ContactSummary)
	}
	return out, args.Error(1)
}

func (m *MessageServiceMock) Contacts(ctx context.Context, userID int) ([]models.User, error) {
	args := m.Called(ctx, userID)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

type GroupServiceMock struct {
	mock.Mock
}

func (m *GroupServiceMock) group(args mock.Arguments) (models.Group, error) {
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupServiceMock) CreateGroup(ctx context.Context, adminID int, name string, memberIDs []int, image string) (models.Group, error) {
	return m.group(m.Called(ctx, adminID, name, memberIDs, image))
}

func (m *GroupServiceMock) AddMember(ctx context.Context, actorID, groupID, targetID int) (models.Group, error) {
	return m.group(m.Called(ctx, actorID, groupID, targetID))
}

func (m *GroupServiceMock) AddMembers(ctx context.Context, actorID, groupID int, ids []int) (models.Group, []int, error) {
	args := m.Called(ctx, actorID, groupID, ids)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	var added []int
	if val := args.Get(1); val != nil {
		added = val.([]int)
	}
	return group, added, args.Error(2)
}

func (m *GroupServiceMock) RemoveMember(ctx context.Context, actorID, groupID, targetID int) (models.Group, error) {
	return m.group(m.Called(ctx, actorID, groupID, targetID))
}

func (m *GroupServiceMock) Exit(ctx context.Context, userID, groupID int) (service.ExitResult, error) {
	args := m.Called(ctx, userID, groupID)
	var result service.ExitResult
	if val := args.Get(0); val != nil {
		result = val.(service.ExitResult)
	}
	return result, args.Error(1)
}

func (m *GroupServiceMock) GetGroup(ctx context.Context, userID, groupID int) (models.Group, error) {
	return m.group(m.Called(ctx, userID, groupID))
}

func (m *GroupServiceMock) ListGroups(ctx context.Context, userID int) ([]models.GroupSummary, error) {
	args := m.Called(ctx, userID)
	var out []models.GroupSummary
	if val := args.Get(0); val != nil {
		out = val.([]models.GroupSummary)
	}
	return out, args.Error(1)
}

func (m *GroupServiceMock) EligibleUsers(ctx context.Context, userID, groupID int) ([]models.User, error) {
	args := m.Called(ctx, userID, groupID)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *GroupServiceMock) GroupMessages(ctx context.Context, userID, groupID int) ([]models.Message, error) {
	args := m.Called(ctx, userID, groupID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *GroupServiceMock) ChangeImage(ctx context.Context, actorID, groupID int, image string) (models.Group, error) {
	return m.group(m.Called(ctx, actorID, groupID, image))
}

func (m *GroupServiceMock) RemoveImage(ctx context.Context, actorID, groupID int) (models.Group, error) {
	return m.group(m.Called(ctx, actorID, groupID))
}
