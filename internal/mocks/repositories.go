package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"connext-backend/internal/models"
	"connext-backend/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

var _ repositories.UserRepository = (*UserRepositoryMock)(nil)

func (m *UserRepositoryMock) CreateUser(ctx context.Context, email, fullName, passwordHash string) (models.User, error) {
	args := m.Called(ctx, email, fullName, passwordHash)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) UpdateProfilePic(ctx context.Context, userID int, url string) (models.User, error) {
	args := m.Called(ctx, userID, url)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) ListUsers(ctx context.Context, ids []int) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) SearchUsers(ctx context.Context, userID int, query string) ([]models.User, error) {
	args := m.Called(ctx, userID, query)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) IsBlocked(ctx context.Context, blockerID, blockedID int) (bool, error) {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepositoryMock) BlockUser(ctx context.Context, blockerID, blockedID int) error {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Error(0)
}

func (m *UserRepositoryMock) UnblockUser(ctx context.Context, blockerID, blockedID int) error {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Error(0)
}

func (m *UserRepositoryMock) ListProfileImages(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	var urls []string
	if val := args.Get(0); val != nil {
		urls = val.([]string)
	}
	return urls, args.Error(1)
}

type GroupRepositoryMock struct {
	mock.Mock
}

var _ repositories.GroupRepository = (*GroupRepositoryMock)(nil)

func (m *GroupRepositoryMock) CreateGroup(ctx context.Context, group models.Group) (models.Group, error) {
	args := m.Called(ctx, group)
	var out models.Group
	if val := args.Get(0); val != nil {
		out = val.(models.Group)
	}
	return out, args.Error(1)
}

func (m *GroupRepositoryMock) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	args := m.Called(ctx, groupID)
	var out models.Group
	if val := args.Get(0); val != nil {
		out = val.(models.Group)
	}
	return out, args.Error(1)
}

func (m *GroupRepositoryMock) SaveGroup(ctx context.Context, group models.Group) (models.Group, error) {
	args := m.Called(ctx, group)
	var out models.Group
	if val := args.Get(0); val != nil {
		out = val.(models.Group)
	}
	return out, args.Error(1)
}

func (m *GroupRepositoryMock) DeleteGroup(ctx context.Context, groupID int) error {
	args := m.Called(ctx, groupID)
	return args.Error(0)
}

func (m *GroupRepositoryMock) ListGroupsForUser(ctx context.Context, userID int) ([]models.GroupSummary, error) {
	args := m.Called(ctx, userID)
	var out []models.GroupSummary
	if val := args.Get(0); val != nil {
		out = val.([]models.GroupSummary)
	}
	return out, args.Error(1)
}

func (m *GroupRepositoryMock) ListGroupImages(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	var urls []string
	if val := args.Get(0); val != nil {
		urls = val.([]string)
	}
	return urls, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)

func (m *MessageRepositoryMock) CreateDirectMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) CreateGroupMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) ListConversation(ctx context.Context, userID, otherID int) ([]models.Message, error) {
	args := m.Called(ctx, userID, otherID)
	var out []models.Message
	if val := args.Get(0); val != nil {
		out = val.([]models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) ListGroupMessages(ctx context.Context, groupID int) ([]models.Message, error) {
	args := m.Called(ctx, groupID)
	var out []models.Message
	if val := args.Get(0); val != nil {
		out = val.([]models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) ListConversationPartners(ctx context.Context, userID int) ([]models.ContactSummary, error) {
	args := m.Called(ctx, userID)
	var out []models.ContactSummary
	if val := args.Get(0); val != nil {
		out = val.([]models.ContactSummary)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessageImages(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	var urls []string
	if val := args.Get(0); val != nil {
		urls = val.([]string)
	}
	return urls, args.Error(1)
}
