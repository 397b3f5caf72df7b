package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"connext-backend/internal/cache"
	"connext-backend/internal/imagestore"
	"connext-backend/internal/models"
	"connext-backend/internal/repositories"
	"connext-backend/internal/ws"
)

// memStore keeps users, groups and messages in memory and satisfies all three repositories.
// The *Err fields fail the matching write before anything is changed, like a rolled back transaction.
type memStore struct {
	mu       sync.Mutex
	users    map[int]models.User
	groups   map[int]models.Group
	messages []models.Message
	nextID   int

	contactsErr error
	activityErr error
	profileErr  error
	saveErr     error
}

var (
	_ repositories.UserRepository    = (*memStore)(nil)
	_ repositories.GroupRepository   = (*memStore)(nil)
	_ repositories.MessageRepository = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{users: map[int]models.User{}, groups: map[int]models.Group{}}
}

func (s *memStore) id() int {
	s.nextID++
	return s.nextID
}

// seedUser inserts a user directly and returns its id.
func (s *memStore) seedUser(name string, contacts ...int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.users[id] = models.User{ID: id, FullName: name, Email: strings.ToLower(name) + "@example.com", Contacts: contacts}
	for _, c := range contacts {
		if u, ok := s.users[c]; ok && !u.HasContact(id) {
			u.Contacts = append(u.Contacts, id)
			s.users[c] = u
		}
	}
	return id
}

func cloneUser(u models.User) models.User {
	u.Contacts = append([]int(nil), u.Contacts...)
	u.BlockedUsers = append([]int(nil), u.BlockedUsers...)
	return u
}

func cloneGroup(g models.Group) models.Group {
	g.Members = append([]int(nil), g.Members...)
	return g
}

func without(ids []int, id int) []int {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (s *memStore) CreateUser(_ context.Context, email, fullName, passwordHash string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return models.User{}, repositories.ErrEmailTaken
		}
	}
	now := time.Now()
	u := models.User{ID: s.id(), Email: email, FullName: fullName, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}
	s.users[u.ID] = u
	return cloneUser(u), nil
}

func (s *memStore) GetUser(_ context.Context, userID int) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return models.User{}, repositories.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return models.User{}, repositories.ErrUserNotFound
}

func (s *memStore) UpdateProfilePic(_ context.Context, userID int, url string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return models.User{}, repositories.ErrUserNotFound
	}
	if s.profileErr != nil {
		return models.User{}, s.profileErr
	}
	u.ProfilePic = url
	s.users[userID] = u
	return cloneUser(u), nil
}

func (s *memStore) ListUsers(_ context.Context, ids []int) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (s *memStore) SearchUsers(_ context.Context, userID int, query string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	self := s.users[userID]
	q := strings.ToLower(query)
	out := []models.User{}
	for _, u := range s.users {
		if u.ID == userID || self.HasBlocked(u.ID) || u.HasBlocked(userID) {
			continue
		}
		if strings.Contains(strings.ToLower(u.FullName), q) || strings.Contains(u.Email, q) {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) IsBlocked(_ context.Context, blockerID, blockedID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[blockerID].HasBlocked(blockedID), nil
}

func (s *memStore) BlockUser(_ context.Context, blockerID, blockedID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, b := s.users[blockerID], s.users[blockedID]
	if a.HasBlocked(blockedID) {
		return repositories.ErrBlockExists
	}
	a.BlockedUsers = append(a.BlockedUsers, blockedID)
	a.Contacts = without(a.Contacts, blockedID)
	b.Contacts = without(b.Contacts, blockerID)
	s.users[blockerID], s.users[blockedID] = a, b

	kept := s.messages[:0:0]
	for _, m := range s.messages {
		if m.IsDirect() && isPair(m, blockerID, blockedID) {
			continue
		}
		kept = append(kept, m)
	}
	s.messages = kept
	return nil
}

func (s *memStore) UnblockUser(_ context.Context, blockerID, blockedID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.users[blockerID]
	if !a.HasBlocked(blockedID) {
		return repositories.ErrBlockNotFound
	}
	a.BlockedUsers = without(a.BlockedUsers, blockedID)
	s.users[blockerID] = a
	return nil
}

func (s *memStore) ListProfileImages(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, u := range s.users {
		if u.ProfilePic != "" {
			out = append(out, u.ProfilePic)
		}
	}
	return out, nil
}

func (s *memStore) CreateGroup(_ context.Context, group models.Group) (models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(group.Members) == 0 {
		return models.Group{}, repositories.ErrEmptyGroup
	}
	now := time.Now()
	group.ID = s.id()
	group.CreatedAt, group.UpdatedAt = now, now
	s.groups[group.ID] = cloneGroup(group)
	return cloneGroup(group), nil
}

func (s *memStore) GetGroup(_ context.Context, groupID int) (models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return models.Group{}, repositories.ErrGroupNotFound
	}
	return cloneGroup(g), nil
}

func (s *memStore) SaveGroup(_ context.Context, group models.Group) (models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[group.ID]; !ok {
		return models.Group{}, repositories.ErrGroupNotFound
	}
	if len(group.Members) == 0 {
		return models.Group{}, repositories.ErrEmptyGroup
	}
	if s.saveErr != nil {
		return models.Group{}, s.saveErr
	}
	group.UpdatedAt = time.Now()
	s.groups[group.ID] = cloneGroup(group)
	return cloneGroup(group), nil
}

func (s *memStore) DeleteGroup(_ context.Context, groupID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[groupID]; !ok {
		return repositories.ErrGroupNotFound
	}
	delete(s.groups, groupID)
	return nil
}

// backdateGroup moves a group's activity marker into the past.
func (s *memStore) backdateGroup(groupID int, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.groups[groupID]
	g.UpdatedAt = at
	s.groups[groupID] = g
}

func (s *memStore) ListGroupsForUser(_ context.Context, userID int) ([]models.GroupSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.GroupSummary{}
	for _, g := range s.groups {
		if g.HasMember(userID) {
			out = append(out, models.GroupSummary{Group: cloneGroup(g), LastMessageTime: g.UpdatedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageTime.After(out[j].LastMessageTime) })
	return out, nil
}

func (s *memStore) ListGroupImages(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, g := range s.groups {
		if g.Image != "" {
			out = append(out, g.Image)
		}
	}
	return out, nil
}

// seedMessage stores a message without side effects.
func (s *memStore) seedMessage(msg models.Message) models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendMessage(msg)
}

func (s *memStore) appendMessage(msg models.Message) models.Message {
	msg.ID = s.id()
	msg.CreatedAt = time.Now()
	s.messages = append(s.messages, msg)
	return msg
}

func (s *memStore) CreateDirectMessage(_ context.Context, msg models.Message) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !msg.IsDirect() {
		return models.Message{}, repositories.ErrInvalidAddressing
	}
	if s.contactsErr != nil {
		return models.Message{}, s.contactsErr
	}
	senderID, receiverID := msg.SenderID, *msg.ReceiverID
	a, b := s.users[senderID], s.users[receiverID]
	if !a.HasContact(receiverID) {
		a.Contacts = append(a.Contacts, receiverID)
	}
	if !b.HasContact(senderID) {
		b.Contacts = append(b.Contacts, senderID)
	}
	s.users[senderID], s.users[receiverID] = a, b
	return s.appendMessage(msg), nil
}

func (s *memStore) CreateGroupMessage(_ context.Context, msg models.Message) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !msg.IsGroup() {
		return models.Message{}, repositories.ErrInvalidAddressing
	}
	g, ok := s.groups[*msg.GroupID]
	if !ok {
		return models.Message{}, repositories.ErrGroupNotFound
	}
	if s.activityErr != nil {
		return models.Message{}, s.activityErr
	}
	g.UpdatedAt = time.Now()
	s.groups[g.ID] = g
	return s.appendMessage(msg), nil
}

func (s *memStore) ListConversation(_ context.Context, userID, otherID int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Message{}
	for _, m := range s.messages {
		if m.IsDirect() && isPair(m, userID, otherID) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) ListGroupMessages(_ context.Context, groupID int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Message{}
	for _, m := range s.messages {
		if m.IsGroup() && *m.GroupID == groupID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) ListConversationPartners(_ context.Context, userID int) ([]models.ContactSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	latest := map[int]models.Message{}
	for _, m := range s.messages {
		if !m.IsDirect() {
			continue
		}
		switch userID {
		case m.SenderID:
			latest[*m.ReceiverID] = m
		case *m.ReceiverID:
			latest[m.SenderID] = m
		}
	}
	out := []models.ContactSummary{}
	for partner, m := range latest {
		out = append(out, models.ContactSummary{User: cloneUser(s.users[partner]), LastMessageText: m.Text, LastMessageAt: m.CreatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

func (s *memStore) ListMessageImages(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, m := range s.messages {
		if m.Image != "" {
			out = append(out, m.Image)
		}
	}
	return out, nil
}

func isPair(m models.Message, a, b int) bool {
	return (m.SenderID == a && *m.ReceiverID == b) || (m.SenderID == b && *m.ReceiverID == a)
}

type delivery struct {
	event models.Event
	to    []int
}

// recordingNotifier captures every event instead of touching sockets.
type recordingNotifier struct {
	mu         sync.Mutex
	deliveries []delivery
}

func (n *recordingNotifier) Deliver(_ context.Context, event models.Event, audience ws.Audience) ws.Report {
	n.mu.Lock()
	defer n.mu.Unlock()
	ids := audience.UserIDs()
	n.deliveries = append(n.deliveries, delivery{event: event, to: ids})
	return ws.Report{Delivered: len(ids)}
}

func (n *recordingNotifier) named(name string) []delivery {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []delivery
	for _, d := range n.deliveries {
		if d.event.Name == name {
			out = append(out, d)
		}
	}
	return out
}

// memCache is a map-backed cache.Cache.
type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

var _ cache.Cache = (*memCache)(nil)

func newMemCache() *memCache {
	return &memCache{data: map[string]string{}}
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := c.data[k]; ok {
			delete(c.data, k)
			n++
		}
	}
	return n, nil
}

func (c *memCache) Ping(context.Context) error { return nil }
func (c *memCache) Close() error               { return nil }

// fakeImages hands out sequential urls and records destroyed ones.
type fakeImages struct {
	mu        sync.Mutex
	uploads   int
	destroyed []string
	uploadErr error
	failOn    map[string]bool
}

var _ imagestore.Store = (*fakeImages)(nil)

func (f *fakeImages) Upload(_ context.Context, payload string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads++
	return fmt.Sprintf("https://img.test/%d.png", f.uploads), nil
}

func (f *fakeImages) Destroy(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn[url] {
		return errors.New("destroy failed")
	}
	f.destroyed = append(f.destroyed, url)
	return nil
}
