package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/huddlehq/huddle-server/internal/store"
)

// fakeStore is an in-memory store.Store for hub tests.
type fakeStore struct {
	mu sync.Mutex

	users            map[int64]*store.User
	workspaceMembers map[int64]map[int64]bool // workspaceID -> userID
	channels         map[int64]*store.Channel
	channelMembers   map[int64]map[int64]bool // channelID -> userID
	messages         map[int64]*store.Message
	reactions        map[string]bool // messageID/userID/emoji
	mentions         []int64         // mentioned user IDs in order
	threads          map[int64]*store.Thread
	calls            map[string]*store.Call

	nextUserID    int64
	nextChannelID int64
	nextMessageID int64

	// failCreateCall forces CreateCall to error, for persistence-failure
	// paths.
	failCreateCall bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:            make(map[int64]*store.User),
		workspaceMembers: make(map[int64]map[int64]bool),
		channels:         make(map[int64]*store.Channel),
		channelMembers:   make(map[int64]map[int64]bool),
		messages:         make(map[int64]*store.Message),
		reactions:        make(map[string]bool),
		threads:          make(map[int64]*store.Thread),
		calls:            make(map[string]*store.Call),
	}
}

// ==== test seeding helpers ====

func (f *fakeStore) addUser(username string) *store.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextUserID++
	u := &store.User{ID: f.nextUserID, Username: username, DisplayName: username}
	f.users[u.ID] = u
	return u
}

func (f *fakeStore) addWorkspaceMember(workspaceID, userID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.workspaceMembers[workspaceID] == nil {
		f.workspaceMembers[workspaceID] = make(map[int64]bool)
	}
	f.workspaceMembers[workspaceID][userID] = true
}

func (f *fakeStore) addChannel(workspaceID int64, isPrivate bool, memberIDs ...int64) *store.Channel {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextChannelID++
	ch := &store.Channel{ID: f.nextChannelID, WorkspaceID: workspaceID, Name: fmt.Sprintf("chan-%d", f.nextChannelID), IsPrivate: isPrivate}
	f.channels[ch.ID] = ch
	f.channelMembers[ch.ID] = make(map[int64]bool)
	for _, id := range memberIDs {
		f.channelMembers[ch.ID][id] = true
	}
	return ch
}

// ==== UserStore ====

func (f *fakeStore) CreateUser(_ context.Context, username, displayName, passwordHash string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextUserID++
	u := &store.User{ID: f.nextUserID, Username: username, DisplayName: displayName, PasswordHash: passwordHash}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) SetUserOnline(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		u.IsOnline = true
		u.Status = "online"
	}
	return nil
}

func (f *fakeStore) SetUserOffline(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		u.IsOnline = false
		u.Status = "offline"
		now := time.Now()
		u.LastSeen = &now
	}
	return nil
}

func (f *fakeStore) UpdateUserStatus(_ context.Context, userID int64, status, statusMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		u.Status = status
		u.StatusMessage = statusMessage
	}
	return nil
}

// ==== WorkspaceStore ====

func (f *fakeStore) CreateWorkspace(_ context.Context, name string, ownerID int64) (*store.Workspace, error) {
	return nil, fmt.Errorf("not implemented in fake")
}

func (f *fakeStore) AddWorkspaceMember(_ context.Context, workspaceID, userID int64) error {
	f.addWorkspaceMember(workspaceID, userID)
	return nil
}

func (f *fakeStore) IsWorkspaceMember(_ context.Context, workspaceID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.workspaceMembers[workspaceID][userID], nil
}

func (f *fakeStore) ListWorkspaceIDs(_ context.Context, userID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for wsID, members := range f.workspaceMembers {
		if members[userID] {
			ids = append(ids, wsID)
		}
	}
	return ids, nil
}

// ==== ChannelStore ====

func (f *fakeStore) CreateChannel(_ context.Context, workspaceID int64, name string, isPrivate bool) (*store.Channel, error) {
	return f.addChannel(workspaceID, isPrivate), nil
}

func (f *fakeStore) GetChannelByID(_ context.Context, id int64) (*store.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return ch, nil
}

func (f *fakeStore) AddChannelMember(_ context.Context, channelID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.channelMembers[channelID] == nil {
		f.channelMembers[channelID] = make(map[int64]bool)
	}
	f.channelMembers[channelID][userID] = true
	return nil
}

func (f *fakeStore) RemoveChannelMember(_ context.Context, channelID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.channelMembers[channelID], userID)
	return nil
}

func (f *fakeStore) IsChannelMember(_ context.Context, channelID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channelMembers[channelID][userID], nil
}

func (f *fakeStore) ListMemberChannelIDs(_ context.Context, workspaceID, userID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for chID, members := range f.channelMembers {
		if ch, ok := f.channels[chID]; ok && ch.WorkspaceID == workspaceID && members[userID] {
			ids = append(ids, chID)
		}
	}
	return ids, nil
}

func (f *fakeStore) MarkChannelRead(_ context.Context, channelID, userID int64) error {
	return nil
}

// ==== MessageStore ====

func (f *fakeStore) CreateMessage(_ context.Context, msg *store.Message) (*store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextMessageID++
	saved := *msg
	saved.ID = f.nextMessageID
	saved.CreatedAt = time.Now()
	if u, ok := f.users[msg.UserID]; ok {
		saved.Username = u.Username
		saved.DisplayName = u.DisplayName
	}
	f.messages[saved.ID] = &saved
	return &saved, nil
}

func (f *fakeStore) GetMessageByID(_ context.Context, id int64) (*store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return m, nil
}

func (f *fakeStore) UpdateMessageContent(_ context.Context, id int64, content string) (*store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	m.Content = content
	m.IsEdited = true
	now := time.Now()
	m.EditedAt = &now
	return m, nil
}

func (f *fakeStore) SoftDeleteMessage(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return store.ErrNotFound
	}
	m.IsDeleted = true
	m.Content = "[Message deleted]"
	return nil
}

func (f *fakeStore) AddReaction(_ context.Context, messageID, userID int64, emoji string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%d/%d/%s", messageID, userID, emoji)
	if f.reactions[key] {
		return false, nil
	}
	f.reactions[key] = true
	return true, nil
}

func (f *fakeStore) RemoveReaction(_ context.Context, messageID, userID int64, emoji string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%d/%d/%s", messageID, userID, emoji)
	if !f.reactions[key] {
		return false, nil
	}
	delete(f.reactions, key)
	return true, nil
}

func (f *fakeStore) CreateMention(_ context.Context, messageID, mentionedUserID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mentions = append(f.mentions, mentionedUserID)
	return nil
}

func (f *fakeStore) UpsertThread(_ context.Context, parentMessageID, replierID int64) (*store.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	th, ok := f.threads[parentMessageID]
	if !ok {
		th = &store.Thread{MessageID: parentMessageID}
		f.threads[parentMessageID] = th
	}
	th.ReplyCount++
	th.LastReplyAt = time.Now()
	return th, nil
}

// ==== CallStore ====

func (f *fakeStore) CreateCall(_ context.Context, call *store.Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateCall {
		return fmt.Errorf("forced create failure")
	}
	saved := *call
	f.calls[call.ID] = &saved
	return nil
}

func (f *fakeStore) UpdateCall(_ context.Context, call *store.Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	saved := *call
	f.calls[call.ID] = &saved
	return nil
}

func (f *fakeStore) GetCall(_ context.Context, id string) (*store.Call, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.calls[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) ListActiveCalls(_ context.Context, userID int64) ([]*store.Call, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var active []*store.Call
	for _, c := range f.calls {
		if c.CallerID != userID && c.RecipientID != userID {
			continue
		}
		if c.Status == store.CallStatusRinging || c.Status == store.CallStatusConnected {
			active = append(active, c)
		}
	}
	return active, nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) messageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func (f *fakeStore) message(id int64) store.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.messages[id]; ok {
		return *m
	}
	return store.Message{}
}

func (f *fakeStore) mentionedUsers() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.mentions...)
}

func (f *fakeStore) callStatus(id string) store.CallStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.calls[id]; ok {
		return c.Status
	}
	return ""
}
