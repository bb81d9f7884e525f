package bot

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/freeliao/freeliao/internal/models"
)

// fakeStore is an in-memory Store for router and notifier tests.
type fakeStore struct {
	users       map[string]models.User // by ID
	statuses    map[string]models.UserStatus
	friendships map[string]models.Friendship
	jios        map[string]models.Jio
	responses   map[string]models.JioResponse // key jioID|userID
	invites     map[string]models.JioInvite   // key jioID|userID
	failCreate  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[string]models.User),
		statuses:    make(map[string]models.UserStatus),
		friendships: make(map[string]models.Friendship),
		jios:        make(map[string]models.Jio),
		responses:   make(map[string]models.JioResponse),
		invites:     make(map[string]models.JioInvite),
	}
}

func respKey(jioID, userID string) string { return jioID + "|" + userID }

func (s *fakeStore) addUser(id, chatID, name, code string) models.User {
	u := models.User{ID: id, ChatID: chatID, DisplayName: name, InviteCode: code, CreatedAt: time.Now()}
	s.users[id] = u
	return u
}

func (s *fakeStore) addFriend(userID, friendID string, kind models.StatusType) {
	id := fmt.Sprintf("fr_%s_%s", userID, friendID)
	s.friendships[id] = models.Friendship{
		ID: id, UserID: userID, FriendID: friendID,
		Status: models.FriendshipAccepted, CreatedAt: time.Now(),
	}
	if kind != models.StatusOffline {
		s.statuses[friendID] = models.UserStatus{UserID: friendID, Kind: kind, UpdatedAt: time.Now()}
	}
}

func (s *fakeStore) GetUserByChatID(chatID string) (*models.User, error) {
	for _, u := range s.users {
		if u.ChatID == chatID {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetUserByID(id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (s *fakeStore) GetUserByInviteCode(code string) (*models.User, error) {
	for _, u := range s.users {
		if u.InviteCode == code {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreateUser(u models.User) error {
	s.users[u.ID] = u
	return nil
}

func (s *fakeStore) UpdateUserHandle(id, handle, displayName string) error {
	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("no such user %s", id)
	}
	u.Handle = handle
	u.DisplayName = displayName
	s.users[id] = u
	return nil
}

func (s *fakeStore) SaveUserStatus(st models.UserStatus) error {
	s.statuses[st.UserID] = st
	return nil
}

func (s *fakeStore) GetUserStatus(userID string) (*models.UserStatus, error) {
	if st, ok := s.statuses[userID]; ok {
		return &st, nil
	}
	return nil, nil
}

func (s *fakeStore) UpdateVibe(userID, vibe string) error {
	st, ok := s.statuses[userID]
	if !ok {
		return fmt.Errorf("no status row for %s", userID)
	}
	st.VibeText = vibe
	s.statuses[userID] = st
	return nil
}

func (s *fakeStore) CreateFriendship(f models.Friendship) error {
	s.friendships[f.ID] = f
	return nil
}

func (s *fakeStore) GetFriendship(id string) (*models.Friendship, error) {
	if f, ok := s.friendships[id]; ok {
		return &f, nil
	}
	return nil, nil
}

func (s *fakeStore) GetFriendshipBetween(userID, otherID string) (*models.Friendship, error) {
	for _, f := range s.friendships {
		if (f.UserID == userID && f.FriendID == otherID) || (f.UserID == otherID && f.FriendID == userID) {
			cp := f
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) AcceptFriendship(id, friendID string) (*models.Friendship, error) {
	f, ok := s.friendships[id]
	if !ok || f.FriendID != friendID || f.Status != models.FriendshipPending {
		return nil, nil
	}
	f.Status = models.FriendshipAccepted
	s.friendships[id] = f
	return &f, nil
}

func (s *fakeStore) DeleteFriendship(id, friendID string) error {
	f, ok := s.friendships[id]
	if ok && f.FriendID == friendID && f.Status == models.FriendshipPending {
		delete(s.friendships, id)
	}
	return nil
}

func (s *fakeStore) PendingFriendRequests(userID string) ([]models.Friendship, error) {
	var out []models.Friendship
	for _, f := range s.friendships {
		if f.FriendID == userID && f.Status == models.FriendshipPending {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *fakeStore) FriendsWithStatus(userID string) ([]models.FriendStatus, error) {
	var out []models.FriendStatus
	for _, f := range s.friendships {
		if f.Status != models.FriendshipAccepted {
			continue
		}
		var otherID string
		switch userID {
		case f.UserID:
			otherID = f.FriendID
		case f.FriendID:
			otherID = f.UserID
		default:
			continue
		}
		friend := s.users[otherID]
		fs := models.FriendStatus{UserID: otherID, ChatID: friend.ChatID, DisplayName: friend.DisplayName, Kind: models.StatusOffline}
		if st, ok := s.statuses[otherID]; ok {
			fs.Kind = st.Kind
			fs.FreeUntil = st.FreeUntil
			fs.FreeAfter = st.FreeAfter
			fs.VibeText = st.VibeText
			fs.LocationText = st.LocationText
		}
		out = append(out, fs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *fakeStore) CreateJio(j models.Jio) error {
	if s.failCreate != nil {
		return s.failCreate
	}
	s.jios[j.ID] = j
	return nil
}

func (s *fakeStore) GetJio(id string) (*models.Jio, error) {
	if j, ok := s.jios[id]; ok {
		return &j, nil
	}
	return nil, nil
}

func (s *fakeStore) UpdateJioStatus(id string, from, to models.JioStatus) (bool, error) {
	j, ok := s.jios[id]
	if !ok || j.Status != from {
		return false, nil
	}
	j.Status = to
	s.jios[id] = j
	return true, nil
}

func (s *fakeStore) UpsertJioResponse(r models.JioResponse) error {
	s.responses[respKey(r.JioID, r.UserID)] = r
	return nil
}

func (s *fakeStore) ListJioResponses(jioID string) (models.ResponseSummary, error) {
	var summary models.ResponseSummary
	var keys []string
	for k := range s.responses {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r := s.responses[k]
		if r.JioID != jioID {
			continue
		}
		name := s.users[r.UserID].DisplayName
		switch r.Kind {
		case models.ResponseJoined:
			summary.Joined = append(summary.Joined, name)
		case models.ResponseInterested:
			summary.Interested = append(summary.Interested, name)
		case models.ResponseMaybe:
			summary.Maybe = append(summary.Maybe, name)
		case models.ResponseDeclined:
			summary.Declined++
		}
	}
	return summary, nil
}

func (s *fakeStore) AddJioInvite(inv models.JioInvite) error {
	s.invites[respKey(inv.JioID, inv.UserID)] = inv
	return nil
}

func (s *fakeStore) ListJioInvites(jioID string) ([]models.JioInvite, error) {
	var out []models.JioInvite
	for _, inv := range s.invites {
		if inv.JioID == jioID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *fakeStore) VisibleJios(userID string) ([]models.VisibleJio, error) {
	return nil, nil
}

func (s *fakeStore) ExpireJios(now time.Time) (int64, error) {
	var n int64
	for id, j := range s.jios {
		if j.Status == models.JioStatusActive && !j.ExpiresAt.After(now) {
			j.Status = models.JioStatusExpired
			s.jios[id] = j
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) ExpireStatuses(now time.Time) (int64, error) { return 0, nil }

func (s *fakeStore) Close() error { return nil }

// sentMessage records one outbound send made by the bot under test.
type sentMessage struct {
	To      string
	Body    string
	Buttons []models.Button
}

// fakeService records outbound sends and can fail delivery per recipient.
type fakeService struct {
	sent    []sentMessage
	failFor map[string]error
	events  chan models.InboundEvent
}

func newFakeService() *fakeService {
	return &fakeService{
		failFor: make(map[string]error),
		events:  make(chan models.InboundEvent, 10),
	}
}

func (s *fakeService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return recipient, nil
}

func (s *fakeService) SendMessage(ctx context.Context, to string, body string) error {
	return s.SendMessageWithButtons(ctx, to, body, nil)
}

func (s *fakeService) SendMessageWithButtons(ctx context.Context, to string, body string, buttons []models.Button) error {
	if err, ok := s.failFor[to]; ok {
		return err
	}
	s.sent = append(s.sent, sentMessage{To: to, Body: body, Buttons: buttons})
	return nil
}

func (s *fakeService) Start(ctx context.Context) error { return nil }

func (s *fakeService) Stop() error { return nil }

func (s *fakeService) Events() <-chan models.InboundEvent { return s.events }

// sentTo returns the messages delivered to one recipient.
func (s *fakeService) sentTo(chatID string) []sentMessage {
	var out []sentMessage
	for _, m := range s.sent {
		if m.To == chatID {
			out = append(out, m)
		}
	}
	return out
}
