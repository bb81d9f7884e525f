// Package models defines the core data structures for FreeLiao.
//
// It includes types for users, presence statuses, jios (hangout invitations),
// jio responses, and invite receipts, which are shared across modules.
package models

import (
	"errors"
	"time"
)

// StatusType describes a user's current availability.
type StatusType string

const (
	// StatusFree indicates the user is available right now.
	StatusFree StatusType = "free"
	// StatusFreeLater indicates the user will be available soon.
	StatusFreeLater StatusType = "free_later"
	// StatusBusy indicates the user is not available.
	StatusBusy StatusType = "busy"
	// StatusOffline indicates the user has not set a status.
	StatusOffline StatusType = "offline"
)

// JioKind enumerates the built-in jio activity kinds.
type JioKind string

const (
	JioKindKopi   JioKind = "kopi"
	JioKindMakan  JioKind = "makan"
	JioKindStudy  JioKind = "study"
	JioKindGame   JioKind = "game"
	JioKindMovie  JioKind = "movie"
	JioKindChill  JioKind = "chill"
	JioKindCustom JioKind = "custom"
)

// JioStatus is the lifecycle state of a jio. Active is the only non-terminal
// state; cancelled and expired are terminal.
type JioStatus string

const (
	JioStatusActive    JioStatus = "active"
	JioStatusCancelled JioStatus = "cancelled"
	JioStatusExpired   JioStatus = "expired"
)

// ResponseKind enumerates the typed responses a recipient can give to a jio.
type ResponseKind string

const (
	ResponseInterested ResponseKind = "interested"
	ResponseJoined     ResponseKind = "joined"
	ResponseDeclined   ResponseKind = "declined"
	ResponseMaybe      ResponseKind = "maybe"
)

// FriendshipStatus is the state of a friendship edge.
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// Validation constants for input validation
const (
	// MaxJioTitleLength defines the maximum allowed length for a jio title
	MaxJioTitleLength = 100
	// MaxVibeTextLength defines the maximum allowed length for a vibe annotation
	MaxVibeTextLength = 100
	// MaxLocationTextLength defines the maximum allowed length for a location
	MaxLocationTextLength = 100
	// DefaultJioExpiry is the fixed lifetime of a newly created jio
	DefaultJioExpiry = 2 * time.Hour
)

// Error variables for the taxonomy shared across modules. Handlers map these
// to generic user-facing messages; logs carry the detail.
var (
	// ErrNotRegistered indicates the actor has not completed registration.
	ErrNotRegistered = errors.New("user is not registered")
	// ErrNotCreator indicates the actor does not own the jio.
	ErrNotCreator = errors.New("requester is not the jio creator")
	// ErrJioNotActive indicates an operation on a cancelled or expired jio.
	ErrJioNotActive = errors.New("jio is not active")
	// ErrJioNotFound indicates the jio does not exist.
	ErrJioNotFound = errors.New("jio not found")
	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidJioKind indicates an unknown jio kind.
	ErrInvalidJioKind = errors.New("invalid jio kind")
	// ErrInvalidResponseKind indicates an unknown response kind.
	ErrInvalidResponseKind = errors.New("invalid response kind")
	// ErrEmptyTitle indicates a custom jio without a title.
	ErrEmptyTitle = errors.New("jio title cannot be empty")
	// ErrTitleTooLong indicates a jio title exceeding MaxJioTitleLength.
	ErrTitleTooLong = errors.New("jio title exceeds maximum length")
	// ErrUnparseableTime indicates a free-text time phrase that did not match
	// any recognized form. Always user-correctable; callers re-prompt.
	ErrUnparseableTime = errors.New("could not parse time phrase")
)

// IsValidJioKind checks if the given jio kind is supported.
func IsValidJioKind(k JioKind) bool {
	switch k {
	case JioKindKopi, JioKindMakan, JioKindStudy, JioKindGame, JioKindMovie, JioKindChill, JioKindCustom:
		return true
	default:
		return false
	}
}

// IsValidResponseKind checks if the given response kind is supported.
func IsValidResponseKind(k ResponseKind) bool {
	switch k {
	case ResponseInterested, ResponseJoined, ResponseDeclined, ResponseMaybe:
		return true
	default:
		return false
	}
}

// IsValidStatusType checks if the given status type is supported.
func IsValidStatusType(s StatusType) bool {
	switch s {
	case StatusFree, StatusFreeLater, StatusBusy, StatusOffline:
		return true
	default:
		return false
	}
}

// Terminal reports whether a jio status permits no further transitions.
func (s JioStatus) Terminal() bool {
	return s == JioStatusCancelled || s == JioStatusExpired
}

// User is a registered identity. Created on first contact, never deleted;
// only the handle and display name are refreshed afterwards.
type User struct {
	ID          string    `json:"id"`
	ChatID      string    `json:"chat_id"` // canonical messaging-channel identity
	Handle      string    `json:"handle,omitempty"`
	DisplayName string    `json:"display_name"`
	InviteCode  string    `json:"invite_code"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserStatus is the single presence row per user, replaced by upsert.
type UserStatus struct {
	UserID       string     `json:"user_id"`
	Kind         StatusType `json:"kind"`
	FreeUntil    *time.Time `json:"free_until,omitempty"`
	FreeAfter    *time.Time `json:"free_after,omitempty"`
	VibeText     string     `json:"vibe_text,omitempty"`
	LocationText string     `json:"location_text,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// FriendStatus is one row of the friendsWithStatus composed query: a friend
// joined with their current presence. Validated at the store boundary.
type FriendStatus struct {
	UserID       string     `json:"user_id"`
	ChatID       string     `json:"chat_id"`
	DisplayName  string     `json:"display_name"`
	Kind         StatusType `json:"kind"`
	FreeUntil    *time.Time `json:"free_until,omitempty"`
	FreeAfter    *time.Time `json:"free_after,omitempty"`
	VibeText     string     `json:"vibe_text,omitempty"`
	LocationText string     `json:"location_text,omitempty"`
}

// Notifiable reports whether this friend should receive jio fanout.
func (f FriendStatus) Notifiable() bool {
	return f.Kind == StatusFree || f.Kind == StatusFreeLater
}

// Jio is a durable, time-boxed hangout invitation.
type Jio struct {
	ID           string    `json:"id"`
	CreatorID    string    `json:"creator_id"`
	Kind         JioKind   `json:"kind"`
	Title        string    `json:"title"`
	LocationText string    `json:"location_text,omitempty"`
	Status       JioStatus `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// JioResponse is one row per (jio, responder) pair. Uniqueness is enforced by
// the store's conflict key, not by application pre-checks.
type JioResponse struct {
	JioID       string       `json:"jio_id"`
	UserID      string       `json:"user_id"`
	Kind        ResponseKind `json:"kind"`
	RespondedAt time.Time    `json:"responded_at"`
}

// JioInvite records that a recipient was offered a jio (delivery receipt).
// Audit only; response handling does not depend on it.
type JioInvite struct {
	JioID      string    `json:"jio_id"`
	UserID     string    `json:"user_id"`
	NotifiedAt time.Time `json:"notified_at"`
}

// Friendship is an edge in the friend graph.
type Friendship struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`   // requester
	FriendID  string           `json:"friend_id"` // target
	Status    FriendshipStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

// ResponseSummary groups responder display names by response kind, in the
// fixed display order: joined, interested, maybe. Declines are counted only.
type ResponseSummary struct {
	Joined     []string `json:"joined"`
	Interested []string `json:"interested"`
	Maybe      []string `json:"maybe"`
	Declined   int      `json:"declined"`
}

// Total returns the number of named responders in the summary.
func (s ResponseSummary) Total() int {
	return len(s.Joined) + len(s.Interested) + len(s.Maybe)
}

// VisibleJio is one row of the visibleInvitations composed query, used by the
// web feed: a jio joined with its creator and the viewer's own response.
type VisibleJio struct {
	ID            string       `json:"id"`
	CreatorName   string       `json:"creator_name"`
	Kind          JioKind      `json:"kind"`
	Title         string       `json:"title"`
	LocationText  string       `json:"location_text,omitempty"`
	Status        JioStatus    `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
	ExpiresAt     time.Time    `json:"expires_at"`
	ResponseCount int          `json:"response_count"`
	UserResponse  ResponseKind `json:"user_response,omitempty"`
}

// JioKindInfo carries the display attributes of a jio kind.
type JioKindInfo struct {
	Emoji        string
	DefaultTitle string
	Description  string
}

// JioKinds maps every jio kind to its display attributes.
var JioKinds = map[JioKind]JioKindInfo{
	JioKindKopi:   {Emoji: "☕", DefaultTitle: "Kopi anyone?", Description: "Coffee or tea hangout"},
	JioKindMakan:  {Emoji: "🍜", DefaultTitle: "Makan anyone?", Description: "Food adventure"},
	JioKindStudy:  {Emoji: "📚", DefaultTitle: "Study session?", Description: "Study or work together"},
	JioKindGame:   {Emoji: "🎮", DefaultTitle: "Game sesh?", Description: "Gaming session"},
	JioKindMovie:  {Emoji: "🎬", DefaultTitle: "Movie anyone?", Description: "Watch a movie together"},
	JioKindChill:  {Emoji: "😎", DefaultTitle: "Chill?", Description: "Just hang out"},
	JioKindCustom: {Emoji: "🎯", DefaultTitle: "Hang out?", Description: "Custom activity"},
}

// JioEmoji returns the display emoji for a jio kind.
func JioEmoji(k JioKind) string {
	if info, ok := JioKinds[k]; ok {
		return info.Emoji
	}
	return "🎯"
}

// JioDefaultTitle returns the default title for a jio kind.
func JioDefaultTitle(k JioKind) string {
	if info, ok := JioKinds[k]; ok {
		return info.DefaultTitle
	}
	return "Hang out?"
}

// VibeTexts maps vibe callback codes to their stored annotation text.
var VibeTexts = map[string]string{
	"down":   "Down for anything",
	"food":   "Need food",
	"bored":  "Bored af",
	"study":  "Can study",
	"chill":  "Just wanna chill",
	"active": "Feeling active",
}

// ResponseDisplay carries display attributes for a response kind.
type ResponseDisplay struct {
	Emoji  string
	Text   string
	Action string
}

// ResponseDisplays maps each response kind to its display attributes.
var ResponseDisplays = map[ResponseKind]ResponseDisplay{
	ResponseInterested: {Emoji: "👀", Text: "Interested", Action: "is interested"},
	ResponseJoined:     {Emoji: "🙋", Text: "I'm in!", Action: "is in"},
	ResponseDeclined:   {Emoji: "😢", Text: "Can't make it", Action: "can't make it"},
	ResponseMaybe:      {Emoji: "🤔", Text: "Maybe", Action: "might join"},
}
