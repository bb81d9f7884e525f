// Package store provides storage backends for FreeLiao.
//
// It defines the Store interface consumed by the bot and API layers and
// implements it over SQLite and PostgreSQL. Upserts use store-level conflict
// keys (never application pre-checks) so concurrent writers cannot produce
// duplicate rows.
package store

import (
	"strings"
	"time"

	"github.com/freeliao/freeliao/internal/models"
)

// Store is the record-store contract for users, presence, friendships, jios,
// responses and invite receipts.
type Store interface {
	// Users
	GetUserByChatID(chatID string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	GetUserByInviteCode(code string) (*models.User, error)
	CreateUser(u models.User) error
	UpdateUserHandle(id, handle, displayName string) error

	// Presence. SaveUserStatus upserts on user_id: one row per user.
	SaveUserStatus(st models.UserStatus) error
	GetUserStatus(userID string) (*models.UserStatus, error)
	UpdateVibe(userID, vibe string) error

	// Friendships
	CreateFriendship(f models.Friendship) error
	GetFriendship(id string) (*models.Friendship, error)
	GetFriendshipBetween(userID, otherID string) (*models.Friendship, error)
	AcceptFriendship(id, friendID string) (*models.Friendship, error)
	DeleteFriendship(id, friendID string) error
	PendingFriendRequests(userID string) ([]models.Friendship, error)

	// FriendsWithStatus returns the user's accepted friends joined with their
	// current presence. Friends without a status row report StatusOffline.
	FriendsWithStatus(userID string) ([]models.FriendStatus, error)

	// Jios
	CreateJio(j models.Jio) error
	GetJio(id string) (*models.Jio, error)
	// UpdateJioStatus transitions a jio from one status to another. It
	// returns false when the jio was not in the expected from status, which
	// makes terminal states sticky under concurrent transitions.
	UpdateJioStatus(id string, from, to models.JioStatus) (bool, error)
	// UpsertJioResponse inserts or overwrites the response keyed by
	// (jio_id, user_id).
	UpsertJioResponse(r models.JioResponse) error
	ListJioResponses(jioID string) (models.ResponseSummary, error)
	AddJioInvite(inv models.JioInvite) error
	ListJioInvites(jioID string) ([]models.JioInvite, error)

	// VisibleJios returns active jios from the user's accepted friends,
	// newest first, for the companion feed view.
	VisibleJios(userID string) ([]models.VisibleJio, error)

	// Expiry procedures, invoked by the external periodic trigger. Each
	// returns the number of rows transitioned.
	ExpireJios(now time.Time) (int64, error)
	ExpireStatuses(now time.Time) (int64, error)

	Close() error
}

// Opts holds configuration options for store construction.
type Opts struct {
	DSN string
}

// Option defines a configuration option for a store backend.
type Option func(*Opts)

// WithSQLiteDSN sets a SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets a PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite". PostgreSQL DSNs
// use URL or key=value forms; everything else is treated as a SQLite path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
		return "postgres"
	}
	return "sqlite"
}
