// Package store provides storage backends for FreeLiao.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/freeliao/freeliao/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore implements Store over a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("failed to run SQLite migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied")

	return &SQLiteStore{db: db}, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetUserByChatID(chatID string) (*models.User, error) {
	return s.getUser(`SELECT id, chat_id, handle, display_name, invite_code, created_at FROM users WHERE chat_id = ?`, chatID)
}

func (s *SQLiteStore) GetUserByID(id string) (*models.User, error) {
	return s.getUser(`SELECT id, chat_id, handle, display_name, invite_code, created_at FROM users WHERE id = ?`, id)
}

func (s *SQLiteStore) GetUserByInviteCode(code string) (*models.User, error) {
	return s.getUser(`SELECT id, chat_id, handle, display_name, invite_code, created_at FROM users WHERE invite_code = ?`, code)
}

func (s *SQLiteStore) getUser(query string, arg string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore getUser failed", "error", err)
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

func (s *SQLiteStore) CreateUser(u models.User) error {
	_, err := s.db.Exec(`INSERT INTO users (id, chat_id, handle, display_name, invite_code, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.ChatID, nilIfEmpty(u.Handle), u.DisplayName, u.InviteCode, u.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore CreateUser failed", "error", err, "chatID", u.ChatID)
		return fmt.Errorf("failed to insert user %s: %w", u.ID, err)
	}
	slog.Debug("SQLiteStore CreateUser succeeded", "userID", u.ID)
	return nil
}

func (s *SQLiteStore) UpdateUserHandle(id, handle, displayName string) error {
	_, err := s.db.Exec(`UPDATE users SET handle = ?, display_name = ? WHERE id = ?`,
		nilIfEmpty(handle), displayName, id)
	if err != nil {
		slog.Error("SQLiteStore UpdateUserHandle failed", "error", err, "userID", id)
		return fmt.Errorf("failed to update user %s: %w", id, err)
	}
	return nil
}

// SaveUserStatus upserts the single presence row per user.
func (s *SQLiteStore) SaveUserStatus(st models.UserStatus) error {
	_, err := s.db.Exec(`
		INSERT INTO user_status (user_id, kind, free_until, free_after, vibe_text, location_text, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			kind = excluded.kind,
			free_until = excluded.free_until,
			free_after = excluded.free_after,
			vibe_text = excluded.vibe_text,
			location_text = excluded.location_text,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		st.UserID, st.Kind, nullableTime(st.FreeUntil), nullableTime(st.FreeAfter),
		nilIfEmpty(st.VibeText), nilIfEmpty(st.LocationText), nullableTime(st.ExpiresAt), st.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveUserStatus failed", "error", err, "userID", st.UserID)
		return fmt.Errorf("failed to upsert status for %s: %w", st.UserID, err)
	}
	slog.Debug("SQLiteStore SaveUserStatus succeeded", "userID", st.UserID, "kind", st.Kind)
	return nil
}

func (s *SQLiteStore) GetUserStatus(userID string) (*models.UserStatus, error) {
	st, err := scanUserStatus(s.db.QueryRow(`
		SELECT user_id, kind, free_until, free_after, vibe_text, location_text, expires_at, updated_at
		FROM user_status WHERE user_id = ?`, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetUserStatus failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query status for %s: %w", userID, err)
	}
	return &st, nil
}

func (s *SQLiteStore) UpdateVibe(userID, vibe string) error {
	_, err := s.db.Exec(`UPDATE user_status SET vibe_text = ?, updated_at = ? WHERE user_id = ?`,
		nilIfEmpty(vibe), time.Now(), userID)
	if err != nil {
		slog.Error("SQLiteStore UpdateVibe failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to update vibe for %s: %w", userID, err)
	}
	return nil
}

func (s *SQLiteStore) CreateFriendship(f models.Friendship) error {
	_, err := s.db.Exec(`INSERT INTO friendships (id, user_id, friend_id, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.FriendID, f.Status, f.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore CreateFriendship failed", "error", err, "id", f.ID)
		return fmt.Errorf("failed to insert friendship %s: %w", f.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetFriendship(id string) (*models.Friendship, error) {
	f, err := scanFriendship(s.db.QueryRow(`SELECT id, user_id, friend_id, status, created_at FROM friendships WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetFriendship failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to query friendship %s: %w", id, err)
	}
	return &f, nil
}

func (s *SQLiteStore) GetFriendshipBetween(userID, otherID string) (*models.Friendship, error) {
	f, err := scanFriendship(s.db.QueryRow(`
		SELECT id, user_id, friend_id, status, created_at FROM friendships
		WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)`,
		userID, otherID, otherID, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetFriendshipBetween failed", "error", err)
		return nil, fmt.Errorf("failed to query friendship: %w", err)
	}
	return &f, nil
}

// AcceptFriendship accepts a pending request. Only the request target may
// accept, enforced by the WHERE clause rather than a pre-check.
func (s *SQLiteStore) AcceptFriendship(id, friendID string) (*models.Friendship, error) {
	res, err := s.db.Exec(`UPDATE friendships SET status = ? WHERE id = ? AND friend_id = ? AND status = ?`,
		models.FriendshipAccepted, id, friendID, models.FriendshipPending)
	if err != nil {
		slog.Error("SQLiteStore AcceptFriendship failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to accept friendship %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetFriendship(id)
}

func (s *SQLiteStore) DeleteFriendship(id, friendID string) error {
	_, err := s.db.Exec(`DELETE FROM friendships WHERE id = ? AND friend_id = ? AND status = ?`,
		id, friendID, models.FriendshipPending)
	if err != nil {
		slog.Error("SQLiteStore DeleteFriendship failed", "error", err, "id", id)
		return fmt.Errorf("failed to delete friendship %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) PendingFriendRequests(userID string) ([]models.Friendship, error) {
	rows, err := s.db.Query(`SELECT id, user_id, friend_id, status, created_at FROM friendships WHERE friend_id = ? AND status = ?`,
		userID, models.FriendshipPending)
	if err != nil {
		slog.Error("SQLiteStore PendingFriendRequests query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query pending requests: %w", err)
	}
	defer rows.Close()

	var out []models.Friendship
	for rows.Next() {
		f, err := scanFriendship(rows)
		if err != nil {
			return nil, fmt.Errorf("scan friendship row failed: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) FriendsWithStatus(userID string) ([]models.FriendStatus, error) {
	rows, err := s.db.Query(`
		SELECT u.id, u.chat_id, u.display_name, st.kind, st.free_until, st.free_after, st.vibe_text, st.location_text
		FROM friendships f
		JOIN users u ON u.id = CASE WHEN f.user_id = ? THEN f.friend_id ELSE f.user_id END
		LEFT JOIN user_status st ON st.user_id = u.id
		WHERE f.status = ? AND (f.user_id = ? OR f.friend_id = ?)`,
		userID, models.FriendshipAccepted, userID, userID)
	if err != nil {
		slog.Error("SQLiteStore FriendsWithStatus query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query friend statuses: %w", err)
	}
	defer rows.Close()

	var out []models.FriendStatus
	for rows.Next() {
		f, err := scanFriendStatus(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	slog.Debug("SQLiteStore FriendsWithStatus succeeded", "userID", userID, "count", len(out))
	return out, rows.Err()
}

func (s *SQLiteStore) CreateJio(j models.Jio) error {
	_, err := s.db.Exec(`INSERT INTO jios (id, creator_id, kind, title, location_text, status, created_at, expires_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.CreatorID, j.Kind, j.Title, nilIfEmpty(j.LocationText), j.Status, j.CreatedAt, j.ExpiresAt)
	if err != nil {
		slog.Error("SQLiteStore CreateJio failed", "error", err, "jioID", j.ID)
		return fmt.Errorf("failed to insert jio %s: %w", j.ID, err)
	}
	slog.Debug("SQLiteStore CreateJio succeeded", "jioID", j.ID, "kind", j.Kind)
	return nil
}

func (s *SQLiteStore) GetJio(id string) (*models.Jio, error) {
	j, err := scanJio(s.db.QueryRow(`SELECT id, creator_id, kind, title, location_text, status, created_at, expires_at FROM jios WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetJio failed", "error", err, "jioID", id)
		return nil, fmt.Errorf("failed to query jio %s: %w", id, err)
	}
	return &j, nil
}

// UpdateJioStatus transitions a jio conditionally on its current status, so a
// terminal state can never be overwritten by a late writer.
func (s *SQLiteStore) UpdateJioStatus(id string, from, to models.JioStatus) (bool, error) {
	res, err := s.db.Exec(`UPDATE jios SET status = ? WHERE id = ? AND status = ?`, to, id, from)
	if err != nil {
		slog.Error("SQLiteStore UpdateJioStatus failed", "error", err, "jioID", id, "to", to)
		return false, fmt.Errorf("failed to update jio %s status: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected for jio %s: %w", id, err)
	}
	slog.Debug("SQLiteStore UpdateJioStatus", "jioID", id, "from", from, "to", to, "transitioned", n > 0)
	return n > 0, nil
}

// UpsertJioResponse inserts or overwrites the response keyed by
// (jio_id, user_id). Safe under concurrent calls from the same responder.
func (s *SQLiteStore) UpsertJioResponse(r models.JioResponse) error {
	_, err := s.db.Exec(`
		INSERT INTO jio_responses (jio_id, user_id, kind, responded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (jio_id, user_id) DO UPDATE SET
			kind = excluded.kind,
			responded_at = excluded.responded_at`,
		r.JioID, r.UserID, r.Kind, r.RespondedAt)
	if err != nil {
		slog.Error("SQLiteStore UpsertJioResponse failed", "error", err, "jioID", r.JioID, "userID", r.UserID)
		return fmt.Errorf("failed to upsert response for jio %s: %w", r.JioID, err)
	}
	slog.Debug("SQLiteStore UpsertJioResponse succeeded", "jioID", r.JioID, "userID", r.UserID, "kind", r.Kind)
	return nil
}

func (s *SQLiteStore) ListJioResponses(jioID string) (models.ResponseSummary, error) {
	rows, err := s.db.Query(`
		SELECT r.kind, u.display_name
		FROM jio_responses r JOIN users u ON u.id = r.user_id
		WHERE r.jio_id = ?
		ORDER BY r.responded_at`, jioID)
	if err != nil {
		slog.Error("SQLiteStore ListJioResponses query failed", "error", err, "jioID", jioID)
		return models.ResponseSummary{}, fmt.Errorf("failed to query responses for jio %s: %w", jioID, err)
	}
	defer rows.Close()
	return collectResponseSummary(rows)
}

func (s *SQLiteStore) AddJioInvite(inv models.JioInvite) error {
	_, err := s.db.Exec(`
		INSERT INTO jio_invites (jio_id, user_id, notified_at) VALUES (?, ?, ?)
		ON CONFLICT (jio_id, user_id) DO NOTHING`,
		inv.JioID, inv.UserID, inv.NotifiedAt)
	if err != nil {
		slog.Error("SQLiteStore AddJioInvite failed", "error", err, "jioID", inv.JioID, "userID", inv.UserID)
		return fmt.Errorf("failed to insert invite for jio %s: %w", inv.JioID, err)
	}
	return nil
}

func (s *SQLiteStore) ListJioInvites(jioID string) ([]models.JioInvite, error) {
	rows, err := s.db.Query(`SELECT jio_id, user_id, notified_at FROM jio_invites WHERE jio_id = ?`, jioID)
	if err != nil {
		slog.Error("SQLiteStore ListJioInvites query failed", "error", err, "jioID", jioID)
		return nil, fmt.Errorf("failed to query invites for jio %s: %w", jioID, err)
	}
	defer rows.Close()

	var out []models.JioInvite
	for rows.Next() {
		var inv models.JioInvite
		if err := rows.Scan(&inv.JioID, &inv.UserID, &inv.NotifiedAt); err != nil {
			return nil, fmt.Errorf("scan invite row failed: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) VisibleJios(userID string) ([]models.VisibleJio, error) {
	rows, err := s.db.Query(`
		SELECT j.id, u.display_name, j.kind, j.title, j.location_text, j.status, j.created_at, j.expires_at,
			(SELECT COUNT(*) FROM jio_responses r WHERE r.jio_id = j.id AND r.kind != 'declined'),
			(SELECT r.kind FROM jio_responses r WHERE r.jio_id = j.id AND r.user_id = ?)
		FROM jios j
		JOIN users u ON u.id = j.creator_id
		JOIN friendships f ON f.status = 'accepted'
			AND ((f.user_id = ? AND f.friend_id = j.creator_id) OR (f.friend_id = ? AND f.user_id = j.creator_id))
		WHERE j.status = 'active'
		ORDER BY j.created_at DESC`,
		userID, userID, userID)
	if err != nil {
		slog.Error("SQLiteStore VisibleJios query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query visible jios: %w", err)
	}
	defer rows.Close()

	var out []models.VisibleJio
	for rows.Next() {
		v, err := scanVisibleJio(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ExpireJios transitions active jios past their expiry to expired.
func (s *SQLiteStore) ExpireJios(now time.Time) (int64, error) {
	res, err := s.db.Exec(`UPDATE jios SET status = ? WHERE status = ? AND expires_at <= ?`,
		models.JioStatusExpired, models.JioStatusActive, now)
	if err != nil {
		slog.Error("SQLiteStore ExpireJios failed", "error", err)
		return 0, fmt.Errorf("failed to expire jios: %w", err)
	}
	n, _ := res.RowsAffected()
	slog.Debug("SQLiteStore ExpireJios succeeded", "count", n)
	return n, nil
}

// ExpireStatuses resets free statuses past their expiry back to offline.
func (s *SQLiteStore) ExpireStatuses(now time.Time) (int64, error) {
	res, err := s.db.Exec(`
		UPDATE user_status SET kind = ?, free_until = NULL, free_after = NULL, vibe_text = NULL, expires_at = NULL, updated_at = ?
		WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		models.StatusOffline, now, now)
	if err != nil {
		slog.Error("SQLiteStore ExpireStatuses failed", "error", err)
		return 0, fmt.Errorf("failed to expire statuses: %w", err)
	}
	n, _ := res.RowsAffected()
	slog.Debug("SQLiteStore ExpireStatuses succeeded", "count", n)
	return n, nil
}
