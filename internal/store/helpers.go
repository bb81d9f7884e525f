package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/freeliao/freeliao/internal/models"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// nullableTime converts a nil *time.Time to a SQL NULL.
func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	var handle sql.NullString
	err := row.Scan(&u.ID, &u.ChatID, &handle, &u.DisplayName, &u.InviteCode, &u.CreatedAt)
	if err != nil {
		return u, err
	}
	u.Handle = handle.String
	return u, nil
}

func scanUserStatus(row rowScanner) (models.UserStatus, error) {
	var st models.UserStatus
	var freeUntil, freeAfter, expiresAt sql.NullTime
	var vibe, location sql.NullString
	err := row.Scan(&st.UserID, &st.Kind, &freeUntil, &freeAfter, &vibe, &location, &expiresAt, &st.UpdatedAt)
	if err != nil {
		return st, err
	}
	if freeUntil.Valid {
		st.FreeUntil = &freeUntil.Time
	}
	if freeAfter.Valid {
		st.FreeAfter = &freeAfter.Time
	}
	if expiresAt.Valid {
		st.ExpiresAt = &expiresAt.Time
	}
	st.VibeText = vibe.String
	st.LocationText = location.String
	return st, nil
}

func scanFriendship(row rowScanner) (models.Friendship, error) {
	var f models.Friendship
	err := row.Scan(&f.ID, &f.UserID, &f.FriendID, &f.Status, &f.CreatedAt)
	return f, err
}

func scanFriendStatus(row rowScanner) (models.FriendStatus, error) {
	var f models.FriendStatus
	var kind, vibe, location sql.NullString
	var freeUntil, freeAfter sql.NullTime
	err := row.Scan(&f.UserID, &f.ChatID, &f.DisplayName, &kind, &freeUntil, &freeAfter, &vibe, &location)
	if err != nil {
		return f, fmt.Errorf("scan friend status failed: %w", err)
	}
	f.Kind = models.StatusType(kind.String)
	if !kind.Valid || !models.IsValidStatusType(f.Kind) {
		f.Kind = models.StatusOffline
	}
	if freeUntil.Valid {
		f.FreeUntil = &freeUntil.Time
	}
	if freeAfter.Valid {
		f.FreeAfter = &freeAfter.Time
	}
	f.VibeText = vibe.String
	f.LocationText = location.String
	return f, nil
}

func scanJio(row rowScanner) (models.Jio, error) {
	var j models.Jio
	var location sql.NullString
	err := row.Scan(&j.ID, &j.CreatorID, &j.Kind, &j.Title, &location, &j.Status, &j.CreatedAt, &j.ExpiresAt)
	if err != nil {
		return j, err
	}
	j.LocationText = location.String
	return j, nil
}

func scanVisibleJio(row rowScanner) (models.VisibleJio, error) {
	var v models.VisibleJio
	var location, userResponse sql.NullString
	err := row.Scan(&v.ID, &v.CreatorName, &v.Kind, &v.Title, &location, &v.Status, &v.CreatedAt, &v.ExpiresAt, &v.ResponseCount, &userResponse)
	if err != nil {
		return v, fmt.Errorf("scan visible jio failed: %w", err)
	}
	v.LocationText = location.String
	v.UserResponse = models.ResponseKind(userResponse.String)
	return v, nil
}

// collectResponseSummary folds (kind, display_name) rows into the fixed
// display grouping: joined, interested, maybe; declines counted only.
func collectResponseSummary(rows *sql.Rows) (models.ResponseSummary, error) {
	var summary models.ResponseSummary
	for rows.Next() {
		var kind models.ResponseKind
		var name string
		if err := rows.Scan(&kind, &name); err != nil {
			return summary, fmt.Errorf("scan jio response row failed: %w", err)
		}
		switch kind {
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
	return summary, rows.Err()
}
