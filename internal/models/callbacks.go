// Package models defines the callback payload grammar shared by the router
// and the messaging channel.
//
// Payloads follow namespace:action[:id]. They are decoded once at the
// boundary into a closed set of typed callbacks; handlers never re-parse the
// raw string.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// CallbackKind discriminates decoded callback payloads.
type CallbackKind string

const (
	CallbackJioResponse   CallbackKind = "jio_response"
	CallbackVibe          CallbackKind = "vibe"
	CallbackFreeTime      CallbackKind = "free_time"
	CallbackJioKind       CallbackKind = "jio_kind"
	CallbackJioLocation   CallbackKind = "jio_location"
	CallbackQuickJio      CallbackKind = "quick_jio"
	CallbackRefresh       CallbackKind = "refresh"
	CallbackFriend        CallbackKind = "friend"
	CallbackMenu          CallbackKind = "menu"
	CallbackCancelJio     CallbackKind = "cancel_jio"
	CallbackViewResponses CallbackKind = "view_responses"
)

// ErrUnknownCallback indicates a payload outside the recognized grammar.
// Routers acknowledge these generically and log them; they never propagate.
var ErrUnknownCallback = errors.New("unknown callback payload")

// Callback is a decoded button-press payload. Kind selects which of the
// remaining fields are meaningful.
type Callback struct {
	Kind CallbackKind

	Response     ResponseKind // CallbackJioResponse
	JioID        string       // CallbackJioResponse, CallbackCancelJio, CallbackViewResponses
	VibeCode     string       // CallbackVibe: predefined code, "custom" or "skip"
	TimeCode     string       // CallbackFreeTime: 1h, 2h, 3h, until_17, until_20, until_22, all_day
	JioKind      JioKind      // CallbackJioKind, CallbackQuickJio
	Location     string       // CallbackJioLocation: nearby, flexible, skip
	Target       string       // CallbackRefresh, CallbackMenu
	FriendshipID string       // CallbackFriend
	Accept       bool         // CallbackFriend
}

// ParseCallback decodes a raw payload into a typed Callback. Unrecognized
// namespaces or malformed payloads return ErrUnknownCallback.
func ParseCallback(data string) (Callback, error) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) < 2 {
		return Callback{}, fmt.Errorf("%w: %q", ErrUnknownCallback, data)
	}

	switch parts[0] {
	case "jio":
		if len(parts) != 3 {
			return Callback{}, fmt.Errorf("%w: %q", ErrUnknownCallback, data)
		}
		kind := ResponseKind(parts[1])
		if !IsValidResponseKind(kind) {
			return Callback{}, fmt.Errorf("%w: %q", ErrUnknownCallback, data)
		}
		return Callback{Kind: CallbackJioResponse, Response: kind, JioID: parts[2]}, nil
	case "vibe":
		return Callback{Kind: CallbackVibe, VibeCode: parts[1]}, nil
	case "free":
		return Callback{Kind: CallbackFreeTime, TimeCode: parts[1]}, nil
	case "jio_type":
		return Callback{Kind: CallbackJioKind, JioKind: JioKind(parts[1])}, nil
	case "jio_loc":
		return Callback{Kind: CallbackJioLocation, Location: parts[1]}, nil
	case "quick_jio":
		return Callback{Kind: CallbackQuickJio, JioKind: JioKind(parts[1])}, nil
	case "refresh":
		return Callback{Kind: CallbackRefresh, Target: parts[1]}, nil
	case "friend":
		if len(parts) != 3 || (parts[1] != "accept" && parts[1] != "decline") {
			return Callback{}, fmt.Errorf("%w: %q", ErrUnknownCallback, data)
		}
		return Callback{Kind: CallbackFriend, FriendshipID: parts[2], Accept: parts[1] == "accept"}, nil
	case "menu":
		return Callback{Kind: CallbackMenu, Target: parts[1]}, nil
	case "cancel_jio":
		return Callback{Kind: CallbackCancelJio, JioID: parts[1]}, nil
	case "view_responses":
		return Callback{Kind: CallbackViewResponses, JioID: parts[1]}, nil
	default:
		return Callback{}, fmt.Errorf("%w: %q", ErrUnknownCallback, data)
	}
}

// Payload builders keep the grammar in one place.

// JioResponseData builds a jio response payload.
func JioResponseData(kind ResponseKind, jioID string) string {
	return fmt.Sprintf("jio:%s:%s", kind, jioID)
}

// VibeData builds a vibe selection payload.
func VibeData(code string) string { return "vibe:" + code }

// FreeTimeData builds a free-time selection payload.
func FreeTimeData(code string) string { return "free:" + code }

// JioKindData builds a jio kind selection payload.
func JioKindData(kind JioKind) string { return "jio_type:" + string(kind) }

// JioLocationData builds a jio location selection payload.
func JioLocationData(loc string) string { return "jio_loc:" + loc }

// QuickJioData builds a quick jio payload.
func QuickJioData(kind JioKind) string { return "quick_jio:" + string(kind) }

// RefreshData builds a refresh payload.
func RefreshData(target string) string { return "refresh:" + target }

// FriendData builds a friend request accept/decline payload.
func FriendData(accept bool, friendshipID string) string {
	if accept {
		return "friend:accept:" + friendshipID
	}
	return "friend:decline:" + friendshipID
}

// MenuData builds a menu navigation payload.
func MenuData(action string) string { return "menu:" + action }

// CancelJioData builds a cancel payload.
func CancelJioData(jioID string) string { return "cancel_jio:" + jioID }

// ViewResponsesData builds a view-responses payload.
func ViewResponsesData(jioID string) string { return "view_responses:" + jioID }
