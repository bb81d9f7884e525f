// Package models defines event structures exchanged with the messaging channel.
package models

import "strings"

// EventKind discriminates inbound events from the messaging channel.
type EventKind string

const (
	// EventCommand is a slash command, possibly with trailing text.
	EventCommand EventKind = "command"
	// EventText is free text that is not a command or callback.
	EventText EventKind = "text"
	// EventCallback is a structured button-press payload.
	EventCallback EventKind = "callback"
)

// InboundEvent is a single decoded event from the messaging channel, bound to
// the conversation it arrived on.
type InboundEvent struct {
	ChatID  string    `json:"chat_id"`
	Kind    EventKind `json:"kind"`
	Command string    `json:"command,omitempty"` // without leading slash
	Args    string    `json:"args,omitempty"`    // trailing text after the command
	Text    string    `json:"text,omitempty"`
	Data    string    `json:"data,omitempty"` // raw callback payload
	Time    int64     `json:"time"`
}

// Button is a single response control attached to an outbound message. Data
// is a callback payload in the namespace:action[:id] grammar.
type Button struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// DecodeInbound classifies a raw inbound text into a command or text event.
// A leading slash marks a command; the first whitespace splits command from
// trailing arguments.
func DecodeInbound(chatID, text string, ts int64) InboundEvent {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "/") {
		cmd := strings.TrimPrefix(trimmed, "/")
		args := ""
		if i := strings.IndexAny(cmd, " \t"); i >= 0 {
			args = strings.TrimSpace(cmd[i+1:])
			cmd = cmd[:i]
		}
		return InboundEvent{ChatID: chatID, Kind: EventCommand, Command: strings.ToLower(cmd), Args: args, Time: ts}
	}
	return InboundEvent{ChatID: chatID, Kind: EventText, Text: trimmed, Time: ts}
}
