// Package util provides small helpers shared across FreeLiao components.
package util

import (
	"math/rand/v2"
	"strings"
)

// GenerateRandomID generates a random ID with the specified prefix and hex length.
// The returned ID will be in the format: "{prefix}{hex_string}".
func GenerateRandomID(prefix string, hexLength int) string {
	return prefix + GenerateRandomHex(hexLength)
}

// GenerateRandomHex generates a random hexadecimal string of the specified length.
// Uses math/rand/v2; these IDs are identifiers, not secrets.
func GenerateRandomHex(length int) string {
	if length <= 0 {
		return ""
	}

	const hexChars = "0123456789abcdef"
	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		builder.WriteByte(hexChars[rand.IntN(16)])
	}

	return builder.String()
}

// GenerateUserID generates a unique user ID with "u_" prefix.
func GenerateUserID() string {
	return GenerateRandomID("u_", 32)
}

// GenerateJioID generates a unique jio ID with "j_" prefix.
func GenerateJioID() string {
	return GenerateRandomID("j_", 32)
}

// GenerateFriendshipID generates a unique friendship ID with "fr_" prefix.
func GenerateFriendshipID() string {
	return GenerateRandomID("fr_", 32)
}

// GenerateInviteCode generates a short, human-shareable invite code.
// Lowercase without ambiguous characters so it survives being typed back.
func GenerateInviteCode() string {
	const chars = "abcdefghjkmnpqrstuvwxyz23456789"
	var builder strings.Builder
	builder.Grow(8)
	for i := 0; i < 8; i++ {
		builder.WriteByte(chars[rand.IntN(len(chars))])
	}
	return builder.String()
}
