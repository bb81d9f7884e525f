package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/freeliao/freeliao/internal/models"
	"github.com/freeliao/freeliao/internal/timeparse"
)

// Canned messages shared across handlers. User-facing error text stays
// generic; detail lives in the logs.
const (
	msgNotRegistered = "You're not registered yet! Send /start to join FreeLiao."

	msgTimeHelp = "I couldn't understand that time. Try something like:\n" +
		"• /free 2h\n" +
		"• /free 30m\n" +
		"• /free until 5pm\n" +
		"• /free all day\n" +
		"• /free tonight"

	msgHelp = "Here's what I can do:\n\n" +
		"/free [time] — tell friends you're free (e.g. /free 2h, /free until 5pm)\n" +
		"/busy — go quiet\n" +
		"/whofree — see which friends are free now\n" +
		"/jio [activity] — rally friends for something\n" +
		"/kopi — quick coffee jio\n" +
		"/makan — quick food jio\n" +
		"/friends — your invite code and friend requests\n" +
		"/help — this message"
)

func welcomeMessage(u *models.User, isNew bool) string {
	if isNew {
		return fmt.Sprintf("🎉 Welcome to FreeLiao, %s!\n\n"+
			"Share your invite code with friends so they can add you: %s\n\n"+
			"When you're free, just say /free and I'll let your friends know. "+
			"Send /help to see everything I can do.", u.DisplayName, u.InviteCode)
	}
	return fmt.Sprintf("Welcome back, %s! 👋\nYour invite code: %s", u.DisplayName, u.InviteCode)
}

// whoFreeMessage renders the friend availability listing grouped by status.
func whoFreeMessage(friends []models.FriendStatus, now time.Time) string {
	if len(friends) == 0 {
		return "You haven't added any friends yet. Share your invite code from /friends!"
	}

	var free, freeLater, busy []models.FriendStatus
	for _, f := range friends {
		switch f.Kind {
		case models.StatusFree:
			free = append(free, f)
		case models.StatusFreeLater:
			freeLater = append(freeLater, f)
		case models.StatusBusy:
			busy = append(busy, f)
		}
	}

	var b strings.Builder
	b.WriteString("👀 Who's free:\n")
	if len(free) == 0 && len(freeLater) == 0 {
		b.WriteString("\nNobody's free right now 😴 Maybe jio someone anyway?")
		return b.String()
	}

	if len(free) > 0 {
		b.WriteString("\n🟢 Free now:\n")
		for _, f := range free {
			b.WriteString("• " + f.DisplayName)
			if f.FreeUntil != nil {
				b.WriteString(" (" + timeparse.FormatRelativeTime(*f.FreeUntil, now) + ")")
			}
			if f.VibeText != "" {
				b.WriteString(" — " + f.VibeText)
			}
			b.WriteString("\n")
		}
	}
	if len(freeLater) > 0 {
		b.WriteString("\n🟡 Free later:\n")
		for _, f := range freeLater {
			b.WriteString("• " + f.DisplayName)
			if f.FreeAfter != nil {
				b.WriteString(" (after " + timeparse.FormatClock(*f.FreeAfter) + ")")
			}
			b.WriteString("\n")
		}
	}
	if len(busy) > 0 {
		b.WriteString(fmt.Sprintf("\n🔴 Busy: %d friend%s\n", len(busy), plural(len(busy))))
	}
	return b.String()
}

// jioFanoutMessage is the invitation body delivered to each eligible friend.
func jioFanoutMessage(creatorName string, jio *models.Jio, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s is jio-ing you!\n\n%s", models.JioEmoji(jio.Kind), creatorName, jio.Title)
	if jio.LocationText != "" {
		b.WriteString("\n📍 " + jio.LocationText)
	}
	b.WriteString("\n⏰ " + timeparse.FormatRelativeTime(jio.ExpiresAt, now))
	return b.String()
}

// jioResponseButtons are the controls embedded in a fanout message.
func jioResponseButtons(jioID string) []models.Button {
	return []models.Button{
		{Label: "🙋 I'm in!", Data: models.JioResponseData(models.ResponseJoined, jioID)},
		{Label: "🤔 Maybe", Data: models.JioResponseData(models.ResponseMaybe, jioID)},
		{Label: "😢 Can't make it", Data: models.JioResponseData(models.ResponseDeclined, jioID)},
	}
}

func jioCreatedMessage(jio *models.Jio, delivered int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Jio sent: %s", models.JioEmoji(jio.Kind), jio.Title)
	if jio.LocationText != "" {
		b.WriteString("\n📍 " + jio.LocationText)
	}
	if delivered == 0 {
		b.WriteString("\n\nNone of your friends are free right now 😅 They'll see it in the feed though!")
	} else {
		fmt.Fprintf(&b, "\n\nNotified %d free friend%s! I'll tell you when someone responds.", delivered, plural(delivered))
	}
	return b.String()
}

// responsesSummaryMessage renders the creator's view of who responded, in the
// fixed display order. Declines show as a count only.
func responsesSummaryMessage(jio *models.Jio, summary models.ResponseSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", models.JioEmoji(jio.Kind), jio.Title)
	if summary.Total() == 0 && summary.Declined == 0 {
		b.WriteString("\nNo responses yet. Give it a moment!")
		return b.String()
	}
	if len(summary.Joined) > 0 {
		b.WriteString("\n🙋 In: " + strings.Join(summary.Joined, ", "))
	}
	if len(summary.Interested) > 0 {
		b.WriteString("\n👀 Interested: " + strings.Join(summary.Interested, ", "))
	}
	if len(summary.Maybe) > 0 {
		b.WriteString("\n🤔 Maybe: " + strings.Join(summary.Maybe, ", "))
	}
	if summary.Declined > 0 {
		fmt.Fprintf(&b, "\n😢 Can't make it: %d", summary.Declined)
	}
	return b.String()
}

func vibeButtons() []models.Button {
	return []models.Button{
		{Label: "🤙 Down for anything", Data: models.VibeData("down")},
		{Label: "🍽️ Need food", Data: models.VibeData("food")},
		{Label: "🥱 Bored af", Data: models.VibeData("bored")},
		{Label: "📖 Can study", Data: models.VibeData("study")},
		{Label: "😌 Just wanna chill", Data: models.VibeData("chill")},
		{Label: "⚡ Feeling active", Data: models.VibeData("active")},
		{Label: "✍️ Write my own", Data: models.VibeData("custom")},
		{Label: "⏭️ Skip", Data: models.VibeData("skip")},
	}
}

func freeTimeButtons() []models.Button {
	return []models.Button{
		{Label: "1 hour", Data: models.FreeTimeData("1h")},
		{Label: "2 hours", Data: models.FreeTimeData("2h")},
		{Label: "3 hours", Data: models.FreeTimeData("3h")},
		{Label: "Until 5pm", Data: models.FreeTimeData("until_17")},
		{Label: "Until 8pm", Data: models.FreeTimeData("until_20")},
		{Label: "Until 10pm", Data: models.FreeTimeData("until_22")},
		{Label: "All day", Data: models.FreeTimeData("all_day")},
	}
}

// freeTimePhrases maps free-time callback codes to the phrases the parser
// understands, keeping one interpretation path for typed and tapped input.
var freeTimePhrases = map[string]string{
	"1h":       "1h",
	"2h":       "2h",
	"3h":       "3h",
	"until_17": "until 5pm",
	"until_20": "until 8pm",
	"until_22": "until 10pm",
	"all_day":  "all day",
}

func jioKindButtons() []models.Button {
	kinds := []models.JioKind{
		models.JioKindKopi, models.JioKindMakan, models.JioKindStudy,
		models.JioKindGame, models.JioKindMovie, models.JioKindChill,
		models.JioKindCustom,
	}
	buttons := make([]models.Button, 0, len(kinds))
	for _, k := range kinds {
		info := models.JioKinds[k]
		buttons = append(buttons, models.Button{
			Label: info.Emoji + " " + info.Description,
			Data:  models.JioKindData(k),
		})
	}
	return buttons
}

func jioLocationButtons() []models.Button {
	return []models.Button{
		{Label: "📍 Nearby", Data: models.JioLocationData("nearby")},
		{Label: "🤷 Anywhere works", Data: models.JioLocationData("flexible")},
		{Label: "⏭️ Skip", Data: models.JioLocationData("skip")},
	}
}

// jioLocationTexts maps location callback codes to stored location text.
var jioLocationTexts = map[string]string{
	"nearby":   "Nearby",
	"flexible": "Anywhere works",
	"skip":     "",
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
