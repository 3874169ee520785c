package review

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/mitostat/internal/models"
)

// fakeBot serves canned updates with Bot API offset semantics: GetUpdates
// returns every held update at or past the requested offset.
type fakeBot struct {
	updates []tgbotapi.Update
	onSend  func()
	sent    int
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.sent++
	if b.onSend != nil {
		b.onSend()
	}
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	var out []tgbotapi.Update
	for _, u := range b.updates {
		if u.UpdateID >= config.Offset {
			out = append(out, u)
		}
	}
	return out, nil
}

func chatUpdate(id int, chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: id,
		Message:  &tgbotapi.Message{Text: text, Chat: &tgbotapi.Chat{ID: chatID}},
	}
}

func newFakeTelegramProvider(bot *fakeBot) *TelegramProvider {
	return &TelegramProvider{
		bot:            bot,
		chatID:         42,
		replyTimeout:   time.Second,
		maxRetries:     1,
		retryDelayBase: time.Millisecond,
	}
}

func TestConfirmIgnoresStaleBacklog(t *testing.T) {
	// A "no" sent long before the run must not answer the prompt; only the
	// "yes" sent after it counts.
	bot := &fakeBot{updates: []tgbotapi.Update{chatUpdate(1, 42, "no")}}
	bot.onSend = func() { bot.updates = append(bot.updates, chatUpdate(2, 42, "yes")) }
	p := newFakeTelegramProvider(bot)

	resp, err := p.Confirm(context.Background(), candidate(0, models.TierHighConfidence))
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if resp != ResponseAccept {
		t.Errorf("response = %v, want accept from the post-prompt reply", resp)
	}
	if bot.sent != 1 {
		t.Errorf("prompt sent %d times, want 1", bot.sent)
	}
}

func TestConfirmIgnoresLateReplyToEarlierPrompt(t *testing.T) {
	bot := &fakeBot{}
	bot.onSend = func() { bot.updates = append(bot.updates, chatUpdate(2, 42, "no")) }
	p := newFakeTelegramProvider(bot)

	resp, err := p.Confirm(context.Background(), candidate(0, models.TierLowConfidence))
	if err != nil {
		t.Fatalf("first Confirm failed: %v", err)
	}
	if resp != ResponseReject {
		t.Errorf("first response = %v, want reject", resp)
	}

	// A duplicate "no" lands between prompts; the next prompt's answer is
	// the "yes" sent after it.
	bot.updates = append(bot.updates, chatUpdate(3, 42, "no"))
	bot.onSend = func() { bot.updates = append(bot.updates, chatUpdate(4, 42, "yes")) }

	resp, err = p.Confirm(context.Background(), candidate(1, models.TierLowConfidence))
	if err != nil {
		t.Fatalf("second Confirm failed: %v", err)
	}
	if resp != ResponseAccept {
		t.Errorf("second response = %v, want accept", resp)
	}
}

func TestConfirmSkipsOtherChats(t *testing.T) {
	bot := &fakeBot{}
	bot.onSend = func() {
		bot.updates = append(bot.updates,
			chatUpdate(2, 99, "no"),
			chatUpdate(3, 42, "y"),
		)
	}
	p := newFakeTelegramProvider(bot)

	resp, err := p.Confirm(context.Background(), candidate(0, models.TierHighConfidence))
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if resp != ResponseAccept {
		t.Errorf("response = %v, want accept from the configured chat", resp)
	}
}

func TestConfirmTimesOutToNoAnswer(t *testing.T) {
	bot := &fakeBot{}
	p := newFakeTelegramProvider(bot)
	p.replyTimeout = 30 * time.Millisecond

	resp, err := p.Confirm(context.Background(), candidate(0, models.TierLowConfidence))
	if err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	if resp != ResponseNone {
		t.Errorf("response = %v, want none after the reply timeout", resp)
	}
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		text string
		want Response
	}{
		{"accept", ResponseAccept},
		{"/accept", ResponseAccept},
		{"Yes", ResponseAccept},
		{" y ", ResponseAccept},
		{"reject", ResponseReject},
		{"/reject", ResponseReject},
		{"NO", ResponseReject},
		{"n", ResponseReject},
		{"", ResponseNone},
		{"dunno", ResponseNone},
		{"/start", ResponseNone},
	}
	for _, tt := range tests {
		if got := parseReply(tt.text); got != tt.want {
			t.Errorf("parseReply(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"x=42.50", "x\\=42\\.50"},
		{"a-b (c)", "a\\-b \\(c\\)"},
		{"100%", "100%"},
	}
	for _, tt := range tests {
		if got := escapeMarkdownV2(tt.input); got != tt.want {
			t.Errorf("escapeMarkdownV2(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatCandidate(t *testing.T) {
	p := &TelegramProvider{}

	c := candidate(1, models.TierHighConfidence)
	c.Warnings = []models.Warning{models.WarnAdjacentObjectProximity}
	msg := p.formatCandidate(c)

	if !strings.Contains(msg, "high\\-confidence candidate") {
		t.Errorf("message missing tier label: %q", msg)
	}
	if !strings.Contains(msg, "Interval: 1") {
		t.Errorf("message missing interval: %q", msg)
	}
	if !strings.Contains(msg, "adjacent\\_object\\_proximity") {
		t.Errorf("message missing escaped warning: %q", msg)
	}
	if !strings.Contains(msg, "no reply \\= accept") {
		t.Errorf("message missing default hint: %q", msg)
	}

	low := candidate(2, models.TierLowConfidence)
	msg = p.formatCandidate(low)
	if !strings.Contains(msg, "borderline candidate") {
		t.Errorf("message missing borderline label: %q", msg)
	}
	if !strings.Contains(msg, "no reply \\= reject") {
		t.Errorf("message missing reject hint: %q", msg)
	}
}
