package review

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rewired-gh/mitostat/internal/logger"
	"github.com/rewired-gh/mitostat/internal/models"
)

// botClient is the slice of the Bot API the provider uses.
type botClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// TelegramProvider requests confirmation from a reviewer over the Telegram
// Bot API. Each candidate is sent as a MarkdownV2 message; the first reply
// from the configured chat sent after the prompt is the answer. Messages
// already pending when a prompt goes out are discarded, so stale chat
// backlog or a late reply to an earlier prompt never answers the current
// one. No reply within the reply timeout counts as no answer, so the tier
// default applies and the run keeps moving.
type TelegramProvider struct {
	bot            botClient
	chatID         int64
	replyTimeout   time.Duration
	maxRetries     int
	retryDelayBase time.Duration
	offset         int
}

// NewTelegramProvider creates a Telegram confirmation provider.
func NewTelegramProvider(botToken, chatID string, replyTimeout time.Duration) (*TelegramProvider, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if replyTimeout <= 0 {
		replyTimeout = 2 * time.Minute
	}

	return &TelegramProvider{
		bot:            bot,
		chatID:         chatIDInt,
		replyTimeout:   replyTimeout,
		maxRetries:     3,
		retryDelayBase: time.Second,
	}, nil
}

// Confirm sends the candidate summary and waits for the reviewer's reply.
func (p *TelegramProvider) Confirm(ctx context.Context, c models.Candidate) (Response, error) {
	p.drainBacklog()

	msg := tgbotapi.NewMessage(p.chatID, p.formatCandidate(c))
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	sent := false
	for i := 0; i < p.maxRetries; i++ {
		if _, err := p.bot.Send(msg); err == nil {
			sent = true
			break
		} else {
			lastErr = err
			time.Sleep(p.retryDelayBase * time.Duration(i+1))
		}
	}
	if !sent {
		return ResponseNone, fmt.Errorf("failed to send confirmation request after %d retries: %w", p.maxRetries, lastErr)
	}

	return p.awaitReply(ctx)
}

// drainBacklog advances the update offset past everything already pending,
// so only messages sent after the upcoming prompt count as its answer. A
// fetch error leaves the offset where it is; the prompt still goes out.
func (p *TelegramProvider) drainBacklog() {
	for {
		u := tgbotapi.NewUpdate(p.offset)
		u.Timeout = 0
		updates, err := p.bot.GetUpdates(u)
		if err != nil {
			logger.Warn("Telegram backlog drain failed: %v", err)
			return
		}
		if len(updates) == 0 {
			return
		}
		for _, update := range updates {
			if update.UpdateID >= p.offset {
				p.offset = update.UpdateID + 1
			}
		}
	}
}

// awaitReply polls for the first message from the configured chat until the
// reply timeout elapses.
func (p *TelegramProvider) awaitReply(ctx context.Context) (Response, error) {
	deadline := time.Now().Add(p.replyTimeout)

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return ResponseNone, ErrAborted
		}

		u := tgbotapi.NewUpdate(p.offset)
		u.Timeout = 1
		updates, err := p.bot.GetUpdates(u)
		if err != nil {
			logger.Warn("Telegram GetUpdates failed, retrying: %v", err)
			time.Sleep(p.retryDelayBase)
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= p.offset {
				p.offset = update.UpdateID + 1
			}
			if update.Message == nil || update.Message.Chat == nil || update.Message.Chat.ID != p.chatID {
				continue
			}
			return parseReply(update.Message.Text), nil
		}
	}

	logger.Info("No Telegram reply within %v, applying tier default", p.replyTimeout)
	return ResponseNone, nil
}

// parseReply maps a reviewer message to a response. Unrecognised text is no
// answer, never a guess.
func parseReply(text string) Response {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "accept", "/accept", "yes", "y":
		return ResponseAccept
	case "reject", "/reject", "no", "n":
		return ResponseReject
	default:
		return ResponseNone
	}
}

// formatCandidate formats a candidate for a Telegram message.
func (p *TelegramProvider) formatCandidate(c models.Candidate) string {
	tierLabel := "borderline candidate"
	defaultHint := "reject"
	if c.Tier == models.TierHighConfidence {
		tierLabel = "high\\-confidence candidate"
		defaultHint = "accept"
	}

	message := fmt.Sprintf("*Stationary %s*\n\n", tierLabel)
	message += fmt.Sprintf("Interval: %d\n", c.IntervalIndex)
	message += fmt.Sprintf("Anchor: %s\n", escapeMarkdownV2(fmt.Sprintf("x=%.2f (slot %d)", c.AnchorX, c.Slot)))
	message += fmt.Sprintf("Occupancy: %s\n", escapeMarkdownV2(fmt.Sprintf("%.0f%%", c.OccupancyFraction*100)))

	if len(c.Warnings) > 0 {
		parts := make([]string, len(c.Warnings))
		for i, w := range c.Warnings {
			parts[i] = escapeMarkdownV2(string(w))
		}
		message += fmt.Sprintf("⚠ Warnings: %s\n", strings.Join(parts, ", "))
	}

	message += fmt.Sprintf("\nReply *accept* or *reject* \\(no reply \\= %s\\)", defaultHint)
	return message
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
