// Package telegram delivers tutorial run reports via the Telegram Bot API.
// It formats a finished run into a MarkdownV2 message and handles delivery
// with retry logic for reliability.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rewired-gh/nutriframe/internal/logger"
	"github.com/rewired-gh/nutriframe/internal/models"
)

// maxMessageLen is Telegram's limit for a single text message.
const maxMessageLen = 4096

// sender is the part of tgbotapi.BotAPI the client uses
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newClient(bot, chatID, maxRetries, retryDelayBase)
}

func newClient(bot sender, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// Send sends the report of a finished run
func (c *Client) Send(ctx context.Context, run *models.Run) error {
	msg := tgbotapi.NewMessage(c.chatID, formatMessage(run))
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	// Send with retry
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		logger.Warn("telegram send attempt %d/%d failed: %v", i+1, c.maxRetries, err)

		if i == c.maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("telegram send cancelled: %w", ctx.Err())
		case <-time.After(c.retryDelayBase * time.Duration(i+1)):
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// Fences around the report and the marker left where it was cut.
const (
	codeOpen  = "\n```\n"
	codeClose = "```\n"
	cutMarker = "…\n"
)

// formatMessage formats a run into a Telegram message of at most
// maxMessageLen runes. A long report is cut inside its code block.
func formatMessage(run *models.Run) string {
	var b strings.Builder
	b.WriteString("🥗 *Dietary regime z\\-scores*\n\n")

	b.WriteString(fmt.Sprintf("📄 Source: %s\n", escapeMarkdownV2(run.Source)))
	if !run.FinishedAt.IsZero() {
		elapsed := run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond)
		b.WriteString(fmt.Sprintf("⏱ Took: %s\n", escapeMarkdownV2(elapsed.String())))
	}

	caught := run.Caught()
	if len(caught) > 0 {
		b.WriteString("\n⚠️ Demonstrated errors:\n")
		for _, s := range caught {
			b.WriteString(fmt.Sprintf("   • %s: `%s`\n", escapeMarkdownV2(s.Name), escapeCode(s.ErrorKind)))
		}
	}

	if run.Report == "" {
		return truncate(b.String(), maxMessageLen)
	}

	fences := utf8.RuneCountInString(codeOpen + codeClose)
	header := truncate(b.String(), maxMessageLen-fences-utf8.RuneCountInString(cutMarker))
	budget := maxMessageLen - utf8.RuneCountInString(header) - fences
	report := escapeCode(run.Report)
	if utf8.RuneCountInString(report) > budget {
		report = truncate(report, budget-utf8.RuneCountInString(cutMarker)) + cutMarker
	}
	return header + codeOpen + report + codeClose
}

// truncate cuts s to at most n runes. It backs off to the last line break,
// or when there is none drops a trailing backslash that would escape nothing.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	cut := runes[:max(n, 0)]
	for i := len(cut) - 1; i >= 0; i-- {
		if cut[i] == '\n' {
			return string(cut[:i+1])
		}
	}
	trailing := 0
	for trailing < len(cut) && cut[len(cut)-1-trailing] == '\\' {
		trailing++
	}
	if trailing%2 == 1 {
		cut = cut[:len(cut)-1]
	}
	return string(cut)
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// Characters that need escaping in MarkdownV2:
	// _ * [ ] ( ) ~ ` > # + - = | { } . !
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}

// escapeCode escapes text placed inside a pre or code entity
func escapeCode(text string) string {
	return strings.NewReplacer("\\", "\\\\", "`", "\\`").Replace(text)
}
