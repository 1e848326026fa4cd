// Package telegram binds the assistant to a Telegram bot using long polling.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"daftar/internal/assistant"
	"daftar/internal/llm"
	"daftar/internal/log"
	"daftar/internal/middleware/ratelimit"
)

const (
	msgRateLimited     = "⏳ رسائل كثيرة، انتظر قليلاً ثم حاول مرة أخرى."
	msgVoiceFailed     = "🎙️ لم أتمكن من فهم الرسالة الصوتية، أرسلها نصاً من فضلك."
	defaultWorkers     = 8
	defaultMaxVoiceLen = 10 << 20
)

// botAPI is the subset of *tgbotapi.BotAPI the bot uses.
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	StopReceivingUpdates()
}

// Handler processes one inbound message. *assistant.Engine satisfies it.
type Handler interface {
	Handle(ctx context.Context, in assistant.Inbound) (assistant.Outbound, error)
}

type Bot struct {
	api           botAPI
	handler       Handler
	transcriber   llm.Transcriber
	limiter       *ratelimit.Limiter
	allowedUserID int64
	http          *http.Client
	workers       int
	maxVoiceBytes int64
	logger        *log.Logger
}

type Option func(*Bot)

// WithAllowedUser ignores every sender except id. Zero allows everyone.
func WithAllowedUser(id int64) Option {
	return func(b *Bot) { b.allowedUserID = id }
}

// WithTranscriber enables voice notes.
func WithTranscriber(t llm.Transcriber) Option {
	return func(b *Bot) { b.transcriber = t }
}

// WithRateLimiter limits messages per sender.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(b *Bot) { b.limiter = l }
}

func WithLogger(l *log.Logger) Option {
	return func(b *Bot) { b.logger = l }
}

func WithHTTPClient(c *http.Client) Option {
	return func(b *Bot) { b.http = c }
}

// WithWorkers bounds how many updates are handled at once.
func WithWorkers(n int) Option {
	return func(b *Bot) { b.workers = n }
}

// NewFromToken connects to the Bot API with token.
func NewFromToken(token string, handler Handler, opts ...Option) (*Bot, error) {
	if token == "" {
		return nil, errors.New("telegram: missing bot token")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	return New(api, handler, opts...), nil
}

func New(api botAPI, handler Handler, opts ...Option) *Bot {
	b := &Bot{
		api:           api,
		handler:       handler,
		http:          &http.Client{Timeout: 30 * time.Second},
		workers:       defaultWorkers,
		maxVoiceBytes: defaultMaxVoiceLen,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = log.New(log.DefaultConfig())
	}
	b.logger = b.logger.WithComponent(log.ComponentTelegram)
	if b.workers < 1 {
		b.workers = 1
	}
	return b
}

// Run polls for updates until ctx is cancelled, then waits for in-flight
// handlers.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("Telegram bot polling started", log.FieldOperation, log.OpStartup)

	var g errgroup.Group
	g.SetLimit(b.workers)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			_ = g.Wait()
			b.logger.Info("Telegram bot stopped", log.FieldOperation, log.OpShutdown)
			return nil
		case upd, ok := <-updates:
			if !ok {
				return g.Wait()
			}
			g.Go(func() error {
				b.handleUpdate(ctx, upd)
				return nil
			})
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	logger := b.logger.With(log.FieldConversationID, strconv.FormatInt(chatID, 10))

	if b.allowedUserID != 0 && msg.From.ID != b.allowedUserID {
		logger.Debug("Ignoring message from unauthorized sender", log.FieldSenderID, msg.From.ID)
		return
	}
	if b.limiter != nil && !b.limiter.Allow(strconv.FormatInt(msg.From.ID, 10)) {
		b.reply(ctx, chatID, assistant.Outbound{Text: msgRateLimited})
		return
	}

	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		logger.Debug("Typing indicator failed", log.FieldError, err)
	}

	in := assistant.Inbound{
		ConversationID: strconv.FormatInt(chatID, 10),
		SenderID:       strconv.FormatInt(msg.From.ID, 10),
		Text:           msg.Text,
	}
	if in.Text == "" && msg.Caption != "" {
		in.Text = msg.Caption
	}
	if msg.Voice != nil && in.Text == "" {
		in.VoiceClipRef = msg.Voice.FileID
		text, err := b.transcribe(ctx, msg.Voice.FileID, msg.Voice.MimeType)
		switch {
		case errors.Is(err, errNoTranscriber):
		case err != nil:
			logger.Warn("Voice transcription failed", log.FieldError, err, log.FieldOperation, log.OpTranscribe)
			b.reply(ctx, chatID, assistant.Outbound{Text: msgVoiceFailed})
			return
		default:
			in.Text = text
		}
	}

	out, err := b.handler.Handle(ctx, in)
	if err != nil {
		logger.Warn("Message handled with error", log.FieldError, err)
	}
	b.reply(ctx, chatID, out)
}

func (b *Bot) reply(ctx context.Context, chatID int64, out assistant.Outbound) {
	if out.Text == "" {
		return
	}
	msg := tgbotapi.NewMessage(chatID, out.Text)
	msg.ReplyMarkup = keyboard(out.QuickReplies)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.ErrorContext(ctx, "Failed to send reply", log.FieldError, err, log.FieldConversationID, chatID)
	}
}

// keyboard renders quick replies as a one-time reply keyboard, or removes
// the previous keyboard when there are none.
func keyboard(rows [][]string) any {
	if len(rows) == 0 {
		return tgbotapi.NewRemoveKeyboard(false)
	}
	buttons := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			r = append(r, tgbotapi.NewKeyboardButton(label))
		}
		buttons = append(buttons, r)
	}
	kb := tgbotapi.NewReplyKeyboard(buttons...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

var errNoTranscriber = errors.New("no transcriber configured")

func (b *Bot) transcribe(ctx context.Context, fileID, mimeType string) (string, error) {
	if b.transcriber == nil {
		return "", errNoTranscriber
	}
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download voice: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download voice: status %d", resp.StatusCode)
	}

	text, err := b.transcriber.Transcribe(ctx, io.LimitReader(resp.Body, b.maxVoiceBytes), mimeType)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", errors.New("empty transcript")
	}
	return text, nil
}
