// Package telegram runs the assistant as a Telegram bot with one transcript
// per chat.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"frieddie/internal/chat"

	tele "gopkg.in/telebot.v3"
)

const (
	welcomeText = "👋 Hi, I'm Frieddie! Ask me about events near you, or to invite your frieddies."
	clearedText = "🧹 Conversation context cleared."
	failureText = "Oh no! Something went wrong."
	emptyText   = "🤷 I don't have a response for that."

	// Telegram caps messages at 4096 characters.
	maxMessageLen = 4000
)

type Responder interface {
	Respond(ctx context.Context, t *chat.Transcript, input string) (string, error)
}

// Bot is the Telegram front end.
type Bot struct {
	bot         *tele.Bot
	baseCtx     context.Context // turns derive from it; set by Start
	responder   Responder
	sessions    *Sessions
	turnTimeout time.Duration
	logger      *log.Logger
}

type Option func(*Bot)

func WithSessions(s *Sessions) Option {
	return func(b *Bot) { b.sessions = s }
}

func WithLogger(l *log.Logger) Option {
	return func(b *Bot) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBot connects to Telegram with token and registers the handlers.
func NewBot(token string, responder Responder, opts ...Option) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	b := newBot(responder, opts...)

	tb, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	b.bot = tb
	b.setupHandlers()
	return b, nil
}

func newBot(responder Responder, opts ...Option) *Bot {
	b := &Bot{
		baseCtx:     context.Background(),
		responder:   responder,
		turnTimeout: 5 * time.Minute,
		logger:      log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.sessions == nil {
		b.sessions = NewSessions(chat.DefaultSystemPrompt, DefaultIdleTTL)
	}
	return b
}

// Start blocks until ctx is canceled. Canceling ctx also cancels turns that
// are still waiting on the model.
func (b *Bot) Start(ctx context.Context) error {
	b.baseCtx = ctx
	b.logger.Printf("[Telegram] Starting bot @%s", b.bot.Me.Username)

	go b.evictLoop(ctx)
	go func() {
		<-ctx.Done()
		b.logger.Println("[Telegram] Shutting down bot...")
		b.bot.Stop()
	}()

	b.bot.Start()
	return nil
}

func (b *Bot) setupHandlers() {
	b.bot.Handle("/start", func(c tele.Context) error {
		return c.Send(welcomeText)
	})

	b.bot.Handle("/clear", func(c tele.Context) error {
		b.sessions.Clear(c.Chat().ID)
		return c.Send(clearedText)
	})

	b.bot.Handle(tele.OnText, func(c tele.Context) error {
		_ = c.Notify(tele.Typing)
		reply := b.onText(c.Chat().ID, c.Text())
		for _, chunk := range splitMessage(reply, maxMessageLen) {
			if err := c.Send(chunk); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Bot) onText(chatID int64, text string) string {
	return b.reply(b.baseCtx, chatID, text)
}

// reply runs one turn for chatID. Turns in the same chat are serialized.
func (b *Bot) reply(ctx context.Context, chatID int64, text string) string {
	sess := b.sessions.get(chatID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	turnCtx, cancel := context.WithTimeout(ctx, b.turnTimeout)
	defer cancel()

	answer, err := b.responder.Respond(turnCtx, sess.transcript, text)
	if err != nil {
		b.logger.Printf("[Telegram] chat=%d session=%s: %v", chatID, sess.transcript.ID(), err)
		return failureText
	}
	if strings.TrimSpace(answer) == "" {
		return emptyText
	}
	return answer
}

func (b *Bot) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := b.sessions.Evict(); n > 0 {
				b.logger.Printf("[Telegram] Evicted %d idle sessions", n)
			}
		}
	}
}

// splitMessage cuts text into chunks of at most max bytes without breaking
// a UTF-8 sequence.
func splitMessage(text string, max int) []string {
	var out []string
	for len(text) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if nl := strings.LastIndexByte(text[:cut], '\n'); nl > cut/2 {
			cut = nl + 1
		}
		out = append(out, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}
