package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"frieddie/internal/chat"

	"github.com/charmbracelet/lipgloss"
)

const (
	Farewell = "Happy to help! Have a great day."
	botLabel = "🤖 frobbie:"
)

type Responder interface {
	Respond(ctx context.Context, t *chat.Transcript, input string) (string, error)
}

// Console is the interactive line-oriented front end. It owns a single
// transcript for the life of the process.
type Console struct {
	responder   Responder
	transcript  *chat.Transcript
	in          io.Reader
	out         io.Writer
	turnTimeout time.Duration
	logger      *log.Logger

	bold  lipgloss.Style
	muted lipgloss.Style
}

type Option func(*Console)

func WithIO(in io.Reader, out io.Writer) Option {
	return func(c *Console) {
		c.in, c.out = in, out
	}
}

func WithTranscript(t *chat.Transcript) Option {
	return func(c *Console) { c.transcript = t }
}

func WithTurnTimeout(d time.Duration) Option {
	return func(c *Console) {
		if d > 0 {
			c.turnTimeout = d
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(c *Console) {
		if l != nil {
			c.logger = l
		}
	}
}

func New(responder Responder, opts ...Option) *Console {
	c := &Console{
		responder:   responder,
		in:          os.Stdin,
		out:         os.Stdout,
		turnTimeout: 5 * time.Minute,
		logger:      log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transcript == nil {
		c.transcript = chat.NewTranscript(chat.DefaultSystemPrompt)
	}
	r := lipgloss.NewRenderer(c.out)
	c.bold = r.NewStyle().Bold(true)
	c.muted = r.NewStyle().Foreground(lipgloss.Color("241"))
	return c
}

func (c *Console) Transcript() *chat.Transcript { return c.transcript }

// Run reads prompts until "thank you", end of input or ctx cancellation.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, c.bold.Render("✨🤖  Welcome to the frieddie AI Assistant! 🤖✨"))
	fmt.Fprintln(c.out, c.muted.Render("Say \"thank you\" to quit, /clear to start over."))
	fmt.Fprintln(c.out)

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(c.out, c.bold.Render("Prompt:")+" ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return nil
		case err := <-readErr:
			fmt.Fprintln(c.out)
			c.say(Farewell)
			return err
		case line = <-lines:
		}

		input := strings.TrimSpace(line)
		switch {
		case input == "":
			continue
		case input == "thank you":
			c.say(Farewell)
			return nil
		case input == "/clear":
			c.transcript.Reset()
			fmt.Fprintln(c.out, c.muted.Render("context cleared"))
			continue
		}

		turnCtx, cancel := context.WithTimeout(ctx, c.turnTimeout)
		answer, err := c.responder.Respond(turnCtx, c.transcript, input)
		cancel()
		if err != nil {
			c.logger.Printf("[Console] turn failed: %v", err)
			fmt.Fprintf(c.out, "Error: %v\n\n", err)
			continue
		}
		fmt.Fprintln(c.out)
		c.say(answer)
	}
}

func (c *Console) say(text string) {
	fmt.Fprintln(c.out, c.bold.Render(botLabel+" "+text))
	fmt.Fprintln(c.out)
}
