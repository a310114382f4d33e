package pages

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/felixgeelhaar/vedic/internal/api"
)

// MessageKind is the author of a chat message.
type MessageKind string

// Message kinds
const (
	MessageSystem MessageKind = "system"
	MessageUser   MessageKind = "user"
	MessageAI     MessageKind = "ai"
	MessageError  MessageKind = "error"
)

// Message is one entry of the chat log.
type Message struct {
	Kind     MessageKind       `json:"type"`
	Content  string            `json:"content"`
	Provider api.LLMProvider   `json:"provider,omitempty"`
	At       time.Time         `json:"timestamp"`
	Summary  *api.ChartSummary `json:"chart_summary,omitempty"`
}

// ExampleQuestions are offered before the first question is asked.
var ExampleQuestions = []string{
	"What are my strengths and weaknesses based on my chart?",
	"When is a good time for marriage?",
	"Which career path suits me best?",
	"What remedies can help with current challenges?",
	"How will the next 6 months be for me?",
	"What does my moon sign reveal about my personality?",
}

// ChartContext is what the chat is about: the chart and its dasha periods.
type ChartContext struct {
	Chart *api.ChartResult
	Dasha *api.DashaResult
}

// Chat is the AI astrologer conversation about the selected profile.
type Chat struct {
	sel    Selection
	client Astrology
	now    func() time.Time

	Provider api.LLMProvider
	Context  *Loader[*ChartContext]
	Answer   *Loader[*api.AskResponse]

	mu  sync.Mutex
	log []Message
}

// NewChat creates the chat page using the default provider.
func NewChat(sel Selection, client Astrology) *Chat {
	return &Chat{
		sel:      sel,
		client:   client,
		now:      time.Now,
		Provider: api.ProviderQwen,
		Context:  NewLoader[*ChartContext]("Failed to calculate chart"),
		Answer:   NewLoader[*api.AskResponse]("Failed to get answer"),
	}
}

// Mount fetches the chart and the vimsottari periods together, then greets.
func (c *Chat) Mount(ctx context.Context) error {
	prof, err := selected(c.sel)
	if err != nil {
		return err
	}
	d := prof.BirthDetails

	snap := c.Context.Run(ctx, func(ctx context.Context) (*ChartContext, error) {
		var out ChartContext
		p := pool.New().WithErrors().WithContext(ctx)
		p.Go(func(ctx context.Context) error {
			res, err := c.client.BirthChart(ctx, d)
			out.Chart = res
			return err
		})
		p.Go(func(ctx context.Context) error {
			res, err := c.client.Dhasa(ctx, d, api.Vimsottari)
			out.Dasha = res
			return err
		})
		if err := p.Wait(); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if snap.State == Success {
		c.append(Message{
			Kind:    MessageSystem,
			Content: fmt.Sprintf("Chart ready for %s. Ask me anything about this birth chart!", subjectName(prof)),
		})
	}
	return nil
}

// Ask sends a question about the selected chart. Blank questions are ignored
// and report false. The question and the answer, or the failure, are
// appended to the log.
func (c *Chat) Ask(ctx context.Context, question string) (bool, error) {
	if strings.TrimSpace(question) == "" {
		return false, nil
	}
	prof, err := selected(c.sel)
	if err != nil {
		return false, err
	}

	provider := c.Provider
	c.append(Message{Kind: MessageUser, Content: question})
	snap := c.Answer.Run(ctx, func(ctx context.Context) (*api.AskResponse, error) {
		return c.client.Ask(ctx, prof.BirthDetails, question, provider)
	})
	if snap.State == Error {
		c.append(Message{Kind: MessageError, Content: api.Message(snap.Err, "Failed to get answer from AI")})
		return true, nil
	}
	c.append(Message{
		Kind:     MessageAI,
		Content:  snap.Data.Answer,
		Provider: provider,
		Summary:  snap.Data.ChartSummary,
	})
	return true, nil
}

// Messages returns a copy of the log, oldest first.
func (c *Chat) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.log...)
}

func (c *Chat) append(m Message) {
	m.At = c.now()
	c.mu.Lock()
	c.log = append(c.log, m)
	c.mu.Unlock()
}
