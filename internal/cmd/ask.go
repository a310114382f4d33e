package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vedic/internal/api"
	vedicerrors "github.com/felixgeelhaar/vedic/internal/errors"
	"github.com/felixgeelhaar/vedic/internal/pages"
	"github.com/felixgeelhaar/vedic/internal/tui"
)

var askCmd = &cobra.Command{
	Use:     "ask [question]",
	Aliases: []string{"chat"},
	Short:   "Ask the AI astrologer about the selected chart",
	Long: `Ask a question about the selected profile's chart and current dasha.

Without a question an interactive chat opens; press tab to insert an
example question and ctrl+p to switch the language model.`,
	Example: `  vedic ask
  vedic ask "Which career path suits me best?"
  vedic ask --provider gemini "When is a good time for marriage?"`,
	RunE: runE(runAsk),
}

var askProvider string

func init() {
	askCmd.Flags().StringVarP(&askProvider, "provider", "P", "", "LLM provider: qwen, gemini or chatgpt (default from config)")
	rootCmd.AddCommand(askCmd)
}

// chatView is the outcome of a one-shot question.
type chatView struct {
	Messages []pages.Message `json:"messages" yaml:"messages"`
}

func (v chatView) Text() string {
	var b strings.Builder
	for _, m := range v.Messages {
		if m.Kind == pages.MessageSystem {
			continue
		}
		label, _ := tui.DefaultStyles().Speaker(m.Kind)
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(label + ": " + m.Content)
	}
	return b.String()
}

func runAsk(cmd *cobra.Command, args []string, a *App) error {
	ctx := cmd.Context()
	name := askProvider
	if name == "" {
		name = a.Config.Chat.Provider
	}
	provider, err := api.ParseLLMProvider(name)
	if err != nil {
		return vedicerrors.NewInputInvalidError("--provider", "qwen, gemini or chatgpt")
	}
	prof, err := a.requireProfile()
	if err != nil {
		return err
	}

	page := pages.NewChat(a.Profiles, a.Client)
	page.Provider = provider

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		if !tui.ShouldPrompt() {
			return vedicerrors.NewInputInvalidError("question", `vedic ask "<question>" or a terminal for the chat`)
		}
		err := tui.RunChat(ctx, page, prof.ProfileName)
		a.countMessages(page.Messages())
		return err
	}

	if err := page.Mount(ctx); err != nil {
		return err
	}
	if err := failure(page.Context.Snapshot()); err != nil {
		return err
	}
	if _, err := page.Ask(ctx, question); err != nil {
		return err
	}
	msgs := page.Messages()
	a.countMessages(msgs)
	if err := failure(page.Answer.Snapshot()); err != nil {
		return err
	}
	return a.show(chatView{Messages: msgs}, nil)
}

func (a *App) countMessages(msgs []pages.Message) {
	for _, m := range msgs {
		a.Metrics.RecordChatMessage(string(m.Kind))
	}
}
