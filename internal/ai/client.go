// Package ai sends note context to a chat-completion backend for the
// analysis panel and the sidebar chat. Every failure degrades to a canned
// reply; nothing in the app depends on the backend being reachable.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"synapse/internal/note"
)

const (
	DefaultModel = "gpt-4o-mini"

	// Fallback is returned whenever the backend is unconfigured or fails.
	Fallback = "The assistant is unavailable right now. Check the configured API key and try again."

	maxSnippet      = 2000
	maxContextNotes = 12
)

const systemPrompt = "You are an assistant embedded in a personal note-taking app. " +
	"Notes link to each other with [[Title]] references. Answer tersely and " +
	"ground every answer in the provided notes."

// Message is one chat turn kept by the caller between requests.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completeFunc func(ctx context.Context, msgs []openai.ChatCompletionMessageParamUnion) (string, error)

// Client wraps the completion backend. A zero API key yields a disabled
// client whose calls all return Fallback.
type Client struct {
	model    string
	log      *slog.Logger
	complete completeFunc
}

func New(apiKey, model string, log *slog.Logger) *Client {
	if model == "" {
		model = DefaultModel
	}
	if log == nil {
		log = slog.Default()
	}
	c := &Client{model: model, log: log}
	if apiKey == "" {
		return c
	}
	api := openai.NewClient(option.WithAPIKey(apiKey))
	c.complete = func(ctx context.Context, msgs []openai.ChatCompletionMessageParamUnion) (string, error) {
		resp, err := api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:    openai.ChatModel(c.model),
			Messages: msgs,
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("empty completion response")
		}
		return resp.Choices[0].Message.Content, nil
	}
	return c
}

// Enabled reports whether a backend is configured.
func (c *Client) Enabled() bool { return c.complete != nil }

// Analyze summarizes one note against the rest of the collection: themes,
// connections worth making, gaps.
func (c *Client) Analyze(ctx context.Context, n note.Note, all []note.Note) string {
	if c.complete == nil {
		return Fallback
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the note %q. Suggest connections to other notes and point out gaps.\n\n", n.Title)
	fmt.Fprintf(&b, "Note content:\n%s\n\nOther notes in the collection:\n", snippet(n.Content))
	for _, other := range contextNotes(all, n.ID) {
		fmt.Fprintf(&b, "- %s: %s\n", other.Title, snippet(other.Content))
	}
	return c.run(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(b.String()),
	})
}

// Chat answers a free-form question, carrying prior turns and the current
// note collection as grounding.
func (c *Client) Chat(ctx context.Context, history []Message, message string, notes []note.Note) string {
	if c.complete == nil {
		return Fallback
	}
	var b strings.Builder
	b.WriteString(systemPrompt + "\n\nCurrent notes:\n")
	for _, n := range contextNotes(notes, "") {
		fmt.Fprintf(&b, "- %s: %s\n", n.Title, snippet(n.Content))
	}
	msgs := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(b.String())}
	for _, m := range history {
		if m.Role == "assistant" {
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		} else {
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	msgs = append(msgs, openai.UserMessage(message))
	return c.run(ctx, msgs)
}

func (c *Client) run(ctx context.Context, msgs []openai.ChatCompletionMessageParamUnion) string {
	out, err := c.complete(ctx, msgs)
	if err != nil {
		c.log.Warn("completion failed", "error", err)
		return Fallback
	}
	if strings.TrimSpace(out) == "" {
		return Fallback
	}
	return out
}

// snippet bounds how much of a note goes into the prompt. The cut backs up
// to a rune boundary so multibyte text is never split mid-sequence.
func snippet(content string) string {
	content = strings.TrimSpace(content)
	if len(content) <= maxSnippet {
		return content
	}
	cut := maxSnippet
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "…"
}

func contextNotes(all []note.Note, excludeID string) []note.Note {
	out := make([]note.Note, 0, maxContextNotes)
	for _, n := range all {
		if n.ID == excludeID {
			continue
		}
		out = append(out, n)
		if len(out) == maxContextNotes {
			break
		}
	}
	return out
}
