// Package llm – conversation title generation.
//
// TitleGenerator produces a short conversation title from the first user
// message with a one-shot completion, constrained to 3–6 words. On any
// failure (missing credential, provider error, empty response) it falls
// back deterministically to SimpleTitle, which never fails and never calls
// an external service. A missing title is cosmetic, so this is the one
// place where errors are swallowed instead of surfaced.
package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
)

const (
	// titleMaxRunes caps stored titles.
	titleMaxRunes = 50

	// simpleTitleWords is how many leading words the fallback keeps.
	simpleTitleWords = 5

	// defaultTitle mirrors domain.DefaultConversationTitle without importing
	// the persistence package into this adapter.
	defaultTitle = "Nouvelle conversation"
)

// titleInstruction is the fixed one-shot prompt for title generation.
const titleInstruction = "Génère un titre court de 3 à 6 mots résumant la conversation qui commence par le message ci-dessous. Réponds uniquement avec le titre, sans guillemets ni ponctuation finale.\n\nMessage : %s"

// TitleGenerator derives conversation titles via the gateway.
type TitleGenerator struct {
	Gateway Gateway

	// Locale is retained for parity with the rest of the title pipeline;
	// titles are stored as produced, without locale-specific casing.
	Locale language.Tag
}

// NewTitleGenerator constructs a TitleGenerator with French defaults.
func NewTitleGenerator(g Gateway) *TitleGenerator {
	return &TitleGenerator{Gateway: g, Locale: language.French}
}

// titleCompleter is implemented by gateways that route title prompts to a
// dedicated (typically cheaper) model.
type titleCompleter interface {
	CompleteTitle(ctx context.Context, prompt string) (string, error)
}

// Generate returns a short title for a conversation opened by firstMessage.
// It is guaranteed to return a non-empty title.
func (t *TitleGenerator) Generate(ctx context.Context, firstMessage string) string {
	firstMessage = strings.TrimSpace(firstMessage)
	if firstMessage == "" {
		return defaultTitle
	}
	if t.Gateway != nil {
		prompt := fmt.Sprintf(titleInstruction, firstMessage)
		var out string
		var err error
		if tc, ok := t.Gateway.(titleCompleter); ok {
			out, err = tc.CompleteTitle(ctx, prompt)
		} else {
			out, err = t.Gateway.Complete(ctx, prompt)
		}
		if err == nil {
			if title := sanitizeTitle(out); title != "" {
				return title
			}
		}
	}
	return SimpleTitle(firstMessage)
}

// SimpleTitle is the deterministic fallback: the first five
// whitespace-separated words of the input, truncated to 50 runes with an
// ellipsis, or the default title when the input is empty.
func SimpleTitle(s string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return defaultTitle
	}
	if len(words) > simpleTitleWords {
		words = words[:simpleTitleWords]
	}
	return clipTitle(strings.Join(words, " "))
}

// sanitizeTitle strips wrapping quotes and trailing punctuation from a
// provider-produced title and clips it to the maximum length.
func sanitizeTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'«»“”‘’")
	s = strings.TrimRight(s, ".!?…:;,")
	s = strings.Join(strings.Fields(s), " ")
	return clipTitle(s)
}

// clipTitle truncates to titleMaxRunes runes, marking the cut with an ellipsis.
func clipTitle(s string) string {
	if utf8.RuneCountInString(s) <= titleMaxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:titleMaxRunes-3]) + "..."
}
