// Package llm – local token estimation.
//
// Some OpenAI-compatible endpoints omit usage data in their responses. When
// that happens the gateway estimates token counts locally with tiktoken so
// stored usage metadata stays populated.
package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// fallbackEncoding covers models unknown to the tiktoken registry.
const fallbackEncoding = "cl100k_base"

var (
	encOnce sync.Once
	encMu   sync.Mutex
	encs    map[string]*tiktoken.Tiktoken
)

// EstimateTokens returns the approximate token count of text under the
// given model's encoding. Returns 0 only when no encoding can be loaded.
func EstimateTokens(model, text string) int {
	if text == "" {
		return 0
	}
	enc := encodingFor(model)
	if enc == nil {
		return 0
	}
	return len(enc.Encode(text, nil, nil))
}

// encodingFor memoizes encodings per model; loading one parses a sizeable
// BPE table.
func encodingFor(model string) *tiktoken.Tiktoken {
	encOnce.Do(func() { encs = make(map[string]*tiktoken.Tiktoken) })

	encMu.Lock()
	defer encMu.Unlock()
	if enc, ok := encs[model]; ok {
		return enc
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			encs[model] = nil
			return nil
		}
	}
	encs[model] = enc
	return enc
}
