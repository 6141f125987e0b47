package engine

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/keepsake-ai/keepsake/internal/config"
	"github.com/keepsake-ai/keepsake/pkg/types"
)

// digester assembles the retrieval digest: a compact plain-text rendering of
// the most relevant memories, trimmed to a model-token budget.
type digester struct {
	budget   int
	encoding string

	once sync.Once
	enc  *tiktoken.Tiktoken
}

func newDigester(cfg config.DigestConfig) *digester {
	return &digester{budget: cfg.TokenBudget, encoding: cfg.Encoding}
}

// encoder lazily loads the tiktoken encoding. A load failure leaves enc nil
// and the digest falls back to a character-based estimate, so retrieval
// never fails because encoding data is unavailable.
func (d *digester) encoder() *tiktoken.Tiktoken {
	d.once.Do(func() {
		enc, err := tiktoken.GetEncoding(d.encoding)
		if err == nil {
			d.enc = enc
		}
	})
	return d.enc
}

func (d *digester) countTokens(text string) int {
	if enc := d.encoder(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	// Rough heuristic: ~4 characters per token for English prose.
	return (len(text) + 3) / 4
}

// Build renders items into a digest, newest long-term context first, taking
// whole entries until the budget is exhausted. A zero budget disables the
// digest entirely.
func (d *digester) Build(longTerm, shortTerm []*types.MemoryItem) string {
	if d.budget == 0 {
		return ""
	}

	var b strings.Builder
	used := 0

	appendSection := func(header string, items []*types.MemoryItem) {
		wroteHeader := false
		for _, item := range items {
			line := "- " + item.Content + "\n"
			cost := d.countTokens(line)
			if !wroteHeader {
				cost += d.countTokens(header)
			}
			if used+cost > d.budget {
				return
			}
			if !wroteHeader {
				b.WriteString(header)
				wroteHeader = true
			}
			b.WriteString(line)
			used += cost
		}
	}

	appendSection("Lasting memories:\n", longTerm)
	appendSection("\nRecent context:\n", shortTerm)

	return strings.TrimSpace(b.String())
}
