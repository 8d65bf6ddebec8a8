// Package expander lengthens the shortest bullet point of a resume so that it fills a full line.
package expander

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/italolelis/lineexpander/internal/docx"
	"github.com/italolelis/lineexpander/internal/logctx"
)

const (
	// MinLineLength excludes short paragraphs (headings, dates) from the full-line estimate.
	MinLineLength = 50
	// MinExpansion is the shortfall, in characters, below which a bullet is left alone.
	MinExpansion = 15
	// Temperature used for every expansion request.
	Temperature = 0.7

	systemPrompt = "You are an assistant that expands short sentences while keeping them concise."
)

// Prompt is a single-turn completion request.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
}

// Completer turns a prompt into generated text.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// Result describes what Expand did to a document.
type Result struct {
	// Limit is the length of a full line, 0 when no paragraph is long enough to tell.
	Limit int
	// Index of the shortest list paragraph, -1 when the document has none.
	Index    int
	Bullet   string
	Expanded string
	Changed  bool
}

// Expander rewrites documents through a Completer.
type Expander struct {
	completer Completer
}

// New creates an expander.
func New(c Completer) *Expander {
	return &Expander{completer: c}
}

// Expand finds the shortest list paragraph of doc and, when it falls short of a full line by more
// than MinExpansion characters, replaces its text with a longer version produced by the completer.
func (e *Expander) Expand(ctx context.Context, doc *docx.Document) (*Result, error) {
	logger := logctx.LoggerFromContext(ctx)
	paras := doc.Paragraphs()

	res := &Result{Limit: FullLineLimit(paras), Index: -1}

	bullet, ok := SmallestBullet(paras)
	if !ok {
		logger.InfoContext(ctx, "no bullet points found in the document", "paragraphs", len(paras))

		return res, nil
	}

	res.Index = bullet.Index
	res.Bullet = bullet.Text

	diff := res.Limit - utf8.RuneCountInString(bullet.Text)
	if diff <= MinExpansion {
		logger.InfoContext(ctx, "bullet point is already long enough", "limit", res.Limit, "difference", diff)

		return res, nil
	}

	logger.DebugContext(ctx, "expanding bullet point", "index", bullet.Index, "limit", res.Limit, "difference", diff)

	text, err := e.completer.Complete(ctx, Prompt{
		System:      systemPrompt,
		User:        fmt.Sprintf("Expand this sentence by approximately %d characters: %s", diff, bullet.Text),
		MaxTokens:   diff,
		Temperature: Temperature,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to expand bullet point", "index", bullet.Index, "err", err)

		return nil, fmt.Errorf("failed to expand text: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" || text == bullet.Text {
		logger.WarnContext(ctx, "completion returned nothing new, keeping the original bullet", "index", bullet.Index)

		return res, nil
	}

	if err := doc.SetText(bullet.Index, text); err != nil {
		return nil, fmt.Errorf("failed to replace bullet point: %w", err)
	}

	res.Expanded = text
	res.Changed = true

	logger.InfoContext(ctx, "bullet point expanded",
		"index", bullet.Index,
		"from", utf8.RuneCountInString(bullet.Text),
		"to", utf8.RuneCountInString(text),
	)

	return res, nil
}

// FullLineLimit estimates how many characters fit on a full line: the length of the longest
// paragraph among those longer than MinLineLength, or 0 when there is none.
func FullLineLimit(paras []docx.Paragraph) int {
	limit := 0

	for _, p := range paras {
		n := utf8.RuneCountInString(p.Text)
		if n > MinLineLength && n > limit {
			limit = n
		}
	}

	return limit
}

// SmallestBullet returns the shortest list paragraph. The first one wins on ties.
func SmallestBullet(paras []docx.Paragraph) (docx.Paragraph, bool) {
	var (
		best  docx.Paragraph
		found bool
		size  int
	)

	for _, p := range paras {
		if !p.IsList() {
			continue
		}

		n := utf8.RuneCountInString(p.Text)
		if !found || n < size {
			best, size, found = p, n, true
		}
	}

	return best, found
}
