package expander_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/italolelis/lineexpander/internal/docx"
	"github.com/italolelis/lineexpander/internal/docx/docxtest"
	"github.com/italolelis/lineexpander/internal/expander"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	answer  string
	err     error
	prompts []expander.Prompt
}

func (f *fakeCompleter) Complete(_ context.Context, p expander.Prompt) (string, error) {
	f.prompts = append(f.prompts, p)

	return f.answer, f.err
}

func parse(t *testing.T, paras ...docxtest.Para) *docx.Document {
	t.Helper()

	doc, err := docx.Parse(docxtest.Build(t, paras...))
	require.NoError(t, err)

	return doc
}

func TestExpand_ExpandsTheSmallestBullet(t *testing.T) {
	long := strings.Repeat("a", 70)
	doc := parse(t,
		docxtest.Para{Style: docxtest.Heading1, Text: "Jane Doe"},
		docxtest.Para{Text: long},
		docxtest.Para{Style: docxtest.ListBullet, Text: "Led a team of five engineers"},
		docxtest.Para{Style: docxtest.ListBullet, Text: "Built APIs"},
	)

	completer := &fakeCompleter{answer: "  Built REST and gRPC APIs serving millions of requests a day\n"}

	res, err := expander.New(completer).Expand(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, 70, res.Limit)
	assert.Equal(t, 3, res.Index)
	assert.Equal(t, "Built APIs", res.Bullet)
	assert.True(t, res.Changed)
	assert.Equal(t, "Built REST and gRPC APIs serving millions of requests a day", res.Expanded)

	require.Len(t, completer.prompts, 1)
	assert.Equal(t, expander.Prompt{
		System:      "You are an assistant that expands short sentences while keeping them concise.",
		User:        "Expand this sentence by approximately 60 characters: Built APIs",
		MaxTokens:   60,
		Temperature: 0.7,
	}, completer.prompts[0])

	paras := doc.Paragraphs()
	assert.Equal(t, "Built REST and gRPC APIs serving millions of requests a day", paras[3].Text)
	assert.Equal(t, "Led a team of five engineers", paras[2].Text)
}

func TestExpand_LeavesDocumentUntouched(t *testing.T) {
	tests := []struct {
		name  string
		paras []docxtest.Para
		limit int
		index int
	}{
		{
			name: "difference not above the threshold",
			paras: []docxtest.Para{
				{Text: strings.Repeat("a", 60)},
				{Style: docxtest.ListBullet, Text: strings.Repeat("b", 45)},
			},
			limit: 60,
			index: 1,
		},
		{
			name: "no bullet points",
			paras: []docxtest.Para{
				{Text: strings.Repeat("a", 60)},
				{Style: docxtest.Heading1, Text: "Experience"},
			},
			limit: 60,
			index: -1,
		},
		{
			name: "no paragraph long enough to define a line",
			paras: []docxtest.Para{
				{Text: strings.Repeat("a", 50)},
				{Style: docxtest.ListNumber, Text: "Go"},
			},
			limit: 0,
			index: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parse(t, tt.paras...)
			completer := &fakeCompleter{answer: "unused"}

			res, err := expander.New(completer).Expand(context.Background(), doc)
			require.NoError(t, err)

			assert.False(t, res.Changed)
			assert.Equal(t, tt.limit, res.Limit)
			assert.Equal(t, tt.index, res.Index)
			assert.Empty(t, completer.prompts)

			out, err := doc.Bytes()
			require.NoError(t, err)
			assert.Equal(t, docxtest.Build(t, tt.paras...), out)
		})
	}
}

func TestExpand_EmptyAnswerKeepsBullet(t *testing.T) {
	doc := parse(t,
		docxtest.Para{Text: strings.Repeat("a", 80)},
		docxtest.Para{Style: docxtest.ListBullet, Text: "Go"},
	)

	res, err := expander.New(&fakeCompleter{answer: "   "}).Expand(context.Background(), doc)
	require.NoError(t, err)

	assert.False(t, res.Changed)
	assert.Equal(t, "Go", doc.Paragraphs()[1].Text)
}

func TestExpand_CompletionFailure(t *testing.T) {
	doc := parse(t,
		docxtest.Para{Text: strings.Repeat("a", 80)},
		docxtest.Para{Style: docxtest.ListBullet, Text: "Go"},
	)

	cause := &expander.CompletionError{Provider: "openai", StatusCode: 429, Message: "rate limited"}

	_, err := expander.New(&fakeCompleter{err: cause}).Expand(context.Background(), doc)
	require.Error(t, err)

	var completionErr *expander.CompletionError
	require.True(t, errors.As(err, &completionErr))
	assert.Equal(t, 429, completionErr.StatusCode)
	assert.Contains(t, err.Error(), "failed to expand text")
	assert.Equal(t, "Go", doc.Paragraphs()[1].Text)
}

func TestFullLineLimit(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
		want  int
	}{
		{name: "empty document", want: 0},
		{name: "only short paragraphs", texts: []string{"short", strings.Repeat("a", 50)}, want: 0},
		{name: "longest wins", texts: []string{strings.Repeat("a", 51), strings.Repeat("b", 90), "x"}, want: 90},
		{name: "counts characters not bytes", texts: []string{strings.Repeat("é", 60)}, want: 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paras := make([]docx.Paragraph, len(tt.texts))
			for i, text := range tt.texts {
				paras[i] = docx.Paragraph{Index: i, Text: text}
			}

			assert.Equal(t, tt.want, expander.FullLineLimit(paras))
		})
	}
}

func TestSmallestBullet(t *testing.T) {
	paras := []docx.Paragraph{
		{Index: 0, Style: "Normal", Text: "x"},
		{Index: 1, Style: "List Bullet", Text: "four"},
		{Index: 2, Style: "List Number", Text: "tres"},
		{Index: 3, Style: "List Paragraph", Text: "seven!!"},
	}

	p, ok := expander.SmallestBullet(paras)
	require.True(t, ok)
	assert.Equal(t, 1, p.Index, "first list paragraph wins on ties")

	_, ok = expander.SmallestBullet(paras[:1])
	assert.False(t, ok)
}

func TestCompletionError(t *testing.T) {
	tests := []struct {
		err  *expander.CompletionError
		want string
	}{
		{
			err:  &expander.CompletionError{Provider: "openai", StatusCode: 401, Message: "invalid api key"},
			want: "openai completion failed with status 401: invalid api key",
		},
		{
			err:  &expander.CompletionError{Provider: "gemini", Err: fmt.Errorf("dial tcp: refused")},
			want: "gemini completion failed: dial tcp: refused",
		},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}
