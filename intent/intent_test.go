package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/raushankrgupta/shopbot/logger"
	"github.com/raushankrgupta/shopbot/models"
	apperrors "github.com/raushankrgupta/shopbot/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sites = []string{"amazon", "flipkart", "myntra", "tatacliq", "ajio", "snapdeal"}

type fakeModel struct {
	out    string
	err    error
	prompt string
}

func (f *fakeModel) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.out, f.err
}

func TestParseIntent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want models.Intent
	}{
		{
			name: "plain",
			raw:  `{"task":"search_product","site":"Flipkart","query":" iphone 15 "}`,
			want: models.Intent{Task: models.TaskSearchProduct, Site: "flipkart", Query: "iphone 15"},
		},
		{
			name: "fenced",
			raw:  "```json\n{\"task\": \"login\", \"site\": \"amazon\"}\n```",
			want: models.Intent{Task: models.TaskLogin, Site: "amazon"},
		},
		{
			name: "surrounding prose and braces in strings",
			raw:  `Sure! {"task":"general_chat","reply":"use {curly} braces \"ok\""} hope that helps`,
			want: models.Intent{Task: models.TaskGeneralChat, Reply: `use {curly} braces "ok"`},
		},
		{
			name: "uppercase task",
			raw:  `{"task":"COMPARE_PRICES","query":"airpods"}`,
			want: models.Intent{Task: models.TaskComparePrices, Query: "airpods"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIntent(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIntentInvalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"no json here",
		`{"task":"search_product"`,
		`{"task":"book_flight"}`,
		`{"task": 5}`,
	} {
		_, err := ParseIntent(raw)
		assert.ErrorIs(t, err, apperrors.ErrInvalidIntent, raw)
	}
}

func TestHeuristic(t *testing.T) {
	tests := []struct {
		text string
		want models.Intent
	}{
		{"search for running shoes on flipkart", models.Intent{Task: models.TaskSearchProduct, Site: "flipkart", Query: "running shoes"}},
		{"I want a laptop bag", models.Intent{Task: models.TaskSearchProduct, Site: "amazon", Query: "laptop bag"}},
		{"compare prices of iphone 15", models.Intent{Task: models.TaskComparePrices, Query: "iphone 15"}},
		{"Login to Amazon", models.Intent{Task: models.TaskLogin, Site: "amazon"}},
		{"show my cart on myntra", models.Intent{Task: models.TaskViewCart, Site: "myntra"}},
		{"open https://amzn.in/d/abc.", models.Intent{Task: models.TaskOpenPage, URL: "https://amzn.in/d/abc"}},
		{"email the results to bob@example.com", models.Intent{Task: models.TaskEmailResults, Email: "bob@example.com"}},
		{"hello there", models.Intent{Task: models.TaskGeneralChat}},
		{"mail me the list", models.Intent{Task: models.TaskEmailResults, Query: "list"}},
		{"find printer cartridge on amazon", models.Intent{Task: models.TaskSearchProduct, Site: "amazon", Query: "printer cartridge"}},
		{"search basketball shoes on flipkart", models.Intent{Task: models.TaskSearchProduct, Site: "flipkart", Query: "basketball shoes"}},
		{"design inspired kurta on ajio", models.Intent{Task: models.TaskSearchProduct, Site: "ajio", Query: "design inspired kurta"}},
		{"send me running shoes from myntra", models.Intent{Task: models.TaskSearchProduct, Site: "myntra", Query: "running shoes"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Heuristic(tt.text, sites, "amazon"), tt.text)
	}
}

func TestClassifyUsesModel(t *testing.T) {
	m := &fakeModel{out: `{"task":"view_cart"}`}
	c := NewClassifier(m, sites, "amazon", logger.Nop())

	in, err := c.Classify(context.Background(), "what's in my basket")
	require.NoError(t, err)
	assert.Equal(t, models.TaskViewCart, in.Task)
	assert.Equal(t, "amazon", in.Site)

	assert.Contains(t, m.prompt, "what's in my basket")
	assert.Contains(t, m.prompt, "amazon, flipkart, myntra, tatacliq, ajio, snapdeal")
}

func TestClassifyFallsBackWhenModelFails(t *testing.T) {
	c := NewClassifier(&fakeModel{err: errors.New("quota exceeded")}, sites, "amazon", logger.Nop())

	in, err := c.Classify(context.Background(), "compare prices for boat headphones")
	require.NoError(t, err)
	assert.Equal(t, models.TaskComparePrices, in.Task)
	assert.Equal(t, "boat headphones", in.Query)
}

func TestClassifyWithoutModel(t *testing.T) {
	c := NewClassifier(nil, sites, "flipkart", logger.Nop())
	in, err := c.Classify(context.Background(), "sign in please")
	require.NoError(t, err)
	assert.Equal(t, models.Intent{Task: models.TaskLogin, Site: "flipkart"}, in)
}

func TestClassifyInvalidModelOutput(t *testing.T) {
	c := NewClassifier(&fakeModel{out: "I cannot help with that"}, sites, "amazon", logger.Nop())
	_, err := c.Classify(context.Background(), "do something")
	assert.ErrorIs(t, err, apperrors.ErrInvalidIntent)
}

func TestClassifyEmpty(t *testing.T) {
	c := NewClassifier(nil, sites, "amazon", logger.Nop())
	_, err := c.Classify(context.Background(), "   ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidIntent)
}

func TestNewGeminiModelRequiresKey(t *testing.T) {
	_, err := NewGeminiModel(context.Background(), "", "gemini-1.5-flash")
	assert.ErrorIs(t, err, apperrors.ErrNotConfigured)
}
