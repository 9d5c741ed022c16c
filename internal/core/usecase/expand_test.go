package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/budala187/nexora-context-backend/internal/core/domain"
)

type expandModelFake struct {
	response string
	err      error
	calls    int
}

func (f *expandModelFake) Complete(context.Context, []domain.ChatMessage) (string, error) {
	return f.response, f.err
}

func (f *expandModelFake) CompleteJSON(context.Context, []domain.ChatMessage) (string, error) {
	f.calls++
	return f.response, f.err
}

func TestExpandReturnsUpToTwoPhrasings(t *testing.T) {
	expander := NewQueryExpander(&expandModelFake{response: `["first phrasing", "second phrasing", "third phrasing"]`})

	out := expander.Expand(context.Background(), "original query")
	require.Equal(t, []string{"first phrasing", "second phrasing"}, out)
}

func TestExpandRepairsSloppyModelOutput(t *testing.T) {
	expander := NewQueryExpander(&expandModelFake{response: "```json\n['one', 'two',]\n```"})

	out := expander.Expand(context.Background(), "q")
	require.Equal(t, []string{"one", "two"}, out)
}

func TestExpandModelErrorYieldsEmptyList(t *testing.T) {
	expander := NewQueryExpander(&expandModelFake{err: errors.New("model down")})

	require.Empty(t, expander.Expand(context.Background(), "q"))
}

func TestExpandUnparseableOutputYieldsEmptyList(t *testing.T) {
	expander := NewQueryExpander(&expandModelFake{response: `{"not": "an array"}`})

	require.Empty(t, expander.Expand(context.Background(), "q"))
}

func TestExpandDropsBlankAndDuplicatePhrasings(t *testing.T) {
	expander := NewQueryExpander(&expandModelFake{response: `["  ", "Original Query", "fresh angle"]`})

	out := expander.Expand(context.Background(), "original query")
	require.Equal(t, []string{"fresh angle"}, out)
}
