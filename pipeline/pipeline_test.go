package pipeline

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct {
	outputs []string
	calls   int
	err     error
}

func (s *scriptedLLM) Complete(_ context.Context, _ Prompt) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.calls >= len(s.outputs) {
		return "", errors.New("unexpected llm call")
	}
	out := s.outputs[s.calls]
	s.calls++
	return out, nil
}

type fakeGen struct {
	body       string
	err        error
	gotTitle   string
	gotOutline string
}

func (f *fakeGen) Generate(_ context.Context, title, outline string) (string, error) {
	f.gotTitle = title
	f.gotOutline = outline
	return f.body, f.err
}

type fakeSearch struct {
	queries []string
}

func (f *fakeSearch) Query(_ context.Context, query string) string {
	f.queries = append(f.queries, query)
	return "notes for " + query
}

type fakeTitles struct {
	titles   []string
	err      error
	gotLimit int
}

func (f *fakeTitles) FetchRecent(_ context.Context, limit int) ([]string, error) {
	f.gotLimit = limit
	return f.titles, f.err
}

func newTestPipeline(t *testing.T, llm LLMClient, gen Generator, searcher Searcher, titles TitleSource) *Pipeline {
	t.Helper()
	p, err := New(llm, gen, searcher, titles)
	require.NoError(t, err)
	p.SetLogger(log.New(io.Discard, "", 0))
	return p
}

func TestRunHappyPath(t *testing.T) {
	llm := &scriptedLLM{outputs: []string{
		"\"Go Testing: 5 Tips\"\n",
		"## Introduction\n## Tips\n## Conclusion",
	}}
	gen := &fakeGen{body: "# Go Testing: 5 Tips\n\n" + strings.Repeat("Full article body. ", 20)}
	searcher := &fakeSearch{}
	titles := &fakeTitles{titles: []string{"Old Title"}}

	p := newTestPipeline(t, llm, gen, searcher, titles)
	res, err := p.Run(context.Background(), "Write one short technical article.")
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "Go Testing: 5 Tips", res.Title)
	assert.Equal(t, "## Introduction\n## Tips\n## Conclusion", res.Outline)
	assert.Equal(t, gen.body, res.Output)

	// Exactly the intended traversal, in order.
	require.Len(t, res.Transitions, 3)
	assert.Equal(t, StageCoordinator, res.Transitions[0].From)
	assert.Equal(t, StageTitlePlanner, res.Transitions[0].To)
	assert.Equal(t, StageTitlePlanner, res.Transitions[1].From)
	assert.Equal(t, StageOutliner, res.Transitions[1].To)
	assert.Equal(t, StageOutliner, res.Transitions[2].From)
	assert.Equal(t, StageDrafter, res.Transitions[2].To)

	// The planner consulted both tools, the drafter got the cleaned title.
	assert.Equal(t, 50, titles.gotLimit)
	assert.Equal(t, seedQueries, searcher.queries)
	assert.Equal(t, "Go Testing: 5 Tips", gen.gotTitle)
	assert.Equal(t, res.Outline, gen.gotOutline)
}

func TestRunEmptyRequestFailsAtCoordinator(t *testing.T) {
	p := newTestPipeline(t, &scriptedLLM{}, &fakeGen{}, &fakeSearch{}, &fakeTitles{})
	_, err := p.Run(context.Background(), "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), StageCoordinator)
}

func TestRunTitleStageErrorAborts(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("model down")}
	gen := &fakeGen{}
	p := newTestPipeline(t, llm, gen, &fakeSearch{}, &fakeTitles{})

	_, err := p.Run(context.Background(), "a request")
	require.Error(t, err)
	assert.Contains(t, err.Error(), StageTitlePlanner)
	assert.Empty(t, gen.gotTitle, "drafter must not run after an aborted stage")
}

func TestRunRecentTitleFailureIsNotFatal(t *testing.T) {
	llm := &scriptedLLM{outputs: []string{"A Fine Title", "## Outline"}}
	titles := &fakeTitles{err: errors.New("db unreachable")}
	p := newTestPipeline(t, llm, &fakeGen{body: "body"}, &fakeSearch{}, titles)

	res, err := p.Run(context.Background(), "a request")
	require.NoError(t, err)
	assert.Equal(t, "body", res.Output)
}

func TestRunGeneratorErrorSurfacesFromDrafter(t *testing.T) {
	llm := &scriptedLLM{outputs: []string{"A Fine Title", "## Outline"}}
	gen := &fakeGen{err: errors.New("all models failed")}
	p := newTestPipeline(t, llm, gen, &fakeSearch{}, &fakeTitles{})

	_, err := p.Run(context.Background(), "a request")
	require.Error(t, err)
	assert.Contains(t, err.Error(), StageDrafter)
}

func TestNewRequiresCollaborators(t *testing.T) {
	llm := &scriptedLLM{}
	gen := &fakeGen{}
	searcher := &fakeSearch{}
	titles := &fakeTitles{}

	_, err := New(nil, gen, searcher, titles)
	assert.Error(t, err)
	_, err = New(llm, nil, searcher, titles)
	assert.Error(t, err)
	_, err = New(llm, gen, nil, titles)
	assert.Error(t, err)
	_, err = New(llm, gen, searcher, nil)
	assert.Error(t, err)
}

// The loop itself enforces the graph, independent of what stages do; these
// use hand-built graphs to drive the misbehaving cases.

func loopOnlyPipeline(stages ...*stage) *Pipeline {
	p := &Pipeline{stages: make(map[string]*stage), entry: stages[0].name, logger: log.New(io.Discard, "", 0)}
	for _, s := range stages {
		p.stages[s.name] = s
	}
	return p
}

func TestRunRejectsUndeclaredHandoff(t *testing.T) {
	a := &stage{name: "a", next: []string{"b"}, run: func(context.Context, *State) (string, error) { return "c", nil }}
	b := &stage{name: "b", run: func(context.Context, *State) (string, error) { return "", nil }}
	c := &stage{name: "c", run: func(context.Context, *State) (string, error) { return "", nil }}

	_, err := loopOnlyPipeline(a, b, c).Run(context.Background(), "req")
	require.ErrorIs(t, err, ErrBadHandoff)
}

func TestRunRejectsStalledStage(t *testing.T) {
	a := &stage{name: "a", next: []string{"b"}, run: func(context.Context, *State) (string, error) { return "", nil }}
	b := &stage{name: "b", run: func(context.Context, *State) (string, error) { return "", nil }}

	_, err := loopOnlyPipeline(a, b).Run(context.Background(), "req")
	require.ErrorIs(t, err, ErrStalled)
}

func TestRunRejectsRepeatedStage(t *testing.T) {
	a := &stage{name: "a", next: []string{"b"}, run: func(context.Context, *State) (string, error) { return "b", nil }}
	b := &stage{name: "b", next: []string{"a"}, run: func(context.Context, *State) (string, error) { return "a", nil }}

	_, err := loopOnlyPipeline(a, b).Run(context.Background(), "req")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduled twice")
}

func TestValidateRejectsUnknownSuccessor(t *testing.T) {
	p := loopOnlyPipeline(&stage{name: "a", next: []string{"ghost"}})
	err := p.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}
