// Package pipeline runs the four-stage article workflow: Coordinator hands
// to TitlePlanner, then Outliner, then Drafter. The hand-off graph is plain
// data and a supervising loop enforces it, so stage order never depends on a
// model following instructions.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Stage names, also the states of the run loop.
const (
	StageCoordinator  = "coordinator"
	StageTitlePlanner = "title_planner"
	StageOutliner     = "outliner"
	StageDrafter      = "drafter"
)

const (
	stageLLMTimeout = 60 * time.Second
	recentLimit     = 50
)

var (
	// ErrStalled means a non-terminal stage finished without naming a successor.
	ErrStalled = errors.New("pipeline: stage did not hand off")
	// ErrBadHandoff means a stage named a successor outside its declared set.
	ErrBadHandoff = errors.New("pipeline: hand-off target not permitted")
)

// Searcher gathers trend signal for the title planner.
type Searcher interface {
	Query(ctx context.Context, query string) string
}

// TitleSource lists recently published titles for dedup avoidance.
type TitleSource interface {
	FetchRecent(ctx context.Context, limit int) ([]string, error)
}

// Generator drafts the full article body.
type Generator interface {
	Generate(ctx context.Context, title, outline string) (string, error)
}

// State accumulates what the stages produce during one run.
type State struct {
	Request      string
	RecentTitles []string
	SearchNotes  []string
	Title        string
	Outline      string
	Body         string
}

// stage couples a name with its permitted hand-off targets and its work.
// run returns the name of the next stage, or "" from the terminal stage.
type stage struct {
	name string
	next []string
	run  func(ctx context.Context, st *State) (string, error)
}

// Transition is one recorded hand-off.
type Transition struct {
	From string
	To   string
	At   time.Time
}

// Result is the outcome of one pipeline run.
type Result struct {
	RunID       string
	Title       string
	Outline     string
	Output      string
	Transitions []Transition
}

// Pipeline holds the immutable stage graph. Build it once at startup and
// reuse it across runs.
type Pipeline struct {
	stages map[string]*stage
	entry  string
	logger *log.Logger
}

// New wires the fixed Coordinator -> TitlePlanner -> Outliner -> Drafter
// graph around the given collaborators.
func New(llm LLMClient, gen Generator, searcher Searcher, titles TitleSource) (*Pipeline, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if gen == nil {
		return nil, errors.New("generation client is required")
	}
	if searcher == nil {
		return nil, errors.New("search client is required")
	}
	if titles == nil {
		return nil, errors.New("title source is required")
	}

	p := &Pipeline{logger: log.Default()}

	coordinator := &stage{
		name: StageCoordinator,
		// The coordinator may reach any downstream stage, but its own run
		// always starts the intended traversal at the title planner.
		next: []string{StageTitlePlanner, StageOutliner, StageDrafter},
		run: func(_ context.Context, st *State) (string, error) {
			st.Request = strings.TrimSpace(st.Request)
			if st.Request == "" {
				return "", errors.New("empty request")
			}
			return StageTitlePlanner, nil
		},
	}

	titlePlanner := &stage{
		name: StageTitlePlanner,
		next: []string{StageOutliner},
		run: func(ctx context.Context, st *State) (string, error) {
			recent, err := titles.FetchRecent(ctx, recentLimit)
			if err != nil {
				// Dedup signal is best effort; plan without it.
				p.logger.Printf("[pipeline] fetch recent titles failed: %v", err)
			}
			st.RecentTitles = recent
			for _, q := range seedQueries {
				st.SearchNotes = append(st.SearchNotes, searcher.Query(ctx, q))
			}

			cctx, cancel := context.WithTimeout(ctx, stageLLMTimeout)
			defer cancel()
			raw, err := llm.Complete(cctx, BuildTitlePrompt(st.Request, st.RecentTitles, st.SearchNotes))
			if err != nil {
				return "", err
			}
			title := CleanTitle(raw)
			if title == "" {
				return "", errors.New("model produced no usable title")
			}
			st.Title = title
			return StageOutliner, nil
		},
	}

	outliner := &stage{
		name: StageOutliner,
		next: []string{StageDrafter},
		run: func(ctx context.Context, st *State) (string, error) {
			cctx, cancel := context.WithTimeout(ctx, stageLLMTimeout)
			defer cancel()
			raw, err := llm.Complete(cctx, BuildOutlinePrompt(st.Title))
			if err != nil {
				return "", err
			}
			outline := strings.TrimSpace(raw)
			if outline == "" {
				return "", errors.New("model produced no outline")
			}
			st.Outline = outline
			return StageDrafter, nil
		},
	}

	drafter := &stage{
		name: StageDrafter,
		run: func(ctx context.Context, st *State) (string, error) {
			body, err := gen.Generate(ctx, st.Title, st.Outline)
			if err != nil {
				return "", err
			}
			st.Body = body
			return "", nil
		},
	}

	p.stages = map[string]*stage{
		coordinator.name:  coordinator,
		titlePlanner.name: titlePlanner,
		outliner.name:     outliner,
		drafter.name:      drafter,
	}
	p.entry = StageCoordinator
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// SetLogger overrides the destination for run-progress logs.
func (p *Pipeline) SetLogger(logger *log.Logger) {
	if logger != nil {
		p.logger = logger
	}
}

func (p *Pipeline) validate() error {
	for name, s := range p.stages {
		for _, next := range s.next {
			if _, ok := p.stages[next]; !ok {
				return fmt.Errorf("stage %s declares unknown successor %s", name, next)
			}
		}
	}
	if _, ok := p.stages[p.entry]; !ok {
		return fmt.Errorf("unknown entry stage %s", p.entry)
	}
	return nil
}

// Run executes the graph once. Each stage runs at most once and may hand off
// at most once, to a declared successor only; the terminal stage's body is
// the final output.
func (p *Pipeline) Run(ctx context.Context, request string) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	st := &State{Request: request}
	visited := make(map[string]bool)
	cur := p.entry

	p.logger.Printf("[pipeline] run %s started", res.RunID)
	for {
		if visited[cur] {
			return res, fmt.Errorf("stage %s scheduled twice in run %s", cur, res.RunID)
		}
		visited[cur] = true

		s := p.stages[cur]
		next, err := s.run(ctx, st)
		if err != nil {
			return res, fmt.Errorf("stage %s: %w", cur, err)
		}
		if len(s.next) == 0 {
			res.Title = st.Title
			res.Outline = st.Outline
			res.Output = st.Body
			p.logger.Printf("[pipeline] run %s finished at %s (%d transitions)", res.RunID, cur, len(res.Transitions))
			return res, nil
		}
		if next == "" {
			return res, fmt.Errorf("stage %s: %w", cur, ErrStalled)
		}
		if !contains(s.next, next) {
			return res, fmt.Errorf("stage %s to %s: %w", cur, next, ErrBadHandoff)
		}
		res.Transitions = append(res.Transitions, Transition{From: cur, To: next, At: time.Now()})
		p.logger.Printf("[pipeline] run %s: %s -> %s", res.RunID, cur, next)
		cur = next
	}
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
