package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// State is the orchestrator's position in the turn lifecycle.
type State int

const (
	StateIdle State = iota
	StateRephrasing
	StateRouting
	StateRetrieving
	StateGenerating
	StateStreaming
)

var stateNames = map[State]string{
	StateIdle:       "idle",
	StateRephrasing: "rephrasing",
	StateRouting:    "routing",
	StateRetrieving: "retrieving",
	StateGenerating: "generating",
	StateStreaming:  "streaming",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// EvidenceRetriever is the retrieval branch boundary: a question in,
// ordered evidence out. Implemented by the persistent file retriever and
// the web retrieval chain.
type EvidenceRetriever interface {
	Retrieve(ctx context.Context, question string) ([]models.EvidenceRef, error)
}

// Pipeline orchestrates one conversation turn: rephrase, route, retrieve
// on the selected branch, then stream the generated answer. One turn
// occupies the pipeline exclusively; starting a turn while another is in
// flight is a caller error. The pipeline always returns to Idle, whatever
// the outcome.
type Pipeline struct {
	rephraser     *Rephraser
	router        *Router
	generator     *Generator
	fileRetriever EvidenceRetriever
	webRetriever  EvidenceRetriever
	sink          *OutputSink
	logger        arbor.ILogger

	mu    sync.Mutex
	state State
}

func NewPipeline(
	rephraser *Rephraser,
	router *Router,
	generator *Generator,
	fileRetriever EvidenceRetriever,
	webRetriever EvidenceRetriever,
	logger arbor.ILogger,
) *Pipeline {
	return &Pipeline{
		rephraser:     rephraser,
		router:        router,
		generator:     generator,
		fileRetriever: fileRetriever,
		webRetriever:  webRetriever,
		sink:          NewOutputSink(),
		logger:        logger,
	}
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// HandleTurn runs one turn and returns the answer token stream. The caller
// must exhaust the stream, then drain provenance and debug records. A
// turn-fatal error resets the pipeline to Idle before returning; partial
// state never leaks into the next turn.
func (p *Pipeline) HandleTurn(ctx context.Context, question string, history []models.Turn) (<-chan interfaces.Token, error) {
	if err := p.begin(); err != nil {
		return nil, err
	}

	standalone, err := p.rephraser.Rephrase(ctx, question, history, p.sink)
	if err != nil {
		p.abort(err)
		return nil, err
	}

	p.setState(StateRouting)
	action := p.router.Route(ctx, standalone, p.sink)

	p.setState(StateRetrieving)
	evidence := p.retrieve(ctx, action, standalone)

	messages, err := p.buildMessages(action, standalone, history, evidence)
	if err != nil {
		p.abort(err)
		return nil, err
	}
	p.sink.AddDebug("generator_prompt", messages)

	p.setState(StateGenerating)
	stream, err := p.generator.Generate(ctx, messages)
	if err != nil {
		p.abort(err)
		return nil, err
	}

	p.setState(StateStreaming)
	out := make(chan interfaces.Token)
	go func() {
		defer close(out)
		defer p.setState(StateIdle)

		for token := range stream {
			select {
			case out <- token:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// DrainProvenance returns and clears the turn's evidence records. Call
// after the token stream is exhausted.
func (p *Pipeline) DrainProvenance() []models.EvidenceRef {
	return p.sink.DrainFiles()
}

// DrainDebug returns and clears the turn's debug records. Call after the
// token stream is exhausted.
func (p *Pipeline) DrainDebug() []models.DebugRecord {
	return p.sink.DrainDebug()
}

// retrieve runs the branch selected by the router. A failed retrieval is
// never turn-fatal: the branch falls back to ungrounded generation with the
// failure recorded in the debug sink.
func (p *Pipeline) retrieve(ctx context.Context, action models.NextAction, question string) []models.EvidenceRef {
	var evidence []models.EvidenceRef
	var err error

	switch action {
	case models.ActionFileSearch:
		evidence, err = p.fileRetriever.Retrieve(ctx, question)
	case models.ActionWebSearch:
		evidence, err = p.webRetriever.Retrieve(ctx, question)
	default:
		return nil
	}

	if err != nil {
		p.sink.AddDebug("retrieval_error", err.Error())
		p.logger.Warn().
			Err(err).
			Str("action", action.String()).
			Msg("Retrieval failed, falling back to ungrounded answer")
		return nil
	}
	return evidence
}

// buildMessages assembles the generator prompt for the branch outcome and
// publishes provenance for any evidence used.
func (p *Pipeline) buildMessages(action models.NextAction, question string, history []models.Turn, evidence []models.EvidenceRef) ([]interfaces.Message, error) {
	if action == models.ActionCodeAssistant {
		return p.generator.CodeMessages(question, history)
	}
	if len(evidence) > 0 {
		p.sink.AddFiles(evidence...)
		return p.generator.GroundedMessages(question, history, evidence)
	}
	return p.generator.UngroundedMessages(question, history)
}

func (p *Pipeline) begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateIdle {
		return fmt.Errorf("turn already in flight (state %s)", p.state)
	}
	p.state = StateRephrasing
	return nil
}

func (p *Pipeline) setState(state State) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
}

// abort resets to Idle after a turn-fatal error and discards anything the
// failed turn pushed into the sink, so the next turn's drains see only its
// own records.
func (p *Pipeline) abort(err error) {
	p.logger.Warn().Err(err).Msg("Turn aborted")
	p.sink.DrainFiles()
	p.sink.DrainDebug()
	p.setState(StateIdle)
}
