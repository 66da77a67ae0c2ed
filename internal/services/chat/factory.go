package chat

import "github.com/ternarybob/arbor"

// PipelineFactory builds one Pipeline per chat session over shared stage
// services. The stages themselves are stateless and safe to share; the
// per-turn sink and the lifecycle state belong to the session, so every
// session gets its own Pipeline and one session streaming never blocks or
// leaks records into another.
type PipelineFactory struct {
	rephraser     *Rephraser
	router        *Router
	generator     *Generator
	fileRetriever EvidenceRetriever
	webRetriever  EvidenceRetriever
	logger        arbor.ILogger
}

func NewPipelineFactory(
	rephraser *Rephraser,
	router *Router,
	generator *Generator,
	fileRetriever EvidenceRetriever,
	webRetriever EvidenceRetriever,
	logger arbor.ILogger,
) *PipelineFactory {
	return &PipelineFactory{
		rephraser:     rephraser,
		router:        router,
		generator:     generator,
		fileRetriever: fileRetriever,
		webRetriever:  webRetriever,
		logger:        logger,
	}
}

// NewPipeline creates a pipeline for one session.
func (f *PipelineFactory) NewPipeline() *Pipeline {
	return NewPipeline(f.rephraser, f.router, f.generator, f.fileRetriever, f.webRetriever, f.logger)
}
