// Package generator assembles the grounded prompt and turns every generation
// outcome into a user-facing string. It sits at the user boundary: nothing
// here returns an error, not even on provider failure.
package generator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"macgpt/internal/domain"
)

// Generator produces the final answer string for a question.
type Generator struct {
	backend domain.Generator
	log     *zap.Logger
}

// New creates a generator over the given model backend.
func New(backend domain.Generator, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{backend: backend, log: log}
}

// Generate builds the prompt from the question, the selected topic (may be
// empty when classification failed) and the retrieved context, invokes the
// model and post-processes the output. Every outcome is a string: safety
// blocks, empty responses and transport errors all become descriptive text.
func (g *Generator) Generate(ctx context.Context, question, topicID string, records []domain.Record) string {
	contextText := renderContext(records)
	if topicID == "" && len(records) == 0 {
		contextText = contextNoCategory
	}
	prompt := buildPrompt(question, topicID, contextText)

	reply, err := g.backend.Generate(ctx, prompt)
	if err != nil {
		g.log.Error("generation failed", zap.Error(err))
		return fmt.Sprintf("Error al generar respuesta: %v", err)
	}
	if reply.BlockReason != "" {
		g.log.Warn("generation blocked", zap.String("reason", reply.BlockReason))
		return fmt.Sprintf("Respuesta bloqueada: %s.", reply.BlockReason)
	}
	text := strings.TrimSpace(reply.Text)
	if text == "" {
		return "El modelo no generó respuesta."
	}
	// Models often echo the template back; keep only the answer section.
	if idx := strings.LastIndex(text, AnswerDelimiter); idx >= 0 {
		text = strings.TrimSpace(text[idx+len(AnswerDelimiter):])
	}
	return text
}
