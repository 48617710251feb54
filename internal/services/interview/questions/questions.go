// Package questions produces interview questions from a language model and
// substitutes a fixed question list whenever the model cannot answer in time.
package questions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/mockinterview/internal/platform/timeouts"
)

// Generator produces question text for a role at a 1-based position.
type Generator interface {
	Generate(ctx context.Context, roleLabel string, sequenceNumber int) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, roleLabel string, sequenceNumber int) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, roleLabel string, sequenceNumber int) (string, error) {
	return f(ctx, roleLabel, sequenceNumber)
}

// ErrNoGenerator is reported when no generator is configured.
var ErrNoGenerator = errors.New("question generator is not configured")

// Prompt builds the instruction sent to the model.
func Prompt(roleLabel string, sequenceNumber int) string {
	return fmt.Sprintf(`You are an experienced interviewer conducting a job interview for the position of %s.
This is question number %d of the interview.
Generate a single relevant interview question.
Only return the question text, nothing else.`, roleLabel, sequenceNumber)
}

// EmptyResponseQuestion is used when the model answers with blank text.
func EmptyResponseQuestion(roleLabel string) string {
	return fmt.Sprintf("Tell me about your experience relevant to %s.", roleLabel)
}

// Fallback returns the generic question for sequenceNumber, clamped to the
// ten-entry list.
func Fallback(roleLabel string, sequenceNumber int) string {
	list := [...]string{
		fmt.Sprintf("Tell me about yourself and your experience with %s.", roleLabel),
		"What are your greatest strengths?",
		"What are your biggest weaknesses?",
		fmt.Sprintf("Why do you want to work as a %s?", roleLabel),
		"Describe a challenging project you've worked on.",
		"Where do you see yourself in 5 years?",
		"How do you handle stress and pressure?",
		"What motivates you in your work?",
		"Tell me about a time you worked in a team.",
		"Do you have any questions for us?",
	}
	index := min(sequenceNumber-1, len(list)-1)
	if index < 0 {
		index = 0
	}
	return list[index]
}

// Result is the outcome of Ask.
type Result struct {
	Text string
	// Fallback is true when Text came from the fixed list; Cause holds the
	// generator error that triggered it.
	Fallback bool
	Cause    error
}

// Ask calls gen bounded by timeout. Any error, timeout or missing generator
// yields the fallback question. A non-positive timeout uses
// timeouts.QuestionGeneration.
func Ask(ctx context.Context, gen Generator, roleLabel string, sequenceNumber int, timeout time.Duration) Result {
	if gen == nil {
		return Result{Text: Fallback(roleLabel, sequenceNumber), Fallback: true, Cause: ErrNoGenerator}
	}
	if timeout <= 0 {
		timeout = timeouts.QuestionGeneration
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type answer struct {
		text string
		err  error
	}
	done := make(chan answer, 1)
	go func() {
		text, err := gen.Generate(callCtx, roleLabel, sequenceNumber)
		done <- answer{text: text, err: err}
	}()

	select {
	case got := <-done:
		if got.err != nil {
			return Result{Text: Fallback(roleLabel, sequenceNumber), Fallback: true, Cause: got.err}
		}
		text := strings.TrimSpace(got.text)
		if text == "" {
			text = EmptyResponseQuestion(roleLabel)
		}
		return Result{Text: text}
	case <-callCtx.Done():
		return Result{Text: Fallback(roleLabel, sequenceNumber), Fallback: true, Cause: callCtx.Err()}
	}
}
