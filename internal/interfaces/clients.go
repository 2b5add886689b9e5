// Package interfaces defines service contracts for the advisor
package interfaces

import "context"

// GeminiClient provides AI text generation
type GeminiClient interface {
	// GenerateContent generates content from a prompt
	GenerateContent(ctx context.Context, prompt string) (string, error)

	// GenerateWithSystem generates content from a prompt framed by a system instruction
	GenerateWithSystem(ctx context.Context, system, prompt string) (string, error)
}
