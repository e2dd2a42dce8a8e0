package llm

import "context"

const staticReview = `## Summary

This is a static review from an offline provider. No model endpoint was
called; the diff was not analyzed.
`

// StaticProvider returns a canned review without any network access. Useful
// for wiring tests and dry runs of the submission path.
type StaticProvider struct {
	model    string
	response string
}

// NewStaticProvider constructs a static provider.
func NewStaticProvider(model string) *StaticProvider {
	return &StaticProvider{model: model, response: staticReview}
}

// SetResponse overrides the canned review text.
func (p *StaticProvider) SetResponse(text string) {
	p.response = text
}

// Name identifies the provider in logs and run records.
func (p *StaticProvider) Name() string {
	return "static"
}

// Review returns the canned review text.
func (p *StaticProvider) Review(ctx context.Context, prompt string) (string, error) {
	return p.response, nil
}
