package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"ytresearch-backend/internal/models"
	"ytresearch-backend/internal/ytutil"
)

// TruncationMarker is appended whenever a transcript is cut to fit the
// character budget. Downstream consumers rely on it to detect partial
// analysis, so it is never dropped.
const TruncationMarker = "\n\n[TRUNCATED]"

// Advisory cost model: rough 4-chars-per-token heuristic plus fixed
// overheads, priced at published per-1M-token rates.
const (
	charsPerToken         = 4
	systemPromptTokens    = 200
	completionTokenBudget = 800
	inputCostPerMillion   = 0.10
	outputCostPerMillion  = 0.40
)

// ExtractionFailure classifies why motif coding did not produce a payload.
type ExtractionFailure string

const (
	ExtractionProviderError   ExtractionFailure = "provider_error"
	ExtractionSchemaViolation ExtractionFailure = "schema_violation"
)

type ExtractionError struct {
	Reason ExtractionFailure
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed (%s): %v", e.Reason, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// CodingInput is the lightweight metadata embedded in the per-call prompt.
type CodingInput struct {
	Title    string
	Channel  string
	Duration int // seconds
}

// CodingOutput is one completed extraction: the decoded payload, the raw
// JSON as returned by the provider, and the provider-reported usage.
type CodingOutput struct {
	Coding       *models.MotifCoding
	RawJSON      json.RawMessage
	ModelUsed    string
	TokensUsed   int
	ProcessingMS int
}

// MotifCoder runs schema-constrained motif extraction against Gemini. The
// response schema makes the provider guarantee the output shape; decoding
// into the typed payload is the boundary check on our side, and a decode
// failure is a schema violation, never a partial result.
type MotifCoder struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	maxChars  int
	rateChan  chan struct{} // Token bucket
}

func NewMotifCoder(apiKey, modelName string, maxChars, concurrentReqs int) (*MotifCoder, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.1)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = motifCodingSchema()
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &MotifCoder{
		client:    client,
		model:     model,
		modelName: modelName,
		maxChars:  maxChars,
		rateChan:  rateChan,
	}, nil
}

func (c *MotifCoder) Close() {
	c.client.Close()
}

func (c *MotifCoder) ModelName() string { return c.modelName }

func (c *MotifCoder) acquireRate(ctx context.Context) error {
	select {
	case <-c.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return errors.New("timeout waiting for Gemini rate slot")
	}
}

func (c *MotifCoder) releaseRate() {
	c.rateChan <- struct{}{}
}

// CodeTranscript runs the full extraction for one transcript.
func (c *MotifCoder) CodeTranscript(ctx context.Context, transcript string, input CodingInput) (*CodingOutput, error) {
	if err := c.acquireRate(ctx); err != nil {
		return nil, &ExtractionError{Reason: ExtractionProviderError, Err: err}
	}
	defer c.releaseRate()

	submitted := TruncateTranscript(transcript, c.maxChars)
	if len(submitted) != len(transcript) {
		log.Printf("Transcript too long (%d chars), truncated to %d", len(transcript), c.maxChars)
	}

	prompt := buildCodingPrompt(input, submitted)

	started := time.Now()
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, &ExtractionError{Reason: ExtractionProviderError, Err: err}
	}
	elapsed := time.Since(started)

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			log.Printf("Gemini candidate %d stopped early: %s", i, cand.FinishReason)
		}
	}

	rawText := extractText(resp)
	if rawText == "" {
		return nil, &ExtractionError{Reason: ExtractionProviderError, Err: errors.New("empty response from model")}
	}

	coding, err := DecodeCoding([]byte(rawText))
	if err != nil {
		return nil, &ExtractionError{Reason: ExtractionSchemaViolation, Err: err}
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	log.Printf("Motif coding complete: %d tokens, %s", tokens, elapsed.Round(time.Millisecond))

	return &CodingOutput{
		Coding:       coding,
		RawJSON:      json.RawMessage(rawText),
		ModelUsed:    c.modelName,
		TokensUsed:   tokens,
		ProcessingMS: int(elapsed.Milliseconds()),
	}, nil
}

// DecodeCoding strictly deserializes a provider payload into the typed
// coding struct. Unknown fields are rejected — the provider promised exact
// shape conformance, and anything else is a schema violation.
func DecodeCoding(data []byte) (*models.MotifCoding, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var coding models.MotifCoding
	if err := dec.Decode(&coding); err != nil {
		return nil, fmt.Errorf("payload does not match coding schema: %w", err)
	}
	return &coding, nil
}

// TruncateTranscript cuts text to maxChars characters and appends the
// marker. Cuts land on rune boundaries, so the submitted prompt is always
// valid UTF-8.
func TruncateTranscript(text string, maxChars int) string {
	cut := ytutil.TruncateRunes(text, maxChars)
	if len(cut) == len(text) {
		return text
	}
	return cut + TruncationMarker
}

// EstimateUsage computes the advisory token/cost projection for a
// transcript without contacting the provider. Distinct from the usage the
// provider reports after a real call.
func (c *MotifCoder) EstimateUsage(transcript string) models.CostEstimate {
	submitted := TruncateTranscript(transcript, c.maxChars)
	transcriptTokens := len(submitted) / charsPerToken
	totalTokens := transcriptTokens + systemPromptTokens + completionTokenBudget

	inputCost := float64(transcriptTokens+systemPromptTokens) * inputCostPerMillion / 1_000_000
	outputCost := float64(completionTokenBudget) * outputCostPerMillion / 1_000_000

	return models.CostEstimate{
		EstimatedTotalTokens: totalTokens,
		EstimatedCostUSD:     math.Round((inputCost+outputCost)*10000) / 10000,
		TranscriptTokens:     transcriptTokens,
		CompletionTokens:     completionTokenBudget,
	}
}

const systemPrompt = `You are a research analyst specializing in coding YouTube transcripts about sports, fitness, performance science, and nutrition.

Your task is to analyze video transcripts and extract structured information according to the response schema.

CRITICAL RULES:
1. Only include information EXPLICITLY mentioned in the transcript
2. Do not infer or assume information not stated
3. Be precise with categorization
4. For quotes, use exact wording from the transcript (max 200 chars)
5. When unsure, leave the field empty or mark it as false
6. Maintain objectivity - do not add personal opinions

QUALITY CRITERIA:
- high: cites research, features experts, provides detailed protocols
- medium: provides general advice, some specific details
- low: vague advice, promotional, lacks substance

TARGET AUDIENCE CRITERIA:
- beginners: basic concepts, introductory advice
- intermediate: assumes some knowledge, more detailed
- advanced: technical, assumes expertise
- athletes: performance-focused, competitive context
- general fitness: broad appeal, practical advice`

func buildCodingPrompt(input CodingInput, transcript string) string {
	var b strings.Builder

	b.WriteString("Analyze the following YouTube video and extract structured motif information.\n\n")
	b.WriteString("VIDEO METADATA:\n")
	fmt.Fprintf(&b, "Title: %s\n", orUnknown(input.Title))
	fmt.Fprintf(&b, "Channel: %s\n", orUnknown(input.Channel))
	fmt.Fprintf(&b, "Duration: %d seconds\n\n", input.Duration)
	b.WriteString("TRANSCRIPT:\n")
	b.WriteString(transcript)
	b.WriteString("\n\nExtract all relevant information according to the schema. Be thorough but precise.")

	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
