package gemini

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// GenerateContentRequest is the body of models/{model}:generateContent
type GenerateContentRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"`
}

// GenerationConfig holds sampling parameters
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"top_p"`
	TopK            int     `json:"top_k"`
	MaxOutputTokens int     `json:"max_output_tokens"`
}

// DefaultGenerationConfig is used for frame generation
func DefaultGenerationConfig() *GenerationConfig {
	return &GenerationConfig{
		Temperature:     0.4,
		TopP:            0.95,
		TopK:            32,
		MaxOutputTokens: 8192,
	}
}

// Content is one turn of the conversation
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is either text or inline binary data
type Part struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inline_data,omitempty"`
}

// UnmarshalJSON accepts both the camelCase keys the API responds with and the
// snake_case keys it accepts on input.
func (p *Part) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text            string `json:"text"`
		InlineData      *Blob  `json:"inlineData"`
		InlineDataSnake *Blob  `json:"inline_data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Text = raw.Text
	p.InlineData = raw.InlineData
	if p.InlineData == nil {
		p.InlineData = raw.InlineDataSnake
	}
	return nil
}

// Blob is base64 encoded inline data
type Blob struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

func (b *Blob) UnmarshalJSON(data []byte) error {
	var raw struct {
		MimeType      string `json:"mimeType"`
		MimeTypeSnake string `json:"mime_type"`
		Data          string `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	b.MimeType = raw.MimeType
	if b.MimeType == "" {
		b.MimeType = raw.MimeTypeSnake
	}
	b.Data = raw.Data
	return nil
}

// NewImagePart creates an inline image part
func NewImagePart(mimeType string, image []byte) Part {
	return Part{InlineData: &Blob{
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(image),
	}}
}

// GenerateContentResponse is the generateContent response
type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
}

// Candidate is one generated answer
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

// PromptFeedback is set when the prompt was blocked
type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// Image is a decoded image returned by the model
type Image struct {
	MimeType string
	Data     []byte
}

// FirstImage returns the first inline image across all candidates
func (r *GenerateContentResponse) FirstImage() (*Image, error) {
	for _, c := range r.Candidates {
		for _, p := range c.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode inline image: %w", err)
			}
			mimeType := p.InlineData.MimeType
			if mimeType == "" {
				mimeType = "image/png"
			}
			return &Image{MimeType: mimeType, Data: data}, nil
		}
	}

	if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: prompt blocked (%s)", ErrNoImage, r.PromptFeedback.BlockReason)
	}
	return nil, ErrNoImage
}

// APIError is an error response of the Gemini API
type APIError struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
	Status     string `json:"status"`

	retryAfter time.Duration
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("Gemini API error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("Gemini API error (status %d, %s): %s", e.StatusCode, e.Status, e.Message)
}
