package classifier

import (
	"context"

	"github.com/google/uuid"
)

var _ Client = (*Mock)(nil)

// Mock is a configurable classifier for tests and local development.
type Mock struct {
	Image    *ImageResult
	Text     *TextResult
	Video    *VideoResult
	ImageErr error
	TextErr  error
	VideoErr error

	// ImageCategories records the category list of the last image call, so
	// tests can assert on what was requested.
	ImageCategories []string
	VideoCategories []string
	TextInput       string
}

// CheckImage returns the configured image result or error.
func (m *Mock) CheckImage(ctx context.Context, payload []byte, categories []string) (*ImageResult, error) {
	_ = ctx
	_ = payload
	m.ImageCategories = categories
	if m.ImageErr != nil {
		return nil, m.ImageErr
	}
	if m.Image != nil {
		return m.Image, nil
	}
	return &ImageResult{RequestID: uuid.NewString()}, nil
}

// CheckText returns the configured text result or error.
func (m *Mock) CheckText(ctx context.Context, text string, lang string) (*TextResult, error) {
	_ = ctx
	_ = lang
	m.TextInput = text
	if m.TextErr != nil {
		return nil, m.TextErr
	}
	if m.Text != nil {
		return m.Text, nil
	}
	return &TextResult{RequestID: uuid.NewString()}, nil
}

// CheckVideo returns the configured video result or error.
func (m *Mock) CheckVideo(ctx context.Context, payload []byte, categories []string) (*VideoResult, error) {
	_ = ctx
	_ = payload
	m.VideoCategories = categories
	if m.VideoErr != nil {
		return nil, m.VideoErr
	}
	if m.Video != nil {
		return m.Video, nil
	}
	return &VideoResult{RequestID: uuid.NewString()}, nil
}
