package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/YHTerrance/UniFrames/services/gemini"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEditor struct {
	prompt   string
	mimeType string
	image    *gemini.Image
	err      error
}

func (f *fakeEditor) EditImage(ctx context.Context, prompt, mimeType string, image []byte) (*gemini.Image, error) {
	f.prompt = prompt
	f.mimeType = mimeType
	return f.image, f.err
}

var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

func TestGenerate_StoresUploadAndResult(t *testing.T) {
	fs := afero.NewMemMapFs()
	editor := &fakeEditor{image: &gemini.Image{MimeType: "image/png", Data: []byte("framed")}}
	svc, err := NewFrameGeneratorService(fs, editor, "uploads", "outputs", nullLogger())
	require.NoError(t, err)

	result, err := svc.Generate(context.Background(), GenerateFrameInput{
		UniversityName:   "Harvard University",
		UniversityMascot: "John Harvard",
		Image:            jpegHeader,
	})
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", editor.mimeType)
	assert.Contains(t, editor.prompt, "Harvard University")
	assert.Contains(t, editor.prompt, "The mascot is John Harvard.")

	assert.Equal(t, "uploads", filepath.Dir(result.ImagePath))
	assert.True(t, strings.HasSuffix(result.ImagePath, ".jpg"))
	assert.Equal(t, "outputs", filepath.Dir(result.ResultPath))
	assert.True(t, strings.HasSuffix(result.ResultPath, ".png"))
	assert.Equal(t, "data:image/png;base64,ZnJhbWVk", result.ImageBase64)

	stored, err := afero.ReadFile(fs, result.ResultPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("framed"), stored)

	upload, err := afero.ReadFile(fs, result.ImagePath)
	require.NoError(t, err)
	assert.Equal(t, jpegHeader, upload)
}

func TestGenerate_RejectsInvalidUploads(t *testing.T) {
	svc, err := NewFrameGeneratorService(afero.NewMemMapFs(), &fakeEditor{}, "u", "o", nullLogger())
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), GenerateFrameInput{UniversityName: "MIT"})
	assert.ErrorIs(t, err, ErrInvalidUpload)

	_, err = svc.Generate(context.Background(), GenerateFrameInput{
		UniversityName: "MIT",
		Image:          []byte("plain text, not a picture"),
	})
	assert.ErrorIs(t, err, ErrInvalidUpload)
}

func TestGenerate_EditorFailure(t *testing.T) {
	editor := &fakeEditor{err: gemini.ErrNoImage}
	svc, err := NewFrameGeneratorService(afero.NewMemMapFs(), editor, "u", "o", nullLogger())
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), GenerateFrameInput{
		UniversityName: "MIT",
		Image:          jpegHeader,
		ContentType:    "image/jpeg",
	})
	assert.True(t, errors.Is(err, gemini.ErrNoImage))
}

func TestFramePrompt_WithoutMascot(t *testing.T) {
	prompt := FramePrompt("MIT", "")
	assert.Contains(t, prompt, "official colors and mascot of MIT")
	assert.NotContains(t, prompt, "The mascot is")
}
