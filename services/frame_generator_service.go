package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/YHTerrance/UniFrames/services/gemini"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// ImageEditor turns a prompt and a photo into a new image. *gemini.Client
// satisfies it.
type ImageEditor interface {
	EditImage(ctx context.Context, prompt, mimeType string, image []byte) (*gemini.Image, error)
}

// GenerateFrameInput is an uploaded photo to frame
type GenerateFrameInput struct {
	UniversityName   string
	UniversityMascot string
	Image            []byte
	ContentType      string
}

// GenerateFrameResult points at the stored upload and result
type GenerateFrameResult struct {
	UniversityName   string `json:"university_name"`
	UniversityMascot string `json:"university_mascot"`
	ImagePath        string `json:"image_path"`
	ResultPath       string `json:"result_path"`
	ImageBase64      string `json:"image_base64"` // data URL
}

// FrameGeneratorService stores uploads, asks the image model for a framed
// version and stores the result
type FrameGeneratorService struct {
	fs        afero.Fs
	editor    ImageEditor
	uploadDir string
	outputDir string
	log       *logrus.Logger
}

// NewFrameGeneratorService creates the generator and its directories
func NewFrameGeneratorService(fs afero.Fs, editor ImageEditor, uploadDir, outputDir string, log *logrus.Logger) (*FrameGeneratorService, error) {
	for _, dir := range []string{uploadDir, outputDir} {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	return &FrameGeneratorService{
		fs:        fs,
		editor:    editor,
		uploadDir: uploadDir,
		outputDir: outputDir,
		log:       log,
	}, nil
}

// FramePrompt builds the image-editing instruction for a university
func FramePrompt(universityName, universityMascot string) string {
	var b strings.Builder
	b.WriteString("Create a circular banner frame around the face in this photo to make it suitable as a social media profile picture.\n")
	fmt.Fprintf(&b, "Use the official colors and mascot of %s in the design.\n", universityName)
	if universityMascot != "" {
		fmt.Fprintf(&b, "The mascot is %s.\n", universityMascot)
	}
	b.WriteString("Ensure the frame highlights the school spirit but does not obstruct or crop the face.\n")
	b.WriteString("The final frame should look professional, centered, and optimized so nothing important is cut off when uploaded as a profile photo.\n")
	b.WriteString("Make sure the frame is circular and the university name and mascot are visible.")
	return b.String()
}

// Generate frames an uploaded photo
func (s *FrameGeneratorService) Generate(ctx context.Context, in GenerateFrameInput) (*GenerateFrameResult, error) {
	if len(in.Image) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidUpload)
	}

	contentType := in.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(in.Image)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: content type %q", ErrInvalidUpload, contentType)
	}

	imagePath, err := s.save(s.uploadDir, contentType, in.Image)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	img, err := s.editor.EditImage(ctx, FramePrompt(in.UniversityName, in.UniversityMascot), contentType, in.Image)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"university": in.UniversityName,
			"upload":     imagePath,
		}).Error("frame generation failed")
		return nil, fmt.Errorf("failed to generate frame: %w", err)
	}

	resultPath, err := s.save(s.outputDir, img.MimeType, img.Data)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"university": in.UniversityName,
		"result":     resultPath,
		"bytes":      len(img.Data),
		"duration":   time.Since(started).String(),
	}).Info("frame generated")

	return &GenerateFrameResult{
		UniversityName:   in.UniversityName,
		UniversityMascot: in.UniversityMascot,
		ImagePath:        imagePath,
		ResultPath:       resultPath,
		ImageBase64:      "data:" + img.MimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Data),
	}, nil
}

func (s *FrameGeneratorService) save(dir, mimeType string, data []byte) (string, error) {
	path := filepath.Join(dir, uuid.NewString()+extensionFor(mimeType))
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func extensionFor(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
