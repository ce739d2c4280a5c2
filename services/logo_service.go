package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// LogoResult is the logo of a resolved university
type LogoResult struct {
	Name       string `json:"name"`
	WebsiteURL string `json:"website_url"`
	LogoURL    string `json:"logo_url"`
}

// LogoService looks up university logos
type LogoService struct {
	store    FrameStore
	resolver *UniversityResolver
	objects  ObjectStore
	expiry   time.Duration
	log      *logrus.Logger
}

// NewLogoService creates a logo service. Presigned URLs live for expiry (60s when zero).
func NewLogoService(store FrameStore, resolver *UniversityResolver, objects ObjectStore, expiry time.Duration, log *logrus.Logger) *LogoService {
	if expiry <= 0 {
		expiry = time.Minute
	}
	return &LogoService{
		store:    store,
		resolver: resolver,
		objects:  objects,
		expiry:   expiry,
		log:      log,
	}
}

// LogoForName resolves name and returns a presigned URL for the stored logo
// key, falling back to the stored absolute logo URL.
func (s *LogoService) LogoForName(ctx context.Context, name string) (*LogoResult, error) {
	id, found, err := s.resolver.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUniversityNotFound
	}

	university, err := s.store.GetUniversity(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &LogoResult{Name: university.Name, WebsiteURL: university.WebsiteURL}

	if university.LogoKey != "" {
		url, err := s.objects.PresignedURL(university.LogoKey, s.expiry)
		if err == nil {
			result.LogoURL = url
			return result, nil
		}
		if university.LogoURL == "" {
			return nil, fmt.Errorf("%w: presign %q: %w", ErrLogoUnavailable, university.LogoKey, err)
		}
		s.log.WithError(err).WithField("university_id", id).Warn("logo presign failed, using stored logo url")
	}

	if university.LogoURL == "" {
		return nil, ErrLogoUnavailable
	}
	result.LogoURL = university.LogoURL
	return result, nil
}
