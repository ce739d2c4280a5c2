// Package objectstore reads university folders from an S3-compatible bucket
// (Cloudflare R2 in production).
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/YHTerrance/UniFrames/config"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// ErrUnavailable wraps every failed call to the bucket
var ErrUnavailable = errors.New("object storage unavailable")

// Client handles bucket listing and URL generation
type Client struct {
	s3Client     s3iface.S3API
	bucket       string
	publicDomain string
}

// Config holds configuration for the bucket client
type Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	PublicDomain    string
}

// ConfigFromStorage adapts the application storage settings
func ConfigFromStorage(s config.StorageConfig) Config {
	return Config{
		Endpoint:        s.Endpoint,
		AccessKeyID:     s.AccessKeyID,
		SecretAccessKey: s.SecretAccessKey,
		Bucket:          s.Bucket,
		Region:          s.Region,
		PublicDomain:    s.PublicDomain,
	}
}

// NewClient creates a new bucket client
func NewClient(cfg Config) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if cfg.Region == "" {
		cfg.Region = "auto"
	}

	// R2 account endpoints are addressed path-style
	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
		Endpoint:         aws.String(cfg.Endpoint),
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}

	return &Client{
		s3Client:     s3.New(sess),
		bucket:       cfg.Bucket,
		publicDomain: strings.TrimRight(cfg.PublicDomain, "/"),
	}, nil
}

// ListTopLevelFolders returns the first-level prefixes of the bucket without
// their trailing slash, e.g. "Harvard University".
func (c *Client) ListTopLevelFolders(ctx context.Context) ([]string, error) {
	var folders []string
	err := c.s3Client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(c.bucket),
		Delimiter: aws.String("/"),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, p := range page.CommonPrefixes {
			if name := strings.TrimSuffix(aws.StringValue(p.Prefix), "/"); name != "" {
				folders = append(folders, name)
			}
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list folders: %w", ErrUnavailable, err)
	}
	return folders, nil
}

// WalkKeys calls fn for every object key under prefix, following
// continuation tokens. Directory placeholder keys ending in "/" are skipped.
// Returning false from fn stops the walk.
func (c *Client) WalkKeys(ctx context.Context, prefix string, fn func(key string) bool) error {
	err := c.s3Client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			if !fn(key) {
				return false
			}
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("%w: list %q: %w", ErrUnavailable, prefix, err)
	}
	return nil
}

// ListKeys returns every object key under prefix
func (c *Client) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := c.WalkKeys(ctx, prefix, func(key string) bool {
		keys = append(keys, key)
		return true
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// KeyExists checks if an object exists. A 404 is a definite "no"; any other
// failure is returned as ErrUnavailable.
func (c *Client) KeyExists(ctx context.Context, key string) (bool, error) {
	_, err := c.s3Client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return false, nil
	}
	var aerr awserr.Error
	if errors.As(err, &aerr) && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound") {
		return false, nil
	}
	return false, fmt.Errorf("%w: head %q: %w", ErrUnavailable, key, err)
}

// PublicURLForKey returns the public URL of an object
func (c *Client) PublicURLForKey(key string) string {
	return c.publicDomain + "/" + EscapeKey(key)
}

// PresignedURL generates a presigned GET URL for temporary access
func (c *Client) PresignedURL(key string, expiration time.Duration) (string, error) {
	req, _ := c.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to presign URL: %w", err)
	}
	return url, nil
}

// EscapeKey percent-encodes an object key for use in a URL path. Letters,
// digits and "/@._-~" are kept as they are.
func EscapeKey(key string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		ch := key[i]
		if isSafeKeyByte(ch) {
			b.WriteByte(ch)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[ch>>4])
		b.WriteByte(hex[ch&0x0F])
	}
	return b.String()
}

func isSafeKeyByte(ch byte) bool {
	switch {
	case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z', '0' <= ch && ch <= '9':
		return true
	}
	return strings.IndexByte("/@._-~", ch) >= 0
}
