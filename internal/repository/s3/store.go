package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"chefmind/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the slice of the S3 client the store needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store writes public objects to an S3 bucket.
type Store struct {
	client        PutObjectAPI
	bucket        string
	region        string
	publicBaseURL string
}

var _ domain.ObjectStore = (*Store)(nil)

// Options configures NewStore. Endpoint targets S3-compatible services
// (MinIO, R2) and switches to path-style addressing.
type Options struct {
	Bucket        string
	Region        string
	Endpoint      string
	PublicBaseURL string
}

// NewStore loads the default AWS credential chain and builds a Store.
func NewStore(ctx context.Context, opts Options) (*Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	region := opts.Region
	if region == "" {
		region = cfg.Region
	}
	return NewStoreWithClient(client, opts.Bucket, region, opts.PublicBaseURL), nil
}

func NewStoreWithClient(client PutObjectAPI, bucket, region, publicBaseURL string) *Store {
	return &Store{
		client:        client,
		bucket:        bucket,
		region:        region,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Upload puts data at key. S3 overwrites existing keys, which gives upsert semantics.
func (s *Store) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

// PublicURL prefers the configured base URL (a CDN or custom domain) over
// the virtual-hosted bucket address.
func (s *Store) PublicURL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	if s.region == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
