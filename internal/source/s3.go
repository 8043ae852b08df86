package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the connection parameters for s3:// inputs. Credentials
// come from the default AWS chain.
type S3Config struct {
	Region    string
	Endpoint  string // optional, e.g. a MinIO URL
	PathStyle bool
}

// ParseS3URL splits s3://bucket/key into its bucket and key.
func ParseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse s3 url: %w", err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("parse s3 url: unexpected scheme %q", u.Scheme)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("parse s3 url: %q needs both bucket and key", raw)
	}
	return bucket, key, nil
}

// OpenS3 streams the object named by rawURL.
func OpenS3(ctx context.Context, rawURL string, cfg S3Config) (*Stream, error) {
	bucket, key, err := ParseS3URL(rawURL)
	if err != nil {
		return nil, err
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3 object %s: %w", rawURL, err)
	}

	s, err := newStream(out.Body, out.Body, defaultBufferSize)
	if err != nil {
		out.Body.Close()
		return nil, err
	}
	return s, nil
}
