// Package s3 implements the coordinator's ObjectStore on AWS S3.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client uploads and deletes applicant documents in a single bucket.
type Client struct {
	api        *s3.Client
	presign    *s3.PresignClient
	bucket     string
	region     string
	publicBase string
}

// Options configure the S3 client beyond the AWS defaults.
type Options struct {
	Region string
	Bucket string
	// Endpoint overrides the AWS endpoint, e.g. http://localstack:4566.
	Endpoint string
	// PublicBase, when set, is the base URL documents are served from
	// (a CDN or a path-style dev endpoint). Defaults to the bucket's
	// virtual-hosted S3 URL.
	PublicBase string
}

// New loads the default AWS config and builds the bucket client.
func New(ctx context.Context, opts Options) (*Client, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	api := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Client{
		api:        api,
		presign:    s3.NewPresignClient(api),
		bucket:     opts.Bucket,
		region:     opts.Region,
		publicBase: strings.TrimSuffix(opts.PublicBase, "/"),
	}, nil
}

// Put stores one object and returns its public URL.
func (c *Client) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return c.url(key), nil
}

// Delete removes one object; used for orphan cleanup when a sibling upload fails.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// PresignPut issues a time-limited URL a client can PUT one object to
// directly, bypassing this service for the upload bytes.
func (c *Client) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	req, err := c.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(o *s3.PresignOptions) { o.Expires = ttl })
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}
	return req.URL, nil
}

func (c *Client) url(key string) string {
	if c.publicBase != "" {
		return c.publicBase + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, c.region, key)
}
