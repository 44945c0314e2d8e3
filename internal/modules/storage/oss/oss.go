package oss

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/mqxu/campus-api/internal/config"
)

const uploadPrefix = "uploads/"

// Uploader stores objects in an S3-compatible bucket (Aliyun OSS, MinIO,
// AWS) and returns their public URL.
type Uploader struct {
	client       *s3.Client
	bucket       string
	endpoint     string
	customDomain string
	pathStyle    bool
}

// NewUploader builds the S3 client from the OSS config section.
func NewUploader(cfg config.OSSConfig) (*Uploader, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	region := strings.TrimSpace(cfg.Region)
	if bucket == "" || region == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("incomplete oss config: bucket/region/access_key_id/secret_access_key are required")
	}

	awsCfg := aws.Config{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return &Uploader{
		client:       client,
		bucket:       bucket,
		endpoint:     endpoint,
		customDomain: strings.TrimRight(strings.TrimSpace(cfg.CustomDomain), "/"),
		pathStyle:    cfg.PathStyle,
	}, nil
}

// Upload stores the object under a random key keeping the original
// extension, and returns the object's URL.
func (u *Uploader) Upload(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error) {
	key := uploadPrefix + uuid.New().String() + strings.ToLower(path.Ext(filename))

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return u.objectURL(key), nil
}

func (u *Uploader) objectURL(key string) string {
	if u.customDomain != "" {
		return u.customDomain + "/" + key
	}
	base := strings.TrimRight(u.endpoint, "/")
	if base == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", u.bucket, key)
	}
	if u.pathStyle {
		return fmt.Sprintf("%s/%s/%s", base, u.bucket, key)
	}
	scheme, host, ok := strings.Cut(base, "://")
	if !ok {
		return fmt.Sprintf("%s/%s/%s", base, u.bucket, key)
	}
	return fmt.Sprintf("%s://%s.%s/%s", scheme, u.bucket, host, key)
}
