// Package storage persists generated approval letters and hands back an
// opaque location for them.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type LetterStore interface {
	Put(ctx context.Context, key string, body []byte) (string, error)
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type s3Store struct {
	client objectPutter
	bucket string
}

// NewS3 stores letters in bucket using the default AWS credential chain.
func NewS3(ctx context.Context, region, bucket string) (LetterStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &s3Store{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

func contentType(key string) string {
	ct := mime.TypeByExtension(path.Ext(key))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return ct
}

func (s *s3Store) Put(ctx context.Context, key string, body []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType(key)),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}

type localStore struct {
	dir string
}

// NewLocal writes letters below dir.
func NewLocal(dir string) LetterStore {
	return &localStore{dir: dir}
}

func (s *localStore) Put(_ context.Context, key string, body []byte) (string, error) {
	target := filepath.Join(s.dir, filepath.FromSlash(path.Clean("/" + key)))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create letter directory: %w", err)
	}
	if err := os.WriteFile(target, body, 0o644); err != nil {
		return "", fmt.Errorf("write letter: %w", err)
	}
	return target, nil
}
