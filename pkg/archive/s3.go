package archive

import (
	"PanicButton/pkg/s3"
	"context"
	"strings"
)

type s3Store struct {
	client s3.ItfS3
	prefix string
}

// NewS3 stores archives under prefix in the configured bucket. Expiry is
// left to the bucket lifecycle policy, so it does not implement Sweeper.
func NewS3(client s3.ItfS3, prefix string) Store {
	return &s3Store{client: client, prefix: strings.Trim(prefix, "/")}
}

func (s *s3Store) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *s3Store) Put(ctx context.Context, name string, data []byte) (Object, error) {
	if !ValidName(name) {
		return Object{}, ErrInvalidName
	}

	location, err := s.client.UploadBytes(ctx, s.key(name), "application/zip", data)
	if err != nil {
		return Object{}, err
	}

	return Object{Name: name, Location: location, Size: len(data)}, nil
}

func (s *s3Store) DownloadURL(ctx context.Context, name string) (string, error) {
	if !ValidName(name) {
		return "", ErrInvalidName
	}
	return s.client.PresignUrl(ctx, s.key(name))
}

func (s *s3Store) Delete(ctx context.Context, name string) error {
	if !ValidName(name) {
		return ErrInvalidName
	}
	return s.client.DeleteFile(ctx, s.key(name))
}
