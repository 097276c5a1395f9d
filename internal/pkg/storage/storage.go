// Package storage keeps processed image files in a local directory or an
// S3-compatible bucket. Each Store is flat: objects are addressed by a single
// safe file name such as "<id>.jpg".
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ai-resource-hub/server/internal/config"
)

// ErrNotExist is returned by Get when the object is missing.
var ErrNotExist = errors.New("storage: object does not exist")

// ErrInvalidName is returned for names that are not a single safe segment.
var ErrInvalidName = errors.New("storage: invalid object name")

// Store is one flat namespace of image files.
type Store interface {
	Put(ctx context.Context, name string, data []byte, contentType string) error
	Get(ctx context.Context, name string) ([]byte, error)
	Exists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) error
}

// Set groups the stores used by the service.
type Set struct {
	Avatars          Store
	ResourceImages   Store
	SubmissionImages Store
}

// NewSet builds the avatar, resource image and submission image stores for
// the configured driver.
func NewSet(cfg *config.AppConfig) (*Set, error) {
	switch cfg.Storage.Driver {
	case "s3":
		client, err := NewS3Client(cfg.Storage.S3)
		if err != nil {
			return nil, err
		}
		bucket := cfg.Storage.S3.Bucket
		return &Set{
			Avatars:          NewS3Store(client, bucket, cfg.AvatarDir()),
			ResourceImages:   NewS3Store(client, bucket, cfg.ResourceImageDir()),
			SubmissionImages: NewS3Store(client, bucket, cfg.SubmissionImageDir()),
		}, nil
	case "", "local":
		avatars, err := NewLocalStore(cfg.AvatarDir())
		if err != nil {
			return nil, err
		}
		resources, err := NewLocalStore(cfg.ResourceImageDir())
		if err != nil {
			return nil, err
		}
		submissions, err := NewLocalStore(cfg.SubmissionImageDir())
		if err != nil {
			return nil, err
		}
		return &Set{Avatars: avatars, ResourceImages: resources, SubmissionImages: submissions}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// ObjectName is the file name of an entity's image.
func ObjectName(id, ext string) string {
	return id + "." + ext
}

// Copy duplicates an object from one store into another. Two S3 stores on
// the same bucket copy server side.
func Copy(ctx context.Context, src Store, srcName string, dst Store, dstName, contentType string) error {
	if s, ok := src.(*S3Store); ok {
		if d, ok := dst.(*S3Store); ok && s.client == d.client && s.bucket == d.bucket {
			return d.copyFrom(ctx, s, srcName, dstName, contentType)
		}
	}
	data, err := src.Get(ctx, srcName)
	if err != nil {
		return err
	}
	return dst.Put(ctx, dstName, data, contentType)
}

// safeName returns name when it is a single segment of alphanumerics,
// hyphens, underscores or dots.
func safeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) {
		return "", ErrInvalidName
	}
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			continue
		}
		return "", ErrInvalidName
	}
	return name, nil
}
