// Package artifact stores finished videos and hands back the path or URL
// clients download them from. Local disk is the default; an S3-compatible
// bucket can mirror artifacts when configured.
package artifact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"reelforge/internal/config"
)

type uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// Store publishes finished renders. Every artifact lands on local disk so
// the download endpoint can serve it; S3 is an optional mirror.
type Store struct {
	baseDir string
	s3      uploader
}

// New builds a Store rooted at cfg.OutputDir, with S3 mirroring when
// ARTIFACT_S3_BUCKET is set.
func New(ctx context.Context, cfg config.Config) (*Store, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	st := &Store{baseDir: cfg.OutputDir}
	if cfg.ArtifactS3Bucket != "" {
		client, err := newS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		st.s3 = &s3Uploader{client: client, bucket: cfg.ArtifactS3Bucket}
	}
	return st, nil
}

func newS3Client(ctx context.Context, cfg config.Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.ArtifactS3Region),
	}
	if cfg.ArtifactS3Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:               cfg.ArtifactS3Endpoint,
					HostnameImmutable: cfg.ArtifactS3PathStyle,
					SigningRegion:     cfg.ArtifactS3Region,
					Source:            aws.EndpointSourceCustom,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ArtifactS3PathStyle
	}), nil
}

// Publish moves a rendered file under the store and returns the local path
// clients are served from. The S3 mirror is best effort only after the
// local copy succeeds.
func (s *Store) Publish(ctx context.Context, srcPath, key string) (string, error) {
	key = sanitizeKey(key)
	dst := filepath.Join(s.baseDir, key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create dirs: %w", err)
	}
	if err := moveFile(srcPath, dst); err != nil {
		return "", fmt.Errorf("store artifact: %w", err)
	}

	if s.s3 != nil {
		f, err := os.Open(dst)
		if err != nil {
			return "", fmt.Errorf("reopen artifact: %w", err)
		}
		defer f.Close()
		if _, err := s.s3.Upload(ctx, key, f, "video/mp4"); err != nil {
			return "", fmt.Errorf("mirror artifact: %w", err)
		}
	}
	return dst, nil
}

// Path resolves a previously published key to its on-disk location.
func (s *Store) Path(key string) string {
	return filepath.Join(s.baseDir, sanitizeKey(key))
}

// moveFile renames when possible and falls back to copy+remove for
// cross-device moves out of the scratch dir.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

func sanitizeKey(key string) string {
	key = filepath.Clean(key)
	key = strings.TrimPrefix(key, string(filepath.Separator))
	key = strings.TrimPrefix(key, "./")
	return key
}

type s3Uploader struct {
	client *s3.Client
	bucket string
}

func (u *s3Uploader) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read artifact: %w", err)
	}
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}
