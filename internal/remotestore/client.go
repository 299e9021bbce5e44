package remotestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"dugout/internal/config"
	"dugout/internal/logging"
)

// ObjectInfo is the subset of remote metadata the pipeline records.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// ErrNotFound indicates the requested object does not exist remotely.
var ErrNotFound = errors.New("object not found")

// Client wraps a MinIO connection scoped to one bucket and key prefix.
type Client struct {
	mc     *minio.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// New connects to the object store and ensures the configured bucket exists.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.Remote.Endpoint == "" {
		return nil, errors.New("remote endpoint is not configured")
	}
	if cfg.Remote.Bucket == "" {
		return nil, errors.New("remote bucket is not configured")
	}

	mc, err := minio.New(cfg.Remote.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Remote.AccessKey, cfg.Remote.SecretKey, ""),
		Secure: cfg.Remote.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create remote client: %w", err)
	}

	client := &Client{
		mc:     mc,
		bucket: cfg.Remote.Bucket,
		prefix: strings.Trim(cfg.Remote.KeyPrefix, "/"),
		logger: logging.NewComponentLogger(logger, "remotestore"),
	}
	if err := client.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) ensureBucket(ctx context.Context) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", c.bucket, err)
	}
	if exists {
		return nil
	}
	if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", c.bucket, err)
	}
	return nil
}

func (c *Client) objectName(key string) string {
	if c.prefix == "" {
		return key
	}
	return path.Join(c.prefix, key)
}

// Upload stores a local file under key with the given content type.
func (c *Client) Upload(ctx context.Context, key, localPath, contentType string) error {
	_, err := c.mc.FPutObject(ctx, c.bucket, c.objectName(key), localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	c.logger.Debug("uploaded object", "key", key, "content_type", contentType)
	return nil
}

// Download fetches the object at key into a local file.
func (c *Client) Download(ctx context.Context, key, localPath string) error {
	err := c.mc.FGetObject(ctx, c.bucket, c.objectName(key), localPath, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return fmt.Errorf("download %s: %w", key, ErrNotFound)
		}
		return fmt.Errorf("download %s: %w", key, err)
	}
	return nil
}

// Stat reads the remote metadata for key.
func (c *Client) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	info, err := c.mc.StatObject(ctx, c.bucket, c.objectName(key), minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return ObjectInfo{}, fmt.Errorf("stat %s: %w", key, ErrNotFound)
		}
		return ObjectInfo{}, fmt.Errorf("stat %s: %w", key, err)
	}
	return ObjectInfo{Key: key, Size: info.Size, ContentType: info.ContentType}, nil
}

// UpdateContentType rewrites the object's content type in place with a
// server-side copy that replaces metadata.
func (c *Client) UpdateContentType(ctx context.Context, key, contentType string) error {
	name := c.objectName(key)
	src := minio.CopySrcOptions{Bucket: c.bucket, Object: name}
	dst := minio.CopyDestOptions{
		Bucket:          c.bucket,
		Object:          name,
		ReplaceMetadata: true,
		UserMetadata:    map[string]string{"Content-Type": contentType},
	}
	if _, err := c.mc.CopyObject(ctx, dst, src); err != nil {
		return fmt.Errorf("update content type for %s: %w", key, err)
	}
	c.logger.Info("corrected remote content type", "key", key, "content_type", contentType)
	return nil
}

// RemoveAsset deletes every object stored under an asset's prefix.
func (c *Client) RemoveAsset(ctx context.Context, assetID string) error {
	prefix := c.objectName(assetID) + "/"
	objects := c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for object := range objects {
		if object.Err != nil {
			return fmt.Errorf("list asset %s: %w", assetID, object.Err)
		}
		if err := c.mc.RemoveObject(ctx, c.bucket, object.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove %s: %w", object.Key, err)
		}
	}
	return nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == minio.NoSuchKey
}
