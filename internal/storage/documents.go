// Package storage wraps the Supabase object-storage client for
// verification documents: uploads into the documents bucket and
// time-boxed signed preview URLs, with the URLs cached in Redis for the
// bulk of their validity window so repeated previews of the same
// document reuse one signed link.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	storage_go "github.com/supabase-community/storage-go"
)

// SignedURLExpiry is how long a preview link stays valid, in seconds.
const SignedURLExpiry = 60

// Cached URLs expire before the link itself does, so a cache hit can
// never hand out a dead URL.
const urlCacheTTL = 50 * time.Second

type Documents struct {
	client *storage_go.Client
	rdb    *redis.Client
	bucket string
}

func NewDocuments(client *storage_go.Client, rdb *redis.Client, bucket string) *Documents {
	return &Documents{client: client, rdb: rdb, bucket: bucket}
}

// Upload stores a document blob under the given object path.
func (d *Documents) Upload(path, contentType string, data io.Reader) error {
	_, err := d.client.UploadFile(d.bucket, path, data, storage_go.FileOptions{
		ContentType: &contentType,
	})
	return err
}

// SignedURL returns a preview URL for the document, valid for
// SignedURLExpiry seconds. Within the cache TTL repeated calls for the
// same document return the cached URL without another storage
// round-trip. Cache failures fall through to a fresh signed URL.
func (d *Documents) SignedURL(ctx context.Context, docID, filePath string) (string, error) {
	cacheKey := "signedurl:doc:" + docID

	var cached string
	if found, err := d.getCached(ctx, cacheKey, &cached); err == nil && found {
		return cached, nil
	}

	resp, err := d.client.CreateSignedUrl(d.bucket, filePath, SignedURLExpiry)
	if err != nil {
		return "", err
	}

	_ = d.rdb.Set(ctx, cacheKey, resp.SignedURL, urlCacheTTL).Err()
	return resp.SignedURL, nil
}

func (d *Documents) getCached(ctx context.Context, key string, dest *string) (bool, error) {
	val, err := d.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	} else if err != nil {
		return false, err
	}
	*dest = val
	return true, nil
}
