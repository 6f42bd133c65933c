package store

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

// BucketBlobs adapts a Cloud Storage bucket to the Blobs interface. Uploads
// carry a Firebase download token so the returned URL works from the public
// iframe pages without signed URLs.
type BucketBlobs struct {
	bucket *storage.BucketHandle
	name   string
}

func NewBucketBlobs(bucket *storage.BucketHandle, name string) *BucketBlobs {
	return &BucketBlobs{bucket: bucket, name: name}
}

func (b *BucketBlobs) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	iter := b.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

func (b *BucketBlobs) Delete(ctx context.Context, name string) error {
	err := b.bucket.Object(name).Delete(ctx)
	if err == storage.ErrObjectNotExist {
		return nil
	}
	return err
}

func (b *BucketBlobs) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	token := uuid.NewString()
	w := b.bucket.Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{"firebaseStorageDownloadTokens": token}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		b.name, url.PathEscape(name), token), nil
}
