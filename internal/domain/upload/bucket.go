package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	credentialspb "cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
	fbstorage "firebase.google.com/go/v4/storage"
)

// GCSBucket writes objects through the storage client and signs upload URLs
// with the IAM Credentials API, so no private key has to be on disk.
type GCSBucket struct {
	name        string
	handle      *storage.BucketHandle
	signerEmail string
	iam         *credentials.IamCredentialsClient
}

// NewGCSBucket resolves name (or the app's default bucket when empty). The
// IAM client is only created when signerEmail is set; without it signed
// URLs report ErrNotConfigured and direct uploads still work.
func NewGCSBucket(ctx context.Context, st *fbstorage.Client, name, signerEmail string) (*GCSBucket, error) {
	h, err := st.Bucket(name)
	if err != nil {
		return nil, fmt.Errorf("storage bucket: %w", err)
	}
	b := &GCSBucket{name: name, handle: h, signerEmail: signerEmail}
	if signerEmail != "" {
		b.iam, err = credentials.NewIamCredentialsClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("iam credentials client: %w", err)
		}
	}
	return b, nil
}

func (b *GCSBucket) Name() string { return b.name }

// Put streams r into object. More than maxBytes aborts the write before it
// is committed and returns ErrTooLarge.
func (b *GCSBucket) Put(ctx context.Context, object, contentType string, r io.Reader, maxBytes int64) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := b.handle.Object(object).NewWriter(ctx)
	w.ContentType = contentType

	n, err := io.Copy(w, io.LimitReader(r, maxBytes+1))
	if err == nil && n > maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		// cancelling before Close discards the partial object
		cancel()
		_ = w.Close()
		return n, err
	}
	if err := w.Close(); err != nil {
		return n, fmt.Errorf("failed to write object: %w", err)
	}
	return n, nil
}

func (b *GCSBucket) Delete(ctx context.Context, object string) error {
	err := b.handle.Object(object).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (b *GCSBucket) SignedPutURL(ctx context.Context, object, contentType string, expires time.Time) (string, error) {
	if b.signerEmail == "" || b.iam == nil {
		return "", fmt.Errorf("%w: SIGNED_URL_SERVICE_ACCOUNT_EMAIL is not set", ErrNotConfigured)
	}

	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "PUT",
		Expires:        expires,
		ContentType:    contentType,
		GoogleAccessID: b.signerEmail,
		SignBytes: func(p []byte) ([]byte, error) {
			resp, err := b.iam.SignBlob(ctx, &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", b.signerEmail),
				Payload: p,
			})
			if err != nil {
				return nil, err
			}
			return resp.SignedBlob, nil
		},
	}

	url, err := b.handle.SignedURL(object, opts)
	if err != nil {
		return "", fmt.Errorf("failed to sign url (check service account + permissions): %w", err)
	}
	return url, nil
}

func (b *GCSBucket) Close() error {
	if b == nil || b.iam == nil {
		return nil
	}
	return b.iam.Close()
}
