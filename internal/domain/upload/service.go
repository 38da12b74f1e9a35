package upload

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Recorder interface {
	Create(ctx context.Context, u Upload) error
	ListByOwner(ctx context.Context, uid string, limit int) ([]Upload, error)
}

type Bucket interface {
	Put(ctx context.Context, object, contentType string, r io.Reader, maxBytes int64) (int64, error)
	SignedPutURL(ctx context.Context, object, contentType string, expires time.Time) (string, error)
	Delete(ctx context.Context, object string) error
}

type Notifier interface {
	Notify(ctx context.Context, idToken string, u Upload) error
}

type Service struct {
	repo     Recorder
	bucket   Bucket
	notifier Notifier
	maxBytes int64
	log      *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewService wires the upload flow. notifier may be nil.
func NewService(repo Recorder, bucket Bucket, notifier Notifier, maxBytes int64, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		bucket:   bucket,
		notifier: notifier,
		maxBytes: maxBytes,
		log:      log.Named("upload"),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

func (s *Service) MaxBytes() int64 { return s.maxBytes }

// CreateSignedURL records a pending upload and returns a URL the browser can
// PUT the file to directly.
func (s *Service) CreateSignedURL(ctx context.Context, uid string, in SignedURLInput) (*SignedURL, error) {
	if uid == "" {
		return nil, ErrUnauthorized
	}
	in.Trim()
	if in.FileName == "" {
		return nil, fmt.Errorf("%w: fileName is required", ErrBadRequest)
	}
	if in.ContentType == "" {
		in.ContentType = DefaultContentType
	}
	if in.ExpiresSeconds <= 0 || in.ExpiresSeconds > MaxExpiresSeconds {
		in.ExpiresSeconds = DefaultExpiresSeconds
	}

	now := s.now()
	u := s.newUpload(uid, in.FileName, in.ContentType, now)
	exp := now.Add(time.Duration(in.ExpiresSeconds) * time.Second)

	url, err := s.bucket.SignedPutURL(ctx, u.ObjectPath, u.ContentType, exp)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.log.Info("signed upload url issued",
		zap.String("uid", uid),
		zap.String("uploadId", u.ID),
		zap.String("objectPath", u.ObjectPath))

	return &SignedURL{
		UploadID:   u.ID,
		ObjectPath: u.ObjectPath,
		URL:        url,
		Method:     "PUT",
		ExpiresAt:  exp.Unix(),
	}, nil
}

// Store streams r into the bucket and records it. idToken is forwarded to
// the notify function so it runs as the uploading user.
func (s *Service) Store(ctx context.Context, uid, idToken string, in StoreInput, r io.Reader) (*Upload, error) {
	if uid == "" {
		return nil, ErrUnauthorized
	}
	if r == nil {
		return nil, fmt.Errorf("%w: file is required", ErrBadRequest)
	}
	if in.ContentType == "" {
		in.ContentType = DefaultContentType
	}

	u := s.newUpload(uid, in.FileName, in.ContentType, s.now())
	n, err := s.bucket.Put(ctx, u.ObjectPath, u.ContentType, r, s.maxBytes)
	if err != nil {
		if IsErrTooLarge(err) {
			return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, s.maxBytes)
		}
		return nil, err
	}
	u.Size = n
	u.Status = StatusStored

	if err := s.repo.Create(ctx, u); err != nil {
		// no record means List never shows it, so drop the object too
		if derr := s.bucket.Delete(ctx, u.ObjectPath); derr != nil {
			s.log.Error("orphaned upload object",
				zap.String("objectPath", u.ObjectPath),
				zap.Error(derr))
		}
		return nil, err
	}

	s.log.Info("upload stored",
		zap.String("uid", uid),
		zap.String("uploadId", u.ID),
		zap.Int64("size", n))

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, idToken, u); err != nil {
			s.log.Warn("upload notify failed", zap.String("uploadId", u.ID), zap.Error(err))
		}
	}
	return &u, nil
}

func (s *Service) List(ctx context.Context, uid string, limit int) ([]Upload, error) {
	if uid == "" {
		return nil, ErrUnauthorized
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.repo.ListByOwner(ctx, uid, limit)
}

func (s *Service) newUpload(uid, fileName, contentType string, now time.Time) Upload {
	id := s.newID()
	name := SafeFileName(fileName)
	return Upload{
		ID:          id,
		OwnerUID:    uid,
		ObjectPath:  ObjectPath(uid, id, name),
		FileName:    name,
		ContentType: contentType,
		Status:      StatusPending,
		CreatedAt:   now,
	}
}
