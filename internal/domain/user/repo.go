package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var ErrNotFound = errors.New("profile not found")

type Repo struct {
	fs *firestore.Client
}

func NewRepo(fs *firestore.Client) *Repo {
	return &Repo{fs: fs}
}

func (r *Repo) Get(ctx context.Context, uid string) (*Profile, error) {
	doc, err := r.fs.Collection("users").Doc(uid).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := doc.DataTo(&p); err != nil {
		return nil, err
	}
	if p.UID == "" {
		p.UID = uid
	}
	return &p, nil
}

// RecordSignIn upserts the profile for a phone sign-in. createdAt is only
// set on the first sign-in.
func (r *Repo) RecordSignIn(ctx context.Context, uid, phoneNumber string, isNew bool) error {
	data := signInFields(uid, phoneNumber, isNew, time.Now().UTC())
	if _, err := r.fs.Collection("users").Doc(uid).Set(ctx, data, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to record sign-in: %w", err)
	}
	return nil
}

func signInFields(uid, phoneNumber string, isNew bool, now time.Time) map[string]any {
	data := map[string]any{
		"uid":          uid,
		"lastSignInAt": now,
	}
	if phoneNumber != "" {
		data["phoneNumber"] = phoneNumber
	}
	if isNew {
		data["createdAt"] = now
	}
	return data
}
