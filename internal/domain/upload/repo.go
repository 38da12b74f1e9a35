package upload

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

const collection = "clientUploads"

type Repo struct {
	fs *firestore.Client
}

func NewRepo(fs *firestore.Client) *Repo {
	return &Repo{fs: fs}
}

func (r *Repo) Create(ctx context.Context, u Upload) error {
	if _, err := r.fs.Collection(collection).Doc(u.ID).Set(ctx, u); err != nil {
		return fmt.Errorf("failed to record upload: %w", err)
	}
	return nil
}

// ListByOwner needs the composite index (ownerUid ASC, createdAt DESC).
func (r *Repo) ListByOwner(ctx context.Context, uid string, limit int) ([]Upload, error) {
	iter := r.fs.Collection(collection).
		Where("ownerUid", "==", uid).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	out := make([]Upload, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list uploads: %w", err)
		}
		var u Upload
		if err := doc.DataTo(&u); err != nil {
			return nil, fmt.Errorf("failed to parse upload: %w", err)
		}
		u.ID = doc.Ref.ID
		out = append(out, u)
	}
	return out, nil
}
