package upload

import (
	"context"

	"client-upload/backend/internal/firebase"
)

// FunctionNotifier tells a callable function that an upload landed.
type FunctionNotifier struct {
	fn     *firebase.Functions
	name   string
	bucket string
}

func NewFunctionNotifier(fn *firebase.Functions, name, bucket string) *FunctionNotifier {
	return &FunctionNotifier{fn: fn, name: name, bucket: bucket}
}

func (n *FunctionNotifier) Notify(ctx context.Context, idToken string, u Upload) error {
	return n.fn.Call(ctx, idToken, n.name, map[string]any{
		"uploadId":    u.ID,
		"bucket":      n.bucket,
		"objectPath":  u.ObjectPath,
		"fileName":    u.FileName,
		"contentType": u.ContentType,
		"size":        u.Size,
	}, nil)
}
