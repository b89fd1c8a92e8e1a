package service

import (
	"context"
	"time"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
)

// TokenIssuer signs identity tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *domain.User) (string, time.Time, error)
}

// UserDirectory resolves author names through the auth service.
type UserDirectory interface {
	// GetUser returns domain.ErrUserNotFound for an unknown id and a
	// dependency error when the auth service cannot answer.
	GetUser(ctx context.Context, id int64) (*domain.UserSummary, error)

	// GetUsernames resolves many ids in one call. Unknown ids are absent.
	GetUsernames(ctx context.Context, ids []int64) (map[int64]string, error)
}

// CommentPeer is what the posts service needs from the comments service.
type CommentPeer interface {
	Count(ctx context.Context, postID int64) (int64, error)
	DeleteAllForPost(ctx context.Context, postID int64) (int64, error)
}

// PostChecker is what the comments service needs from the posts service.
type PostChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Recorder counts reads served with placeholder values and failed
// comment cascades. *metrics.Collector implements it.
type Recorder interface {
	RecordDegraded(field string)
	RecordCascadeFailure()
}

type nopRecorder struct{}

func (nopRecorder) RecordDegraded(string) {}
func (nopRecorder) RecordCascadeFailure() {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
