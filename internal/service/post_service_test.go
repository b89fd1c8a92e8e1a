package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
)

var errPeerDown = domain.Dependency("peer unavailable", errors.New("dial tcp: connection refused"))

type postFixture struct {
	repo     *MockPostRepository
	users    *fakeDirectory
	comments *fakeComments
	recorder *countingRecorder
	svc      *PostService
}

func newPostFixture() *postFixture {
	f := &postFixture{
		repo:     NewMockPostRepository(),
		users:    &fakeDirectory{names: map[int64]string{1: "alice", 2: "bob"}},
		comments: &fakeComments{count: 3},
		recorder: newCountingRecorder(),
	}
	f.svc = NewPostService(f.repo, f.users, f.comments, f.recorder, zerolog.Nop())
	return f
}

func TestPostService_Create(t *testing.T) {
	f := newPostFixture()
	ctx := context.Background()

	post, err := f.svc.Create(ctx, CreatePostInput{UserID: 1, Title: " Hello ", Content: "World"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), post.ID)
	assert.Equal(t, "Hello", post.Title)

	tests := []struct {
		name  string
		input CreatePostInput
	}{
		{"missing title", CreatePostInput{UserID: 1, Content: "c"}},
		{"missing content", CreatePostInput{UserID: 1, Title: "t", Content: "  "}},
		{"title too long", CreatePostInput{UserID: 1, Title: strings.Repeat("t", 256), Content: "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.input)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestPostService_GetByID(t *testing.T) {
	tests := []struct {
		name     string
		author   int64
		usersErr error
		countErr error
		username string
		count    int64
		status   domain.EnrichmentStatus
		degraded map[string]int
	}{
		{
			name:     "all peers answer",
			author:   1,
			username: "alice",
			count:    3,
			status:   domain.EnrichmentComplete,
			degraded: map[string]int{},
		},
		{
			name:     "author deleted",
			author:   7,
			username: domain.UnknownUsername,
			count:    3,
			status:   domain.EnrichmentComplete,
			degraded: map[string]int{},
		},
		{
			name:     "auth unavailable",
			author:   1,
			usersErr: errPeerDown,
			username: domain.UnknownUsername,
			count:    3,
			status:   domain.EnrichmentDegraded,
			degraded: map[string]int{fieldUsername: 1},
		},
		{
			name:     "comments unavailable",
			author:   1,
			countErr: errPeerDown,
			username: "alice",
			count:    0,
			status:   domain.EnrichmentDegraded,
			degraded: map[string]int{fieldCommentCount: 1},
		},
		{
			name:     "both unavailable",
			author:   1,
			usersErr: errPeerDown,
			countErr: errPeerDown,
			username: domain.UnknownUsername,
			count:    0,
			status:   domain.EnrichmentDegraded,
			degraded: map[string]int{fieldUsername: 1, fieldCommentCount: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPostFixture()
			f.users.err = tt.usersErr
			f.comments.countErr = tt.countErr
			p := f.repo.add(tt.author, "t", time.Now())

			post, err := f.svc.GetByID(context.Background(), p.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.username, post.Username)
			require.NotNil(t, post.CommentCount)
			assert.Equal(t, tt.count, *post.CommentCount)
			assert.Equal(t, tt.status, post.Enrichment)
			assert.Equal(t, tt.degraded, f.recorder.degraded)
		})
	}
}

func TestPostService_GetByID_NotFound(t *testing.T) {
	f := newPostFixture()

	_, err := f.svc.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrPostNotFound)
	assert.Zero(t, f.users.getCalls)
}

func TestPostService_List(t *testing.T) {
	f := newPostFixture()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		f.repo.add(int64(i%3+1), "post", base.Add(time.Duration(i)*time.Minute))
	}

	out, err := f.svc.List(context.Background(), ListPostsInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Page)
	assert.Equal(t, DefaultPageSize, out.Limit)
	assert.Equal(t, int64(15), out.Total)
	require.Len(t, out.Posts, 10)
	assert.Equal(t, int64(15), out.Posts[0].ID)
	assert.Equal(t, 1, f.users.batchCalls)
	assert.Zero(t, f.users.getCalls)
	assert.Equal(t, domain.EnrichmentComplete, out.Enrichment)

	for _, p := range out.Posts {
		switch p.UserID {
		case 1:
			assert.Equal(t, "alice", p.Username)
		case 2:
			assert.Equal(t, "bob", p.Username)
		default:
			assert.Equal(t, domain.UnknownUsername, p.Username)
		}
	}

	out, err = f.svc.List(context.Background(), ListPostsInput{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, out.Posts, 5)
	assert.Equal(t, 2, f.users.batchCalls)
}

func TestPostService_List_AuthUnavailable(t *testing.T) {
	f := newPostFixture()
	f.users.err = errPeerDown
	f.repo.add(1, "a", time.Now())
	f.repo.add(2, "b", time.Now())

	out, err := f.svc.List(context.Background(), ListPostsInput{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, out.Posts, 2)
	for _, p := range out.Posts {
		assert.Equal(t, domain.UnknownUsername, p.Username)
		assert.Equal(t, domain.EnrichmentDegraded, p.Enrichment)
	}
	assert.Equal(t, domain.EnrichmentDegraded, out.Enrichment)
	assert.Equal(t, 1, f.recorder.degraded[fieldUsername])
}

func TestPostService_List_EmptyPageSkipsLookup(t *testing.T) {
	f := newPostFixture()

	out, err := f.svc.List(context.Background(), ListPostsInput{Page: 3})
	require.NoError(t, err)
	assert.Empty(t, out.Posts)
	assert.Zero(t, f.users.batchCalls)
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, 10},
		{-1, -5, 1, 10},
		{3, 20, 3, 20},
		{1, 1000, 1, MaxPageSize},
	}
	for _, tt := range tests {
		page, limit := normalizePage(tt.page, tt.limit)
		assert.Equal(t, tt.wantPage, page)
		assert.Equal(t, tt.wantLimit, limit)
	}
}

func TestPostService_ListByUser(t *testing.T) {
	f := newPostFixture()
	f.repo.add(1, "a", time.Now())
	f.repo.add(1, "b", time.Now().Add(time.Second))
	f.repo.add(2, "c", time.Now())

	posts, status, err := f.svc.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "b", posts[0].Title)
	assert.Equal(t, "alice", posts[1].Username)
	assert.Equal(t, domain.EnrichmentComplete, status)
	assert.Equal(t, 1, f.users.getCalls)
}

func TestPostService_Update(t *testing.T) {
	ctx := context.Background()
	f := newPostFixture()
	p := f.repo.add(1, "title", time.Now())

	updated, err := f.svc.Update(ctx, UpdatePostInput{ID: p.ID, UserID: 1, Content: "new content"})
	require.NoError(t, err)
	assert.Equal(t, "title", updated.Title)
	assert.Equal(t, "new content", updated.Content)

	tests := []struct {
		name  string
		input UpdatePostInput
		want  error
	}{
		{"nothing to update", UpdatePostInput{ID: p.ID, UserID: 1}, domain.ErrValidation},
		{"missing post", UpdatePostInput{ID: 99, UserID: 1, Title: "x"}, domain.ErrPostNotFound},
		{"not owner", UpdatePostInput{ID: p.ID, UserID: 2, Title: "x"}, domain.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Update(ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, "title", f.repo.posts[p.ID].Title)
}

func TestPostService_Delete_CascadesFirst(t *testing.T) {
	calls := &callLog{}
	f := newPostFixture()
	f.repo.calls = calls
	f.comments.calls = calls
	f.comments.deleted = 4
	p := f.repo.add(1, "t", time.Now())

	require.NoError(t, f.svc.Delete(context.Background(), p.ID, 1))
	assert.Equal(t, callLog{"comments.DeleteAllForPost", "posts.Delete"}, *calls)
	assert.NotContains(t, f.repo.posts, p.ID)
	assert.Zero(t, f.recorder.cascades)
}

func TestPostService_Delete_CascadeFailure(t *testing.T) {
	calls := &callLog{}
	f := newPostFixture()
	f.repo.calls = calls
	f.comments.calls = calls
	f.comments.deleteErr = errPeerDown
	p := f.repo.add(1, "t", time.Now())

	require.NoError(t, f.svc.Delete(context.Background(), p.ID, 1))
	assert.Equal(t, callLog{"comments.DeleteAllForPost", "posts.Delete"}, *calls)
	assert.NotContains(t, f.repo.posts, p.ID)
	assert.Equal(t, 1, f.recorder.cascades)
}

func TestPostService_Delete_Rejected(t *testing.T) {
	calls := &callLog{}
	f := newPostFixture()
	f.repo.calls = calls
	f.comments.calls = calls
	p := f.repo.add(1, "t", time.Now())

	assert.ErrorIs(t, f.svc.Delete(context.Background(), 99, 1), domain.ErrPostNotFound)
	assert.ErrorIs(t, f.svc.Delete(context.Background(), p.ID, 2), domain.ErrForbidden)
	assert.Empty(t, *calls)
	assert.Contains(t, f.repo.posts, p.ID)
}

func TestPostService_Delete_RowFailure(t *testing.T) {
	f := newPostFixture()
	f.repo.deleteErr = errors.New("disk full")
	p := f.repo.add(1, "t", time.Now())

	err := f.svc.Delete(context.Background(), p.ID, 1)
	assert.ErrorIs(t, err, domain.ErrInternal)
}

func TestPostService_NilRecorder(t *testing.T) {
	repo := NewMockPostRepository()
	svc := NewPostService(repo, &fakeDirectory{err: errPeerDown}, &fakeComments{countErr: errPeerDown}, nil, zerolog.Nop())
	p := repo.add(1, "t", time.Now())

	post, err := svc.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrichmentDegraded, post.Enrichment)
}
