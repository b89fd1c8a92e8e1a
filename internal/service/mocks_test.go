package service

import (
	"context"
	"sort"
	"time"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/domain"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/repository"
)

// callLog records the order of calls across mocks.
type callLog []string

func (l *callLog) add(call string) {
	if l != nil {
		*l = append(*l, call)
	}
}

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	users     map[int64]*domain.User
	nextID    int64
	createErr error
	getErr    error
	updateErr error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[int64]*domain.User), nextID: 1}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
		if u.Username == user.Username {
			return domain.ErrUsernameTaken
		}
	}
	user.ID = m.nextID
	m.nextID++
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if u, ok := m.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var result []*domain.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	for _, u := range m.users {
		if u.ID != user.ID && u.Email == user.Email {
			return domain.ErrEmailTaken
		}
		if u.ID != user.ID && u.Username == user.Username {
			return domain.ErrUsernameTaken
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.getErr != nil {
		return false, m.getErr
	}
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.getErr != nil {
		return false, m.getErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// MockPostRepository is a mock implementation of repository.PostRepository.
type MockPostRepository struct {
	posts     map[int64]*domain.Post
	nextID    int64
	createErr error
	deleteErr error
	calls     *callLog
}

func NewMockPostRepository() *MockPostRepository {
	return &MockPostRepository{posts: make(map[int64]*domain.Post), nextID: 1}
}

func (m *MockPostRepository) add(userID int64, title string, created time.Time) *domain.Post {
	p := domain.NewPost(userID, title, "content of "+title)
	p.ID = m.nextID
	p.CreatedAt = created
	m.nextID++
	m.posts[p.ID] = p
	return p
}

func (m *MockPostRepository) Create(ctx context.Context, post *domain.Post) error {
	if m.createErr != nil {
		return m.createErr
	}
	post.ID = m.nextID
	m.nextID++
	m.posts[post.ID] = post
	return nil
}

func (m *MockPostRepository) GetByID(ctx context.Context, id int64) (*domain.Post, error) {
	if p, ok := m.posts[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, domain.ErrPostNotFound
}

func (m *MockPostRepository) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := m.posts[id]
	return ok, nil
}

func (m *MockPostRepository) sorted(filter func(*domain.Post) bool) []*domain.Post {
	var result []*domain.Post
	for _, p := range m.posts {
		if filter(p) {
			clone := *p
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (m *MockPostRepository) List(ctx context.Context, opts repository.ListOptions) (*repository.ListResult[domain.Post], error) {
	all := m.sorted(func(*domain.Post) bool { return true })
	start := min(opts.Offset, len(all))
	end := min(start+opts.Limit, len(all))
	return &repository.ListResult[domain.Post]{
		Items:  all[start:end],
		Total:  int64(len(all)),
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

func (m *MockPostRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Post, error) {
	return m.sorted(func(p *domain.Post) bool { return p.UserID == userID }), nil
}

func (m *MockPostRepository) Update(ctx context.Context, post *domain.Post) error {
	if _, ok := m.posts[post.ID]; !ok {
		return domain.ErrPostNotFound
	}
	m.posts[post.ID] = post
	return nil
}

func (m *MockPostRepository) Delete(ctx context.Context, id int64) error {
	m.calls.add("posts.Delete")
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.posts[id]; !ok {
		return domain.ErrPostNotFound
	}
	delete(m.posts, id)
	return nil
}

// MockCommentRepository is a mock implementation of repository.CommentRepository.
type MockCommentRepository struct {
	comments  map[int64]*domain.Comment
	nextID    int64
	created   int
	createErr error
}

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{comments: make(map[int64]*domain.Comment), nextID: 1}
}

func (m *MockCommentRepository) add(postID, userID int64, content string) *domain.Comment {
	c := domain.NewComment(postID, userID, content)
	c.ID = m.nextID
	m.nextID++
	m.comments[c.ID] = c
	return c
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	m.created++
	if m.createErr != nil {
		return m.createErr
	}
	comment.ID = m.nextID
	m.nextID++
	m.comments[comment.ID] = comment
	return nil
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	if c, ok := m.comments[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, domain.ErrCommentNotFound
}

func (m *MockCommentRepository) ListByPost(ctx context.Context, postID int64) ([]*domain.Comment, error) {
	var result []*domain.Comment
	for _, c := range m.comments {
		if c.PostID == postID {
			clone := *c
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockCommentRepository) CountByPost(ctx context.Context, postID int64) (int64, error) {
	var n int64
	for _, c := range m.comments {
		if c.PostID == postID {
			n++
		}
	}
	return n, nil
}

func (m *MockCommentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	if _, ok := m.comments[comment.ID]; !ok {
		return domain.ErrCommentNotFound
	}
	m.comments[comment.ID] = comment
	return nil
}

func (m *MockCommentRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.comments[id]; !ok {
		return domain.ErrCommentNotFound
	}
	delete(m.comments, id)
	return nil
}

func (m *MockCommentRepository) DeleteByPost(ctx context.Context, postID int64) (int64, error) {
	var n int64
	for id, c := range m.comments {
		if c.PostID == postID {
			delete(m.comments, id)
			n++
		}
	}
	return n, nil
}

// fakeDirectory is a UserDirectory backed by a map.
type fakeDirectory struct {
	names      map[int64]string
	err        error
	getCalls   int
	batchCalls int
}

func (f *fakeDirectory) GetUser(ctx context.Context, id int64) (*domain.UserSummary, error) {
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	name, ok := f.names[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &domain.UserSummary{ID: id, Username: name}, nil
}

func (f *fakeDirectory) GetUsernames(ctx context.Context, ids []int64) (map[int64]string, error) {
	f.batchCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[int64]string)
	for _, id := range ids {
		if name, ok := f.names[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

// fakeComments is a CommentPeer with injectable failures.
type fakeComments struct {
	count     int64
	countErr  error
	deleted   int64
	deleteErr error
	calls     *callLog
}

func (f *fakeComments) Count(ctx context.Context, postID int64) (int64, error) {
	return f.count, f.countErr
}

func (f *fakeComments) DeleteAllForPost(ctx context.Context, postID int64) (int64, error) {
	f.calls.add("comments.DeleteAllForPost")
	return f.deleted, f.deleteErr
}

// fakePosts is a PostChecker.
type fakePosts struct {
	exists bool
	err    error
}

func (f fakePosts) Exists(ctx context.Context, id int64) (bool, error) {
	return f.exists, f.err
}

// countingRecorder is a Recorder that remembers what it saw.
type countingRecorder struct {
	degraded map[string]int
	cascades int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{degraded: make(map[string]int)}
}

func (r *countingRecorder) RecordDegraded(field string) { r.degraded[field]++ }
func (r *countingRecorder) RecordCascadeFailure()       { r.cascades++ }

// fakeIssuer issues predictable tokens.
type fakeIssuer struct {
	err error
}

func (f fakeIssuer) Issue(user *domain.User) (string, time.Time, error) {
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	return "token-" + user.Email, time.Unix(1700000000, 0), nil
}
