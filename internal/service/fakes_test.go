package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/form"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// Hand-written in-memory fakes of the repository interfaces. They store
// copies so a test can't accidentally mutate "database" state through a
// returned pointer, and they emulate the database's foreign-key checks.

type fakeStore struct {
	users    map[string]*model.User
	snippets map[string]*model.Snippet
	comments map[string]*model.Comment
	order    []string // snippet IDs in creation order
	nextID   int

	// set to simulate a database failure
	failWith error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]*model.User),
		snippets: make(map[string]*model.Snippet),
		comments: make(map[string]*model.Comment),
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) snippetRepo() *fakeSnippetRepo { return &fakeSnippetRepo{f} }
func (f *fakeStore) commentRepo() *fakeCommentRepo { return &fakeCommentRepo{f} }
func (f *fakeStore) userRepo() *fakeUserRepo       { return &fakeUserRepo{f} }

type fakeSnippetRepo struct{ *fakeStore }

func (f *fakeSnippetRepo) Create(_ context.Context, s *model.Snippet) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.users[s.CreatedBy]; !ok {
		return apperror.NotFound("user", s.CreatedBy)
	}
	s.ID = f.id("snippet")
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt
	stored := *s
	f.snippets[s.ID] = &stored
	f.order = append(f.order, s.ID)
	return nil
}

func (f *fakeSnippetRepo) GetByID(_ context.Context, id string) (*model.Snippet, error) {
	s, ok := f.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	out := *s
	out.CreatedByUsername = f.users[s.CreatedBy].Username
	return &out, nil
}

func (f *fakeSnippetRepo) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]model.Snippet, 0, len(f.order))
	for _, id := range f.order {
		if s, err := f.GetByID(ctx, id); err == nil {
			out = append(out, *s)
		}
	}
	if opts.Offset >= len(out) {
		return []model.Snippet{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (f *fakeSnippetRepo) Update(_ context.Context, s *model.Snippet) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.snippets[s.ID]; !ok {
		return apperror.NotFound("snippet", s.ID)
	}
	s.UpdatedAt = time.Now().UTC()
	stored := *s
	f.snippets[s.ID] = &stored
	return nil
}

func (f *fakeSnippetRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.snippets[id]; !ok {
		return apperror.NotFound("snippet", id)
	}
	delete(f.snippets, id)
	for cid, c := range f.comments {
		if c.CommentedTo == id {
			delete(f.comments, cid)
		}
	}
	return nil
}

type fakeCommentRepo struct{ *fakeStore }

func (f *fakeCommentRepo) Create(_ context.Context, c *model.Comment) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.snippets[c.CommentedTo]; !ok {
		return apperror.NotFound("snippet", c.CommentedTo)
	}
	c.ID = f.id("comment")
	c.CommentedAt = time.Now().UTC()
	stored := *c
	f.comments[c.ID] = &stored
	return nil
}

func (f *fakeCommentRepo) ListBySnippet(_ context.Context, snippetID string) ([]model.Comment, error) {
	out := make([]model.Comment, 0)
	for _, c := range f.comments {
		if c.CommentedTo == snippetID {
			cc := *c
			cc.CommentedByUsername = f.users[c.CommentedBy].Username
			out = append(out, cc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CommentedAt.Before(out[j].CommentedAt) })
	return out, nil
}

func (f *fakeCommentRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.comments[id]; !ok {
		return apperror.NotFound("comment", id)
	}
	delete(f.comments, id)
	return nil
}

type fakeUserRepo struct{ *fakeStore }

func (f *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return apperror.Conflict("user", u.Username)
		}
	}
	u.ID = f.id("user")
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	stored := *u
	f.users[u.ID] = &stored
	return nil
}

func (f *fakeUserRepo) UpsertGitHub(ctx context.Context, u *model.User) error {
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.users {
		if existing.GitHubID == u.GitHubID {
			for _, other := range f.users {
				if other.ID != existing.ID && other.Username == u.Username {
					return apperror.Conflict("user", u.Username)
				}
			}
			existing.Username = u.Username
			existing.Email = u.Email
			*u = *existing
			return nil
		}
	}
	return f.Create(ctx, u)
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	out := *u
	return &out, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeUserRepo) List(context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// Delete emulates ON DELETE CASCADE on snippets and comments.
func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.users, id)
	for sid, s := range f.snippets {
		if s.CreatedBy == id {
			delete(f.snippets, sid)
		}
	}
	for cid, c := range f.comments {
		if _, alive := f.snippets[c.CommentedTo]; !alive || c.CommentedBy == id {
			delete(f.comments, cid)
		}
	}
	return nil
}

// =========================================================================
// SHARED HELPERS
// =========================================================================

type countingRecorder struct {
	snippetsCreated int
	snippetsUpdated int
	commentsCreated int
	logins          map[string]int // "method/result" → count
}

func (r *countingRecorder) SnippetCreated() { r.snippetsCreated++ }
func (r *countingRecorder) SnippetUpdated() { r.snippetsUpdated++ }
func (r *countingRecorder) CommentCreated() { r.commentsCreated++ }
func (r *countingRecorder) Login(method, result string) {
	if r.logins == nil {
		r.logins = make(map[string]int)
	}
	r.logins[method+"/"+result]++
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestValidator uses English messages so assertions read naturally.
func newTestValidator(t *testing.T) *form.Validator {
	t.Helper()
	v, err := form.NewValidator("en")
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	return v
}

// seedUser inserts a user straight into the fake store.
func seedUser(t *testing.T, store *fakeStore, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username}
	if err := store.userRepo().Create(context.Background(), u); err != nil {
		t.Fatalf("seedUser: %v", err)
	}
	return u
}
