package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/form"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

// newTestService creates a SnippetService over an in-memory fake store.
// This is the dependency injection in action: a fake instead of SQLite.
func newTestService(t *testing.T) (*SnippetService, *fakeStore, *countingRecorder) {
	t.Helper()
	store := newFakeStore()
	rec := &countingRecorder{}
	svc := NewSnippetService(store.snippetRepo(), store.commentRepo(), newTestValidator(t), rec, newTestLogger())
	return svc, store, rec
}

func createSnippet(t *testing.T, svc *SnippetService, owner *model.User, title string) *model.Snippet {
	t.Helper()
	s, err := svc.Create(context.Background(), owner.ID, form.SnippetForm{Title: title, Code: "code", Description: "desc"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return s
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreate_Success(t *testing.T) {
	svc, store, rec := newTestService(t)
	owner := seedUser(t, store, "test_user1")

	snippet, err := svc.Create(context.Background(), owner.ID, form.SnippetForm{
		Title:       "タイトル",
		Code:        "コード",
		Description: "解説",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if snippet.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if snippet.CreatedBy != owner.ID {
		t.Errorf("CreatedBy = %q, want %q", snippet.CreatedBy, owner.ID)
	}
	if len(store.snippets) != 1 {
		t.Fatalf("store has %d snippets, want exactly 1", len(store.snippets))
	}
	stored := store.snippets[snippet.ID]
	if stored.Title != "タイトル" || stored.Code != "コード" || stored.Description != "解説" {
		t.Errorf("stored = %+v, want タイトル/コード/解説", stored)
	}
	if rec.snippetsCreated != 1 {
		t.Errorf("SnippetCreated recorded %d times, want 1", rec.snippetsCreated)
	}
}

func TestCreate_RequiresOwner(t *testing.T) {
	svc, store, _ := newTestService(t)

	_, err := svc.Create(context.Background(), "", form.SnippetForm{Title: "t"})
	if !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Errorf("Create() error = %v, want ErrUnauthenticated", err)
	}
	if len(store.snippets) != 0 {
		t.Error("Create() wrote a snippet without an owner")
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		form  form.SnippetForm
		field string
	}{
		{"empty title", form.SnippetForm{Title: ""}, "title"},
		{"title too long", form.SnippetForm{Title: strings.Repeat("a", form.MaxTitleLength+1)}, "title"},
		{"code too long", form.SnippetForm{Title: "ok", Code: strings.Repeat("x", form.MaxCodeLength+1)}, "code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, rec := newTestService(t)
			owner := seedUser(t, store, "u")

			_, err := svc.Create(context.Background(), owner.ID, tt.form)

			var fe *apperror.FieldErrors
			if !errors.As(err, &fe) {
				t.Fatalf("Create() error = %v, want *apperror.FieldErrors", err)
			}
			if fe.Fields[tt.field] == "" {
				t.Errorf("no message for field %q in %v", tt.field, fe.Fields)
			}
			if !errors.Is(err, apperror.ErrValidation) {
				t.Error("FieldErrors should unwrap to ErrValidation")
			}
			if len(store.snippets) != 0 || rec.snippetsCreated != 0 {
				t.Error("an invalid form must not create a snippet")
			}
		})
	}
}

func TestCreate_MessagesFollowContextLanguage(t *testing.T) {
	store := newFakeStore()
	v, err := form.NewValidator("en")
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	svc := NewSnippetService(store.snippetRepo(), store.commentRepo(), v, nil, newTestLogger())
	owner := seedUser(t, store, "u")

	ctx := form.WithLanguages(context.Background(), []string{"ja"})
	_, err = svc.Create(ctx, owner.ID, form.SnippetForm{})

	var fe *apperror.FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("Create() error = %v, want *apperror.FieldErrors", err)
	}
	if got := fe.Fields["title"]; got != "titleは必須フィールドです" {
		t.Errorf("title message = %q, want the Japanese translation", got)
	}
}

func TestCreate_RepositoryError(t *testing.T) {
	svc, store, _ := newTestService(t)
	owner := seedUser(t, store, "u")
	store.failWith = errors.New("disk full")

	_, err := svc.Create(context.Background(), owner.ID, form.SnippetForm{Title: "t"})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Create() error = %v, want wrapped repository error", err)
	}
}

// =========================================================================
// READ TESTS
// =========================================================================

func TestGet_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, id := range []string{"missing", "  "} {
		_, err := svc.Get(context.Background(), id)
		if !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("Get(%q) error = %v, want ErrNotFound", id, err)
		}
	}
}

func TestList_CreationOrderWithUsernames(t *testing.T) {
	svc, store, _ := newTestService(t)
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	createSnippet(t, svc, alice, "first")
	createSnippet(t, svc, bob, "second")

	list, err := svc.List(context.Background(), repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List() returned %d, want 2", len(list))
	}
	if list[0].Title != "first" || list[0].CreatedByUsername != "alice" {
		t.Errorf("list[0] = %+v", list[0])
	}
	if list[1].Title != "second" || list[1].CreatedByUsername != "bob" {
		t.Errorf("list[1] = %+v", list[1])
	}
}

func TestDetail_IncludesComments(t *testing.T) {
	svc, store, _ := newTestService(t)
	owner := seedUser(t, store, "owner")
	snippet := createSnippet(t, svc, owner, "with comments")
	other := createSnippet(t, svc, owner, "without")

	if err := store.commentRepo().Create(context.Background(), &model.Comment{
		Text: "comment11", CommentedBy: owner.ID, CommentedTo: snippet.ID,
	}); err != nil {
		t.Fatalf("seeding comment: %v", err)
	}

	detail, err := svc.Detail(context.Background(), snippet.ID)
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if len(detail.Comments) != 1 || detail.Comments[0].Text != "comment11" {
		t.Errorf("Comments = %+v, want one comment11", detail.Comments)
	}

	empty, err := svc.Detail(context.Background(), other.ID)
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if len(empty.Comments) != 0 {
		t.Errorf("comments leaked across snippets: %+v", empty.Comments)
	}
}

// =========================================================================
// EDIT TESTS
// =========================================================================

func TestGetForEdit_Ownership(t *testing.T) {
	svc, store, _ := newTestService(t)
	owner := seedUser(t, store, "owner")
	intruder := seedUser(t, store, "intruder")
	snippet := createSnippet(t, svc, owner, "mine")

	if _, err := svc.GetForEdit(context.Background(), snippet.ID, owner.ID); err != nil {
		t.Errorf("owner GetForEdit() error = %v", err)
	}
	if _, err := svc.GetForEdit(context.Background(), snippet.ID, intruder.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("non-owner GetForEdit() error = %v, want ErrForbidden", err)
	}
	if _, err := svc.GetForEdit(context.Background(), "missing", owner.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetForEdit(missing) error = %v, want ErrNotFound", err)
	}
}

func TestUpdate_OwnerChangesTitleAndCodeOnly(t *testing.T) {
	svc, store, rec := newTestService(t)
	owner := seedUser(t, store, "owner")
	snippet := createSnippet(t, svc, owner, "before")

	updated, err := svc.Update(context.Background(), snippet.ID, owner.ID, form.SnippetEditForm{Title: "X", Code: "Y"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	stored := store.snippets[snippet.ID]
	if stored.Title != "X" || stored.Code != "Y" {
		t.Errorf("stored title/code = %q/%q, want X/Y", stored.Title, stored.Code)
	}
	if stored.Description != "desc" {
		t.Errorf("Description = %q, the edit must leave it untouched", stored.Description)
	}
	if stored.CreatedBy != owner.ID {
		t.Errorf("CreatedBy changed to %q", stored.CreatedBy)
	}
	if updated.UpdatedAt.Before(snippet.UpdatedAt) {
		t.Error("UpdatedAt went backwards")
	}
	if rec.snippetsUpdated != 1 {
		t.Errorf("SnippetUpdated recorded %d times, want 1", rec.snippetsUpdated)
	}
}

func TestUpdate_WrongOwnerLeavesRecordUnchanged(t *testing.T) {
	svc, store, _ := newTestService(t)
	owner := seedUser(t, store, "owner")
	intruder := seedUser(t, store, "intruder")
	snippet := createSnippet(t, svc, owner, "original")

	_, err := svc.Update(context.Background(), snippet.ID, intruder.ID, form.SnippetEditForm{Title: "hacked"})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Update() error = %v, want ErrForbidden", err)
	}
	if got := store.snippets[snippet.ID].Title; got != "original" {
		t.Errorf("Title = %q after a refused edit, want %q", got, "original")
	}
}

func TestUpdate_ForbiddenBeforeValidation(t *testing.T) {
	svc, store, _ := newTestService(t)
	owner := seedUser(t, store, "owner")
	intruder := seedUser(t, store, "intruder")
	snippet := createSnippet(t, svc, owner, "original")

	// Invalid input from a non-owner is still a 403, not a form re-render.
	_, err := svc.Update(context.Background(), snippet.ID, intruder.ID, form.SnippetEditForm{})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Update() error = %v, want ErrForbidden", err)
	}
}

func TestUpdate_InvalidFormNoMutation(t *testing.T) {
	svc, store, _ := newTestService(t)
	owner := seedUser(t, store, "owner")
	snippet := createSnippet(t, svc, owner, "original")

	_, err := svc.Update(context.Background(), snippet.ID, owner.ID, form.SnippetEditForm{Title: "", Code: "new code"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Update() error = %v, want ErrValidation", err)
	}
	if got := store.snippets[snippet.ID].Code; got != "code" {
		t.Errorf("Code = %q after a rejected edit", got)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestDelete_CascadesComments(t *testing.T) {
	svc, store, _ := newTestService(t)
	owner := seedUser(t, store, "owner")
	snippet := createSnippet(t, svc, owner, "doomed")
	store.commentRepo().Create(context.Background(), &model.Comment{Text: "bye", CommentedBy: owner.ID, CommentedTo: snippet.ID})

	if err := svc.Delete(context.Background(), snippet.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(store.comments) != 0 {
		t.Errorf("%d comments survived", len(store.comments))
	}
	if err := svc.Delete(context.Background(), snippet.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
