package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/auth"
	"github.com/sakif/snippetshare/internal/form"
	"github.com/sakif/snippetshare/internal/model"
)

// newTestAuthService returns an AuthService wired with fake dependencies.
func newTestAuthService(t *testing.T) (*AuthService, *fakeStore, *countingRecorder) {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	// Cost 4 is bcrypt minimum, which makes tests fast
	ps := auth.NewPasswordServiceWithCost(bcrypt.MinCost)

	store := newFakeStore()
	rec := &countingRecorder{}
	return NewAuthService(store.userRepo(), ts, ps, newTestValidator(t), rec, newTestLogger()), store, rec
}

func createPasswordUser(t *testing.T, svc *AuthService, username, password string) *model.User {
	t.Helper()
	u, err := svc.CreateUser(context.Background(), form.UserForm{Username: username, Password: password})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return u
}

// =========================================================================
// CreateUser TESTS
// =========================================================================

func TestCreateUser_HashesPassword(t *testing.T) {
	svc, store, _ := newTestAuthService(t)

	u := createPasswordUser(t, svc, "test_user1", "correct-horse")

	stored := store.users[u.ID]
	if stored.PasswordHash == "" || stored.PasswordHash == "correct-horse" {
		t.Errorf("PasswordHash = %q, want a bcrypt hash", stored.PasswordHash)
	}
	if !strings.HasPrefix(stored.PasswordHash, "$2") {
		t.Errorf("PasswordHash does not look like bcrypt: %q", stored.PasswordHash)
	}
}

func TestCreateUser_Validation(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	tests := []struct {
		name  string
		form  form.UserForm
		field string
	}{
		{"missing username", form.UserForm{Password: "long-enough"}, "username"},
		{"bad username characters", form.UserForm{Username: "no spaces", Password: "long-enough"}, "username"},
		{"short password", form.UserForm{Username: "ok", Password: "short"}, "password"},
		{"bad email", form.UserForm{Username: "ok", Email: "nope", Password: "long-enough"}, "email"},
		// 30 kana = 30 characters (passes max=72) but 90 bytes (fails bcrypt)
		{"password over 72 bytes", form.UserForm{Username: "ok", Password: strings.Repeat("あ", 30)}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUser(context.Background(), tt.form)

			var fe *apperror.FieldErrors
			if !errors.As(err, &fe) {
				t.Fatalf("CreateUser() error = %v, want *apperror.FieldErrors", err)
			}
			if fe.Fields[tt.field] == "" {
				t.Errorf("no message for %q in %v", tt.field, fe.Fields)
			}
		})
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	createPasswordUser(t, svc, "taken", "password1")

	_, err := svc.CreateUser(context.Background(), form.UserForm{Username: "taken", Password: "password2"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateUser() error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// Authenticate TESTS
// =========================================================================

func TestAuthenticate_Success(t *testing.T) {
	svc, _, rec := newTestAuthService(t)
	u := createPasswordUser(t, svc, "test_user1", "correct-horse")

	result, err := svc.Authenticate(context.Background(), form.LoginForm{Username: "test_user1", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	if result.User.ID != u.ID {
		t.Errorf("User.ID = %q, want %q", result.User.ID, u.ID)
	}
	if result.ExpiresIn != time.Hour {
		t.Errorf("ExpiresIn = %v, want 1h", result.ExpiresIn)
	}

	// The token must decode to the same user
	ts, _ := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	userID, err := ts.Validate(result.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if userID != u.ID {
		t.Errorf("token subject = %q, want %q", userID, u.ID)
	}
	if rec.logins["password/success"] != 1 {
		t.Errorf("logins = %v, want one password/success", rec.logins)
	}
}

func TestAuthenticate_InvalidCredentials(t *testing.T) {
	svc, store, rec := newTestAuthService(t)
	createPasswordUser(t, svc, "alice", "correct-horse")
	// GitHub-only account: no password hash
	store.userRepo().Create(context.Background(), &model.User{Username: "octocat", GitHubID: 1})

	cases := []form.LoginForm{
		{Username: "alice", Password: "wrong-password"},
		{Username: "nobody", Password: "whatever"},
		{Username: "octocat", Password: "anything"},
	}
	for _, f := range cases {
		_, err := svc.Authenticate(context.Background(), f)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate(%q) error = %v, want ErrInvalidCredentials", f.Username, err)
		}
		if !errors.Is(err, apperror.ErrUnauthenticated) {
			t.Errorf("Authenticate(%q) should unwrap to ErrUnauthenticated", f.Username)
		}
	}
	if rec.logins["password/failure"] != len(cases) {
		t.Errorf("logins = %v, want %d failures", rec.logins, len(cases))
	}
}

func TestAuthenticate_EmptyForm(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Authenticate(context.Background(), form.LoginForm{})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Authenticate() error = %v, want ErrValidation", err)
	}
}

func TestAuthenticate_StoreFailure(t *testing.T) {
	svc, store, _ := newTestAuthService(t)
	store.failWith = errors.New("connection refused")

	_, err := svc.Authenticate(context.Background(), form.LoginForm{Username: "a", Password: "b"})
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate() error = %v, want a wrapped store error", err)
	}
}

// =========================================================================
// LoginOrRegisterGitHub TESTS
// =========================================================================

func TestLoginOrRegisterGitHub_NewThenReturningUser(t *testing.T) {
	svc, store, _ := newTestAuthService(t)

	first, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{ID: 42, Login: "octocat"})
	if err != nil {
		t.Fatalf("first login error = %v", err)
	}
	second, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{ID: 42, Login: "octocat", Email: "new@example.com"})
	if err != nil {
		t.Fatalf("second login error = %v", err)
	}

	if first.User.ID != second.User.ID {
		t.Errorf("user ID changed: %q → %q", first.User.ID, second.User.ID)
	}
	if len(store.users) != 1 {
		t.Errorf("store has %d users, want 1", len(store.users))
	}
	if second.User.Email != "new@example.com" {
		t.Errorf("Email = %q, want refreshed value", second.User.Email)
	}
	if second.Token == "" {
		t.Error("no token issued")
	}
}

func TestLoginOrRegisterGitHub_UsernameConflict(t *testing.T) {
	svc, _, rec := newTestAuthService(t)
	createPasswordUser(t, svc, "octocat", "password1")

	_, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{ID: 7, Login: "octocat"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
	if rec.logins["github/failure"] != 1 {
		t.Errorf("logins = %v", rec.logins)
	}
}

func TestLoginOrRegisterGitHub_NilGitHubUser(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	if _, err := svc.LoginOrRegisterGitHub(context.Background(), nil); err == nil {
		t.Fatal("expected an error for a nil GitHub user")
	}
}

// =========================================================================
// USER ADMIN TESTS
// =========================================================================

func TestGetUserByID(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	u := createPasswordUser(t, svc, "alice", "password1")

	got, err := svc.GetUserByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("Username = %q", got.Username)
	}

	for _, id := range []string{"", "missing"} {
		if _, err := svc.GetUserByID(context.Background(), id); !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("GetUserByID(%q) error = %v, want ErrNotFound", id, err)
		}
	}
}

func TestDeleteUser_Cascades(t *testing.T) {
	svc, store, _ := newTestAuthService(t)
	doomed := createPasswordUser(t, svc, "doomed", "password1")
	keeper := createPasswordUser(t, svc, "keeper", "password1")

	snippet := &model.Snippet{Title: "s", CreatedBy: doomed.ID}
	store.snippetRepo().Create(context.Background(), snippet)
	kept := &model.Snippet{Title: "k", CreatedBy: keeper.ID}
	store.snippetRepo().Create(context.Background(), kept)
	store.commentRepo().Create(context.Background(), &model.Comment{Text: "on doomed", CommentedBy: keeper.ID, CommentedTo: snippet.ID})
	store.commentRepo().Create(context.Background(), &model.Comment{Text: "by doomed", CommentedBy: doomed.ID, CommentedTo: kept.ID})

	if _, err := svc.DeleteUser(context.Background(), "doomed"); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	if len(store.snippets) != 1 || store.snippets[kept.ID] == nil {
		t.Errorf("snippets = %v, want only the keeper's", store.snippets)
	}
	if len(store.comments) != 0 {
		t.Errorf("%d comments survived", len(store.comments))
	}
	if _, err := svc.DeleteUser(context.Background(), "doomed"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteUser() error = %v, want ErrNotFound", err)
	}
}
