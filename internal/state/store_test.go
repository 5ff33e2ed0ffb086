package state

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"taskflow/internal/api"
	"taskflow/internal/logging"
	"taskflow/internal/models"
	"taskflow/internal/realtime"
	"taskflow/internal/session"
	"taskflow/internal/testutil"
	"taskflow/internal/validation"
)

func newStore(t *testing.T, srv *testutil.Server, sessions SessionStore) *Store {
	t.Helper()
	st := New(Options{
		Origin:         srv.APIURL(),
		Sessions:       sessions,
		Logger:         logging.Discard(),
		SearchDebounce: 20 * time.Millisecond,
	})
	client, err := api.New(api.Options{BaseURL: srv.APIURL(), Timeout: 5 * time.Second, Logger: logging.Discard()}, st)
	require.NoError(t, err)
	st.Bind(client)
	return st
}

func loggedIn(t *testing.T, srv *testutil.Server, name, email string) *Store {
	t.Helper()
	srv.SeedUser(t, name, email, "secret1")
	st := newStore(t, srv, nil)
	require.NoError(t, st.Login(context.Background(), validation.LoginForm{Email: email, Password: "secret1"}))
	return st
}

func TestLogin_StoresSessionAndNavigates(t *testing.T) {
	srv := testutil.NewServer(t, time.Hour)
	srv.SeedUser(t, "Alice", "alice@example.com", "secret1")
	st := newStore(t, srv, nil)

	var snapshots []State
	unsubscribe := st.Subscribe(func(s State) { snapshots = append(snapshots, s) })
	defer unsubscribe()

	err := st.Login(context.Background(), validation.LoginForm{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	s := st.State()
	require.NotNil(t, s.Auth.User)
	require.Equal(t, "alice@example.com", s.Auth.User.Email)
	require.NotEmpty(t, s.Auth.AccessToken)
	require.False(t, s.Auth.Loading)
	require.Empty(t, s.Auth.Error)
	require.Equal(t, RouteDashboard, s.Nav.Location)

	require.Len(t, snapshots, 2)
	require.True(t, snapshots[0].Auth.Loading)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	srv := testutil.NewServer(t, time.Hour)
	st := newStore(t, srv, nil)

	err := st.Login(context.Background(), validation.LoginForm{Email: "nobody@example.com", Password: "wrongpw"})
	var rej *Rejection
	require.True(t, errors.As(err, &rej))

	s := st.State()
	require.Nil(t, s.Auth.User)
	require.Empty(t, s.Auth.AccessToken)
	require.False(t, s.Auth.Loading)
	require.Equal(t, "Invalid email or password", s.Auth.Error)
	require.Len(t, st.Toasts(), 1)

	st.ClearError(SliceAuth)
	require.Empty(t, st.State().Auth.Error)
}

// stubAPI panics on any call that is not overridden.
type stubAPI struct {
	API
	listProjects func(ctx context.Context) ([]models.Project, error)
}

func (s *stubAPI) ListProjects(ctx context.Context) ([]models.Project, error) {
	return s.listProjects(ctx)
}

func TestLogin_InvalidFormNeverSent(t *testing.T) {
	st := New(Options{Logger: logging.Discard()})
	st.Bind(&stubAPI{})
	before := st.State()

	err := st.Login(context.Background(), validation.LoginForm{Email: "bad"})
	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	require.Equal(t, before, st.State())
}

func TestProjectsAndTasks(t *testing.T) {
	srv := testutil.NewServer(t, time.Hour)
	st := loggedIn(t, srv, "Alice", "alice@example.com")
	ctx := context.Background()

	first, err := st.CreateProject(ctx, validation.ProjectForm{Name: "First"})
	require.NoError(t, err)
	second, err := st.CreateProject(ctx, validation.ProjectForm{Name: "Second"})
	require.NoError(t, err)
	items := st.State().Projects.Items
	require.Len(t, items, 2)
	require.Equal(t, second.ID, items[0].ID)

	_, err = st.UpdateProject(ctx, first.ID, validation.ProjectForm{Name: "First renamed"})
	require.NoError(t, err)
	require.Equal(t, "First renamed", st.State().Projects.Items[1].Name)

	_, err = st.FetchTasks(ctx, first.ID)
	require.NoError(t, err)
	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		task, err := st.CreateTask(ctx, validation.TaskForm{Title: title})
		require.NoError(t, err)
		require.Equal(t, first.ID, task.Project)
		ids = append(ids, task.ID)
	}
	require.Len(t, st.State().Tasks.Items, 3)

	moved, err := st.MoveTask(ctx, ids[0], models.StatusDone)
	require.NoError(t, err)
	require.Equal(t, models.StatusDone, moved.Status)

	require.NoError(t, st.DeleteTask(ctx, ids[1]))
	remaining := st.State().Tasks.Items
	require.Len(t, remaining, 2)
	for _, task := range remaining {
		require.NotEqual(t, ids[1], task.ID)
	}

	withComment, err := st.AddComment(ctx, ids[0], validation.CommentForm{Text: "looks good"})
	require.NoError(t, err)
	require.Len(t, withComment.Comments, 1)
	_, err = st.EditComment(ctx, ids[0], withComment.Comments[0].ID, validation.CommentForm{Text: "ship it"})
	require.NoError(t, err)

	stats, err := st.DashboardStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalProjects)
	require.Equal(t, 2, stats.TotalTasks)

	_, err = st.FetchActivity(ctx, first.ID)
	require.NoError(t, err)
	require.NotEmpty(t, st.State().Activity.Logs)
	st.ClearActivity()
	require.Empty(t, st.State().Activity.Logs)

	require.NoError(t, st.DeleteProject(ctx, first.ID))
	require.Len(t, st.State().Projects.Items, 1)
	require.Empty(t, st.State().Tasks.Items)
}

func TestRejection_LeavesDataUntouched(t *testing.T) {
	srv := testutil.NewServer(t, time.Hour)
	st := loggedIn(t, srv, "Alice", "alice@example.com")
	ctx := context.Background()

	p, err := st.CreateProject(ctx, validation.ProjectForm{Name: "Keep"})
	require.NoError(t, err)

	err = st.DeleteProject(ctx, "missing")
	require.Error(t, err)
	s := st.State()
	require.Len(t, s.Projects.Items, 1)
	require.Equal(t, p.ID, s.Projects.Items[0].ID)
	require.NotEmpty(t, s.Projects.Error)
	require.False(t, s.Projects.Loading)
}

func TestInvitations(t *testing.T) {
	srv := testutil.NewServer(t, time.Hour)
	alice := loggedIn(t, srv, "Alice", "alice@example.com")
	bob := loggedIn(t, srv, "Bob", "bob@example.com")
	ctx := context.Background()

	p, err := alice.CreateProject(ctx, validation.ProjectForm{Name: "Shared"})
	require.NoError(t, err)
	_, err = alice.InviteByEmail(ctx, validation.InviteEmailForm{ProjectID: p.ID, Email: "bob@example.com"})
	require.NoError(t, err)
	require.Equal(t, "Invitation sent", alice.State().Invitations.Message)

	_, err = alice.InviteByEmail(ctx, validation.InviteEmailForm{ProjectID: p.ID, Email: "carol@example.com"})
	require.ErrorIs(t, err, ErrInviteeNotFound)

	_, err = bob.FetchInvitations(ctx)
	require.NoError(t, err)
	pending := bob.State().Invitations.Pending()
	require.Len(t, pending, 1)

	approved, err := bob.ApproveInvitation(ctx, pending[0].ID)
	require.NoError(t, err)
	require.Equal(t, models.InvitationApproved, approved.Status)
	require.Empty(t, bob.State().Invitations.Pending())
	require.Equal(t, models.InvitationApproved, bob.State().Invitations.Items[0].Status)

	_, err = bob.RejectInvitation(ctx, pending[0].ID)
	require.ErrorIs(t, err, ErrInvitationResolved)

	projects, err := bob.FetchProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)

	details, err := alice.ProjectDetails(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, details.Members, 2)
	require.Equal(t, p.ID, alice.State().Projects.Current.ID)

	_, err = alice.RemoveMember(ctx, p.ID, bob.State().Auth.User.ID)
	require.NoError(t, err)
	require.Len(t, alice.State().Projects.Current.Members, 1)

	_, err = alice.RemoveMember(ctx, p.ID, alice.State().Auth.User.ID)
	require.Error(t, err)
	require.Equal(t, "The owner cannot be removed", alice.State().Projects.Error)
}

func TestResetPassword_WithoutToken(t *testing.T) {
	st := New(Options{Logger: logging.Discard()})
	st.Bind(&stubAPI{})
	before := st.State()

	_, err := st.ResetPassword(context.Background(), validation.ResetPasswordForm{Password: "secret2", ConfirmPassword: "secret2"})
	require.ErrorIs(t, err, ErrNoResetToken)
	require.Equal(t, before, st.State())
}

func TestResetPassword_InvalidToken(t *testing.T) {
	srv := testutil.NewServer(t, time.Hour)
	st := loggedIn(t, srv, "Alice", "alice@example.com")
	st.dispatch(func(s State) State {
		s.Auth.ResetToken = "bogus"
		s.Auth.ResetEmail = "alice@example.com"
		s.Nav.Location = RouteResetPassword
		return s
	})
	before := st.State().Auth

	_, err := st.ResetPassword(context.Background(), validation.ResetPasswordForm{Password: "secret2", ConfirmPassword: "secret2"})
	var rej *Rejection
	require.True(t, errors.As(err, &rej))
	require.Equal(t, "Invalid or expired reset token", rej.Message)

	s := st.State()
	require.Equal(t, before.User, s.Auth.User)
	require.Equal(t, before.AccessToken, s.Auth.AccessToken)
	require.Equal(t, "bogus", s.Auth.ResetToken)
	require.Equal(t, "alice@example.com", s.Auth.ResetEmail)
	require.Equal(t, RouteResetPassword, s.Nav.Location)
	require.Equal(t, "Invalid or expired reset token", s.Auth.Error)
	require.False(t, s.Auth.Loading)
}

func TestPasswordResetFlow(t *testing.T) {
	srv := testutil.NewServer(t, time.Hour)
	srv.SeedUser(t, "Alice", "alice@example.com", "secret1")
	st := newStore(t, srv, nil)
	ctx := context.Background()

	_, err := st.ForgotPassword(ctx, validation.ForgotPasswordForm{Email: "alice@example.com"})
	require.NoError(t, err)
	require.Equal(t, RouteVerifyOTP, st.State().Nav.Location)

	err = st.VerifyOTP(ctx, validation.VerifyOTPForm{Email: "alice@example.com", OTP: srv.OTP("alice@example.com")})
	require.NoError(t, err)
	require.NotEmpty(t, st.State().Auth.ResetToken)
	require.Equal(t, RouteResetPassword, st.State().Nav.Location)

	_, err = st.ResetPassword(ctx, validation.ResetPasswordForm{Password: "newpass1", ConfirmPassword: "newpass1"})
	require.NoError(t, err)
	require.Empty(t, st.State().Auth.ResetToken)
	require.Equal(t, RouteLogin, st.State().Nav.Location)

	require.NoError(t, st.Login(ctx, validation.LoginForm{Email: "alice@example.com", Password: "newpass1"}))
}

func TestView_CloseDropsLateResponse(t *testing.T) {
	release := make(chan struct{})
	st := New(Options{Logger: logging.Discard()})
	st.Bind(&stubAPI{listProjects: func(ctx context.Context) ([]models.Project, error) {
		<-release
		return []models.Project{{ID: "p1", Name: "late"}}, nil
	}})

	view := st.View(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := st.FetchProjects(view.Context())
		done <- err
	}()

	require.Eventually(t, func() bool { return st.State().Projects.Loading }, time.Second, 5*time.Millisecond)
	view.Close()
	close(release)

	require.ErrorIs(t, <-done, context.Canceled)
	s := st.State()
	require.Empty(t, s.Projects.Items)
	require.False(t, s.Projects.Loading)
	require.Empty(t, s.Projects.Error)
}

func TestView_CloseDuringRefreshKeepsSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	entered := make(chan struct{}, 4)
	release := make(chan struct{})
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }

	r := gin.New()
	r.GET("/api/projects/get-projects", func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer fresh" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Token expired"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": []models.Project{{ID: "p1", Name: "Board"}}})
	})
	r.POST("/api/auth/refresh", func(c *gin.Context) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		c.JSON(http.StatusOK, gin.H{"token": "fresh"})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	t.Cleanup(unblock)

	st := New(Options{Logger: logging.Discard()})
	client, err := api.New(api.Options{BaseURL: srv.URL + "/api", Timeout: 5 * time.Second, Logger: logging.Discard()}, st)
	require.NoError(t, err)
	st.Bind(client)
	st.dispatch(func(s State) State {
		s.Auth.User = &models.User{ID: "u1", Name: "Alice", Email: "alice@example.com"}
		s.Auth.AccessToken = "stale"
		s.Nav.Location = RouteDashboard
		return s
	})

	view := st.View(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := st.FetchProjects(view.Context())
		done <- err
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh was never requested")
	}
	view.Close()
	require.ErrorIs(t, <-done, context.Canceled)

	s := st.State()
	require.True(t, s.Auth.Authenticated())
	require.Equal(t, "u1", s.Auth.User.ID)
	require.Equal(t, RouteDashboard, s.Nav.Location)
	require.Empty(t, s.Projects.Error)

	other := make(chan error, 1)
	go func() {
		_, err := st.FetchProjects(context.Background())
		other <- err
	}()
	unblock()

	require.NoError(t, <-other)
	require.Len(t, st.State().Projects.Items, 1)
	require.Eventually(t, func() bool { return st.AccessToken() == "fresh" }, time.Second, 5*time.Millisecond)
	require.True(t, st.State().Auth.Authenticated())
}

func TestApplyTaskEvent(t *testing.T) {
	st := New(Options{Logger: logging.Discard()})
	st.dispatch(func(s State) State {
		s.Tasks = TasksState{ProjectID: "p1", Items: []models.Task{{ID: "t1", Project: "p1", Title: "one"}}}
		return s
	})
	before := st.State()

	st.ApplyTaskEvent(realtime.TaskEvent{Kind: realtime.EventTaskCreated, Task: &models.Task{ID: "t2", Project: "p1", Title: "two"}})
	st.ApplyTaskEvent(realtime.TaskEvent{Kind: realtime.EventTaskCreated, Task: &models.Task{ID: "t2", Project: "p1", Title: "two again"}})
	st.ApplyTaskEvent(realtime.TaskEvent{Kind: realtime.EventTaskUpdated, Task: &models.Task{ID: "t1", Project: "p1", Title: "one!", Status: models.StatusDone}})
	st.ApplyTaskEvent(realtime.TaskEvent{Kind: realtime.EventTaskCreated, Task: &models.Task{ID: "x", Project: "other"}})

	items := st.State().Tasks.Items
	require.Len(t, items, 2)
	require.Equal(t, "two again", items[0].Title)
	require.Equal(t, "one!", items[1].Title)

	st.ApplyTaskEvent(realtime.TaskEvent{Kind: realtime.EventTaskDeleted, TaskID: "t2"})
	require.Len(t, st.State().Tasks.Items, 1)

	// earlier snapshots are never modified
	require.Equal(t, "one", before.Tasks.Items[0].Title)
}

func TestSession_RestoredAndRefreshed(t *testing.T) {
	srv := testutil.NewServer(t, time.Hour)
	srv.SeedUser(t, "Alice", "alice@example.com", "secret1")
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	sessions, err := session.NewStore(db)
	require.NoError(t, err)

	first := newStore(t, srv, sessions)
	require.NoError(t, first.Login(context.Background(), validation.LoginForm{Email: "alice@example.com", Password: "secret1"}))

	second := newStore(t, srv, sessions)
	require.NoError(t, second.RestoreSession(context.Background()))
	s := second.State()
	require.True(t, s.Auth.Authenticated())
	require.Equal(t, RouteDashboard, s.Nav.Location)

	// a rejected token is refreshed with the restored cookie and the call retried
	second.TokenRefreshed("garbage")
	_, err = second.FetchProjects(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, "garbage", second.AccessToken())

	require.NoError(t, second.Logout(context.Background()))
	third := newStore(t, srv, sessions)
	require.NoError(t, third.RestoreSession(context.Background()))
	require.False(t, third.State().Auth.Authenticated())
}

func TestSession_KeepsPendingReset(t *testing.T) {
	srv := testutil.NewServer(t, time.Hour)
	srv.SeedUser(t, "Alice", "alice@example.com", "secret1")
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	sessions, err := session.NewStore(db)
	require.NoError(t, err)
	ctx := context.Background()

	first := newStore(t, srv, sessions)
	_, err = first.ForgotPassword(ctx, validation.ForgotPasswordForm{Email: "alice@example.com"})
	require.NoError(t, err)
	require.NoError(t, first.VerifyOTP(ctx, validation.VerifyOTPForm{Email: "alice@example.com", OTP: srv.OTP("alice@example.com")}))

	second := newStore(t, srv, sessions)
	require.NoError(t, second.RestoreSession(ctx))
	s := second.State()
	require.Equal(t, first.State().Auth.ResetToken, s.Auth.ResetToken)
	require.Equal(t, "alice@example.com", s.Auth.ResetEmail)

	_, err = second.ResetPassword(ctx, validation.ResetPasswordForm{Password: "newpass1", ConfirmPassword: "newpass1"})
	require.NoError(t, err)
	require.Empty(t, second.State().Auth.ResetEmail)
}

func TestRefreshFailure_SignsOut(t *testing.T) {
	srv := testutil.NewServer(t, time.Hour)
	st := newStore(t, srv, nil)
	st.dispatch(func(s State) State {
		s.Auth.User = &models.User{ID: "u1"}
		s.Auth.AccessToken = "garbage"
		s.Nav.Location = RouteDashboard
		return s
	})

	_, err := st.FetchProjects(context.Background())
	require.Error(t, err)
	s := st.State()
	require.Nil(t, s.Auth.User)
	require.Empty(t, s.Auth.AccessToken)
	require.Equal(t, RouteLogin, s.Nav.Location)
	require.NotEmpty(t, s.Projects.Error)
}

type countingAPI struct {
	API
	searches atomic.Int32
}

func (c *countingAPI) SearchInvitees(ctx context.Context, projectID, query string) ([]models.User, error) {
	c.searches.Add(1)
	return c.API.SearchInvitees(ctx, projectID, query)
}

func TestInviteSearch_Debounced(t *testing.T) {
	srv := testutil.NewServer(t, time.Hour)
	srv.SeedUser(t, "Bob", "bob@example.com", "secret1")
	st := loggedIn(t, srv, "Alice", "alice@example.com")
	counting := &countingAPI{API: st.client()}
	st.Bind(counting)

	p, err := st.CreateProject(context.Background(), validation.ProjectForm{Name: "P"})
	require.NoError(t, err)

	search := st.NewInviteSearch(p.ID)
	defer search.Stop()
	for _, q := range []string{"b", "bo", "bob"} {
		search.Type(context.Background(), q)
	}

	require.Eventually(t, func() bool {
		inv := st.State().Projects.Invitees
		return len(inv) == 1 && inv[0].Email == "bob@example.com"
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, int32(1), counting.searches.Load())

	// served from cache
	_, err = st.SearchInvitees(context.Background(), p.ID, "bob")
	require.NoError(t, err)
	require.Equal(t, int32(1), counting.searches.Load())
}
