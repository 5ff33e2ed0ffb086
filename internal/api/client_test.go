package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskflow/internal/logging"
	"taskflow/internal/models"
	"taskflow/internal/testutil"
)

type fakeTokens struct {
	mu        sync.Mutex
	token     string
	refreshed int
	failed    int
}

func (f *fakeTokens) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeTokens) TokenRefreshed(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
	f.refreshed++
}

func (f *fakeTokens) RefreshFailed(error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.failed++
}

func newClient(t *testing.T, baseURL string, tokens TokenStore) *Client {
	t.Helper()
	c, err := New(Options{BaseURL: baseURL, Timeout: 5 * time.Second, Logger: logging.Discard()}, tokens)
	require.NoError(t, err)
	return c
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := New(Options{BaseURL: "localhost"}, nil)
	require.Error(t, err)
}

func TestNew_LeavesSuppliedHTTPClientAlone(t *testing.T) {
	srv := testutil.NewServer(t, time.Hour)
	srv.SeedUser(t, "Alice", "a@b.com", "secret")
	supplied := &http.Client{}
	tokens := &fakeTokens{}
	c, err := New(Options{BaseURL: srv.APIURL(), Timeout: 5 * time.Second, HTTPClient: supplied, Logger: logging.Discard()}, tokens)
	require.NoError(t, err)
	require.Zero(t, supplied.Timeout)
	require.Nil(t, supplied.Jar)

	_, err = c.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "secret"})
	require.NoError(t, err)
	require.NotEmpty(t, c.Cookies())

	tokens.token = "stale-token"
	_, err = c.ListProjects(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, tokens.refreshed)

	slow := &http.Client{Timeout: time.Minute}
	c, err = New(Options{BaseURL: srv.APIURL(), Timeout: time.Second, HTTPClient: slow}, nil)
	require.NoError(t, err)
	require.Equal(t, time.Minute, c.http.Timeout)
	require.Equal(t, time.Minute, slow.Timeout)
}

func TestLogin_Success(t *testing.T) {
	srv := testutil.NewServer(t, time.Hour)
	srv.SeedUser(t, "Alice", "a@b.com", "secret")
	c := newClient(t, srv.APIURL(), &fakeTokens{})

	payload, err := c.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "secret"})
	require.NoError(t, err)
	require.NotEmpty(t, payload.Token)
	require.Equal(t, "Alice", payload.User.Name)
	require.NotEmpty(t, c.Cookies())
}

func TestLogin_Unauthorized(t *testing.T) {
	srv := testutil.NewServer(t, time.Hour)
	tokens := &fakeTokens{}
	c := newClient(t, srv.APIURL(), tokens)

	_, err := c.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "nope"})
	require.Error(t, err)
	require.True(t, IsUnauthorized(err))
	require.Equal(t, "Invalid email or password", Message(err, "Login failed"))
	// auth routes never trigger a refresh
	require.Equal(t, 0, tokens.refreshed+tokens.failed)
}

func TestUnauthorized_RefreshAndRetryOnce(t *testing.T) {
	srv := testutil.NewServer(t, time.Hour)
	srv.SeedUser(t, "Alice", "a@b.com", "secret")
	tokens := &fakeTokens{}
	c := newClient(t, srv.APIURL(), tokens)

	_, err := c.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "secret"})
	require.NoError(t, err)

	tokens.token = "stale-token"
	projects, err := c.ListProjects(context.Background())
	require.NoError(t, err)
	require.Empty(t, projects)
	require.Equal(t, 1, tokens.refreshed)
	require.NotEqual(t, "stale-token", tokens.AccessToken())
}

func TestUnauthorized_RefreshFails(t *testing.T) {
	srv := testutil.NewServer(t, time.Hour)
	tokens := &fakeTokens{token: "stale-token"}
	c := newClient(t, srv.APIURL(), tokens)

	_, err := c.ListProjects(context.Background())
	require.True(t, IsUnauthorized(err))
	require.Equal(t, 1, tokens.failed)
	require.Empty(t, tokens.AccessToken())
}

func TestUnauthorized_RetriesExactlyOnce(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/refresh" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"token":"fresh"}`))
			return
		}
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"nope"}`))
	}))
	defer ts.Close()

	tokens := &fakeTokens{token: "stale"}
	c := newClient(t, ts.URL+"/api", tokens)
	_, err := c.ListProjects(context.Background())
	require.True(t, IsUnauthorized(err))
	require.Equal(t, "nope", Message(err, "Failed"))
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
	require.Equal(t, 1, tokens.refreshed)
}

func (f *fakeTokens) counts() (refreshed, failed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshed, f.failed
}

func TestRefresh_CallerCancelled(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/auth/refresh" {
			select {
			case entered <- struct{}{}:
			default:
			}
			<-release
			_, _ = w.Write([]byte(`{"token":"fresh"}`))
			return
		}
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	t.Cleanup(ts.Close)
	t.Cleanup(unblock)

	tokens := &fakeTokens{token: "stale"}
	c, err := New(Options{
		BaseURL: ts.URL + "/api",
		Timeout: 5 * time.Second,
		Breaker: BreakerSettings{MaxFailures: 1},
		Logger:  logging.Discard(),
	}, tokens)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.ListProjects(ctx)
		done <- err
	}()
	<-entered
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	_, failed := tokens.counts()
	require.Zero(t, failed)

	unblock()
	require.Eventually(t, func() bool {
		refreshed, _ := tokens.counts()
		return refreshed == 1
	}, time.Second, 5*time.Millisecond)

	projects, err := c.ListProjects(context.Background())
	require.NoError(t, err)
	require.Empty(t, projects)
	_, failed = tokens.counts()
	require.Zero(t, failed)
}

func TestBreaker_OpensOnServerErrors(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c, err := New(Options{
		BaseURL: ts.URL + "/api",
		Breaker: BreakerSettings{MaxFailures: 2, OpenTimeout: time.Minute},
		Logger:  logging.Discard(),
	}, &fakeTokens{})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := c.ListProjects(context.Background())
		require.Equal(t, http.StatusInternalServerError, StatusOf(err))
	}
	_, err = c.ListProjects(context.Background())
	require.Error(t, err)
	require.Equal(t, 0, StatusOf(err))
	require.Equal(t, "Failed", Message(err, "Failed"))
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestEndpoints_ProjectTaskInvitationFlow(t *testing.T) {
	srv := testutil.NewServer(t, time.Hour)
	alice := srv.SeedUser(t, "Alice", "alice@example.com", "secret")
	bob := srv.SeedUser(t, "Bob", "bob@example.com", "secret")
	ctx := context.Background()

	ac := newClient(t, srv.APIURL(), &fakeTokens{token: srv.Token(t, alice)})
	bc := newClient(t, srv.APIURL(), &fakeTokens{token: srv.Token(t, bob)})

	p, err := ac.CreateProject(ctx, models.ProjectInput{Name: "Launch", Description: "Q3"})
	require.NoError(t, err)
	require.Equal(t, alice.ID, p.Owner.ID)

	found, err := ac.SearchInvitees(ctx, p.ID, "bob")
	require.NoError(t, err)
	require.Len(t, found, 1)

	inv, err := ac.SendInvitation(ctx, p.ID, bob.ID)
	require.NoError(t, err)
	mine, err := bc.MyInvitations(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	approved, err := bc.ApproveInvitation(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, models.InvitationApproved, approved.Status)
	_, err = bc.RejectInvitation(ctx, inv.ID)
	require.Equal(t, http.StatusConflict, StatusOf(err))

	task, err := bc.CreateTask(ctx, models.TaskInput{Project: p.ID, Title: "Write docs", Assignees: []string{alice.ID}})
	require.NoError(t, err)
	task, err = ac.MoveTask(ctx, task.ID, models.StatusDone)
	require.NoError(t, err)
	require.Equal(t, models.StatusDone, task.Status)

	task, err = ac.AddComment(ctx, task.ID, "ship it")
	require.NoError(t, err)
	_, err = bc.EditComment(ctx, task.ID, task.Comments[0].ID, "mine now")
	require.Equal(t, http.StatusForbidden, StatusOf(err))
	task, err = ac.DeleteComment(ctx, task.ID, task.Comments[0].ID)
	require.NoError(t, err)
	require.Empty(t, task.Comments)

	logs, err := ac.ProjectActivity(ctx, p.ID)
	require.NoError(t, err)
	require.NotEmpty(t, logs)

	p, err = ac.RemoveMember(ctx, p.ID, bob.ID)
	require.NoError(t, err)
	require.False(t, p.HasMember(bob.ID))

	require.NoError(t, ac.DeleteProject(ctx, p.ID))
	_, err = ac.ProjectDetails(ctx, p.ID)
	require.Equal(t, http.StatusNotFound, StatusOf(err))
}

func TestPasswordResetEndpoints(t *testing.T) {
	srv := testutil.NewServer(t, time.Hour)
	srv.SeedUser(t, "Alice", "a@b.com", "secret")
	c := newClient(t, srv.APIURL(), &fakeTokens{})
	ctx := context.Background()

	msg, err := c.ForgotPassword(ctx, "a@b.com")
	require.NoError(t, err)
	require.Equal(t, "OTP sent to your email", msg)

	resetToken, err := c.VerifyOTP(ctx, "a@b.com", srv.OTP("a@b.com"))
	require.NoError(t, err)
	require.NotEmpty(t, resetToken)

	_, err = c.ResetPassword(ctx, "bogus", "newsecret")
	require.Equal(t, http.StatusBadRequest, StatusOf(err))
	_, err = c.ResetPassword(ctx, resetToken, "newsecret")
	require.NoError(t, err)

	_, err = c.Login(ctx, LoginRequest{Email: "a@b.com", Password: "newsecret"})
	require.NoError(t, err)
}
