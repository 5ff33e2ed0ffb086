package state

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"taskflow/internal/api"
	"taskflow/internal/cache"
	"taskflow/internal/models"
	"taskflow/internal/notify"
)

// Routes the store navigates to after auth transitions
const (
	RouteLogin         = "/login"
	RouteDashboard     = "/dashboard"
	RouteVerifyOTP     = "/verify-otp"
	RouteResetPassword = "/reset-password"
)

var (
	ErrNoResetToken       = errors.New("no password reset in progress")
	ErrInvitationResolved = errors.New("invitation already resolved")
	ErrNotAuthenticated   = errors.New("not logged in")
	ErrNotCommentAuthor   = errors.New("only the author can change a comment")
	ErrInviteeNotFound    = errors.New("no user found with that email")
)

// Rejection is returned by an operation the server (or transport) rejected.
// Message is what the slice's Error field now holds.
type Rejection struct {
	Message string
	Err     error
}

func (r *Rejection) Error() string {
	return r.Message
}

func (r *Rejection) Unwrap() error {
	return r.Err
}

// Status tracks the request lifecycle of a slice
type Status struct {
	Loading bool   `json:"loading" yaml:"loading"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

type AuthState struct {
	User        *models.User `json:"user" yaml:"user"`
	AccessToken string       `json:"-" yaml:"-"`
	ResetToken  string       `json:"-" yaml:"-"`
	ResetEmail  string       `json:"resetEmail,omitempty" yaml:"resetEmail,omitempty"`
	Message     string       `json:"message,omitempty" yaml:"message,omitempty"`
	Status      `yaml:",inline"`
}

// Authenticated reports whether a user is logged in
func (a AuthState) Authenticated() bool {
	return a.User != nil && a.AccessToken != ""
}

type ProjectsState struct {
	Items    []models.Project       `json:"items" yaml:"items"`
	Current  *models.Project        `json:"current,omitempty" yaml:"current,omitempty"`
	Stats    *models.DashboardStats `json:"stats,omitempty" yaml:"stats,omitempty"`
	Invitees []models.User          `json:"invitees,omitempty" yaml:"invitees,omitempty"`
	Status   `yaml:",inline"`
}

type TasksState struct {
	ProjectID string        `json:"projectId" yaml:"projectId"`
	Items     []models.Task `json:"items" yaml:"items"`
	Status    `yaml:",inline"`
}

type InvitationsState struct {
	Items   []models.Invitation `json:"items" yaml:"items"`
	Message string              `json:"message,omitempty" yaml:"message,omitempty"`
	Status  `yaml:",inline"`
}

// Pending returns the invitations still awaiting an answer
func (s InvitationsState) Pending() []models.Invitation {
	return filter(s.Items, func(inv models.Invitation) bool {
		return inv.Status == models.InvitationPending
	})
}

type ActivityState struct {
	Logs   []models.Activity `json:"logs" yaml:"logs"`
	Status `yaml:",inline"`
}

type NavState struct {
	Location string `json:"location" yaml:"location"`
}

// State is an immutable snapshot. Reducers return a new State and never
// modify the slices of the one they were given.
type State struct {
	Auth        AuthState        `json:"auth" yaml:"auth"`
	Projects    ProjectsState    `json:"projects" yaml:"projects"`
	Tasks       TasksState       `json:"tasks" yaml:"tasks"`
	Invitations InvitationsState `json:"invitations" yaml:"invitations"`
	Activity    ActivityState    `json:"activity" yaml:"activity"`
	Nav         NavState         `json:"nav" yaml:"nav"`
}

// Slice names one part of State for status bookkeeping
type Slice int

const (
	SliceAuth Slice = iota
	SliceProjects
	SliceTasks
	SliceInvitations
	SliceActivity
)

// API is the subset of *api.Client the store drives.
type API interface {
	Register(ctx context.Context, req api.RegisterRequest) (models.AuthPayload, error)
	Login(ctx context.Context, req api.LoginRequest) (models.AuthPayload, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) (string, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	VerifyOTP(ctx context.Context, email, otp string) (string, error)
	ResetPassword(ctx context.Context, resetToken, password string) (string, error)
	UpdateProfile(ctx context.Context, name string) (models.User, error)

	ListProjects(ctx context.Context) ([]models.Project, error)
	CreateProject(ctx context.Context, in models.ProjectInput) (models.Project, error)
	UpdateProject(ctx context.Context, id string, in models.ProjectInput) (models.Project, error)
	DeleteProject(ctx context.Context, id string) error
	ProjectDetails(ctx context.Context, id string) (models.Project, error)
	RemoveMember(ctx context.Context, projectID, memberID string) (models.Project, error)
	SearchInvitees(ctx context.Context, projectID, query string) ([]models.User, error)
	DashboardStats(ctx context.Context) (models.DashboardStats, error)

	TasksByProject(ctx context.Context, projectID string) ([]models.Task, error)
	CreateTask(ctx context.Context, in models.TaskInput) (models.Task, error)
	UpdateTask(ctx context.Context, id string, in models.TaskInput) (models.Task, error)
	MoveTask(ctx context.Context, id string, status models.TaskStatus) (models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	AddComment(ctx context.Context, taskID, text string) (models.Task, error)
	EditComment(ctx context.Context, taskID, commentID, text string) (models.Task, error)
	DeleteComment(ctx context.Context, taskID, commentID string) (models.Task, error)

	SendInvitation(ctx context.Context, projectID, userID string) (models.Invitation, error)
	MyInvitations(ctx context.Context) ([]models.Invitation, error)
	ApproveInvitation(ctx context.Context, id string) (models.Invitation, error)
	RejectInvitation(ctx context.Context, id string) (models.Invitation, error)
	ProjectActivity(ctx context.Context, projectID string) ([]models.Activity, error)

	Cookies() []*http.Cookie
	SetCookies(cookies []*http.Cookie)
}

// SessionStore persists the auth slice between runs
type SessionStore interface {
	Load(origin string) (models.Session, []*http.Cookie, error)
	Save(origin string, sess models.Session, cookies []*http.Cookie) error
	Clear(origin string) error
}

// Options configures a Store
type Options struct {
	// Origin keys the persisted session, usually the API base URL.
	Origin         string
	Sessions       SessionStore
	Toasts         *notify.Center
	Logger         *logrus.Logger
	SearchDebounce time.Duration
	SearchTTL      time.Duration
}

// Store owns the application state. Operations run the pending, fulfilled
// and rejected reducers around one API call.
type Store struct {
	mu      sync.RWMutex
	deliver sync.Mutex
	state   State
	subs    map[int]func(State)
	nextSub int

	api      API
	sessions SessionStore
	origin   string
	toasts   *notify.Center
	log      *logrus.Logger

	searchDelay time.Duration
	searchTTL   time.Duration
	invitees    *cache.TTL[string, []models.User]
}

// New creates a store with an empty state. Bind an API before dispatching
// any operation.
func New(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	toasts := opts.Toasts
	if toasts == nil {
		toasts = notify.New(0, nil)
	}
	delay := opts.SearchDebounce
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	ttl := opts.SearchTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Store{
		state:       State{Nav: NavState{Location: RouteLogin}},
		subs:        make(map[int]func(State)),
		sessions:    opts.Sessions,
		origin:      opts.Origin,
		toasts:      toasts,
		log:         logger,
		searchDelay: delay,
		searchTTL:   ttl,
		invitees:    cache.NewTTL[string, []models.User](nil),
	}
}

// Bind sets the API the store calls. The client usually takes the store as
// its TokenStore, so the two are wired after construction.
func (s *Store) Bind(client API) {
	s.mu.Lock()
	s.api = client
	s.mu.Unlock()
}

func (s *Store) client() API {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.api
}

// State returns the current snapshot
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Toasts returns the notifications still visible
func (s *Store) Toasts() []notify.Toast {
	return s.toasts.Active()
}

// Subscribe calls fn with every new snapshot until the returned func is
// called. fn must not dispatch.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) dispatch(reduce func(State) State) State {
	s.deliver.Lock()
	defer s.deliver.Unlock()

	s.mu.Lock()
	next := reduce(s.state)
	s.state = next
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}

// ClearError drops the error message of one slice
func (s *Store) ClearError(slice Slice) {
	s.dispatch(func(st State) State {
		status := statusOf(st, slice)
		status.Error = ""
		return withStatus(st, slice, status)
	})
}

func statusOf(st State, slice Slice) Status {
	switch slice {
	case SliceAuth:
		return st.Auth.Status
	case SliceProjects:
		return st.Projects.Status
	case SliceTasks:
		return st.Tasks.Status
	case SliceInvitations:
		return st.Invitations.Status
	case SliceActivity:
		return st.Activity.Status
	}
	return Status{}
}

func withStatus(st State, slice Slice, status Status) State {
	switch slice {
	case SliceAuth:
		st.Auth.Status = status
	case SliceProjects:
		st.Projects.Status = status
	case SliceTasks:
		st.Tasks.Status = status
	case SliceInvitations:
		st.Invitations.Status = status
	case SliceActivity:
		st.Activity.Status = status
	}
	return st
}

func fixed(msg string) func(error) string {
	return func(err error) string {
		return api.Message(err, msg)
	}
}

// thunk runs call between the pending and fulfilled/rejected reducers of
// slice. A response that arrives after ctx is done is dropped.
func thunk[T any](ctx context.Context, s *Store, slice Slice, fallback func(error) string,
	call func(ctx context.Context, c API) (T, error), fulfil func(State, T) State) (T, error) {
	var zero T
	c := s.client()
	if c == nil {
		return zero, errors.New("store has no API bound")
	}

	s.dispatch(func(st State) State {
		return withStatus(st, slice, Status{Loading: true})
	})

	v, err := call(ctx, c)
	if ctx.Err() != nil {
		s.dispatch(func(st State) State {
			status := statusOf(st, slice)
			status.Loading = false
			return withStatus(st, slice, status)
		})
		return zero, ctx.Err()
	}
	if err != nil {
		msg := fallback(err)
		s.dispatch(func(st State) State {
			return withStatus(st, slice, Status{Error: msg})
		})
		s.toasts.Push(notify.Error, msg)
		s.log.WithError(err).WithField("message", msg).Debug("operation rejected")
		return zero, &Rejection{Message: msg, Err: err}
	}

	s.dispatch(func(st State) State {
		return withStatus(fulfil(st, v), slice, Status{})
	})
	return v, nil
}

// View scopes operations to one screen. Closing it cancels what is still in
// flight and drops late responses.
type View struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// View opens a view derived from parent
func (s *Store) View(parent context.Context) *View {
	ctx, cancel := context.WithCancel(parent)
	return &View{ctx: ctx, cancel: cancel}
}

// Context is passed to every operation started by the view
func (v *View) Context() context.Context {
	return v.ctx
}

// Close cancels the view
func (v *View) Close() {
	v.cancel()
}
