package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"taskflow/internal/auth"
	"taskflow/internal/board"
	"taskflow/internal/realtime"
	"taskflow/internal/state"
)

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <project-id>",
		Short: "Show a project's board and redraw it as teammates change tasks",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			return a.watch(cmd.Context(), args[0])
		}),
	}
}

// watch redraws the board after every change to the task slice until ctx ends.
func (a *app) watch(ctx context.Context, projectID string) error {
	if _, err := a.store.FetchTasks(ctx, projectID); err != nil {
		return err
	}

	changed := make(chan struct{}, 1)
	unsubscribe := a.store.Subscribe(func(state.State) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	listener := &realtime.Listener{
		URL:   a.cfg.SocketURL,
		Token: func() string { return a.freshToken(ctx) },
		Apply: a.store.ApplyTaskEvent,
		Log:   a.log,
		// events sent while disconnected are lost, so reload on every connect
		OnConnect: func() {
			if _, err := a.store.FetchTasks(ctx, projectID); err != nil && ctx.Err() == nil {
				a.log.WithError(err).Warn("failed to reload tasks after reconnect")
			}
		},
	}
	done := make(chan error, 1)
	go func() { done <- listener.Run(ctx, projectID) }()

	if err := a.drawBoard(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			<-done
			return nil
		case <-changed:
			if a.store.State().Tasks.Loading {
				continue
			}
			if err := a.drawBoard(); err != nil {
				return err
			}
		}
	}
}

func (a *app) drawBoard() error {
	tasks := a.store.State().Tasks.Items
	if a.format == "table" || a.format == "" {
		fmt.Fprintf(a.out, "\n-- %s --\n", time.Now().Format("15:04:05"))
	}
	return a.renderBoard(board.Group(tasks))
}

// freshToken refreshes an access token that is about to expire before it is
// used to dial the socket.
func (a *app) freshToken(ctx context.Context) string {
	token := a.store.AccessToken()
	if token != "" && auth.Expired(token, 30*time.Second) {
		if err := a.store.Refresh(ctx); err != nil {
			a.log.WithError(err).Warn("failed to refresh token for realtime connection")
		}
		token = a.store.AccessToken()
	}
	return token
}
