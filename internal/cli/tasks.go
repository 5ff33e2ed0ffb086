package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"taskflow/internal/board"
	"taskflow/internal/models"
	"taskflow/internal/validation"
)

func (a *app) tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "Manage the tasks of a project",
	}
	cmd.AddCommand(
		a.tasksListCmd(),
		a.tasksBoardCmd(),
		a.tasksCreateCmd(),
		a.tasksUpdateCmd(),
		a.tasksMoveCmd(),
		a.tasksDeleteCmd(),
	)
	return cmd
}

func (a *app) renderTasks(list []models.Task) error {
	return a.render(list, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tASSIGNEES\tCOMMENTS")
		for _, t := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", t.ID, truncate(t.Title, 40), t.Status, names(t.Assignees), len(t.Comments))
		}
	})
}

func (a *app) renderBoard(b board.Board) error {
	return a.render(b, func(w io.Writer) {
		for _, col := range b.Columns {
			fmt.Fprintf(w, "%s (%d)\n", col.Title, len(col.Tasks))
			for _, t := range col.Tasks {
				fmt.Fprintf(w, "  %s\t%s\t%s\n", t.ID, truncate(t.Title, 40), names(t.Assignees))
			}
		}
	})
}

// findTask loads a project's tasks and returns the one with id.
func (a *app) findTask(ctx context.Context, projectID, id string) (models.Task, error) {
	list, err := a.store.FetchTasks(ctx, projectID)
	if err != nil {
		return models.Task{}, err
	}
	for _, t := range list {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Task{}, fmt.Errorf("task %s not found in project %s", id, projectID)
}

func (a *app) tasksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <project-id>",
		Short: "List the tasks of a project",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			list, err := a.store.FetchTasks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.renderTasks(list)
		}),
	}
}

func (a *app) tasksBoardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board <project-id>",
		Short: "Show the tasks of a project grouped by status",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			list, err := a.store.FetchTasks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.renderBoard(board.Group(list))
		}),
	}
}

func (a *app) tasksCreateCmd() *cobra.Command {
	var form validation.TaskForm
	var status string
	cmd := &cobra.Command{
		Use:   "create <project-id>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			form.Project = args[0]
			form.Status = models.TaskStatus(status)
			t, err := a.store.CreateTask(cmd.Context(), form)
			if err != nil {
				return err
			}
			return a.renderTasks([]models.Task{t})
		}),
	}
	cmd.Flags().StringVarP(&form.Title, "title", "t", "", "Task title")
	cmd.Flags().StringVarP(&form.Description, "description", "d", "", "Task description")
	cmd.Flags().StringVarP(&status, "status", "s", "", "todo, in-progress, in-review or done")
	cmd.Flags().StringSliceVarP(&form.Assignees, "assignee", "a", nil, "Assignee user id (repeatable)")
	return cmd
}

func (a *app) tasksUpdateCmd() *cobra.Command {
	var form validation.TaskForm
	var status string
	cmd := &cobra.Command{
		Use:   "update <project-id> <task-id>",
		Short: "Edit a task; flags left out keep their current value",
		Args:  cobra.ExactArgs(2),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			current, err := a.findTask(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("title") {
				form.Title = current.Title
			}
			if !flags.Changed("description") {
				form.Description = current.Description
			}
			form.Status = current.Status
			if flags.Changed("status") {
				form.Status = models.TaskStatus(status)
			}
			if !flags.Changed("assignee") {
				form.Assignees = make([]string, len(current.Assignees))
				for i, u := range current.Assignees {
					form.Assignees[i] = u.ID
				}
			}
			form.Project = args[0]
			t, err := a.store.UpdateTask(cmd.Context(), args[1], form)
			if err != nil {
				return err
			}
			return a.renderTasks([]models.Task{t})
		}),
	}
	cmd.Flags().StringVarP(&form.Title, "title", "t", "", "Task title")
	cmd.Flags().StringVarP(&form.Description, "description", "d", "", "Task description")
	cmd.Flags().StringVarP(&status, "status", "s", "", "todo, in-progress, in-review or done")
	cmd.Flags().StringSliceVarP(&form.Assignees, "assignee", "a", nil, "Assignee user id (repeatable)")
	return cmd
}

func (a *app) tasksMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <project-id> <task-id> <status>",
		Short: "Move a task to another column",
		Args:  cobra.ExactArgs(3),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			dest := models.TaskStatus(args[2])
			if !dest.Valid() {
				return fmt.Errorf("unknown status %q", args[2])
			}
			t, err := a.findTask(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			drop := board.Drop{TaskID: t.ID, Source: t.Status, Destination: &dest}
			moved, err := drop.Apply(cmd.Context(), a.store)
			if err != nil {
				return err
			}
			if !moved {
				a.printf("Task already in %s\n", dest.Label())
				return nil
			}
			a.printf("Moved %q to %s\n", t.Title, dest.Label())
			return nil
		}),
	}
}

func (a *app) tasksDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			if err := a.store.DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printf("Task %s deleted\n", args[0])
			return nil
		}),
	}
}

func (a *app) commentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comments",
		Aliases: []string{"comment"},
		Short:   "Comment on tasks",
	}

	addCmd := &cobra.Command{
		Use:   "add <task-id> <text>",
		Short: "Add a comment",
		Args:  cobra.ExactArgs(2),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			t, err := a.store.AddComment(cmd.Context(), args[0], validation.CommentForm{Text: args[1]})
			if err != nil {
				return err
			}
			return a.renderComments(t)
		}),
	}

	editCmd := &cobra.Command{
		Use:   "edit <project-id> <task-id> <comment-id> <text>",
		Short: "Edit one of your comments",
		Args:  cobra.ExactArgs(4),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			if _, err := a.findTask(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			t, err := a.store.EditComment(cmd.Context(), args[1], args[2], validation.CommentForm{Text: args[3]})
			if err != nil {
				return err
			}
			return a.renderComments(t)
		}),
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <project-id> <task-id> <comment-id>",
		Short: "Delete one of your comments",
		Args:  cobra.ExactArgs(3),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			if _, err := a.findTask(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			t, err := a.store.DeleteComment(cmd.Context(), args[1], args[2])
			if err != nil {
				return err
			}
			return a.renderComments(t)
		}),
	}

	cmd.AddCommand(addCmd, editCmd, deleteCmd)
	return cmd
}

func (a *app) renderComments(t models.Task) error {
	me := a.store.State().Auth.User
	return a.render(t.Comments, func(w io.Writer) {
		fmt.Fprintf(w, "%s\n", t.Title)
		fmt.Fprintln(w, "ID\tAUTHOR\tWHEN\tTEXT\t")
		for _, c := range t.Comments {
			mine := ""
			if models.CanEditComment(me, c) {
				mine = "(yours)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Author.Name, when(c.CreatedAt), truncate(c.Text, 60), mine)
		}
	})
}
