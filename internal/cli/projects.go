package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"taskflow/internal/models"
	"taskflow/internal/validation"
)

func (a *app) projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "p"},
		Short:   "Manage projects",
	}
	cmd.AddCommand(
		a.projectsListCmd(),
		a.projectsCreateCmd(),
		a.projectsUpdateCmd(),
		a.projectsDeleteCmd(),
		a.projectsShowCmd(),
		a.projectsRemoveMemberCmd(),
		a.projectsSearchCmd(),
		a.projectsStatsCmd(),
	)
	return cmd
}

func (a *app) renderProjects(list []models.Project) error {
	return a.render(list, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tOWNER\tMEMBERS\tCREATED")
		for _, p := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", p.ID, truncate(p.Name, 40), p.Owner.Name, len(p.Members), when(p.CreatedAt))
		}
	})
}

func (a *app) projectsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your projects",
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			list, err := a.store.FetchProjects(cmd.Context())
			if err != nil {
				return err
			}
			return a.renderProjects(list)
		}),
	}
}

func (a *app) projectsCreateCmd() *cobra.Command {
	var form validation.ProjectForm
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			p, err := a.store.CreateProject(cmd.Context(), form)
			if err != nil {
				return err
			}
			return a.renderProjects([]models.Project{p})
		}),
	}
	cmd.Flags().StringVarP(&form.Name, "name", "n", "", "Project name")
	cmd.Flags().StringVarP(&form.Description, "description", "d", "", "Description, at most 600 characters")
	return cmd
}

func (a *app) projectsUpdateCmd() *cobra.Command {
	var form validation.ProjectForm
	cmd := &cobra.Command{
		Use:   "update <project-id>",
		Short: "Rename a project or change its description",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			current, err := a.store.ProjectDetails(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("name") {
				form.Name = current.Name
			}
			if !cmd.Flags().Changed("description") {
				form.Description = current.Description
			}
			p, err := a.store.UpdateProject(cmd.Context(), args[0], form)
			if err != nil {
				return err
			}
			return a.renderProjects([]models.Project{p})
		}),
	}
	cmd.Flags().StringVarP(&form.Name, "name", "n", "", "New name")
	cmd.Flags().StringVarP(&form.Description, "description", "d", "", "New description")
	return cmd
}

func (a *app) projectsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			if err := a.store.DeleteProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printf("Project %s deleted\n", args[0])
			return nil
		}),
	}
}

func (a *app) projectsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project and its members",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			p, err := a.store.ProjectDetails(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.render(p, func(w io.Writer) {
				fmt.Fprintf(w, "ID\t%s\nNAME\t%s\nDESCRIPTION\t%s\nOWNER\t%s <%s>\nCREATED\t%s\n\n",
					p.ID, p.Name, truncate(p.Description, 80), p.Owner.Name, p.Owner.Email, when(p.CreatedAt))
				fmt.Fprintln(w, "MEMBER ID\tNAME\tEMAIL")
				for _, m := range p.Members {
					fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, m.Name, m.Email)
				}
			})
		}),
	}
}

func (a *app) projectsRemoveMemberCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-member <project-id> <member-id>",
		Short: "Remove a member from a project",
		Args:  cobra.ExactArgs(2),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			p, err := a.store.RemoveMember(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			a.printf("%s now has %d members\n", p.Name, len(p.Members))
			return nil
		}),
	}
}

func (a *app) renderUsers(users []models.User) error {
	return a.render(users, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tEMAIL")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Name, u.Email)
		}
	})
}

func (a *app) projectsSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <project-id> <query>",
		Short: "Find users that can be invited to a project",
		Args:  cobra.ExactArgs(2),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			users, err := a.store.SearchInvitees(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return a.renderUsers(users)
		}),
	}
}

func (a *app) projectsStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard counters",
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			stats, err := a.store.DashboardStats(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(stats, func(w io.Writer) {
				fmt.Fprintf(w, "PROJECTS\t%d\nTASKS\t%d\n", stats.TotalProjects, stats.TotalTasks)
				for _, st := range models.Statuses() {
					fmt.Fprintf(w, "  %s\t%d\n", st.Label(), stats.ByStatus[st])
				}
				fmt.Fprintf(w, "PENDING INVITATIONS\t%d\n", stats.PendingInvites)
			})
		}),
	}
}
