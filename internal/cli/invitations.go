package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"taskflow/internal/models"
	"taskflow/internal/validation"
)

func (a *app) invitationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "invitations",
		Aliases: []string{"invites", "inv"},
		Short:   "Invite people to projects and answer your invitations",
	}

	var all bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List invitations addressed to you",
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			if _, err := a.store.FetchInvitations(cmd.Context()); err != nil {
				return err
			}
			invs := a.store.State().Invitations
			list := invs.Pending()
			if all {
				list = invs.Items
			}
			return a.renderInvitations(list)
		}),
	}
	listCmd.Flags().BoolVar(&all, "all", false, "Include approved and rejected invitations")

	var email, userID string
	sendCmd := &cobra.Command{
		Use:   "send <project-id>",
		Short: "Invite a user by email or id",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			var err error
			if userID != "" {
				_, err = a.store.SendInvitation(cmd.Context(), validation.InviteForm{ProjectID: args[0], UserID: userID})
			} else {
				_, err = a.store.InviteByEmail(cmd.Context(), validation.InviteEmailForm{ProjectID: args[0], Email: email})
			}
			if err != nil {
				return err
			}
			a.printf("%s\n", a.store.State().Invitations.Message)
			return nil
		}),
	}
	sendCmd.Flags().StringVarP(&email, "email", "e", "", "Email of the user to invite")
	sendCmd.Flags().StringVar(&userID, "user", "", "Id of the user to invite")

	resolve := func(use, short string, approve bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <invitation-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: a.authed(func(cmd *cobra.Command, args []string) error {
				if _, err := a.store.FetchInvitations(cmd.Context()); err != nil {
					return err
				}
				resolveFn := a.store.RejectInvitation
				if approve {
					resolveFn = a.store.ApproveInvitation
				}
				inv, err := resolveFn(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				a.printf("Invitation to %s %s\n", inv.Project.Name, inv.Status)
				return nil
			}),
		}
	}

	cmd.AddCommand(listCmd, sendCmd,
		resolve("approve", "Join the project you were invited to", true),
		resolve("reject", "Decline an invitation", false))
	return cmd
}

func (a *app) renderInvitations(list []models.Invitation) error {
	return a.render(list, func(w io.Writer) {
		fmt.Fprintln(w, "ID\tPROJECT\tINVITED BY\tSTATUS\tSENT")
		for _, inv := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", inv.ID, inv.Project.Name, inv.InvitedBy.Name, inv.Status, when(inv.CreatedAt))
		}
	})
}

func (a *app) activityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activity <project-id>",
		Short: "Show the activity log of a project",
		Args:  cobra.ExactArgs(1),
		RunE: a.authed(func(cmd *cobra.Command, args []string) error {
			logs, err := a.store.FetchActivity(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.render(logs, func(w io.Writer) {
				fmt.Fprintln(w, "WHEN\tUSER\tACTION\tDETAILS")
				for _, l := range logs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", when(l.CreatedAt), l.User.Name, l.Action, truncate(l.Details, 60))
				}
			})
		}),
	}
}
