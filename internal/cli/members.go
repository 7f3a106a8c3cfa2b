package cli

import (
	"fmt"
	"strings"

	"abricot/internal/model"
	"abricot/internal/service"
	"abricot/internal/viewmodel"

	"github.com/spf13/cobra"
)

var (
	memberRole     string
	searchExcludes []string
)

var membersCmd = &cobra.Command{
	Use:     "members",
	Aliases: []string{"member"},
	Short:   "Manage project contributors",
}

var membersAddCmd = &cobra.Command{
	Use:   "add <project-id> <email>",
	Short: "Add a contributor",
	Args:  cobra.ExactArgs(2),
	RunE:  runMembersAdd,
}

var membersRemoveCmd = &cobra.Command{
	Use:   "remove <project-id> <user-id>",
	Short: "Remove a contributor",
	Args:  cobra.ExactArgs(2),
	RunE:  runMembersRemove,
}

var membersRoleCmd = &cobra.Command{
	Use:   "role <project-id> <user-id> <ADMIN|CONTRIBUTOR>",
	Short: "Change a contributor's role",
	Args:  cobra.ExactArgs(3),
	RunE:  runMembersRole,
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Find users",
}

var usersSearchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search users by name or email",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersSearch,
}

func init() {
	membersCmd.AddCommand(membersAddCmd, membersRemoveCmd, membersRoleCmd)
	membersAddCmd.Flags().StringVar(&memberRole, "role", "", "ADMIN or CONTRIBUTOR")

	usersCmd.AddCommand(usersSearchCmd)
	usersSearchCmd.Flags().StringSliceVar(&searchExcludes, "exclude", nil, "User ids to leave out")
}

func runMembersAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := signedIn(ctx); err != nil {
		return err
	}
	input := model.ContributorInput{Email: args[1], Role: model.Role(strings.ToUpper(memberRole))}
	if err := rt.Service.AddContributor(ctx, model.ID(args[0]), input); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s ajouté au projet\n", args[1])
	return nil
}

func runMembersRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := signedIn(ctx); err != nil {
		return err
	}
	if err := rt.Service.RemoveContributor(ctx, model.ID(args[0]), model.ID(args[1])); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Contributeur retiré")
	return nil
}

func runMembersRole(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := signedIn(ctx); err != nil {
		return err
	}
	role := model.Role(strings.ToUpper(args[2]))
	if err := rt.Service.UpdateContributorRole(ctx, model.ID(args[0]), model.ID(args[1]), role); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Rôle mis à jour: %s\n", role)
	return nil
}

func runUsersSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := signedIn(ctx); err != nil {
		return err
	}
	res := rt.Service.SearchUsers(ctx, args[0], ids(searchExcludes)...)
	if res.Idle() {
		return fmt.Errorf("saisissez au moins %d caractères", service.MinSearchLength)
	}
	if res.Err != nil {
		return res.Err
	}

	out := cmd.OutOrStdout()
	if len(res.Data) == 0 {
		fmt.Fprintln(out, "Aucun utilisateur trouvé")
		return nil
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\t\tNOM\tEMAIL")
	for _, u := range res.Data {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, viewmodel.Initials(u.DisplayName()), u.DisplayName(), u.Email)
	}
	return tw.Flush()
}
