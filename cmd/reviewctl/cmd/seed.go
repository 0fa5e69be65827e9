package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reviewdesk/reviewdesk/internal/rbac"
)

func newSeedCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Upsert the baseline roles, permissions and grants",
		Long:  `seed applies the default RBAC catalog. It is safe to run repeatedly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := rt.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			res, err := rbac.Seed(cmd.Context(), rbac.NewRepository(pool), rbac.DefaultCatalog())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d roles, %d permissions, %d grants\n", res.Roles, res.Permissions, res.Grants)
			return nil
		},
	}
}
