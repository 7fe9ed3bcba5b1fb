package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"nexus/internal/domain"
)

func createCmd() *cobra.Command {
	tpm := domain.DefaultTPMConfig()
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a session and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := appCtx.CreateSession(cmd.Context(), tpm)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s created (K=%d N=%d L=%d).\n",
				info.SessionID, info.TPMConfig.K, info.TPMConfig.N, info.TPMConfig.L)
			fmt.Fprintf(out, "Share the id, then run: nexus chat %s\n", info.SessionID)
			return nil
		},
	}
	cmd.Flags().IntVar(&tpm.K, "k", tpm.K, "hidden neurons (1-32)")
	cmd.Flags().IntVar(&tpm.N, "n", tpm.N, "inputs per neuron (1-64)")
	cmd.Flags().IntVar(&tpm.L, "l", tpm.L, "weight range (1-10)")
	return cmd
}
