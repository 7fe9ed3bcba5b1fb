package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nexus/internal/domain"
)

// statusCmd prints a session's participants and agreement progress. Without
// an argument it uses the last session joined on this relay.
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [session-id]",
		Short: "Show a session's participants and sync state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id domain.SessionID
			if len(args) == 1 {
				id = domain.SessionID(args[0])
			} else if last, ok := appCtx.LastSession(); ok {
				id = last
			} else {
				return fmt.Errorf("no session id given and none remembered")
			}

			st, err := appCtx.SessionStatus(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("session %s: %w", id, err)
			}
			names := make([]string, 0, len(st.Participants))
			for _, p := range st.Participants {
				names = append(names, p.String())
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session:      %s\n", st.SessionID)
			fmt.Fprintf(out, "Created:      %s\n", st.CreatedAt.Format("2006-01-02 15:04:05Z07:00"))
			fmt.Fprintf(out, "Participants: %s\n", strings.Join(names, ", "))
			fmt.Fprintf(out, "Round:        %d\n", st.SyncState.Round)
			fmt.Fprintf(out, "Synced:       %t\n", st.SyncState.IsSynced)
			return nil
		},
	}
}
