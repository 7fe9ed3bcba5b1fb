package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"nexus/internal/domain"
	"nexus/internal/services/session"
)

var errSessionFailed = errors.New("session failed")

// chatCmd joins a session, shows agreement progress, and then relays lines
// typed on stdin as encrypted messages.
func chatCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "chat [session-id]",
		Short: "Join a session and chat once the key is agreed",
		Long: "Join a session and chat once the key is agreed.\n\n" +
			"Commands while chatting: /sync asks the relay to start agreement, " +
			"/who shows the session state, /quit leaves.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sid domain.SessionID
			if len(args) == 1 {
				sid = domain.SessionID(args[0])
			} else if last, ok := appCtx.LastSession(); ok {
				sid = last
			} else {
				return fmt.Errorf("no session id given and none remembered")
			}
			uid, err := appCtx.ResolveUser(user)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := appCtx.Join(ctx, domain.Identity{SessionID: sid, UserID: uid})
			if err != nil {
				return fmt.Errorf("joining %s: %w", sid, err)
			}
			defer s.Leave()

			return runChat(ctx, s, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "user id to present (default: remembered or generated)")
	return cmd
}

// chatSession is the part of *session.Session the chat loop drives.
type chatSession interface {
	View() session.View
	Changes() <-chan struct{}
	SendMessage(ctx context.Context, content string) (domain.Message, error)
	RequestSync(ctx context.Context) error
}

func runChat(ctx context.Context, s chatSession, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The scanner may block on stdin forever, so it is not part of the group.
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p := newPrinter(out)
		p.update(s.View())
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-s.Changes():
				v := s.View()
				p.update(v)
				if v.State == domain.Error {
					return errSessionFailed
				}
			}
		}
	})
	g.Go(func() error {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					return nil
				}
				if quit := handleLine(ctx, s, strings.TrimSpace(line), out); quit {
					return nil
				}
			}
		}
	})
	return g.Wait()
}

// handleLine runs one input line and reports whether the user asked to leave.
func handleLine(ctx context.Context, s chatSession, line string, out io.Writer) bool {
	switch line {
	case "":
	case "/quit", "/exit":
		return true
	case "/sync":
		if err := s.RequestSync(ctx); err != nil {
			fmt.Fprintf(out, "! %v\n", err)
		}
	case "/who":
		v := s.View()
		fmt.Fprintf(out, "* %s in %s as %s, %d participant(s)\n", v.State, v.Identity.SessionID, v.Identity.UserID, v.Participants)
	default:
		if _, err := s.SendMessage(ctx, line); err != nil {
			switch {
			case errors.Is(err, domain.ErrNotReady):
				fmt.Fprintln(out, "! not ready: wait for the key to be agreed")
			default:
				fmt.Fprintf(out, "! send failed: %v\n", err)
			}
		}
	}
	return false
}
