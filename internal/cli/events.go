package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mbates/cdpconn/internal/cdp"
)

var eventsSession string

var eventsCmd = &cobra.Command{
	Use:   "events <method>",
	Short: "Subscribe to CDP events and stream them until interrupted",
	Long:  "Subscribes to the given event method and prints each event as it arrives. Output is pretty-printed on a TTY and NDJSON otherwise.",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvents,
}

func init() {
	eventsCmd.Flags().StringVar(&eventsSession, "session", "", "Only events for this session id (default: browser-level)")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	client, err := connect(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --session takes a raw id so callers can tail sessions attached by
	// other tooling.
	var stream *cdp.EventStream
	if eventsSession != "" {
		stream = client.SubscribeSession(args[0], eventsSession)
	} else {
		stream = client.Subscribe(args[0])
	}
	defer stream.Close()

	pretty := !JSONOutput && term.IsTerminal(int(os.Stdout.Fd()))
	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-stream.C:
			if !ok {
				return fmt.Errorf("event stream closed: connection lost")
			}
			if err := enc.Encode(evt); err != nil {
				return err
			}
		}
	}
}
