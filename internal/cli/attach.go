package cli

import (
	"github.com/spf13/cobra"
)

var attachDetach bool

var attachCmd = &cobra.Command{
	Use:   "attach <target-id> <method> [params-json]",
	Short: "Attach to a target and send a command through the session",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runAttach,
}

func init() {
	attachCmd.Flags().BoolVar(&attachDetach, "detach", false, "Detach from the target afterwards")
	rootCmd.AddCommand(attachCmd)
}

func runAttach(cmd *cobra.Command, args []string) error {
	params, err := parseParams(args[1:])
	if err != nil {
		return err
	}

	client, err := connect(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	session, err := client.AttachTarget(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	result, err := session.SendContext(cmd.Context(), args[1], params)
	if err != nil {
		return err
	}
	if attachDetach {
		if err := session.Detach(cmd.Context()); err != nil {
			return err
		}
	}
	return printResult(result)
}
