package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the targets exposed by the endpoint",
	Args:  cobra.NoArgs,
	RunE:  runTargets,
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}

// targetInfo is the subset of Target.getTargets output shown to the user.
type targetInfo struct {
	TargetID string `json:"targetId"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Attached bool   `json:"attached"`
}

func runTargets(cmd *cobra.Command, args []string) error {
	client, err := connect(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	result, err := client.SendContext(cmd.Context(), "Target.getTargets", nil)
	if err != nil {
		return err
	}

	var parsed struct {
		TargetInfos []targetInfo `json:"targetInfos"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return fmt.Errorf("parse Target.getTargets result: %w", err)
	}

	if JSONOutput {
		return json.NewEncoder(os.Stdout).Encode(parsed.TargetInfos)
	}
	for _, t := range parsed.TargetInfos {
		fmt.Printf("%s  %-10s  %s\n", t.TargetID, t.Type, t.URL)
	}
	return nil
}
