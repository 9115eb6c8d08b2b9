package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <method> [params-json]",
	Short: "Send one CDP command and print the result",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
}

// parseParams parses the optional params argument into a JSON object.
func parseParams(args []string) (interface{}, error) {
	if len(args) < 2 {
		return nil, nil
	}
	var params map[string]interface{}
	if err := json.Unmarshal([]byte(args[1]), &params); err != nil {
		return nil, fmt.Errorf("params must be a JSON object: %w", err)
	}
	return params, nil
}

func runSend(cmd *cobra.Command, args []string) error {
	params, err := parseParams(args)
	if err != nil {
		return err
	}

	client, err := connect(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	result, err := client.SendContext(cmd.Context(), args[0], params)
	if err != nil {
		return err
	}
	return printResult(result)
}

// printResult writes a raw JSON result to stdout, indented unless --json.
func printResult(result json.RawMessage) error {
	enc := json.NewEncoder(os.Stdout)
	if !JSONOutput {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}
