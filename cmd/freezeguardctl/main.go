// Command freezeguardctl is an operator CLI for the freezeguardd admin API:
// setting per-height threshold and hash overrides, reading their current
// values, purging the candidate pool, and inspecting diagnostics.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var addr string

	root := &cobra.Command{
		Use:   "freezeguardctl",
		Short: "Operator CLI for the freezeguardd admin API",
	}
	root.PersistentFlags().StringVar(&addr, "addr", "http://127.0.0.1:7071", "freezeguardd admin API base URL")

	root.AddCommand(
		setThresholdCommand(&addr),
		getThresholdsCommand(&addr),
		setHashCommand(&addr),
		getHashesCommand(&addr),
		purgeCommand(&addr),
		poolCommand(&addr),
		diagnosticsCommand(&addr),
	)
	return root
}

func setThresholdCommand(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set-threshold <height> <percent>",
		Short: "Override the freezing vote-count threshold for one height",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			height, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid height: %w", err)
			}
			percent, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid percent: %w", err)
			}
			return putJSON(*addr, fmt.Sprintf("/overrides/threshold/%d", height), map[string]int{"percent": percent})
		},
	}
}

func getThresholdsCommand(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "get-thresholds",
		Short: "Print the current per-height threshold overrides",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON(*addr, "/overrides/threshold")
		},
	}
}

func setHashCommand(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set-hash <height> <hash-hex>",
		Short: "Force the vote hash for one height (empty hex clears it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			height, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid height: %w", err)
			}
			return putJSON(*addr, fmt.Sprintf("/overrides/hash/%d", height), map[string]string{"hash": args[1]})
		},
	}
}

func getHashesCommand(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "get-hashes",
		Short: "Print the current per-height hash overrides",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON(*addr, "/overrides/hash")
		},
	}
}

func purgeCommand(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Clear the entire candidate pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postNoBody(*addr, "/purge")
		},
	}
}

func poolCommand(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "pool",
		Short: "List the heights currently held in the candidate pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON(*addr, "/pool/heights")
		},
	}
}

func diagnosticsCommand(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "diagnostics",
		Short: "Print recorded admission-rejection diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON(*addr, "/diagnostics")
		},
	}
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

func putJSON(addr, path string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPut, addr+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return do(req)
}

func postNoBody(addr, path string) error {
	req, err := http.NewRequest(http.MethodPost, addr+path, nil)
	if err != nil {
		return err
	}
	return do(req)
}

func getJSON(addr, path string) error {
	req, err := http.NewRequest(http.MethodGet, addr+path, nil)
	if err != nil {
		return err
	}
	return do(req)
}

func do(req *http.Request) error {
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("freezeguardd returned %s: %s", resp.Status, body)
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	}
	return nil
}
