package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "walletledger-cli",
		Short: "WalletLedger CLI tool",
		Long:  `A command line interface for interacting with the WalletLedger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the WalletLedger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	walletCmd := &cobra.Command{
		Use:   "wallet",
		Short: "Wallet operations",
	}

	walletCmd.AddCommand(balanceCmd(), verifyCmd(), reprocessCmd(), titlesCmd())
	rootCmd.AddCommand(walletCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func balanceCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "balance <wallet-id>",
		Short: "Show the wallet balance, optionally as of an RFC3339 instant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/wallets/" + args[0] + "/balance"
			if at != "" {
				path += "?at=" + url.QueryEscape(at)
			}

			body, err := getJSON(path)
			if err != nil {
				return err
			}

			printJSON(body)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Point-in-time instant (RFC3339)")

	return cmd
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <wallet-id>",
		Short: "Verify the wallet's balance chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := getJSON("/api/v1/wallets/" + args[0] + "/chain")
			if err != nil {
				return err
			}

			if consistent, ok := body["consistent"].(bool); ok && !consistent {
				printJSON(body)
				return fmt.Errorf("wallet %s chain is inconsistent", args[0])
			}

			fmt.Printf("wallet %s chain is consistent\n", args[0])
			return nil
		},
	}
}

func reprocessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reprocess <wallet-id>",
		Short: "Rewrite the wallet's whole balance chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := postJSON("/api/v1/wallets/" + args[0] + "/reprocess")
			if err != nil {
				return err
			}

			printJSON(body)
			return nil
		},
	}
}

func titlesCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "titles <wallet-id>",
		Short: "List the wallet's titles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := getJSON(fmt.Sprintf("/api/v1/wallets/%s/titles?limit=%d", args[0], limit))
			if err != nil {
				return err
			}

			titles, _ := body["titles"].([]any)
			for _, raw := range titles {
				title, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				fmt.Printf("%s  %-7s %12v  prev=%v  %s\n",
					title["date"], title["direction"], title["value"],
					title["previous_balance"], truncate(stringField(title, "description"), 40))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of titles to list")

	return cmd
}

func getJSON(path string) (map[string]any, error) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return decodeResponse(resp)
}

func postJSON(path string) (map[string]any, error) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return decodeResponse(resp)
}

func decodeResponse(resp *http.Response) (map[string]any, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("request failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return result, nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to format output: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
