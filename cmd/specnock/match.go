package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	specnock "github.com/specnock/specnock"
)

var matchCmd = &cobra.Command{
	Use:   "match URL",
	Short: "Dry-run request matching against the loaded specifications",
	Long: `Resolves the given URL to an endpoint, scores every loaded operation for
the method and path, and prints the synthesized mock response the repository
would install. No intercept is installed.`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

var (
	matchMethod string
	matchHeader []string
	matchBody   string
)

func init() {
	matchCmd.Flags().StringVarP(&matchMethod, "method", "X", "GET", "HTTP method")
	matchCmd.Flags().StringArrayVarP(&matchHeader, "header", "H", nil, "request header (name:value), repeatable")
	matchCmd.Flags().StringVarP(&matchBody, "body", "d", "", "request body JSON, used as generation seed for POST/PUT")
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repo, err := buildRepository(cfg)
	if err != nil {
		return err
	}

	req := specnock.RequestDetails{
		URL:     args[0],
		Method:  matchMethod,
		Headers: parseHeaders(matchHeader),
		Body:    matchBody,
	}

	trace, err := repo.Preview(req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(trace)
}

func parseHeaders(pairs []string) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	headers := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers
}
