// SPDX-License-Identifier: MIT

// Command strmorgctl is a thin operator CLI over strmorgd's HTTP API.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	apiAddr   string
	sessionID string
	asJSON    bool

	httpClient = &http.Client{Timeout: 30 * time.Second}
)

func main() {
	root := &cobra.Command{
		Use:   "strmorgctl",
		Short: "Operator CLI for a running strmorgd instance",
	}
	root.PersistentFlags().StringVar(&apiAddr, "addr", "http://localhost:8080", "strmorgd base URL")
	root.PersistentFlags().StringVar(&sessionID, "session", "default", "session ID to operate on")
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "print raw JSON responses")

	root.AddCommand(
		healthzCmd,
		connectCmd,
		scanCmd,
		classifyCmd,
		organizeCmd,
		generateStrmCmd,
		retryFailedCmd,
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func sessionURL(path string) string {
	return fmt.Sprintf("%s/sessions/%s%s", apiAddr, sessionID, path)
}
