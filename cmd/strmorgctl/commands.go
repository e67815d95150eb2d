// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type opResponse struct {
	Message string         `json:"message"`
	Delta   map[string]any `json:"delta"`
}

func printOp(resp opResponse) {
	fmt.Println(resp.Message)
}

var healthzCmd = &cobra.Command{
	Use:   "healthz",
	Short: "Check whether strmorgd is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		var out map[string]string
		if err := doJSON("GET", apiAddr+"/healthz", nil, &out); err != nil {
			return err
		}
		if !asJSON {
			fmt.Println(out["status"])
		}
		return nil
	},
}

var (
	connectBaseURL  string
	connectUsername string
	connectPassword string
	connectTarget   bool
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect the session's source or target storage backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := map[string]string{
			"base_url": connectBaseURL,
			"username": connectUsername,
			"password": connectPassword,
		}
		path := "/connect-source"
		if connectTarget {
			path = "/connect-target"
		}
		var resp opResponse
		if err := doJSON("POST", sessionURL(path), req, &resp); err != nil {
			return err
		}
		printOp(resp)
		return nil
	},
}

func init() {
	connectCmd.Flags().StringVar(&connectBaseURL, "url", "", "storage base URL")
	connectCmd.Flags().StringVar(&connectUsername, "username", "", "storage username")
	connectCmd.Flags().StringVar(&connectPassword, "password", "", "storage password")
	connectCmd.Flags().BoolVar(&connectTarget, "target", false, "connect the target rather than the source")
}

var (
	scanPath      string
	scanRecursive bool
	scanMaxFiles  int
	scanMaxDepth  int
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a directory tree on the connected source",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := map[string]any{
			"path":      scanPath,
			"recursive": scanRecursive,
			"max_files": scanMaxFiles,
			"max_depth": scanMaxDepth,
		}
		var resp opResponse
		if err := doJSON("POST", sessionURL("/scan"), req, &resp); err != nil {
			return err
		}
		printOp(resp)
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanPath, "path", "/", "root path to scan")
	scanCmd.Flags().BoolVar(&scanRecursive, "recursive", true, "recurse into subdirectories")
	scanCmd.Flags().IntVar(&scanMaxFiles, "max-files", 0, "stop after this many files (0 = unbounded)")
	scanCmd.Flags().IntVar(&scanMaxDepth, "max-depth", 0, "maximum recursion depth (0 = unbounded)")
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify the session's scanned inventory with an empty rule list (no file matches a rule)",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := map[string]any{"rules": []any{}}
		var resp opResponse
		if err := doJSON("POST", sessionURL("/classify"), req, &resp); err != nil {
			return err
		}
		printOp(resp)
		return nil
	},
}

var (
	materializeOutputRoot string
	materializeLanguage   string
	materializeUploadDelay float64
)

func materializeRequestFlags(c *cobra.Command) {
	c.Flags().StringVar(&materializeOutputRoot, "output-root", "/output", "destination root path")
	c.Flags().StringVar(&materializeLanguage, "language", "en", "naming language (en or zh)")
	c.Flags().Float64Var(&materializeUploadDelay, "upload-delay", 0, "per-upload delay in seconds; >0 forces serial mode")
}

var organizeCmd = &cobra.Command{
	Use:   "organize",
	Short: "Rename and move classified files into the output tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := map[string]any{
			"output_root":     materializeOutputRoot,
			"naming_language": materializeLanguage,
			"items":           []any{},
		}
		var resp opResponse
		if err := doJSON("POST", sessionURL("/organize"), req, &resp); err != nil {
			return err
		}
		printOp(resp)
		return nil
	},
}

var generateStrmCmd = &cobra.Command{
	Use:   "generate-strm",
	Short: "Generate .strm redirectors and transfer subtitles to the target backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := map[string]any{
			"output_root":      materializeOutputRoot,
			"naming_language":  materializeLanguage,
			"upload_delay_s":   materializeUploadDelay,
			"items":            []any{},
		}
		var resp opResponse
		if err := doJSON("POST", sessionURL("/generate-strm"), req, &resp); err != nil {
			return err
		}
		printOp(resp)
		return nil
	},
}

func init() {
	materializeRequestFlags(organizeCmd)
	materializeRequestFlags(generateStrmCmd)
}

var retryFailedCmd = &cobra.Command{
	Use:   "retry-failed",
	Short: "Retry uploads and subtitle transfers that previously failed",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp opResponse
		if err := doJSON("POST", sessionURL("/retry-failed"), nil, &resp); err != nil {
			return err
		}
		printOp(resp)
		return nil
	},
}
