// Package main is the entry point for the blog admin CLI. It generates the
// shared secrets a deployment needs and checks that the services are up.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/pkg/crypto"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "blog-admin",
		Short:         "Administrative commands for the blog services",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newGenKeyCmd(), newFingerprintCmd(), newHealthCmd(), newVersionCmd())
	return root
}

func newGenKeyCmd() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "genkey",
		Short: "Generate a random secret for JWT_SECRET or INTERNAL_API_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := crypto.GenerateSecret(size)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret)
			return nil
		},
	}
	cmd.Flags().IntVarP(&size, "bytes", "n", crypto.DefaultSecretBytes, "number of random bytes")
	return cmd
}

func newFingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint TOKEN",
		Short: "Print the fingerprint under which logs and caches refer to a token",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), crypto.TokenFingerprint(strings.TrimSpace(args[0])))
		},
	}
}

func newHealthCmd() *cobra.Command {
	var (
		urls    []string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe the /health endpoint of every service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return probeAll(cmd.Context(), cmd, urls, timeout)
		},
	}
	cmd.Flags().StringSliceVar(&urls, "url", []string{
		"http://localhost:3000",
		"http://localhost:3001",
		"http://localhost:3002",
	}, "service base URLs")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "per-service timeout")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Blog Admin CLI\nVersion: %s\nBuild Time: %s\nGit Commit: %s\n",
				Version, BuildTime, GitCommit)
		},
	}
}

// probeAll checks every URL concurrently and prints one line per service in
// the order given. It fails when any service is unhealthy.
func probeAll(ctx context.Context, cmd *cobra.Command, urls []string, timeout time.Duration) error {
	client := &http.Client{Timeout: timeout}
	results := make([]string, len(urls))
	healthy := make([]bool, len(urls))

	var g errgroup.Group
	for i, base := range urls {
		g.Go(func() error {
			status, err := probe(ctx, client, base)
			if err != nil {
				results[i] = fmt.Sprintf("%-28s DOWN  %v", base, err)
				return nil
			}
			results[i] = fmt.Sprintf("%-28s UP    %s", base, status)
			healthy[i] = true
			return nil
		})
	}
	_ = g.Wait()

	down := 0
	for i, line := range results {
		fmt.Fprintln(cmd.OutOrStdout(), line)
		if !healthy[i] {
			down++
		}
	}
	if down > 0 {
		return fmt.Errorf("%d of %d services unhealthy", down, len(urls))
	}
	return nil
}

func probe(ctx context.Context, client *http.Client, base string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+"/health", nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("unexpected body: %w", err)
	}
	return body.Status, nil
}
