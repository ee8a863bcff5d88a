// Package cli implements the integrity command line interface.
package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version is set at build time via ldflags
	Version = "0.1.0"
	// GitCommit is set at build time via ldflags
	GitCommit = "unknown"
	// BuildDate is set at build time via ldflags
	BuildDate = "unknown"
)

// SetVersion sets the version information from main package
func SetVersion(version, commit, buildTime string) {
	if version != "" {
		Version = version
	}
	if commit != "" {
		GitCommit = commit
	}
	if buildTime != "" {
		BuildDate = buildTime
	}
}

var rootCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Package-index attestation and provenance service",
	Long: `Integrity verifies signed attestations submitted alongside uploaded
package files and produces the provenance records persisted by the index.

The pipeline:
  1. Extract: decode and structurally validate the attestations payload
  2. Verify: check every attestation against the trusted publisher identity
  3. Build: bind the artifact and publisher into a provenance record

Uploads without Trusted Publishing, malformed payloads, unsupported or
duplicate predicate types, and signature failures are all rejected with a
specific, client-facing message.

Exit Codes:
  0 - Success (attestations verified, provenance built)
  1 - Fatal error (configuration, storage, policy evaluation)
  2 - Rejected (the upload failed extraction or verification)
`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("integrity version %s\n  commit: %s\n  built:  %s\n  go:     %s\n",
		Version, GitCommit, BuildDate, runtime.Version()))

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(providersCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("integrity version %s\n", Version)
		fmt.Printf("  commit: %s\n", GitCommit)
		fmt.Printf("  built:  %s\n", BuildDate)
		fmt.Printf("  go:     %s\n", runtime.Version())
	},
}
