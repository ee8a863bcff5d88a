package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-verix/integrity/internal/config"
	"github.com/open-verix/integrity/internal/provenance"
	"github.com/open-verix/integrity/internal/storage"
)

var (
	digestConfigPath   string
	digestPublisherURL string
)

var digestCmd = &cobra.Command{
	Use:   "digest [filename]",
	Short: "Compute the digest of a stored provenance document",
	Long: `Read the provenance blob stored for a file and print its SHA-256
digest. This is the read path metadata serving uses: it never verifies and
never re-parses the provenance JSON.

Files uploaded without attestations, or without a publisher URL, have no
provenance digest; the command prints nothing and exits successfully.`,
	Example: `  # Digest the provenance stored for an uploaded file
  integrity digest pkg-1.0.0.tar.gz --publisher-url https://github.com/acme/pkg`,
	Args: cobra.ExactArgs(1),
	RunE: runDigest,
}

func init() {
	digestCmd.Flags().StringVarP(&digestConfigPath, "config", "c", "", "Path to integrity.yaml")
	digestCmd.Flags().StringVar(&digestPublisherURL, "publisher-url", "", "Publisher URL recorded for the file")
}

func runDigest(cmd *cobra.Command, args []string) error {
	filename := args[0]

	cfg, err := config.Load(digestConfigPath)
	if err != nil {
		return &ExitError{Code: ExitFatal, Err: err}
	}

	store := storage.NewFSStore(cfg.Storage.Dir)
	reader := provenance.NewDigestReader(store)

	// The CLI models the denormalized file row: the attestations presence
	// flag is implied by asking for a digest at all.
	file := &provenance.File{
		Path:         filename,
		PublisherURL: digestPublisherURL,
		Attestations: []string{"present"},
	}

	digest, err := reader.Digest(cmd.Context(), file)
	if err != nil {
		return &ExitError{Code: ExitFatal, Err: err}
	}
	if digest == "" {
		return nil
	}

	fmt.Println(digest)
	return nil
}
