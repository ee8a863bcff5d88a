package cli

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/open-verix/integrity/internal/attestations"
	"github.com/open-verix/integrity/internal/config"
	"github.com/open-verix/integrity/internal/integrity"
	"github.com/open-verix/integrity/internal/observe"
	"github.com/open-verix/integrity/internal/policy"
	"github.com/open-verix/integrity/internal/providers"
	"github.com/open-verix/integrity/internal/providers/verifier"
	"github.com/open-verix/integrity/internal/providers/verifier/sigstore"
	"github.com/open-verix/integrity/internal/provenance"
	"github.com/open-verix/integrity/internal/publisher"
	"github.com/open-verix/integrity/internal/storage"
)

var (
	verifyAttestations string
	verifyPublisher    string
	verifyRepository   string
	verifyWorkflow     string
	verifyNamespace    string
	verifyProject      string
	verifyCIFile       string
	verifyEmail        string
	verifyEnvironment  string
	verifyConfigPath   string
	verifyOutput       string
	verifyStoreBlob    bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify [artifact]",
	Short: "Verify attestations and build provenance for an artifact",
	Long: `Run the upload pipeline for an artifact: extract the attestations
payload, verify every attestation against the trusted publisher identity,
and build the provenance record.

The publisher flags describe the Trusted Publisher the upload authenticated
as; they select the expected signer identity the attestations must match.

Exit Codes:
  0 - Provenance built
  1 - Fatal error (configuration, storage, policy evaluation)
  2 - Upload rejected (extraction or verification failed)`,
	Example: `  # Verify a GitHub-published artifact
  integrity verify dist/pkg-1.0.0.tar.gz \
    --attestations payload.json \
    --publisher GitHub --repository acme/pkg --workflow release.yml

  # Verify against a GitLab publisher and store the provenance blob
  integrity verify dist/pkg-1.0.0.tar.gz \
    --attestations payload.json \
    --publisher GitLab --namespace acme --project pkg --workflow-file .gitlab-ci.yml \
    --store`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyAttestations, "attestations", "", "Path to the attestations payload (JSON array)")
	verifyCmd.Flags().StringVar(&verifyPublisher, "publisher", "", "Trusted publisher kind: GitHub, GitLab, Google")
	verifyCmd.Flags().StringVar(&verifyRepository, "repository", "", "GitHub repository slug (owner/name)")
	verifyCmd.Flags().StringVar(&verifyWorkflow, "workflow", "", "GitHub workflow filename")
	verifyCmd.Flags().StringVar(&verifyNamespace, "namespace", "", "GitLab namespace")
	verifyCmd.Flags().StringVar(&verifyProject, "project", "", "GitLab project")
	verifyCmd.Flags().StringVar(&verifyCIFile, "workflow-file", "", "GitLab CI definition path")
	verifyCmd.Flags().StringVar(&verifyEmail, "email", "", "Google service account email")
	verifyCmd.Flags().StringVar(&verifyEnvironment, "environment", "", "Deployment environment")
	verifyCmd.Flags().StringVarP(&verifyConfigPath, "config", "c", "", "Path to integrity.yaml")
	verifyCmd.Flags().StringVarP(&verifyOutput, "output", "o", "", "Write the provenance document to this file")
	verifyCmd.Flags().BoolVar(&verifyStoreBlob, "store", false, "Store the provenance document in the blob store")

	verifyCmd.MarkFlagRequired("attestations")
	verifyCmd.MarkFlagRequired("publisher")
}

func runVerify(cmd *cobra.Command, args []string) error {
	artifactPath := args[0]

	cfg, err := config.Load(verifyConfigPath)
	if err != nil {
		return &ExitError{Code: ExitFatal, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return &ExitError{Code: ExitFatal, Err: err}
	}

	identity, err := identityFromFlags()
	if err != nil {
		return &ExitError{Code: ExitFatal, Err: err}
	}

	dist, err := distributionFor(artifactPath)
	if err != nil {
		return &ExitError{Code: ExitFatal, Err: err}
	}

	payload, err := os.ReadFile(verifyAttestations)
	if err != nil {
		return &ExitError{Code: ExitFatal, Err: fmt.Errorf("failed to read attestations payload: %w", err)}
	}

	metrics := observe.NopSink{}
	supported := attestations.DefaultSupportedPredicateTypes()
	extractor := attestations.NewExtractor(metrics, len(supported))

	var verifications []*verifier.Verification
	attVerifier, err := buildVerifier(cfg, metrics, supported, &verifications)
	if err != nil {
		return &ExitError{Code: ExitFatal, Err: err}
	}

	builder := provenance.NewBuilder(metrics)
	service := integrity.NewService(extractor, attVerifier, builder)

	req := &attestations.UploadRequest{
		Publisher:    publisher.New(verifyPublisher, identity, nil),
		Attestations: string(payload),
	}
	file := &provenance.File{
		ID:           uuid.New().String(),
		Path:         filepath.Base(artifactPath),
		PublisherURL: identitySubjectURL(identity),
		Attestations: []string{dist.SHA256},
	}

	record, err := service.Process(cmd.Context(), req, dist, file)
	if err != nil {
		return err
	}

	if cfg.Policy.File != "" {
		if err := applyPolicy(cmd, cfg.Policy.File, identity, verifications); err != nil {
			return err
		}
	}

	fmt.Printf("✓ Verified %d attestation(s) for %s\n", bundleSize(record), dist.Filename)

	if verifyOutput != "" {
		if err := os.WriteFile(verifyOutput, record.Document, 0o644); err != nil {
			return &ExitError{Code: ExitFatal, Err: fmt.Errorf("failed to write provenance document: %w", err)}
		}
		fmt.Printf("  provenance written to %s\n", verifyOutput)
	}

	if verifyStoreBlob {
		url, err := storeProvenance(cmd, cfg.Storage.Dir, file.Path, record)
		if err != nil {
			return &ExitError{Code: ExitFatal, Err: err}
		}
		fmt.Printf("  provenance stored at %s\n", url)
	}

	return nil
}

// identityFromFlags builds the expected signer identity from the publisher
// flags. The switch over kinds is exhaustive: unknown kinds become the
// explicit unsupported variant, which the extractor then rejects.
func identityFromFlags() (publisher.Identity, error) {
	switch publisher.KindOf(verifyPublisher) {
	case publisher.KindGitHub:
		if verifyRepository == "" || verifyWorkflow == "" {
			return nil, fmt.Errorf("GitHub publishers require --repository and --workflow")
		}
		return publisher.GitHubIdentity{
			Repository:  verifyRepository,
			Workflow:    verifyWorkflow,
			Environment: verifyEnvironment,
		}, nil
	case publisher.KindGitLab:
		if verifyNamespace == "" || verifyProject == "" || verifyCIFile == "" {
			return nil, fmt.Errorf("GitLab publishers require --namespace, --project and --workflow-file")
		}
		return publisher.GitLabIdentity{
			Namespace:        verifyNamespace,
			Project:          verifyProject,
			WorkflowFilePath: verifyCIFile,
			Environment:      verifyEnvironment,
		}, nil
	case publisher.KindGoogle:
		if verifyEmail == "" {
			return nil, fmt.Errorf("Google publishers require --email")
		}
		return publisher.GoogleIdentity{Email: verifyEmail}, nil
	case publisher.KindUnsupported:
		return publisher.UnsupportedIdentity{Name: verifyPublisher}, nil
	}
	return publisher.UnsupportedIdentity{Name: verifyPublisher}, nil
}

// buildVerifier selects the attestation verifier from config: the null
// verifier, or a registered provider configured for this run.
func buildVerifier(cfg *config.Config, metrics observe.Sink, supported []string, verifications *[]*verifier.Verification) (integrity.AttestationVerifier, error) {
	if cfg.Verify.Null {
		return integrity.NewNullVerifier(), nil
	}

	// The sigstore provider honors the run's Rekor configuration.
	if cfg.Verify.Provider == "sigstore" {
		providers.RegisterVerifier("sigstore", sigstore.NewProvider(sigstore.Options{
			RekorURL:          cfg.Rekor.URL,
			CheckTransparency: cfg.Rekor.CheckTransparency,
		}))
	}

	provider, err := providers.GetVerifier(cfg.Verify.Provider)
	if err != nil {
		return nil, err
	}

	v := integrity.NewVerifier(provider, metrics, observe.LogTracker{}, supported)
	v.Observer = func(result *verifier.Verification) {
		*verifications = append(*verifications, result)
	}
	return v, nil
}

// applyPolicy evaluates the configured policy against the verified upload.
func applyPolicy(cmd *cobra.Command, policyFile string, identity publisher.Identity, verifications []*verifier.Verification) error {
	policyCfg, err := policy.LoadConfig(policyFile)
	if err != nil {
		return &ExitError{Code: ExitFatal, Err: err}
	}
	engine, err := policy.NewEngine(policyCfg)
	if err != nil {
		return &ExitError{Code: ExitFatal, Err: err}
	}

	violations, err := engine.Check(cmd.Context(), policy.Input(identity, verifications))
	if err != nil {
		return &ExitError{Code: ExitFatal, Err: err}
	}
	if len(violations) > 0 {
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "✗ policy: %s: %s\n", v.Rule, v.Message)
		}
		return &ExitError{Code: ExitRejected, Err: fmt.Errorf("%d policy violation(s)", len(violations))}
	}
	return nil
}

// distributionFor reads the artifact and computes its digest descriptor.
func distributionFor(path string) (attestations.Distribution, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return attestations.Distribution{}, fmt.Errorf("failed to read artifact: %w", err)
	}
	sum := sha256.Sum256(data)
	return attestations.Distribution{
		Filename: filepath.Base(path),
		SHA256:   hex.EncodeToString(sum[:]),
	}, nil
}

// storeProvenance writes the record's document into the blob store at the
// key the digest reader expects.
func storeProvenance(cmd *cobra.Command, dir, filePath string, record *provenance.Record) (string, error) {
	tmp, err := os.CreateTemp("", "provenance-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to stage provenance blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(record.Document); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to stage provenance blob: %w", err)
	}
	tmp.Close()

	store := storage.NewFSStore(dir)
	return store.Store(cmd.Context(), filePath+".provenance", tmp.Name())
}

// identitySubjectURL is the publisher URL denormalized onto the file.
func identitySubjectURL(identity publisher.Identity) string {
	return identity.Subject()
}

// bundleSize counts the attestations in the record's single bundle.
func bundleSize(record *provenance.Record) int {
	var prov provenance.Provenance
	if err := json.Unmarshal(record.Document, &prov); err != nil {
		return 0
	}
	if len(prov.AttestationBundles) == 0 {
		return 0
	}
	return len(prov.AttestationBundles[0].Attestations)
}
