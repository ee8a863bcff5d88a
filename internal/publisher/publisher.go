// Package publisher models the Trusted-Publisher context attached to an
// upload and the verification identities derived from it.
//
// A Trusted Publisher is an OIDC-authenticated CI/CD identity permitted to
// publish an artifact without a long-lived credential. The integrity service
// never interprets the raw OIDC claims; it only consumes the derived
// verification identity used to validate attestation signatures.
package publisher

import (
	"encoding/json"
	"fmt"
)

// Kind enumerates the closed set of publisher kinds the index knows about.
type Kind int

const (
	KindGitHub Kind = iota
	KindGitLab
	KindGoogle
	KindUnsupported
)

// KindOf maps a publisher kind name (as issued by the OIDC layer) to a Kind.
// The mapping is total: unknown names map to KindUnsupported rather than
// failing, so a new publisher kind shows up as an explicit unsupported
// variant until it is added here.
func KindOf(name string) Kind {
	switch name {
	case "GitHub":
		return KindGitHub
	case "GitLab":
		return KindGitLab
	case "Google":
		return KindGoogle
	}
	return KindUnsupported
}

// String returns the human-readable kind name used in error messages.
func (k Kind) String() string {
	switch k {
	case KindGitHub:
		return "GitHub"
	case KindGitLab:
		return "GitLab"
	case KindGoogle:
		return "Google"
	case KindUnsupported:
		return "Unsupported"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Identity is the expected signer derived from a Trusted Publisher.
//
// The set of variants is closed: each publisher kind with attestation support
// has exactly one identity type, and anything else is UnsupportedIdentity.
// Identities are immutable once built.
type Identity interface {
	// Kind returns the publisher kind this identity was derived from.
	Kind() Kind

	// Issuer returns the OIDC issuer expected in the signing certificate.
	Issuer() string

	// Subject returns the expected signer subject. Certificates carry the
	// subject with a trailing ref (e.g. "@refs/heads/main"), so matching is
	// prefix-based on the verifier side.
	Subject() string

	sealed()
}

// GitHubIdentity identifies a GitHub Actions workflow signer.
type GitHubIdentity struct {
	// Repository is the "owner/name" slug.
	Repository string `json:"repository"`

	// Workflow is the workflow filename, e.g. "release.yml".
	Workflow string `json:"workflow"`

	// Environment is the optional deployment environment.
	Environment string `json:"environment,omitempty"`
}

func (GitHubIdentity) Kind() Kind     { return KindGitHub }
func (GitHubIdentity) Issuer() string { return "https://token.actions.githubusercontent.com" }
func (i GitHubIdentity) Subject() string {
	return fmt.Sprintf("https://github.com/%s/.github/workflows/%s", i.Repository, i.Workflow)
}
func (GitHubIdentity) sealed() {}

// GitLabIdentity identifies a GitLab CI/CD pipeline signer.
type GitLabIdentity struct {
	// Namespace is the group or user namespace.
	Namespace string `json:"namespace"`

	// Project is the project name within the namespace.
	Project string `json:"project"`

	// WorkflowFilePath is the CI definition path, e.g. ".gitlab-ci.yml".
	WorkflowFilePath string `json:"workflow_file_path"`

	// Environment is the optional deployment environment.
	Environment string `json:"environment,omitempty"`
}

func (GitLabIdentity) Kind() Kind     { return KindGitLab }
func (GitLabIdentity) Issuer() string { return "https://gitlab.com" }
func (i GitLabIdentity) Subject() string {
	return fmt.Sprintf("https://gitlab.com/%s/%s//%s", i.Namespace, i.Project, i.WorkflowFilePath)
}
func (GitLabIdentity) sealed() {}

// GoogleIdentity identifies a Google Cloud service-account signer.
type GoogleIdentity struct {
	// Email is the service account email.
	Email string `json:"email"`
}

func (GoogleIdentity) Kind() Kind        { return KindGoogle }
func (GoogleIdentity) Issuer() string    { return "https://accounts.google.com" }
func (i GoogleIdentity) Subject() string { return i.Email }
func (GoogleIdentity) sealed()           {}

// UnsupportedIdentity is the explicit variant for publisher kinds without
// attestation support. It never matches any certificate.
type UnsupportedIdentity struct {
	// Name is the publisher kind name as reported by the OIDC layer.
	Name string `json:"name"`
}

func (UnsupportedIdentity) Kind() Kind        { return KindUnsupported }
func (UnsupportedIdentity) Issuer() string    { return "" }
func (UnsupportedIdentity) Subject() string   { return "" }
func (UnsupportedIdentity) sealed()           {}

// Publisher is the trusted-publisher context the upload path hands to the
// integrity service. A nil *Publisher means the upload did not use Trusted
// Publishing at all.
type Publisher struct {
	// KindName is the human-readable kind name, e.g. "GitHub".
	KindName string

	// Claims holds the raw OIDC claims. The integrity service passes them
	// through untouched; other parts of the index consume them.
	Claims map[string]interface{}

	// URL is the publisher's public page, denormalized onto uploaded files.
	URL string

	// identity is the derived verification identity, nil when the kind has
	// no attestation support.
	identity Identity
}

// New builds a Publisher with the given derived identity. An identity whose
// kind is KindUnsupported is treated as no attestation support.
func New(kindName string, identity Identity, claims map[string]interface{}) *Publisher {
	if identity != nil && identity.Kind() == KindUnsupported {
		identity = nil
	}
	return &Publisher{
		KindName: kindName,
		Claims:   claims,
		identity: identity,
	}
}

// Kind returns the human-readable publisher kind name.
func (p *Publisher) Kind() string { return p.KindName }

// AttestationIdentity returns the verification identity for this publisher.
// The second return is false when the publisher kind does not support
// attestations.
func (p *Publisher) AttestationIdentity() (Identity, bool) {
	if p.identity == nil {
		return nil, false
	}
	return p.identity, true
}

// identityEnvelope is the JSON wire form of an Identity: a kind discriminator
// plus the variant's own fields.
type identityEnvelope struct {
	Kind     string          `json:"kind"`
	Identity json.RawMessage `json:"identity"`
}

// EncodeIdentity serializes an Identity into its JSON envelope.
func EncodeIdentity(id Identity) ([]byte, error) {
	if id == nil {
		return nil, fmt.Errorf("cannot encode nil identity")
	}
	fields, err := json.Marshal(id)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal identity fields: %w", err)
	}
	return json.Marshal(identityEnvelope{
		Kind:     id.Kind().String(),
		Identity: fields,
	})
}

// DecodeIdentity deserializes an Identity from its JSON envelope.
func DecodeIdentity(data []byte) (Identity, error) {
	var env identityEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal identity envelope: %w", err)
	}

	switch KindOf(env.Kind) {
	case KindGitHub:
		var id GitHubIdentity
		if err := json.Unmarshal(env.Identity, &id); err != nil {
			return nil, fmt.Errorf("failed to unmarshal GitHub identity: %w", err)
		}
		return id, nil
	case KindGitLab:
		var id GitLabIdentity
		if err := json.Unmarshal(env.Identity, &id); err != nil {
			return nil, fmt.Errorf("failed to unmarshal GitLab identity: %w", err)
		}
		return id, nil
	case KindGoogle:
		var id GoogleIdentity
		if err := json.Unmarshal(env.Identity, &id); err != nil {
			return nil, fmt.Errorf("failed to unmarshal Google identity: %w", err)
		}
		return id, nil
	case KindUnsupported:
		var id UnsupportedIdentity
		if err := json.Unmarshal(env.Identity, &id); err != nil {
			return nil, fmt.Errorf("failed to unmarshal unsupported identity: %w", err)
		}
		if id.Name == "" {
			id.Name = env.Kind
		}
		return id, nil
	}
	return nil, fmt.Errorf("unknown identity kind: %s", env.Kind)
}
