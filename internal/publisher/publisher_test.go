package publisher

import (
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"GitHub", KindGitHub},
		{"GitLab", KindGitLab},
		{"Google", KindGoogle},
		{"ActiveState", KindUnsupported},
		{"github", KindUnsupported}, // kind names are case-sensitive
		{"", KindUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.name); got != tt.want {
				t.Errorf("KindOf(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestIdentitySubjects(t *testing.T) {
	tests := []struct {
		name        string
		identity    Identity
		wantIssuer  string
		wantSubject string
	}{
		{
			name:        "GitHub workflow",
			identity:    GitHubIdentity{Repository: "acme/pkg", Workflow: "release.yml"},
			wantIssuer:  "https://token.actions.githubusercontent.com",
			wantSubject: "https://github.com/acme/pkg/.github/workflows/release.yml",
		},
		{
			name:        "GitLab pipeline",
			identity:    GitLabIdentity{Namespace: "acme", Project: "pkg", WorkflowFilePath: ".gitlab-ci.yml"},
			wantIssuer:  "https://gitlab.com",
			wantSubject: "https://gitlab.com/acme/pkg//.gitlab-ci.yml",
		},
		{
			name:        "Google service account",
			identity:    GoogleIdentity{Email: "builder@project.iam.gserviceaccount.com"},
			wantIssuer:  "https://accounts.google.com",
			wantSubject: "builder@project.iam.gserviceaccount.com",
		},
		{
			name:        "unsupported kind",
			identity:    UnsupportedIdentity{Name: "ActiveState"},
			wantIssuer:  "",
			wantSubject: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.identity.Issuer(); got != tt.wantIssuer {
				t.Errorf("Issuer() = %q, want %q", got, tt.wantIssuer)
			}
			if got := tt.identity.Subject(); got != tt.wantSubject {
				t.Errorf("Subject() = %q, want %q", got, tt.wantSubject)
			}
		})
	}
}

func TestPublisherAttestationIdentity(t *testing.T) {
	supported := New("GitHub", GitHubIdentity{Repository: "acme/pkg", Workflow: "release.yml"}, nil)
	if _, ok := supported.AttestationIdentity(); !ok {
		t.Errorf("AttestationIdentity() = false for a supported publisher")
	}
	if supported.Kind() != "GitHub" {
		t.Errorf("Kind() = %q, want %q", supported.Kind(), "GitHub")
	}

	// An explicitly unsupported identity collapses to no attestation support.
	unsupported := New("ActiveState", UnsupportedIdentity{Name: "ActiveState"}, nil)
	if _, ok := unsupported.AttestationIdentity(); ok {
		t.Errorf("AttestationIdentity() = true for an unsupported publisher")
	}

	none := New("GitHub", nil, nil)
	if _, ok := none.AttestationIdentity(); ok {
		t.Errorf("AttestationIdentity() = true for a publisher without identity")
	}
}

func TestIdentityEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		identity Identity
	}{
		{
			name:     "GitHub with environment",
			identity: GitHubIdentity{Repository: "acme/pkg", Workflow: "release.yml", Environment: "pypi"},
		},
		{
			name:     "GitLab",
			identity: GitLabIdentity{Namespace: "acme", Project: "pkg", WorkflowFilePath: ".gitlab-ci.yml"},
		},
		{
			name:     "Google",
			identity: GoogleIdentity{Email: "builder@project.iam.gserviceaccount.com"},
		},
		{
			name:     "unsupported",
			identity: UnsupportedIdentity{Name: "ActiveState"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeIdentity(tt.identity)
			if err != nil {
				t.Fatalf("EncodeIdentity() error = %v", err)
			}
			decoded, err := DecodeIdentity(data)
			if err != nil {
				t.Fatalf("DecodeIdentity() error = %v", err)
			}
			if decoded != tt.identity {
				t.Errorf("round trip = %#v, want %#v", decoded, tt.identity)
			}
		})
	}
}

func TestDecodeIdentityUnknownKind(t *testing.T) {
	// An unknown discriminator decodes as the explicit unsupported variant.
	id, err := DecodeIdentity([]byte(`{"kind": "Mystery", "identity": {}}`))
	if err != nil {
		t.Fatalf("DecodeIdentity() error = %v", err)
	}
	u, ok := id.(UnsupportedIdentity)
	if !ok {
		t.Fatalf("DecodeIdentity() = %T, want UnsupportedIdentity", id)
	}
	if u.Name != "Mystery" {
		t.Errorf("Name = %q, want %q", u.Name, "Mystery")
	}
}
