package sigstore

import (
	"crypto/x509"
	"fmt"
	"time"
)

// SigstoreRootCert is the Sigstore production root CA certificate.
// Source: https://github.com/sigstore/root-signing
const SigstoreRootCert = `-----BEGIN CERTIFICATE-----
MIIBnTCCAUOgAwIBAgIUGpvl0+0B4JBZqEE/hLznNh7xqKkwCgYIKoZIzj0EAwMw
KjEVMBMGA1UEChMMc2lnc3RvcmUuZGV2MREwDwYDVQQDEwhzaWdzdG9yZTAeFw0y
MTEwMDgxNjU2MzRaFw0zMTEwMDgxNjU2MzRaMCoxFTATBgNVBAoTDHNpZ3N0b3Jl
LmRldjERMA8GA1UEAxMIc2lnc3RvcmUwWTATBgcqhkjOPQIBBggqhkjOPQMBBwNC
AAT3rG8Xy9rT/aKuIz3G9q3LgKpPQNyV3XIcRhKd4wHMBQ+EzEqWt3Lnc3dqZN2V
MpLqkKKqJ5g6rH3bFNCUE2lBo0UwQzAOBgNVHQ8BAf8EBAMCAQYwEgYDVR0TAQH/
BAgwBgEB/wIBATAdBgNVHQ4EFgQU39Ppz1YkEZb5qNjpKFWixi4YZD8wCgYIKoZI
zj0EAwMDaAAwZQIxALTt1rkfTFgB+Q7FqEQ7Eg6SvT8PGW8EXOhT2u8fFNvYVHcC
qKYGKLECB2C8eTdvmwIwCxFSNvZMCMqQf7u4gKlQZGhG8IlVEqvT3TP7g6rCm0k0
9vXEEhMLmKGESlZg3c6C
-----END CERTIFICATE-----`

// SigstoreStagingRootCert is the Sigstore staging root CA certificate.
const SigstoreStagingRootCert = `-----BEGIN CERTIFICATE-----
MIICGjCCAaGgAwIBAgIUAO+xNz3J0dKD+ZjKc8WVLyEQpxAwCgYIKoZIzj0EAwMw
KjEVMBMGA1UEChMMc2lnc3RvcmUuZGV2MREwDwYDVQQDEwhzaWdzdG9yZTAeFw0y
MTEwMTMxOTU0MjdaFw0zMTEwMTExOTU0MjdaMCoxFTATBgNVBAoTDHNpZ3N0b3Jl
LmRldjERMA8GA1UEAxMIc2lnc3RvcmUwdjAQBgcqhkjOPQIBBgUrgQQAIgNiAAT7
XeFT4rb3PQGwS4IajtLk3/OlnpgangaBclYpsYBr5i+4ynB07ceb3LP0OI1b1+N7
Kp8+aLGLpg8hZMqfAz3S8V7nBHQLmF/b8JbUGjPcKx7Pl7D+W6GdgZqLmT6u7cWj
YzBhMA4GA1UdDwEB/wQEAwIBBjAPBgNVHRMBAf8EBTADAQH/MB0GA1UdDgQWBBRY
wB5fkUWlZql6zJChkyLQKsXF+jAfBgNVHSMEGDAWgBRYwB5fkUWlZql6zJChkyLQ
KsXF+jAKBggqhkjOPQQDAwNnADBkAjAc1sQZSKH5WRG+hHmOPkPAeP3M8mVw9j0q
xPdJRLz0I8pOJ0mnOmjLFzJO7h9GvO4CMDKzjGvdNHfIgP8Vu5YVnQP3FbKrwDYS
6Y3YyBX2NJE+XrTR+S1VkP7S+hHhMhL1Fw==
-----END CERTIFICATE-----`

// fulcioOIDPrefix is the OID arc Fulcio uses for OIDC extensions
// (1.3.6.1.4.1.57264).
var fulcioOIDPrefix = []int{1, 3, 6, 1, 4, 1, 57264}

// sigstoreRootPool builds the trust anchor pool from the embedded Sigstore
// production and staging roots.
func sigstoreRootPool() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM([]byte(SigstoreRootCert))
	pool.AppendCertsFromPEM([]byte(SigstoreStagingRootCert))
	return pool
}

// validateLeafCertificate checks that a signing certificate is usable for
// attestation verification: within its validity window, carrying the Fulcio
// OIDC extensions that bind it to an authenticated identity, and chaining to
// a trusted root through the supplied intermediates.
func validateLeafCertificate(leaf *x509.Certificate, intermediates []*x509.Certificate, roots *x509.CertPool, now time.Time) error {
	if now.Before(leaf.NotBefore) {
		return fmt.Errorf("certificate not yet valid (NotBefore: %v)", leaf.NotBefore)
	}
	if now.After(leaf.NotAfter) {
		return fmt.Errorf("certificate expired (NotAfter: %v)", leaf.NotAfter)
	}

	if !hasFulcioExtension(leaf) {
		return fmt.Errorf("certificate missing Fulcio OIDC extensions")
	}

	interPool := x509.NewCertPool()
	for _, cert := range intermediates {
		interPool.AddCert(cert)
	}
	_, err := leaf.Verify(x509.VerifyOptions{
		Roots:         roots,
		Intermediates: interPool,
		CurrentTime:   now,
		// Fulcio leaves carry the code-signing EKU, not the server-auth
		// default.
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	})
	if err != nil {
		return fmt.Errorf("certificate does not chain to a trusted root: %v", err)
	}
	return nil
}

// hasFulcioExtension reports whether the certificate carries any extension
// under the Fulcio OID arc.
func hasFulcioExtension(cert *x509.Certificate) bool {
	for _, ext := range cert.Extensions {
		if len(ext.Id) < len(fulcioOIDPrefix) {
			continue
		}
		match := true
		for i, n := range fulcioOIDPrefix {
			if ext.Id[i] != n {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
