// Package certs loads the server's TLS key pair from PEM files and turns
// it into a ready-to-use server tls.Config.
package certs

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// ErrNoPEM is returned when a file holds no PEM block of the expected type.
var ErrNoPEM = errors.New("no PEM block found")

// Load reads a PEM certificate chain and a PEM private key and returns a
// server TLS configuration using them. An expired leaf is still accepted;
// callers can check Info.Expired. Protocol versions and cipher
// suites are left at the crypto/tls defaults apart from a TLS 1.2 floor.
func Load(certFile, keyFile string) (*tls.Config, error) {
	certPEM, err := readPEM(certFile, "CERTIFICATE")
	if err != nil {
		return nil, fmt.Errorf("read certificate: %w", err)
	}
	keyPEM, err := readPEM(keyFile, "PRIVATE KEY")
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	// X509KeyPair also rejects a key that does not belong to the leaf.
	pair, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse key pair %s / %s: %w", certFile, keyFile, err)
	}

	leaf := pair.Leaf
	if leaf == nil {
		leaf, err = x509.ParseCertificate(pair.Certificate[0])
		if err != nil {
			return nil, fmt.Errorf("parse certificate %s: %w", certFile, err)
		}
		pair.Leaf = leaf
	}

	return &tls.Config{
		Certificates: []tls.Certificate{pair},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// Info describes the serving certificate for startup logging.
type Info struct {
	Subject  string
	DNSNames []string
	NotAfter time.Time
}

// Expired reports whether the certificate is past its NotAfter at now.
func (i Info) Expired(now time.Time) bool {
	return !i.NotAfter.IsZero() && now.After(i.NotAfter)
}

// Summary returns the identity of the first certificate in cfg.
// The zero Info is returned when cfg carries no parsed leaf.
func Summary(cfg *tls.Config) Info {
	if cfg == nil || len(cfg.Certificates) == 0 || cfg.Certificates[0].Leaf == nil {
		return Info{}
	}
	leaf := cfg.Certificates[0].Leaf
	return Info{
		Subject:  leaf.Subject.String(),
		DNSNames: leaf.DNSNames,
		NotAfter: leaf.NotAfter,
	}
}

// --- PEM helpers ---

// readPEM reads path and checks that it contains at least one PEM block
// whose type ends in kind ("CERTIFICATE", or "PRIVATE KEY" which also
// matches "RSA PRIVATE KEY" and "EC PRIVATE KEY").
func readPEM(path, kind string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, fmt.Errorf("%w in %s", ErrNoPEM, path)
		}
		if strings.HasSuffix(block.Type, kind) {
			return data, nil
		}
	}
}
