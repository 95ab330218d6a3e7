// Package certs keeps a self-signed certificate for serving the API over
// HTTPS on a developer machine.
package certs

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

// Certificate defaults.
const (
	DefaultValidity = 365 * 24 * time.Hour
	// RenewBefore regenerates certificates this close to expiry.
	RenewBefore  = 7 * 24 * time.Hour
	Organization = "mindspend local API"
)

// ErrHostMismatch is returned when a stored certificate does not cover a host.
var ErrHostMismatch = errors.New("certificate does not cover host")

// Store loads or creates the certificate pair in a directory.
type Store struct {
	now      func() time.Time
	logger   *slog.Logger
	dir      string
	certFile string
	keyFile  string
	hosts    []string
	validity time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithHosts sets the DNS names and IPs the certificate covers.
func WithHosts(hosts ...string) Option {
	return func(s *Store) {
		if len(hosts) > 0 {
			s.hosts = hosts
		}
	}
}

// WithValidity sets how long new certificates are valid.
func WithValidity(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.validity = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns a Store keeping api.crt and api.key in dir.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{
		dir:      dir,
		certFile: filepath.Join(dir, "api.crt"),
		keyFile:  filepath.Join(dir, "api.key"),
		hosts:    []string{"localhost", "127.0.0.1", "::1"},
		validity: DefaultValidity,
		now:      time.Now,
		logger:   slog.Default().With("component", "certs"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CertFile is the path of the PEM certificate, for clients that want to trust it.
func (s *Store) CertFile() string {
	return s.certFile
}

// Certificate returns the stored pair, replacing it when missing, unreadable,
// close to expiry or not covering every host.
func (s *Store) Certificate() (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(s.certFile, s.keyFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.logger.Info("Creating self-signed certificate", "dir", s.dir)
	case err != nil:
		s.logger.Warn("Stored certificate unreadable, replacing it", "error", err)
	default:
		verr := s.check(cert)
		if verr == nil {
			return cert, nil
		}
		s.logger.Info("Replacing stored certificate", "reason", verr)
	}
	return s.generate()
}

// TLSConfig returns a server config using Certificate.
func (s *Store) TLSConfig() (*tls.Config, error) {
	cert, err := s.Certificate()
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func (s *Store) check(cert tls.Certificate) error {
	if len(cert.Certificate) == 0 {
		return errors.New("no certificate in file")
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}

	now := s.now()
	if now.Before(leaf.NotBefore) {
		return errors.New("certificate not yet valid")
	}
	if now.Add(RenewBefore).After(leaf.NotAfter) {
		return errors.New("certificate expires soon")
	}
	for _, host := range s.hosts {
		if err := leaf.VerifyHostname(host); err != nil {
			return fmt.Errorf("%w: %s", ErrHostMismatch, host)
		}
	}
	return nil
}

func (s *Store) generate() (tls.Certificate, error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create certificate directory: %w", err)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate serial number: %w", err)
	}

	now := s.now()
	template := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{Organization: []string{Organization}, CommonName: s.hosts[0]},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(s.validity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, host := range s.hosts {
		if ip := net.ParseIP(host); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, host)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create certificate: %w", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to encode key: %w", err)
	}

	if err := writePEM(s.certFile, "CERTIFICATE", der); err != nil {
		return tls.Certificate{}, err
	}
	if err := writePEM(s.keyFile, "EC PRIVATE KEY", keyDER); err != nil {
		return tls.Certificate{}, err
	}
	return tls.LoadX509KeyPair(s.certFile, s.keyFile)
}

func writePEM(path, blockType string, der []byte) error {
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
