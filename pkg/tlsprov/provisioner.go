package tlsprov

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/mockpit/mockpit/pkg/logging"
)

// GenerationError indicates that ephemeral certificate material could not
// be created or written.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("certificate generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Provisioner resolves TLS material for the server lifecycle. Ephemeral
// pairs it generates are written under a process-scoped temporary directory
// and tracked so CleanupEphemeral can delete them later; cleanup is explicit
// rather than tied to process exit.
type Provisioner struct {
	mu        sync.Mutex
	dir       string
	ephemeral []string
	log       *slog.Logger
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithLogger sets the operational logger for the provisioner.
func WithLogger(log *slog.Logger) Option {
	return func(p *Provisioner) {
		if log != nil {
			p.log = log
		}
	}
}

// WithDir overrides the directory ephemeral files are written to.
// Defaults to the OS temporary directory.
func WithDir(dir string) Option {
	return func(p *Provisioner) {
		p.dir = dir
	}
}

// New creates a Provisioner.
func New(opts ...Option) *Provisioner {
	p := &Provisioner{
		dir: os.TempDir(),
		log: logging.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load reads a certificate/key pair from the given paths and verifies that
// the files exist and parse as a usable pair.
func (p *Provisioner) Load(certPath, keyPath string) (tls.Certificate, error) {
	if _, err := os.Stat(certPath); err != nil {
		return tls.Certificate{}, fmt.Errorf("certificate file: %w", err)
	}
	if _, err := os.Stat(keyPath); err != nil {
		return tls.Certificate{}, fmt.Errorf("key file: %w", err)
	}

	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to load certificate pair: %w", err)
	}
	return cert, nil
}

// GenerateEphemeral creates a self-signed pair, writes it to tracked
// temporary files, and returns their paths.
func (p *Provisioner) GenerateEphemeral() (certPath, keyPath string, err error) {
	gen, err := GenerateSelfSignedCert(DefaultCertificateConfig())
	if err != nil {
		return "", "", &GenerationError{Err: err}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	dir, err := os.MkdirTemp(p.dir, "mockpit-tls-")
	if err != nil {
		return "", "", &GenerationError{Err: err}
	}

	certPath = filepath.Join(dir, "cert.pem")
	keyPath = filepath.Join(dir, "key.pem")

	if err := os.WriteFile(certPath, gen.CertPEM, 0644); err != nil {
		_ = os.RemoveAll(dir)
		return "", "", &GenerationError{Err: err}
	}
	if err := os.WriteFile(keyPath, gen.KeyPEM, 0600); err != nil {
		_ = os.RemoveAll(dir)
		return "", "", &GenerationError{Err: err}
	}

	p.ephemeral = append(p.ephemeral, dir)
	p.log.Info("generated ephemeral certificate", "cert", certPath, "key", keyPath)
	return certPath, keyPath, nil
}

// CleanupEphemeral deletes all tracked ephemeral files. It is idempotent
// and safe to call when nothing ephemeral exists.
func (p *Provisioner) CleanupEphemeral() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for _, dir := range p.ephemeral {
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, err)
		}
	}
	p.ephemeral = nil

	if len(errs) > 0 {
		p.log.Warn("ephemeral cleanup incomplete", "errors", len(errs))
		return errors.Join(errs...)
	}
	return nil
}

// EphemeralCount returns how many ephemeral pairs are currently tracked.
func (p *Provisioner) EphemeralCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ephemeral)
}
