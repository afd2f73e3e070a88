package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"mercator-hq/perfscore/pkg/config"
)

// expiryWarning is how close to NotAfter a certificate is logged as expiring.
const expiryWarning = 30 * 24 * time.Hour

// CertificateReloader serves a certificate pair from disk and re-reads it when
// either file's modification time moves forward. A failed reload keeps the
// previous certificate.
type CertificateReloader struct {
	certFile string
	keyFile  string
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.RWMutex
	cert     *tls.Certificate
	certTime time.Time
	keyTime  time.Time
}

// NewCertificateReloader creates a reloader. Nothing is read until Load.
func NewCertificateReloader(certFile, keyFile string, interval time.Duration, logger *slog.Logger) *CertificateReloader {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = config.DefaultTLSReload
	}
	return &CertificateReloader{
		certFile: certFile,
		keyFile:  keyFile,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Load reads the certificate pair. It fails if the pair does not parse, the
// key does not match, or the leaf is outside its validity period.
func (r *CertificateReloader) Load() error {
	certInfo, err := os.Stat(r.certFile)
	if err != nil {
		return fmt.Errorf("certificate file: %w", err)
	}
	keyInfo, err := os.Stat(r.keyFile)
	if err != nil {
		return fmt.Errorf("key file: %w", err)
	}

	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load certificate: %w", err)
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}
	now := r.now()
	if now.Before(leaf.NotBefore) {
		return fmt.Errorf("certificate is not yet valid (valid from %s)", leaf.NotBefore.Format(time.RFC3339))
	}
	if now.After(leaf.NotAfter) {
		return fmt.Errorf("certificate expired on %s", leaf.NotAfter.Format(time.RFC3339))
	}
	cert.Leaf = leaf

	r.mu.Lock()
	r.cert = &cert
	r.certTime = certInfo.ModTime()
	r.keyTime = keyInfo.ModTime()
	r.mu.Unlock()

	attrs := []any{
		"subject", leaf.Subject.CommonName,
		"expires_at", leaf.NotAfter.Format(time.RFC3339),
	}
	if leaf.NotAfter.Sub(now) < expiryWarning {
		r.logger.Warn("TLS certificate expiring soon", attrs...)
	} else {
		r.logger.Info("TLS certificate loaded", attrs...)
	}
	return nil
}

// Watch polls for changes until ctx is cancelled.
func (r *CertificateReloader) Watch(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !r.changed() {
				continue
			}
			if err := r.Load(); err != nil {
				r.logger.Error("TLS certificate reload failed, keeping previous certificate",
					"cert_file", r.certFile,
					"error", err,
				)
			}
		}
	}
}

// GetCertificate is a tls.Config GetCertificate hook.
func (r *CertificateReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cert == nil {
		return nil, errors.New("no TLS certificate loaded")
	}
	return r.cert, nil
}

func (r *CertificateReloader) changed() bool {
	certInfo, err := os.Stat(r.certFile)
	if err != nil {
		return false
	}
	keyInfo, err := os.Stat(r.keyFile)
	if err != nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return certInfo.ModTime().After(r.certTime) || keyInfo.ModTime().After(r.keyTime)
}

func tlsVersion(v string) uint16 {
	if v == "1.2" {
		return tls.VersionTLS12
	}
	return tls.VersionTLS13
}
