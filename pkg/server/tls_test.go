package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/perfscore/pkg/config"
	"mercator-hq/perfscore/pkg/telemetry/logging"
)

// writeCert writes a self-signed certificate for 127.0.0.1 and returns the
// certificate and key paths.
func writeCert(t *testing.T, dir, cn string, notBefore, notAfter time.Time) (string, string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		IsCA:         true,

		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}

	certPath := filepath.Join(dir, "server.crt")
	keyPath := filepath.Join(dir, "server.key")
	if err := os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600); err != nil {
		t.Fatal(err)
	}
	return certPath, keyPath
}

func TestCertificateReloader_Load(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		notBefore time.Time
		notAfter  time.Time
		wantErr   bool
	}{
		{name: "valid", notBefore: now.Add(-time.Hour), notAfter: now.Add(365 * 24 * time.Hour)},
		{name: "expiring soon still loads", notBefore: now.Add(-time.Hour), notAfter: now.Add(24 * time.Hour)},
		{name: "expired", notBefore: now.Add(-48 * time.Hour), notAfter: now.Add(-24 * time.Hour), wantErr: true},
		{name: "not yet valid", notBefore: now.Add(24 * time.Hour), notAfter: now.Add(48 * time.Hour), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			certPath, keyPath := writeCert(t, t.TempDir(), "perfscore.test", tt.notBefore, tt.notAfter)
			r := NewCertificateReloader(certPath, keyPath, time.Hour, logging.Discard())

			err := r.Load()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			cert, getErr := r.GetCertificate(nil)
			if tt.wantErr {
				if getErr == nil {
					t.Error("GetCertificate() succeeded after a failed load")
				}
				return
			}
			if getErr != nil || cert.Leaf.Subject.CommonName != "perfscore.test" {
				t.Errorf("GetCertificate() = %v, %v", cert, getErr)
			}
		})
	}
}

func TestCertificateReloader_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	r := NewCertificateReloader(filepath.Join(dir, "none.crt"), filepath.Join(dir, "none.key"), 0, nil)
	if err := r.Load(); err == nil {
		t.Error("Load() succeeded without files")
	}
}

func TestCertificateReloader_PicksUpRenewal(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	certPath, keyPath := writeCert(t, dir, "old", now.Add(-time.Hour), now.Add(365*24*time.Hour))

	r := NewCertificateReloader(certPath, keyPath, 10*time.Millisecond, logging.Discard())
	if err := r.Load(); err != nil {
		t.Fatal(err)
	}
	if r.changed() {
		t.Fatal("changed() = true right after Load")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Watch(ctx)

	writeCert(t, dir, "new", now.Add(-time.Hour), now.Add(365*24*time.Hour))
	later := now.Add(time.Minute)
	for _, p := range []string{certPath, keyPath} {
		if err := os.Chtimes(p, later, later); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		cert, _ := r.GetCertificate(nil)
		if cert.Leaf.Subject.CommonName == "new" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("renewed certificate never loaded")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServer_TLS(t *testing.T) {
	now := time.Now()
	certPath, keyPath := writeCert(t, t.TempDir(), "perfscore.test", now.Add(-time.Hour), now.Add(365*24*time.Hour))

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	cfg := config.Default().Server
	cfg.ListenAddress = addr
	cfg.TLS = config.TLSConfig{Enabled: true, CertFile: certPath, KeyFile: keyPath, MinVersion: "1.2"}
	srv := New(&cfg, newService(t), WithLogger(logging.Discard()))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	pemBytes, err := os.ReadFile(certPath)
	if err != nil {
		t.Fatal(err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(pemBytes)
	client := &http.Client{
		Transport: &http.Transport{TLSClientConfig: &tls.Config{RootCAs: pool}},
		Timeout:   2 * time.Second,
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := client.Get("https://" + addr + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Errorf("/health = %d", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("TLS server never came up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Errorf("Start() returned %v", err)
	}
}

func TestServer_TLSBadCertificate(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default().Server
	cfg.ListenAddress = "127.0.0.1:0"
	cfg.TLS = config.TLSConfig{Enabled: true, CertFile: filepath.Join(dir, "x.crt"), KeyFile: filepath.Join(dir, "x.key")}

	srv := New(&cfg, newService(t), WithLogger(logging.Discard()))
	if err := srv.Start(context.Background()); err == nil {
		t.Fatal("Start() succeeded with missing certificate")
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after failed start")
	}
}
