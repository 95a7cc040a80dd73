package uploads_test

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/resolvehub/internal/app/system/uploads"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

const (
	minioUser   = "resolvehub"
	minioSecret = "resolvehub-secret"
	minioBucket = "uploads"
)

var (
	minioOnce     sync.Once
	minioEndpoint string
	minioErr      error
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		in         string
		wantHost   string
		wantSecure bool
		wantErr    bool
	}{
		{"minio:9000", "minio:9000", false, false},
		{"  minio:9000 ", "minio:9000", false, false},
		{"http://minio:9000", "minio:9000", false, false},
		{"https://s3.example.com", "s3.example.com", true, false},
		{"http://minio:9000/", "minio:9000", false, false},
		{"http://minio:9000/bucket", "", false, true},
		{"http://", "", false, true},
		{"", "", false, true},
	}
	for _, tt := range tests {
		host, secure, err := uploads.ParseEndpoint(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEndpoint(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if host != tt.wantHost || secure != tt.wantSecure {
			t.Errorf("ParseEndpoint(%q) = (%q, %v), want (%q, %v)", tt.in, host, secure, tt.wantHost, tt.wantSecure)
		}
	}
}

func TestNewS3_Incomplete(t *testing.T) {
	_, err := uploads.NewS3(context.Background(), uploads.S3Config{Endpoint: "localhost:9000", Bucket: "b"})
	if err == nil {
		t.Fatal("expected error without credentials")
	}
}

// startMinio runs one MinIO container for the package, or uses
// RESOLVEHUB_TEST_S3_ENDPOINT with the same credentials when set.
func startMinio(t *testing.T) string {
	t.Helper()
	minioOnce.Do(func() {
		minioEndpoint, minioErr = runMinio()
	})
	if minioErr != nil {
		t.Skipf("minio unavailable: %v", minioErr)
	}
	return minioEndpoint
}

func runMinio() (string, error) {
	if ep := os.Getenv("RESOLVEHUB_TEST_S3_ENDPOINT"); ep != "" {
		return ep, ensureBucket(ep)
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		return "", err
	}
	if err := pool.Client.Ping(); err != nil {
		return "", err
	}
	pool.MaxWait = 60 * time.Second

	res, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "minio/minio",
		Tag:        "latest",
		Cmd:        []string{"server", "/data"},
		Env:        []string{"MINIO_ROOT_USER=" + minioUser, "MINIO_ROOT_PASSWORD=" + minioSecret},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return "", err
	}
	_ = res.Expire(600)

	ep := "localhost:" + res.GetPort("9000/tcp")
	if err := pool.Retry(func() error { return ensureBucket(ep) }); err != nil {
		_ = pool.Purge(res)
		return "", err
	}
	return ep, nil
}

func ensureBucket(ep string) error {
	host, secure, err := uploads.ParseEndpoint(ep)
	if err != nil {
		return err
	}
	c, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(minioUser, minioSecret, ""),
		Secure: secure,
	})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := c.BucketExists(ctx, minioBucket)
	if err != nil || exists {
		return err
	}
	return c.MakeBucket(ctx, minioBucket, minio.MakeBucketOptions{})
}

func newS3(t *testing.T, prefix string) *uploads.S3 {
	t.Helper()
	ep := startMinio(t)
	s, err := uploads.NewS3(context.Background(), uploads.S3Config{
		Endpoint:  ep,
		AccessKey: minioUser,
		SecretKey: minioSecret,
		Bucket:    minioBucket,
		Prefix:    prefix,
	})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}
	return s
}

func TestS3_PutOpenDelete(t *testing.T) {
	s := newS3(t, "/test-"+strings.ToLower(t.Name())+"/")
	ctx := context.Background()

	rel := uploads.AvatarPath("u1", "me.png")
	if err := s.Put(ctx, rel, strings.NewReader("png-bytes"), "image/png"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	f, err := s.Open(ctx, rel)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(f)
	f.Close()
	if string(data) != "png-bytes" {
		t.Errorf("content = %q", data)
	}
	if f.Size != int64(len("png-bytes")) {
		t.Errorf("Size = %d", f.Size)
	}

	if err := s.Delete(ctx, rel); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Open(ctx, rel); !errors.Is(err, uploads.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, rel); err != nil {
		t.Errorf("second Delete should be a no-op, got %v", err)
	}
}

func TestS3_KeyStaysUnderPrefix(t *testing.T) {
	s := newS3(t, "app")

	tests := []struct{ rel, want string }{
		{"avatars/u/x.png", "app/avatars/u/x.png"},
		{"../../etc/passwd", "app/etc/passwd"},
		{`..\..\win.ini`, "app/win.ini"},
	}
	for _, tt := range tests {
		if got := s.Key(tt.rel); got != tt.want {
			t.Errorf("Key(%q) = %q, want %q", tt.rel, got, tt.want)
		}
	}
	if _, err := s.Open(context.Background(), ""); !errors.Is(err, uploads.ErrNotFound) {
		t.Errorf("Open(\"\") = %v, want ErrNotFound", err)
	}
}
