package assets

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hmans/larder/internal/config"
	"github.com/hmans/larder/internal/logging"
)

func TestValidName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"coconuts.txt", "coconuts.txt"},
		{"my banner.png", "my_banner.png"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\photo.jpg`, "photo.jpg"},
		{"we!rd$name?.gif", "werdname.gif"},
		{"  padded.txt  ", "padded.txt"},
		{"", "upload"},
		{"..", "upload"},
		{"$$$", "upload"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ValidName(tt.in); got != tt.want {
				t.Errorf("ValidName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWithSuffix(t *testing.T) {
	got, err := withSuffix("coconuts.txt")
	if err != nil {
		t.Fatalf("withSuffix() error = %v", err)
	}
	if !strings.HasPrefix(got, "coconuts_") || !strings.HasSuffix(got, ".txt") {
		t.Errorf("withSuffix() = %q, want coconuts_<suffix>.txt", got)
	}
	if len(got) != len("coconuts_.txt")+suffixLength {
		t.Errorf("withSuffix() = %q, unexpected length", got)
	}
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, key, want string
	}{
		{"/media", "banners/a.txt", "/media/banners/a.txt"},
		{"/media/", "/banners/a.txt", "/media/banners/a.txt"},
		{"", "banners/a.txt", "banners/a.txt"},
		{"https://cdn.example.com", "a.txt", "https://cdn.example.com/a.txt"},
	}
	for _, tt := range tests {
		if got := joinURL(tt.base, tt.key); got != tt.want {
			t.Errorf("joinURL(%q, %q) = %q, want %q", tt.base, tt.key, got, tt.want)
		}
	}
}

func TestFileSystemSaveOpenDelete(t *testing.T) {
	root := t.TempDir()
	fs := NewFileSystem(root, "banners", "/media")
	ctx := context.Background()

	key, err := fs.Save(ctx, "coconuts.txt", strings.NewReader("coconuts"), "text/plain")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if key != "banners/coconuts.txt" {
		t.Errorf("Save() key = %q, want \"banners/coconuts.txt\"", key)
	}

	data, err := os.ReadFile(filepath.Join(root, "banners", "coconuts.txt"))
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if string(data) != "coconuts" {
		t.Errorf("saved content = %q, want \"coconuts\"", data)
	}

	if got := fs.URL(key); got != "/media/banners/coconuts.txt" {
		t.Errorf("URL() = %q", got)
	}

	r, err := fs.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	opened, _ := io.ReadAll(r)
	r.Close()
	if string(opened) != "coconuts" {
		t.Errorf("Open() content = %q", opened)
	}

	if err := fs.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := fs.Open(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open() after delete error = %v, want ErrNotFound", err)
	}
	if err := fs.Delete(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
}

func TestFileSystemSaveCollision(t *testing.T) {
	fs := NewFileSystem(t.TempDir(), "banners", "/media")
	ctx := context.Background()

	first, err := fs.Save(ctx, "coconuts.txt", strings.NewReader("one"), "")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	second, err := fs.Save(ctx, "coconuts.txt", strings.NewReader("two"), "")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if first == second {
		t.Fatalf("second Save() reused key %q", first)
	}
	if !strings.HasPrefix(second, "banners/coconuts_") {
		t.Errorf("second key = %q, want banners/coconuts_<suffix>.txt", second)
	}

	r, err := fs.Open(ctx, first)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()
	data, _ := io.ReadAll(r)
	if string(data) != "one" {
		t.Errorf("first file overwritten: %q", data)
	}
}

func TestFileSystemRejectsEscapingKeys(t *testing.T) {
	fs := NewFileSystem(t.TempDir(), "banners", "/media")
	for _, key := range []string{"../outside.txt", "..", ""} {
		if _, err := fs.Open(context.Background(), key); err == nil || errors.Is(err, ErrNotFound) {
			t.Errorf("Open(%q) error = %v, want invalid key error", key, err)
		}
	}
}

func TestNewSelectsBackend(t *testing.T) {
	cfg := config.Default()
	cfg.SetConfigDir(t.TempDir())

	s, err := New(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	fs, ok := s.(*FileSystem)
	if !ok {
		t.Fatalf("New() = %T, want *FileSystem", s)
	}
	if fs.Root() != cfg.MediaRoot() {
		t.Errorf("Root() = %q, want %q", fs.Root(), cfg.MediaRoot())
	}

	cfg.Storage.Backend = "ftp"
	if _, err := New(context.Background(), cfg, logging.Discard()); err == nil {
		t.Error("New() expected error for unknown backend")
	}
}

// fakeS3 records the requests it receives and serves stored objects back.
type fakeS3 struct {
	mu       sync.Mutex
	requests []string
	objects  map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = body
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		w.Write(body)
	case http.MethodDelete:
		delete(f.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestS3(t *testing.T) (*S3, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("key", "secret", ""),
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
	})
	sc := config.Storage{
		Backend:  config.BackendS3,
		Bucket:   "larder",
		Prefix:   "uploads",
		Dir:      "banners",
		Endpoint: srv.URL,
	}
	return NewS3WithClient(client, sc), fake
}

func TestS3SaveOpenDelete(t *testing.T) {
	store, fake := newTestS3(t)
	ctx := context.Background()

	key, err := store.Save(ctx, "coconuts.txt", strings.NewReader("coconuts"), "text/plain")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !strings.HasPrefix(key, "uploads/banners/coconuts_") || !strings.HasSuffix(key, ".txt") {
		t.Errorf("Save() key = %q", key)
	}

	r, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	data, _ := io.ReadAll(r)
	r.Close()
	if string(data) != "coconuts" {
		t.Errorf("Open() content = %q, want \"coconuts\"", data)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	want := []string{
		"PUT /larder/" + key,
		"GET /larder/" + key,
		"DELETE /larder/" + key,
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.requests) != len(want) {
		t.Fatalf("requests = %v, want %v", fake.requests, want)
	}
	for i := range want {
		if fake.requests[i] != want[i] {
			t.Errorf("request[%d] = %q, want %q", i, fake.requests[i], want[i])
		}
	}
}

func TestS3URL(t *testing.T) {
	tests := []struct {
		name string
		sc   config.Storage
		want string
	}{
		{
			name: "explicit base url",
			sc:   config.Storage{Bucket: "b", BaseURL: "https://cdn.example.com"},
			want: "https://cdn.example.com/k.txt",
		},
		{
			name: "custom endpoint",
			sc:   config.Storage{Bucket: "b", Endpoint: "http://localhost:9000"},
			want: "http://localhost:9000/b/k.txt",
		},
		{
			name: "regional",
			sc:   config.Storage{Bucket: "b", Region: "eu-central-1"},
			want: "https://b.s3.eu-central-1.amazonaws.com/k.txt",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewS3WithClient(nil, tt.sc)
			if got := s.URL("k.txt"); got != tt.want {
				t.Errorf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}
