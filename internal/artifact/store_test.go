package artifact

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"reelforge/internal/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.Config{OutputDir: t.TempDir()}
	st, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return st
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "render.mp4")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPublishMovesFile(t *testing.T) {
	st := newTestStore(t)
	src := writeTemp(t, "video-bytes")

	dst, err := st.Publish(context.Background(), src, "converted_abc.mp4")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read published: %v", err)
	}
	if string(data) != "video-bytes" {
		t.Errorf("published content = %q", data)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("source should be gone, stat err = %v", err)
	}
}

func TestPublishSanitizesKey(t *testing.T) {
	st := newTestStore(t)
	src := writeTemp(t, "x")

	dst, err := st.Publish(context.Background(), src, "../escape.mp4")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	rel, err := filepath.Rel(st.baseDir, dst)
	if err != nil || rel != "escape.mp4" {
		t.Errorf("dst = %q (rel %q, err %v)", dst, rel, err)
	}
}

func TestPathResolvesUnderBase(t *testing.T) {
	st := newTestStore(t)
	got := st.Path("batch/product_1.mp4")
	want := filepath.Join(st.baseDir, "batch", "product_1.mp4")
	if got != want {
		t.Errorf("Path = %q, want %q", got, want)
	}
}

type fakeUploader struct {
	keys   []string
	bodies map[string]string
}

func (f *fakeUploader) Upload(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if f.bodies == nil {
		f.bodies = map[string]string{}
	}
	f.keys = append(f.keys, key)
	f.bodies[key] = string(data)
	return "s3://test/" + key, nil
}

func TestPublishMirrorsToS3(t *testing.T) {
	st := newTestStore(t)
	fake := &fakeUploader{}
	st.s3 = fake
	src := writeTemp(t, "mirrored")

	if _, err := st.Publish(context.Background(), src, "converted_abc.mp4"); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(fake.keys) != 1 || fake.keys[0] != "converted_abc.mp4" {
		t.Fatalf("uploaded keys = %v", fake.keys)
	}
	if fake.bodies["converted_abc.mp4"] != "mirrored" {
		t.Errorf("uploaded body = %q", fake.bodies["converted_abc.mp4"])
	}
}
