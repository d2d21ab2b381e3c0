package filewatch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opst/sciportal/pkg/utils/filewatch"
)

func waitDone(t *testing.T, ctx context.Context) {
	t.Helper()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context is not canceled")
	}
}

func TestUntilModified(t *testing.T) {
	t.Run("when a file is created in a watched directory, it cancels the context", func(t *testing.T) {
		dir := t.TempDir()
		ctx, cancel, err := filewatch.UntilModified(context.Background(), dir)
		if err != nil {
			t.Fatal(err)
		}
		defer cancel()
		if err := ctx.Err(); err != nil {
			t.Fatalf("canceled too early: %v", err)
		}

		if err := os.WriteFile(filepath.Join(dir, "file"), []byte("x"), os.FileMode(0600)); err != nil {
			t.Fatal(err)
		}
		waitDone(t, ctx)
		if cause := context.Cause(ctx); !errors.Is(cause, filewatch.ErrModified) {
			t.Errorf("unexpected cause: %v", cause)
		}
	})

	t.Run("when a watched file is written, it cancels the context", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(file, []byte("version: v1"), os.FileMode(0600)); err != nil {
			t.Fatal(err)
		}
		ctx, cancel, err := filewatch.UntilModified(context.Background(), file)
		if err != nil {
			t.Fatal(err)
		}
		defer cancel()

		if err := os.WriteFile(file, []byte("version: v2"), os.FileMode(0600)); err != nil {
			t.Fatal(err)
		}
		waitDone(t, ctx)
		if cause := context.Cause(ctx); !errors.Is(cause, filewatch.ErrModified) {
			t.Errorf("unexpected cause: %v", cause)
		}
	})

	t.Run("when cancel is called, it is not caused by modification", func(t *testing.T) {
		ctx, cancel, err := filewatch.UntilModified(context.Background(), t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		cancel()
		waitDone(t, ctx)
		if cause := context.Cause(ctx); errors.Is(cause, filewatch.ErrModified) {
			t.Errorf("unexpected cause: %v", cause)
		}
	})

	t.Run("when the path does not exist, it fails", func(t *testing.T) {
		ctx, cancel, err := filewatch.UntilModified(
			context.Background(), filepath.Join(t.TempDir(), "missing"),
		)
		if err == nil {
			cancel()
			t.Fatal("no error")
		}
		if ctx != nil || cancel != nil {
			t.Error("context or cancel is returned with error")
		}
	})
}
