package filicious_test

import (
	"context"
	"testing"

	"github.com/filicious/filicious"
	"github.com/filicious/filicious/adapter/memory"
)

func TestNativeMoveCrossAdapterDeclines(t *testing.T) {
	ctx := context.Background()

	a := memory.New()
	b := memory.New()
	if err := a.WriteFile(ctx, "file.txt", []byte("x")); err != nil {
		t.Fatal(err)
	}

	src := filicious.NewPathname(a, "/a/file.txt", "file.txt")
	dst := filicious.NewPathname(b, "/b/file.txt", "file.txt")

	// Different adapter instances never rename natively, even when both
	// backends are the same kind.
	handled, err := filicious.NativeMove(ctx, src, dst)
	if err != nil {
		t.Fatalf("NativeMove failed: %v", err)
	}
	if handled {
		t.Error("cross-adapter move reported as handled")
	}

	// The source must be untouched after a declined move.
	if ok, _ := a.Exists(ctx, "file.txt"); !ok {
		t.Error("declined move removed the source")
	}
}

func TestNativeMoveSameAdapter(t *testing.T) {
	ctx := context.Background()

	a := memory.New()
	if err := a.WriteFile(ctx, "old.txt", []byte("x")); err != nil {
		t.Fatal(err)
	}

	src := filicious.NewPathname(a, "/m/old.txt", "old.txt")
	dst := filicious.NewPathname(a, "/m/new.txt", "new.txt")

	if !src.SameAdapter(dst) {
		t.Fatal("SameAdapter = false for identical instances")
	}

	handled, err := filicious.NativeMove(ctx, src, dst)
	if err != nil {
		t.Fatalf("NativeMove failed: %v", err)
	}
	if !handled {
		t.Fatal("same-adapter move not handled natively")
	}
	if ok, _ := a.Exists(ctx, "old.txt"); ok {
		t.Error("source remains after native move")
	}
	if ok, _ := a.Exists(ctx, "new.txt"); !ok {
		t.Error("destination missing after native move")
	}
}

func TestPathnameAccessors(t *testing.T) {
	a := memory.New()
	pn := filicious.NewPathname(a, "/mount/dir/f.txt", "dir/f.txt")

	if pn.Full() != "/mount/dir/f.txt" {
		t.Errorf("Full = %q", pn.Full())
	}
	if pn.Local() != "dir/f.txt" {
		t.Errorf("Local = %q", pn.Local())
	}
	if pn.Adapter() != a {
		t.Error("Adapter mismatch")
	}
}
