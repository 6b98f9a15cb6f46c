package boolean

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"
)

func persistentKeeperIndex(t *testing.T) (string, *Index[string]) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "keeper-index")
	ix, err := NewBuilder[string](StringCodec{}).
		Persist(dir).
		PageSize(128).
		Create(slices.Values(keeperCollection))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	return dir, ix
}

func TestPersistentBuildServesQueries(t *testing.T) {
	_, ix := persistentKeeperIndex(t)
	expect(t, run(t, ix, NewAtom("keeper")), 0, 3, 4)
	expect(t, run(t, ix, Phrase("night", "keeper")), 0, 3, 4)
}

func TestPersistLoadRoundTrip(t *testing.T) {
	dir, built := persistentKeeperIndex(t)
	built.Close()

	loaded, err := Load[string](dir, StringCodec{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer loaded.Close()

	if loaded.DocumentCount() != 6 {
		t.Errorf("DocumentCount = %d, want 6", loaded.DocumentCount())
	}
	queries := []Query[string]{
		NewAtom("keeper"),
		NewAtom("keep"),
		And(NewAtom("keeper"), NewAtom("keep")),
		Or(NewAtom("keeper"), NewAtom("keep")),
		Phrase("night", "keeper"),
		Not(NewAtom("the"), NewAtom("night")),
		NewAtom("unknown-term"),
	}
	fresh, err := NewBuilder[string](StringCodec{}).Create(slices.Values(keeperCollection))
	if err != nil {
		t.Fatal(err)
	}
	for _, q := range queries {
		if got, want := run(t, loaded, q), run(t, fresh, q); !reflect.DeepEqual(got, want) {
			t.Errorf("query %v: loaded %v, volatile %v", q, got, want)
		}
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	dir, built := persistentKeeperIndex(t)
	built.Close()
	meta, err := os.ReadFile(filepath.Join(dir, "meta"))
	if err != nil {
		t.Fatal(err)
	}
	meta[0] ^= 0xFF
	if err := os.WriteFile(filepath.Join(dir, "meta"), meta, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load[string](dir, StringCodec{}); !errors.Is(err, ErrBadMagic) {
		t.Errorf("Load = %v, want ErrBadMagic", err)
	}
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	dir, built := persistentKeeperIndex(t)
	built.Close()
	meta, err := os.ReadFile(filepath.Join(dir, "meta"))
	if err != nil {
		t.Fatal(err)
	}
	binary.LittleEndian.PutUint32(meta[4:8], 99)
	if err := os.WriteFile(filepath.Join(dir, "meta"), meta, 0o644); err != nil {
		t.Fatal(err)
	}
	var verr *UnsupportedVersionError
	if _, err := Load[string](dir, StringCodec{}); !errors.As(err, &verr) || verr.Version != 99 {
		t.Errorf("Load = %v, want UnsupportedVersionError{99}", err)
	}
}

func TestLoadRejectsCorruptedVocab(t *testing.T) {
	dir, built := persistentKeeperIndex(t)
	built.Close()
	// Chop the vocab mid-record.
	vocabPath := filepath.Join(dir, "vocab")
	raw, err := os.ReadFile(vocabPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(vocabPath, raw[:len(raw)-3], 0o644); err != nil {
		t.Fatal(err)
	}
	var cerr *CorruptedError
	if _, err := Load[string](dir, StringCodec{}); !errors.As(err, &cerr) {
		t.Errorf("Load = %v, want CorruptedError", err)
	}
}

func TestLoadRejectsMissingEntry(t *testing.T) {
	dir, built := persistentKeeperIndex(t)
	built.Close()
	entries, err := os.ReadDir(filepath.Join(dir, "entries"))
	if err != nil {
		t.Fatal(err)
	}
	last := entries[len(entries)-1].Name()
	if err := os.Remove(filepath.Join(dir, "entries", last)); err != nil {
		t.Fatal(err)
	}
	var cerr *CorruptedError
	if _, err := Load[string](dir, StringCodec{}); !errors.As(err, &cerr) {
		t.Errorf("Load = %v, want CorruptedError", err)
	}
}

func TestFailedBuildLeavesNothingVisible(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "occupied")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	_, err := NewBuilder[string](StringCodec{}).
		Persist(dir).
		Create(slices.Values(keeperCollection))
	if err == nil {
		t.Fatal("build into existing directory succeeded")
	}
	if _, statErr := os.Stat(dir + ".tmp"); !os.IsNotExist(statErr) {
		t.Errorf("temp build directory left behind")
	}
}

func TestPersistEmptyIndex(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "empty-index")
	ix, err := NewBuilder[string](StringCodec{}).
		Persist(dir).
		Create(slices.Values([][]string{}))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ix.Close()
	loaded, err := Load[string](dir, StringCodec{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer loaded.Close()
	if loaded.DocumentCount() != 0 {
		t.Errorf("DocumentCount = %d", loaded.DocumentCount())
	}
	expect(t, run(t, loaded, NewAtom("anything")))
}
