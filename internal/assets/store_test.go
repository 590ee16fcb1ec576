package assets

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pixil98/go-testutil"
)

type nameListSpec struct {
	Names []string `json:"names"`
}

func (s *nameListSpec) Validate() error {
	return nil
}

func writeAsset(t *testing.T, dir, id string, spec *nameListSpec) {
	t.Helper()
	data, err := json.Marshal(Asset[*nameListSpec]{
		Version:    1,
		Identifier: id,
		Spec:       spec,
	})
	if err != nil {
		t.Fatalf("marshalling test asset: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, id+".json"), data, 0644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}
}

func TestNewFileStore_Empty(t *testing.T) {
	store, err := NewFileStore[*nameListSpec](t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "records", len(store.GetAll()), 0)
}

func TestNewFileStore_MissingDirectory(t *testing.T) {
	_, err := NewFileStore[*nameListSpec]("/nonexistent/asset/path")
	if err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestNewFileStore_LoadsAssets(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, "surnames", &nameListSpec{Names: []string{"Brant", "Ilsa"}})
	writeAsset(t, dir, "callsigns", &nameListSpec{Names: []string{"Vox"}})

	store, err := NewFileStore[*nameListSpec](dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "records", len(store.GetAll()), 2)

	got := store.Get("surnames")
	if got == nil {
		t.Fatal("expected surnames to be loaded")
	}
	testutil.AssertEqual(t, "names", len(got.Names), 2)
}

func TestNewFileStore_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{broken`), 0644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	_, err := NewFileStore[*nameListSpec](dir)
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestNewFileStore_RejectsInvalidEnvelope(t *testing.T) {
	dir := t.TempDir()
	data, err := json.Marshal(Asset[*nameListSpec]{
		Version:    0,
		Identifier: "surnames",
		Spec:       &nameListSpec{},
	})
	if err != nil {
		t.Fatalf("marshalling test asset: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "surnames.json"), data, 0644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	_, err = NewFileStore[*nameListSpec](dir)
	if err == nil {
		t.Error("expected validation error")
	}
}

func TestNewFileStore_DuplicateKeyAcrossDirs(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "more")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatalf("creating subdir: %v", err)
	}

	spec := &nameListSpec{Names: []string{"Dupe"}}
	writeAsset(t, dir, "surnames", spec)

	data, err := json.Marshal(Asset[*nameListSpec]{Version: 1, Identifier: "surnames", Spec: spec})
	if err != nil {
		t.Fatalf("marshalling test asset: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "other.json"), data, 0644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	_, err = NewFileStore[*nameListSpec](dir)
	if err == nil {
		t.Error("expected duplicate key error")
	}
}

func TestNewFileStore_IgnoresNonJSON(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, "surnames", &nameListSpec{Names: []string{"Brant"}})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	store, err := NewFileStore[*nameListSpec](dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "records", len(store.GetAll()), 1)
}

func TestFileStore_GetMissing(t *testing.T) {
	store, err := NewFileStore[*nameListSpec](t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := store.Get("nope"); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestFileStore_GetAllReturnsCopy(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, "surnames", &nameListSpec{Names: []string{"Brant"}})

	store, err := NewFileStore[*nameListSpec](dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all := store.GetAll()
	delete(all, "surnames")

	if store.Get("surnames") == nil {
		t.Error("GetAll should return a copy, not the backing map")
	}
}

func TestFileStore_SaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore[*nameListSpec](dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Save("callsigns", &nameListSpec{Names: []string{"Vox", "Delta"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cached := store.Get("callsigns")
	if cached == nil {
		t.Fatal("expected cached record")
	}
	testutil.AssertEqual(t, "cached names", len(cached.Names), 2)

	data, err := os.ReadFile(filepath.Join(dir, "callsigns.json"))
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}

	var asset Asset[*nameListSpec]
	if err := json.Unmarshal(data, &asset); err != nil {
		t.Fatalf("unmarshalling saved file: %v", err)
	}
	testutil.AssertEqual(t, "version", asset.Version, uint(1))
	testutil.AssertEqual(t, "id", asset.Identifier, "callsigns")
	testutil.AssertEqual(t, "names", len(asset.Spec.Names), 2)
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	store, err := NewFileStore[*nameListSpec](t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Save("callsigns", &nameListSpec{Names: []string{"Vox"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Save("callsigns", &nameListSpec{Names: []string{"Vox", "Delta", "Echo"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "names", len(store.Get("callsigns").Names), 3)
}
