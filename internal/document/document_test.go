package document_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"anvil/internal/document"
	"anvil/internal/position"
)

const sampleProject = `<Project>
  <PropertyGroup>
    <OutDir>bin\</OutDir>
    <Configuration>Debug</Configuration>
  </PropertyGroup>
  <ItemGroup>
    <Compile Include="main.cs" />
  </ItemGroup>
  <Target Name="Build" />
</Project>
`

func writeProject(t *testing.T, name, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestKindForPath(t *testing.T) {
	cases := map[string]document.Kind{
		"a.proj":    document.KindProject,
		"a.csproj":  document.KindProject,
		"a.props":   document.KindProps,
		"a.targets": document.KindTargets,
		"a.txt":     document.KindOther,
	}
	for path, want := range cases {
		if got := document.KindForPath(path); got != want {
			t.Errorf("KindForPath(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestLoad(t *testing.T) {
	path := writeProject(t, "app.proj", sampleProject)
	doc := document.New("file://"+path, path)

	semantics, err := doc.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !semantics {
		t.Error("expected project semantics for a .proj file")
	}
	if doc.Dirty() {
		t.Error("freshly loaded document should not be dirty")
	}
	if len(doc.Diagnostics()) != 0 {
		t.Errorf("unexpected diagnostics: %+v", doc.Diagnostics())
	}

	err = doc.WithSnapshot(context.Background(), func(s *document.Snapshot) error {
		if s.Text != sampleProject {
			t.Error("snapshot text does not match the file")
		}
		if s.Symbols == nil {
			t.Fatal("symbols not harvested")
		}
		if len(s.Symbols.Properties) != 2 {
			t.Errorf("got %d properties, want 2", len(s.Symbols.Properties))
		}
		if len(s.Symbols.Items) != 1 || s.Symbols.Items[0].Name != "Compile" {
			t.Errorf("items = %+v", s.Symbols.Items)
		}
		if len(s.Symbols.Targets) != 1 || s.Symbols.Targets[0].Name != "Build" {
			t.Errorf("targets = %+v", s.Symbols.Targets)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithSnapshot failed: %v", err)
	}
}

func TestLoadFailureKeepsState(t *testing.T) {
	path := writeProject(t, "app.proj", sampleProject)
	doc := document.New("file://"+path, path)
	if _, err := doc.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove file: %v", err)
	}
	if _, err := doc.Load(context.Background()); err == nil {
		t.Fatal("expected Load to fail after file removal")
	}

	// Previous snapshot must survive the failed reload.
	err := doc.WithSnapshot(context.Background(), func(s *document.Snapshot) error {
		if s.Text != sampleProject {
			t.Error("snapshot was clobbered by a failed Load")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithSnapshot failed: %v", err)
	}
}

func TestUpdate(t *testing.T) {
	doc := document.New("untitled:new.proj", "new.proj")

	if _, err := doc.Update(context.Background(), `<Project></Project>`); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !doc.Dirty() {
		t.Error("updated document should be dirty")
	}

	// Updating with broken text replaces the snapshot and reports
	// diagnostics instead of failing.
	if _, err := doc.Update(context.Background(), `<Project><Broken`); err != nil {
		t.Fatalf("Update of malformed text failed: %v", err)
	}
	if len(doc.Diagnostics()) == 0 {
		t.Error("expected diagnostics for malformed text")
	}
}

func TestOtherKindStillHarvestsSymbols(t *testing.T) {
	doc := document.New("untitled:notes.xml", "notes.xml")
	semantics, err := doc.Update(context.Background(), sampleProject)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if semantics {
		t.Error("a .xml file should not report project semantics")
	}
	err = doc.WithSnapshot(context.Background(), func(s *document.Snapshot) error {
		if s.Symbols == nil {
			t.Fatal("every snapshot must carry a symbol table")
		}
		if len(s.Symbols.Properties) != 2 {
			t.Errorf("got %d properties, want 2", len(s.Symbols.Properties))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithSnapshot failed: %v", err)
	}
}

func TestDiagnostics(t *testing.T) {
	t.Run("InvalidCondition", func(t *testing.T) {
		doc := document.New("untitled:a.proj", "a.proj")
		text := `<Project><PropertyGroup Condition="'$(A)' == "><X>1</X></PropertyGroup></Project>`
		if _, err := doc.Update(context.Background(), text); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		found := false
		for _, d := range doc.Diagnostics() {
			if d.Code == "invalid-condition" && d.Severity == document.SeverityWarning {
				found = true
			}
		}
		if !found {
			t.Errorf("missing invalid-condition diagnostic, got %+v", doc.Diagnostics())
		}
	})

	t.Run("UnknownElement", func(t *testing.T) {
		doc := document.New("untitled:a.proj", "a.proj")
		text := `<Project><Mystery/></Project>`
		if _, err := doc.Update(context.Background(), text); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		found := false
		for _, d := range doc.Diagnostics() {
			if d.Code == "unknown-element" && d.Severity == document.SeverityInformation {
				found = true
			}
		}
		if !found {
			t.Errorf("missing unknown-element diagnostic, got %+v", doc.Diagnostics())
		}
	})
}

func TestUnloadIsTerminal(t *testing.T) {
	doc := document.New("untitled:a.proj", "a.proj")
	if _, err := doc.Update(context.Background(), sampleProject); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	doc.Unload()

	if doc.Loaded() {
		t.Error("unloaded document should not be loaded")
	}
	if len(doc.Diagnostics()) != 0 {
		t.Error("unload should clear diagnostics")
	}
	if err := doc.WithSnapshot(context.Background(), func(*document.Snapshot) error { return nil }); !errors.Is(err, document.ErrUnloaded) {
		t.Errorf("WithSnapshot after Unload = %v, want ErrUnloaded", err)
	}
	if _, err := doc.Update(context.Background(), "x"); !errors.Is(err, document.ErrUnloaded) {
		t.Errorf("Update after Unload = %v, want ErrUnloaded", err)
	}
}

func TestWithSnapshotHonorsCancellation(t *testing.T) {
	doc := document.New("untitled:a.proj", "a.proj")
	if _, err := doc.Update(context.Background(), sampleProject); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := doc.WithSnapshot(ctx, func(*document.Snapshot) error {
		t.Error("fn must not run after cancellation")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestConcurrentReadersSeeConsistentSnapshots(t *testing.T) {
	doc := document.New("untitled:a.proj", "a.proj")
	if _, err := doc.Update(context.Background(), sampleProject); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	const readers = 8
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				err := doc.WithSnapshot(context.Background(), func(s *document.Snapshot) error {
					// Tree and text must always belong together.
					if s.Tree.Text() != s.Text {
						t.Error("snapshot text and tree diverge")
					}
					if s.Index.Len() != len(s.Text) {
						t.Error("snapshot text and index diverge")
					}
					_, err := s.Tree.Inspect(position.Position{Line: 1, Column: 2})
					return err
				})
				if err != nil {
					t.Errorf("reader failed: %v", err)
					return
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		text := sampleProject
		if i%2 == 1 {
			text = `<Project><ItemGroup/></Project>`
		}
		if _, err := doc.Update(context.Background(), text); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}
	close(stop)
	wg.Wait()
}
