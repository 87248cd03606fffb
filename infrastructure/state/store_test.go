package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStore_LoadMissing(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "state.yaml"))
	if st := s.Load(); st != (State{}) {
		t.Errorf("Load() = %+v, want empty", st)
	}
}

func TestStore_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	os.WriteFile(path, []byte("last_source: [oops"), 0644)

	if st := NewStore(path).Load(); st != (State{}) {
		t.Errorf("Load() = %+v, want empty", st)
	}
}

func TestStore_SaveAndUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.yaml")
	s := NewStore(path)

	if err := s.Save(State{LastSource: "/music/a.wav"}); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	if err := s.Update(func(st *State) { st.LastOutput = "/music/a_cut.wav" }); err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}

	want := State{LastSource: "/music/a.wav", LastOutput: "/music/a_cut.wav"}
	if got := NewStore(path).Load(); got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestStore_EmptyPathIsNoop(t *testing.T) {
	s := NewStore("")
	if err := s.Save(State{LastSource: "x"}); err != nil {
		t.Errorf("Save() error = %v", err)
	}
	if st := s.Load(); st != (State{}) {
		t.Errorf("Load() = %+v, want empty", st)
	}
}
