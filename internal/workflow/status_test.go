package workflow

import (
	"testing"
)

func TestParseStatus_BranchWithTracking(t *testing.T) {
	st, err := ParseStatus([]byte("## main...origin/main [ahead 2, behind 1]\x00"))
	if err != nil {
		t.Fatalf("ParseStatus: %v", err)
	}
	if st.Branch != "main" || st.Upstream != "origin/main" {
		t.Errorf("Branch, Upstream = %q, %q; want main, origin/main", st.Branch, st.Upstream)
	}
	if st.Ahead != 2 || st.Behind != 1 {
		t.Errorf("Ahead, Behind = %d, %d; want 2, 1", st.Ahead, st.Behind)
	}
	if !st.Clean() {
		t.Errorf("Clean() = false, want true")
	}
}

func TestParseStatus_BranchHeaders(t *testing.T) {
	tests := []struct {
		header string
		branch string
	}{
		{"## No commits yet on main", "main"},
		{"## Initial commit on trunk", "trunk"},
		{"## HEAD (no branch)", ""},
		{"## feature/x", "feature/x"},
		{"## dev...origin/dev [gone]", "dev"},
	}
	for _, tt := range tests {
		st, err := ParseStatus([]byte(tt.header + "\x00"))
		if err != nil {
			t.Fatalf("ParseStatus(%q): %v", tt.header, err)
		}
		if st.Branch != tt.branch {
			t.Errorf("ParseStatus(%q).Branch = %q, want %q", tt.header, st.Branch, tt.branch)
		}
	}
}

func TestParseStatus_Entries(t *testing.T) {
	out := "## main\x00" +
		" M modified file.txt\x00" +
		"A  added.go\x00" +
		"R  new name.go\x00old name.go\x00" +
		"UU conflict.txt\x00" +
		"?? untracked/\xff.bin\x00"

	st, err := ParseStatus([]byte(out))
	if err != nil {
		t.Fatalf("ParseStatus: %v", err)
	}
	if len(st.Entries) != 5 {
		t.Fatalf("len(Entries) = %d, want 5: %+v", len(st.Entries), st.Entries)
	}

	if e := st.Entries[0]; e.Index != " " || e.Worktree != "M" || e.Path != "modified file.txt" {
		t.Errorf("Entries[0] = %+v", e)
	}
	if e := st.Entries[2]; e.Path != "new name.go" || e.OrigPath != "old name.go" {
		t.Errorf("Entries[2] = %+v, want rename old name.go -> new name.go", e)
	}
	if got := st.Entries[2].String(); got != "R  old name.go -> new name.go" {
		t.Errorf("Entries[2].String() = %q", got)
	}
	if !st.Entries[3].Conflicted() {
		t.Errorf("Entries[3].Conflicted() = false, want true")
	}
	if e := st.Entries[4]; !e.Untracked() || e.Path != "untracked/\xff.bin" {
		t.Errorf("Entries[4] = %+v, want untracked path kept byte for byte", e)
	}
}

func TestParseStatus_WorktreeRename(t *testing.T) {
	st, err := ParseStatus([]byte("## main\x00 R new.txt\x00old.txt\x00 M other.go\x00"))
	if err != nil {
		t.Fatalf("ParseStatus: %v", err)
	}
	if len(st.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2: %+v", len(st.Entries), st.Entries)
	}
	if e := st.Entries[0]; e.Worktree != "R" || e.Path != "new.txt" || e.OrigPath != "old.txt" {
		t.Errorf("Entries[0] = %+v, want work tree rename old.txt -> new.txt", e)
	}
	if e := st.Entries[1]; e.Path != "other.go" {
		t.Errorf("Entries[1] = %+v, want other.go", e)
	}
}

func TestParseStatus_Malformed(t *testing.T) {
	if _, err := ParseStatus([]byte("garbage\x00")); err == nil {
		t.Error("expected error for malformed entry")
	}
	if _, err := ParseStatus([]byte("R  new.go\x00")); err == nil {
		t.Error("expected error for rename without original path")
	}
}

func TestParseStatus_Empty(t *testing.T) {
	st, err := ParseStatus(nil)
	if err != nil {
		t.Fatalf("ParseStatus(nil): %v", err)
	}
	if !st.Clean() {
		t.Error("Clean() = false, want true")
	}
}
