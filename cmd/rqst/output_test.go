package main

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/repoquest/rqst/internal/runtime"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() error = %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	w.Close()
	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestEmitDescriptorJSON(t *testing.T) {
	d := runtime.StateDescriptor{WorkingDir: "/tmp/quest", State: runtime.Completed, CanSkip: true}

	out := captureStdout(t, func() {
		if err := emitDescriptor("json", d); err != nil {
			t.Fatalf("emitDescriptor() error = %v", err)
		}
	})

	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("json.Unmarshal(%q) error = %v", out, err)
	}
	if decoded["state"] != "completed" {
		t.Errorf("decoded state = %v, want \"completed\"", decoded["state"])
	}
}

func TestEmitDescriptorTable(t *testing.T) {
	d := runtime.StateDescriptor{
		WorkingDir: "/tmp/quest",
		State:      runtime.Ongoing(0, 0, 0),
		Chapters:   []runtime.ChapterURLs{{Label: "intro", IssueURL: "https://example.test/issues/1"}},
	}

	out := captureStdout(t, func() {
		if err := emitDescriptor("table", d); err != nil {
			t.Fatalf("emitDescriptor() error = %v", err)
		}
	})

	if !bytes.Contains([]byte(out), []byte("intro")) {
		t.Errorf("table output = %q, want it to mention the chapter label", out)
	}
	if !bytes.Contains([]byte(out), []byte("https://example.test/issues/1")) {
		t.Errorf("table output = %q, want it to mention the issue URL", out)
	}
}
