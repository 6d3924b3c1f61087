package main

import (
	"testing"

	"github.com/repoquest/rqst/internal/runtime"
)

func TestParseNewLocationRemote(t *testing.T) {
	newRemote, newPackage = "acme/widgets", ""
	defer func() { newRemote, newPackage = "", "" }()

	loc, err := parseNewLocation()
	if err != nil {
		t.Fatalf("parseNewLocation() error = %v", err)
	}
	if loc != runtime.RemoteLocation("acme", "widgets") {
		t.Errorf("parseNewLocation() = %+v, want acme/widgets", loc)
	}
}

func TestParseNewLocationPackage(t *testing.T) {
	newRemote, newPackage = "", "quest.json.gz"
	defer func() { newRemote, newPackage = "", "" }()

	loc, err := parseNewLocation()
	if err != nil {
		t.Fatalf("parseNewLocation() error = %v", err)
	}
	if loc != runtime.PackageLocation("quest.json.gz") {
		t.Errorf("parseNewLocation() = %+v, want quest.json.gz", loc)
	}
}

func TestParseNewLocationRejectsBoth(t *testing.T) {
	newRemote, newPackage = "acme/widgets", "quest.json.gz"
	defer func() { newRemote, newPackage = "", "" }()

	if _, err := parseNewLocation(); err == nil {
		t.Error("parseNewLocation() with both flags set should error")
	}
}

func TestParseNewLocationRejectsNeither(t *testing.T) {
	newRemote, newPackage = "", ""

	if _, err := parseNewLocation(); err == nil {
		t.Error("parseNewLocation() with neither flag set should error")
	}
}

func TestParseNewLocationRejectsMalformedRemote(t *testing.T) {
	newRemote, newPackage = "not-owner-slash-repo", ""
	defer func() { newRemote, newPackage = "", "" }()

	if _, err := parseNewLocation(); err == nil {
		t.Error("parseNewLocation() with a malformed --remote should error")
	}
}

func TestParseChapterArg(t *testing.T) {
	n, err := parseChapterArg("2")
	if err != nil {
		t.Fatalf("parseChapterArg() error = %v", err)
	}
	if n != 2 {
		t.Errorf("parseChapterArg() = %d, want 2", n)
	}

	if _, err := parseChapterArg("not-a-number"); err == nil {
		t.Error("parseChapterArg(\"not-a-number\") expected an error")
	}
}
