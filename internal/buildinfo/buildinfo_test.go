package buildinfo

import "testing"

func TestIsCompatibleSameMajor(t *testing.T) {
	if !IsCompatible("v1.3.0") {
		t.Error("v1.3.0 should be compatible with v1.x engine")
	}
	if !IsCompatible("v1.9.9") {
		t.Error("v1.9.9 should be compatible with v1.x engine")
	}
}

func TestIsCompatibleDifferentMajor(t *testing.T) {
	if IsCompatible("v2.0.0") {
		t.Error("v2.0.0 should not be compatible with v1.x engine")
	}
}

func TestIsCompatibleInvalidVersion(t *testing.T) {
	if IsCompatible("not-a-version") {
		t.Error("invalid version string should not be compatible")
	}
}

func TestCompatibleRange(t *testing.T) {
	if got, want := CompatibleRange(), "^"+Version; got != want {
		t.Errorf("CompatibleRange() = %q, want %q", got, want)
	}
}
