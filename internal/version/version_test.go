package version

import "testing"

func TestString(t *testing.T) {
	origVersion, origCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = origVersion, origCommit })

	Version, Commit = "v1.0.0", ""
	if got := String(); got != "v1.0.0" {
		t.Errorf("String() = %q, want v1.0.0", got)
	}

	Commit = "abc1234"
	if got := String(); got != "v1.0.0 (abc1234)" {
		t.Errorf("String() = %q, want %q", got, "v1.0.0 (abc1234)")
	}
}
