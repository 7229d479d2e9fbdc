// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package version

import (
	"strings"
	"testing"
)

func TestGetVersionString(t *testing.T) {
	origVersion, origCommit := Version, CommitHash
	t.Cleanup(func() {
		Version, CommitHash = origVersion, origCommit
	})
	testDefs := []struct {
		version  string
		commit   string
		expected string
	}{
		{
			version:  "v0.3.0",
			commit:   "abc123",
			expected: "v0.3.0 (commit abc123)",
		},
		{
			commit:   "abc123",
			expected: "devel (commit abc123)",
		},
	}
	for _, testDef := range testDefs {
		Version, CommitHash = testDef.version, testDef.commit
		if got := GetVersionString(); got != testDef.expected {
			t.Fatalf("did not get expected version string: got %q, wanted %q", got, testDef.expected)
		}
	}
	// Falls back to the build info
	Version, CommitHash = "", ""
	if got := GetVersionString(); !strings.HasPrefix(got, "devel (commit ") {
		t.Fatalf("unexpected version string: %q", got)
	}
}
