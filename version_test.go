package loom

import "testing"

func TestValidRelease(t *testing.T) {
	cases := map[string]bool{
		"1.2.3":       true,
		"v1.2.3":      true,
		" 8.16.0 ":    true,
		"1.2.3-rc.1":  true,
		"1.2.3+build": true,
		"0.0.0":       true,
		"1.2":         false,
		"1":           false,
		"1.2-rc.1":    false,
		"":            false,
		"x.y.z":       false,
		"1.2.3.4":     false,
	}
	for release, want := range cases {
		if got := ValidRelease(release); got != want {
			t.Fatalf("ValidRelease(%q) = %v, want %v", release, got, want)
		}
	}
}

func TestCompareReleases(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"6.0.0", "6.0.0", 0},
		{"6.0.0", "v6.0.0", 0},
		{"6.1.0", "6.0.9", 1},
		{"8.16.0", "8.2.0", 1},
		{"8.16.0-beta", "8.16.0", -1},
		{"0.0.0", "6.0.0", -1},
	}
	for _, tc := range cases {
		got, err := CompareReleases(tc.a, tc.b)
		if err != nil {
			t.Fatalf("CompareReleases(%q, %q): %v", tc.a, tc.b, err)
		}
		if got != tc.want {
			t.Fatalf("CompareReleases(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
	if _, err := CompareReleases("bad", "1.0.0"); err == nil {
		t.Fatalf("expected error for invalid left token")
	}
	if _, err := CompareReleases("1.0.0", "bad"); err == nil {
		t.Fatalf("expected error for invalid right token")
	}
	if !ReleaseBefore("6.0.0", "6.1.0") || ReleaseBefore("6.1.0", "6.0.0") || ReleaseBefore("bad", "6.0.0") {
		t.Fatalf("unexpected ReleaseBefore results")
	}
}

func TestSchemaVersionString(t *testing.T) {
	if CurrentSchema.String() != "v5" || SchemaV0.String() != "v0" {
		t.Fatalf("unexpected names %s %s", SchemaV0, CurrentSchema)
	}
}
