package platform

import "testing"

func TestIdentify(t *testing.T) {
	id := Identify()
	if id.SysName == "" {
		t.Error("Identify() returned empty SysName")
	}
	if id.Release == "" {
		t.Error("Identify() returned empty Release")
	}
}

func TestIdentityString(t *testing.T) {
	tests := []struct {
		id   Identity
		want string
	}{
		{Identity{"Linux", "6.1.0"}, "Linux 6.1.0"},
		{Identity{"Linux", ""}, "Linux"},
		{Identity{}, ""},
	}
	for _, tt := range tests {
		if got := tt.id.String(); got != tt.want {
			t.Errorf("Identity.String() = %q, want %q", got, tt.want)
		}
	}
}

func TestCString(t *testing.T) {
	if got := cstring([]byte{'a', 'b', 0, 'c'}); got != "ab" {
		t.Errorf("cstring() = %q, want %q", got, "ab")
	}
	if got := cstring([]byte("abc")); got != "abc" {
		t.Errorf("cstring() = %q, want %q", got, "abc")
	}
}
