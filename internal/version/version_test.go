package version

import "testing"

func TestInfoString(t *testing.T) {
	cases := []struct {
		name string
		info Info
		want string
	}{
		{"zero value", Info{}, "presentmax dev"},
		{"full", Info{Version: "v1.2.0", GitCommit: "abc1234", BuildTime: "2026-08-01T10:00:00Z"},
			"presentmax v1.2.0 (abc1234) built 2026-08-01T10:00:00Z"},
		{"version only", Info{Version: "v1.0.0"}, "presentmax v1.0.0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.info.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}
