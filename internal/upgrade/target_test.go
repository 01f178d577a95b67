package upgrade

import (
	"errors"
	"testing"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in      string
		want    Target
		wantErr bool
	}{
		{"movies", TargetMovies, false},
		{"episodes", TargetEpisodes, false},
		{"both", TargetBoth, false},
		{"", TargetBoth, false},
		{"radarr", TargetMovies, false},
		{"sonarr", TargetEpisodes, false},
		{"MOVIES", TargetMovies, false},
		{" both ", TargetBoth, false},
		{"music", 0, true},
		{"moviess", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTarget(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTarget(%q) expected error", tt.in)
				}
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Errorf("ParseTarget(%q) error = %T, want *ValidationError", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTarget(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseTarget(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTarget_Includes(t *testing.T) {
	if !TargetBoth.IncludesMovies() || !TargetBoth.IncludesEpisodes() {
		t.Error("TargetBoth must include both kinds")
	}
	if !TargetMovies.IncludesMovies() || TargetMovies.IncludesEpisodes() {
		t.Error("TargetMovies must include only movies")
	}
	if TargetEpisodes.IncludesMovies() || !TargetEpisodes.IncludesEpisodes() {
		t.Error("TargetEpisodes must include only episodes")
	}
}

func TestTarget_String(t *testing.T) {
	tests := []struct {
		target Target
		want   string
	}{
		{TargetMovies, "movies"},
		{TargetEpisodes, "episodes"},
		{TargetBoth, "both"},
	}
	for _, tt := range tests {
		if got := tt.target.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
