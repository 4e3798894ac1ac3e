package s3

import "testing"

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "contracts/c-1/msa.pdf", want: "contracts/c-1/msa.pdf"},
		{name: "simple prefix", prefix: "prod", key: "contracts/c-1/msa.pdf", want: "prod/contracts/c-1/msa.pdf"},
		{name: "prefix trailing slash", prefix: "prod/", key: "contracts/c-1/msa.pdf", want: "prod/contracts/c-1/msa.pdf"},
		{name: "prefix and key slashes", prefix: "/prod/", key: "/contracts/c-1/msa.pdf", want: "prod/contracts/c-1/msa.pdf"},
		{name: "empty key", prefix: "prod", key: "", want: "prod"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestNormalizePrefix(t *testing.T) {
	if got := normalizePrefix("  /uploads/ "); got != "uploads" {
		t.Fatalf("normalizePrefix = %q", got)
	}
}
