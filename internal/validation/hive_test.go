package validation

import "testing"

func TestValidateHiveSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		slug string
		ok   bool
	}{
		{name: "valid with number", slug: "deep-work-2", ok: true},
		{name: "valid single word", slug: "library", ok: true},
		{name: "too short", slug: "ab", ok: false},
		{name: "minimum length", slug: "abc", ok: true},
		{name: "maximum length", slug: "abcdefghijklmnopqrstuvwx", ok: true},
		{name: "too long", slug: "abcdefghijklmnopqrstuvwxy", ok: false},
		{name: "uppercase", slug: "Library", ok: false},
		{name: "underscore", slug: "deep_work", ok: false},
		{name: "space", slug: "deep work", ok: false},
		{name: "symbol", slug: "deep!work", ok: false},
		{name: "leading hyphen", slug: "-library", ok: false},
		{name: "trailing hyphen", slug: "library-", ok: false},
		{name: "reserved admin", slug: "admin", ok: false},
		{name: "reserved api", slug: "api", ok: false},
		{name: "reserved hives", slug: "hives", ok: false},
		{name: "reserved h", slug: "h", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateHiveSlug(tc.slug)
			if tc.ok && err != nil {
				t.Fatalf("expected valid slug, got error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected invalid slug, got nil error")
			}
		})
	}
}
