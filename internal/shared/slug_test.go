package shared

import "testing"

func TestNormalizeSlug(t *testing.T) {
	cases := map[string]string{
		"Project Management":   "project-management",
		"  Crème brûlée  ":     "creme-brulee",
		"notion-vs-clickup":    "notion-vs-clickup",
		"AI / ML tools!!":      "ai-ml-tools",
		"---":                  "",
		"Ünïcödé Tïtle 2024":   "unicode-title-2024",
		"already--double-dash": "already-double-dash",
	}
	for in, want := range cases {
		if got := NormalizeSlug(in); got != want {
			t.Errorf("NormalizeSlug(%q) = %q, want %q", in, got, want)
		}
	}
}
