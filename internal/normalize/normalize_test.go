package normalize

import "testing"

func TestEmail(t *testing.T) {
	in := "  John.DOE@Example.COM  "
	want := "john.doe@example.com"
	got := Email(in)
	if got != want {
		t.Fatalf("Email(%q) = %q, want %q", in, got, want)
	}
}

func TestCategory(t *testing.T) {
	if got := Category(" Food\t"); got != "food" {
		t.Fatalf("Category = %q, want food", got)
	}
}

func TestText(t *testing.T) {
	cases := map[string]string{
		"  Main   Library,\n 2nd floor ": "Main Library, 2nd floor",
		"":                              "",
		"   ":                           "",
		"Coffee":                        "Coffee",
	}
	for in, want := range cases {
		if got := Text(in); got != want {
			t.Fatalf("Text(%q) = %q, want %q", in, got, want)
		}
	}
}
