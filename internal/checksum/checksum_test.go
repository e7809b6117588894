package checksum

import "testing"

func TestSumStable(t *testing.T) {
	a := Sum([]byte("hello"))
	if a != Sum([]byte("hello")) {
		t.Fatal("checksum not deterministic")
	}
	if len(a) != 64 {
		t.Errorf("len = %d, want 64", len(a))
	}
	if a == Sum([]byte("hello!")) {
		t.Error("different content produced same checksum")
	}
}

func TestETag(t *testing.T) {
	if got := ETag("abc"); got != `"abc"` {
		t.Errorf("ETag = %s", got)
	}
}

func TestMatches(t *testing.T) {
	data := []byte("# Doc")
	sum := Sum(data)
	other := Sum([]byte("other"))

	for _, ifMatch := range []string{
		sum,
		ETag(sum),
		`W/"` + sum + `"`,
		" " + sum,
		"*",
		ETag(other) + ", " + ETag(sum),
	} {
		if !Matches(data, ifMatch) {
			t.Errorf("Matches(%q) = false", ifMatch)
		}
	}
	for _, ifMatch := range []string{other, ETag(other), `"",` + ETag(other)} {
		if Matches(data, ifMatch) {
			t.Errorf("Matches(%q) = true", ifMatch)
		}
	}
}
