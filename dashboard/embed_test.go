package dashboard

import (
	"io/fs"
	"strings"
	"testing"
)

func TestAssets_IndexPage(t *testing.T) {
	data, err := fs.ReadFile(Assets, "assets/index.html")
	if err != nil {
		t.Fatalf("ReadFile(index.html) error = %v", err)
	}
	page := string(data)

	for _, want := range []string{"{{.Title}}", "api/sse", "api/navigate", "hashchange"} {
		if !strings.Contains(page, want) {
			t.Errorf("index.html does not contain %q", want)
		}
	}
}
