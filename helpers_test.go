package textbulker

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  Go & SEO: 2024!  ", "go-seo-2024"},
		{"---", ""},
		{"already-a-slug", "already-a-slug"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.input); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPluginSet(t *testing.T) {
	set := NewPluginSet([]string{"wordpress-seo/wp-seo.php", " ", ""})
	if !set.IsPluginActive("wordpress-seo/wp-seo.php") {
		t.Error("expected yoast to be active")
	}
	if set.IsPluginActive("seo-by-rank-math/rank-math.php") {
		t.Error("expected rank math to be inactive")
	}
	if len(set) != 1 {
		t.Errorf("len = %d, want 1", len(set))
	}
}

func TestRenderMarkdown(t *testing.T) {
	got, err := RenderMarkdown("# Title\n\nSome *text* <script>x</script>")
	if err != nil {
		t.Fatalf("RenderMarkdown failed: %v", err)
	}
	if !strings.Contains(got, "<h1>Title</h1>") {
		t.Errorf("missing heading: %s", got)
	}
	if !strings.Contains(got, "<em>text</em>") {
		t.Errorf("missing emphasis: %s", got)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("raw html passed through: %s", got)
	}
}
