package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplateAndUserAgent(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })
	Version = "v1.2.3"

	if got := UserAgent(); got != "marketlink/v1.2.3" {
		t.Errorf("UserAgent() = %q", got)
	}
	if tmpl := Template(); !strings.Contains(tmpl, "{{.Name}} version v1.2.3") {
		t.Errorf("Template() = %q", tmpl)
	}
	if s := String(); !strings.HasPrefix(s, "version: v1.2.3\n") {
		t.Errorf("String() = %q", s)
	}
}
