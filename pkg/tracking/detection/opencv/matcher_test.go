package opencv

import (
	"path/filepath"
	"testing"

	"github.com/teslashibe/go-overstim/internal/log"
)

func TestOpen_MissingTemplates(t *testing.T) {
	_, err := Open(Config{
		Source:      "0",
		TemplateDir: filepath.Join(t.TempDir(), "nope"),
	}, log.Discard())
	if err == nil {
		t.Error("Expected error for missing templates")
	}
}
