package printer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/starford/vitrine/internal/models"
)

func init() {
	color.NoColor = true
}

func TestRecords_Empty(t *testing.T) {
	var buf bytes.Buffer
	Records(&buf, nil)

	if !strings.Contains(buf.String(), EmptyMessage) {
		t.Errorf("output = %q, want empty message", buf.String())
	}
}

func TestRecords_RowsInOrder(t *testing.T) {
	var buf bytes.Buffer
	Records(&buf, []models.Record{
		{ID: "2", Title: "Tin Robot", CategoryKey: "SciFi", MediaRef: "robot.png"},
		{ID: "1", Title: "Sunset Beach", CategoryKey: "Landscape"},
	})

	out := buf.String()
	robot := strings.Index(out, "Tin Robot")
	sunset := strings.Index(out, "Sunset Beach")
	if robot < 0 || sunset < 0 || robot > sunset {
		t.Fatalf("rows missing or out of order:\n%s", out)
	}
	if !strings.Contains(out, "scifi") {
		t.Errorf("category should be printed lower-cased:\n%s", out)
	}
	if strings.Contains(out, EmptyMessage) {
		t.Error("empty message printed for non-empty records")
	}
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	Summary(&buf, 2, 4)

	if got := strings.TrimSpace(buf.String()); got != "2 of 4 prompts" {
		t.Errorf("summary = %q", got)
	}
}
