// Package printer renders catalog records as terminal tables.
package printer

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/starford/vitrine/internal/models"
)

const descriptionWidth = 60

// EmptyMessage is printed when no record survives the filters.
const EmptyMessage = "No prompts match the current search and category filter."

// Records writes one row per record in the given order.
func Records(w io.Writer, records []models.Record) {
	if len(records) == 0 {
		faint := color.New(color.Faint, color.Italic)
		_, _ = fmt.Fprintln(w, faint.Sprint(EmptyMessage))
		return
	}

	bold := color.New(color.Bold)
	cat := color.New(color.FgHiYellow)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = descriptionWidth
	tbl.Wrap = true
	tbl.AddRow(bold.Sprint("ID"), bold.Sprint("Title"), bold.Sprint("Category"), bold.Sprint("Image"), bold.Sprint("Description"))
	for _, r := range records {
		image := r.MediaRef
		if image == "" {
			image = "-"
		}
		tbl.AddRow(string(r.ID), r.Title, cat.Sprint(r.Category()), image, r.Description)
	}

	_, _ = fmt.Fprintln(w, tbl)
}

// Summary writes a one-line count of shown against total records.
func Summary(w io.Writer, shown, total int) {
	faint := color.New(color.Faint)
	_, _ = fmt.Fprintln(w, faint.Sprintf("%d of %d prompts", shown, total))
}
