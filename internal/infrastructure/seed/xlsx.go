package seed

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/faqbot/faq-assistant/internal/core/domain"
)

// loadXLSX reads the first sheet. The first row is a header naming the
// columns; "answer" is accepted for "response".
func loadXLSX(path string) ([]domain.FAQRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open seed workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read seed sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "answer" {
			key = "response"
		}
		index[key] = i
	}
	for _, required := range []string{"faq_id", "segment_id", "question", "response"} {
		if _, ok := index[required]; !ok {
			return nil, domain.WrapError(domain.ErrInvalidInput, "load seed workbook", fmt.Errorf("missing column %q", required))
		}
	}

	cell := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := make([]domain.FAQRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		entry := seedEntry{
			Question:  cell(row, "question"),
			Response:  cell(row, "response"),
			CreatedAt: cell(row, "created_at"),
		}
		if err := entry.FAQID.parse(cell(row, "faq_id")); err != nil {
			return nil, fmt.Errorf("seed row %d faq_id: %w", n+2, err)
		}
		if err := entry.SegmentID.parse(cell(row, "segment_id")); err != nil {
			return nil, fmt.Errorf("seed row %d segment_id: %w", n+2, err)
		}
		if link := cell(row, "link"); link != "" {
			entry.Link = &link
		}
		rec, err := entry.record()
		if err != nil {
			return nil, fmt.Errorf("seed row %d: %w", n+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
