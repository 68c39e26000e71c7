package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/faqbot/faq-assistant/internal/core/domain"
)

// FileLoader reads the seed FAQ collection from a .json, .yaml/.yml or .xlsx
// file chosen by extension.
type FileLoader struct {
	path string
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: strings.TrimSpace(path)}
}

func (l *FileLoader) Path() string {
	return l.path
}

func (l *FileLoader) Load(ctx context.Context) ([]domain.FAQRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.path == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "load seed", fmt.Errorf("seed path is not configured"))
	}

	switch ext := strings.ToLower(filepath.Ext(l.path)); ext {
	case ".json":
		return l.decodeFile(json.Unmarshal)
	case ".yaml", ".yml":
		return l.decodeFile(yaml.Unmarshal)
	case ".xlsx":
		return loadXLSX(l.path)
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "load seed", fmt.Errorf("unsupported seed format %q", ext))
	}
}

func (l *FileLoader) decodeFile(unmarshal func([]byte, any) error) ([]domain.FAQRecord, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var entries []seedEntry
	if err := unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", filepath.Base(l.path), err)
	}

	out := make([]domain.FAQRecord, 0, len(entries))
	for i, e := range entries {
		rec, err := e.record()
		if err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

type seedEntry struct {
	FAQID     flexInt `json:"faq_id" yaml:"faq_id"`
	SegmentID flexInt `json:"segment_id" yaml:"segment_id"`
	Question  string  `json:"question" yaml:"question"`
	Response  string  `json:"response" yaml:"response"`
	Link      *string `json:"link" yaml:"link"`
	CreatedAt string  `json:"created_at" yaml:"created_at"`
}

func (e seedEntry) record() (domain.FAQRecord, error) {
	if !e.FAQID.set {
		return domain.FAQRecord{}, fmt.Errorf("faq_id is required")
	}
	if !e.SegmentID.set {
		return domain.FAQRecord{}, fmt.Errorf("segment_id is required")
	}
	createdAt, err := domain.ParseSince(e.CreatedAt)
	if err != nil {
		return domain.FAQRecord{}, fmt.Errorf("created_at: %w", err)
	}
	rec := domain.FAQRecord{
		FAQID:     e.FAQID.value,
		SegmentID: e.SegmentID.value,
		Question:  e.Question,
		Response:  e.Response,
		CreatedAt: createdAt,
	}
	if e.Link != nil && strings.TrimSpace(*e.Link) != "" {
		link := strings.TrimSpace(*e.Link)
		rec.Link = &link
	}
	return rec, nil
}

// flexInt accepts integers written as numbers or numeric strings.
type flexInt struct {
	value int64
	set   bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "null" || s == "" {
		return nil
	}
	return f.parse(s)
}

func (f *flexInt) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" {
		return nil
	}
	return f.parse(node.Value)
}

func (f *flexInt) parse(s string) error {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %q", s)
	}
	f.value = n
	f.set = true
	return nil
}
