package core

import (
	"fmt"
	"strings"

	"medassist/pkg"
)

const (
	defaultCategory  = "General"
	untitledDocument = "Untitled Document"
	dateLayout       = "2006-01-02"
	indentUnit       = "  "
)

// Keys probed, in priority order, when a lab test has no structured name or
// a document's content lives inside its results.
var (
	testNameKeys        = []string{"test_name", "name", "title"}
	documentContentKeys = []string{"summary", "text", "content"}
)

// FlattenRecords renders records, in the given order, as the narrative
// context block handed to the model.  It returns "" for no records.  A
// record that cannot be rendered normally degrades to its raw results text
// and never stops the remaining records from being rendered.
func FlattenRecords(records []pkg.MedicalRecord) string {
	blocks := make([]string, 0, len(records))
	for i, rec := range records {
		blocks = append(blocks, flattenRecord(i+1, rec))
	}
	return strings.Join(blocks, "\n\n")
}

func flattenRecord(index int, rec pkg.MedicalRecord) (block string) {
	defer func() {
		if r := recover(); r != nil {
			fallback := header(index, rec)
			if rec.TestResults != nil {
				fallback = append(fallback, "Raw: "+fmt.Sprintf("%v", rec.TestResults))
			}
			block = strings.Join(fallback, "\n")
		}
	}()

	lines := header(index, rec)
	switch rec.RecordType {
	case pkg.RecordLabTest:
		lines = append(lines, labTestLines(rec)...)
	case pkg.RecordPrescription:
		if deref(rec.PrescriptionText) != "" {
			lines = append(lines, "Prescription:", *rec.PrescriptionText)
		}
	case pkg.RecordDocument:
		lines = append(lines, documentLines(rec)...)
	}
	if status := deref(rec.Status); status != "" {
		lines = append(lines, "Status: "+status)
	}
	return strings.Join(lines, "\n")
}

func header(index int, rec pkg.MedicalRecord) []string {
	date := "Unknown"
	if !rec.Date.IsZero() {
		date = rec.Date.Format(dateLayout)
	}
	lines := []string{
		fmt.Sprintf("Record %d: %s", index, strings.ToUpper(string(rec.RecordType))),
		"Date: " + date,
	}
	if doctor := deref(rec.DoctorName); doctor != "" {
		lines = append(lines, "Doctor: "+doctor)
	}
	return lines
}

func labTestLines(rec pkg.MedicalRecord) []string {
	results := NormalizeResults(rec.TestResults)

	name := deref(rec.TestName)
	if name == "" {
		if n, ok := results.(Nested); ok {
			name = firstText(n, testNameKeys)
		}
	}
	category := deref(rec.TestCategory)
	if category == "" {
		category = defaultCategory
	}

	var lines []string
	if name != "" {
		lines = append(lines, "Test Name: "+name)
	}
	lines = append(lines, "Category: "+category)

	switch r := results.(type) {
	case nil:
	case Raw:
		lines = append(lines, "Test Results:", "Raw: "+r.Text)
	case Nested:
		lines = append(lines, "Test Results:")
		skip := map[string]bool{}
		if name != "" {
			for _, k := range testNameKeys {
				skip[k] = true
			}
		}
		lines = appendNested(lines, r, 0, skip)
	case LabeledValue:
		lines = append(lines, "Test Results:")
		lines = appendLabeled(lines, r, 0)
	case Scalar:
		lines = append(lines, "Test Results: "+r.Text)
	}
	return lines
}

func documentLines(rec pkg.MedicalRecord) []string {
	title := deref(rec.TestName)
	if title == "" {
		title = untitledDocument
	}
	lines := []string{"Document Title: " + title}
	if path := deref(rec.FilePath); path != "" {
		lines = append(lines, "File: "+path)
	}
	if n, ok := NormalizeResults(rec.TestResults).(Nested); ok {
		if content := firstText(n, documentContentKeys); content != "" {
			lines = append(lines, "Document Content: "+content)
		}
	}
	return lines
}

// appendNested writes one line per field.  Objects become a "<key>:"
// sub-header followed by their fields one indent level deeper; everything
// else is a "- <key>: <value>" leaf.  skip applies to the top level only.
func appendNested(lines []string, n Nested, depth int, skip map[string]bool) []string {
	indent := strings.Repeat(indentUnit, depth)
	for _, f := range n.Fields {
		if depth == 0 && skip[f.Key] {
			continue
		}
		switch v := f.Value.(type) {
		case Nested:
			lines = append(lines, indent+f.Key+":")
			lines = appendNested(lines, v, depth+1, nil)
		case LabeledValue:
			lines = append(lines, indent+f.Key+":")
			lines = appendLabeled(lines, v, depth+1)
		default:
			lines = append(lines, fmt.Sprintf("%s- %s: %s", indent, f.Key, inline(v)))
		}
	}
	return lines
}

// appendLabeled emits every present key, null or empty included, in the
// same sorted order appendNested uses.
func appendLabeled(lines []string, lv LabeledValue, depth int) []string {
	indent := strings.Repeat(indentUnit, depth)
	if lv.HasStatus {
		lines = append(lines, indent+"- status: "+lv.Status)
	}
	if lv.HasUnit {
		lines = append(lines, indent+"- unit: "+lv.Unit)
	}
	return append(lines, indent+"- value: "+lv.Value)
}

// firstText returns the first non-empty value among keys, in order.
func firstText(n Nested, keys []string) string {
	for _, k := range keys {
		if v, ok := n.Lookup(k); ok {
			if text := strings.TrimSpace(inline(v)); text != "" && text != "null" {
				return text
			}
		}
	}
	return ""
}

// inline renders any ResultValue on a single line.
func inline(v ResultValue) string {
	switch t := v.(type) {
	case Scalar:
		return t.Text
	case Raw:
		return t.Text
	case LabeledValue:
		parts := []string{t.Value}
		if t.Unit != "" && t.Unit != "null" {
			parts = append(parts, t.Unit)
		}
		text := strings.Join(parts, " ")
		if t.Status != "" && t.Status != "null" {
			text += " (" + t.Status + ")"
		}
		return text
	case Nested:
		parts := make([]string, 0, len(t.Fields))
		for _, f := range t.Fields {
			parts = append(parts, f.Key+": "+inline(f.Value))
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
