package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/DeepakDums1998/blog-app-skilldzire/internal/post/model"
	"github.com/DeepakDums1998/blog-app-skilldzire/internal/post/repository"
)

// isoLayout matches JavaScript's Date.prototype.toISOString.
const isoLayout = "2006-01-02T15:04:05.000Z"

var requiredFields = []string{"title", "content", "author"}

// MissingFieldsError names the required fields a write body lacked.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing fields: " + strings.Join(e.Fields, ", ")
}

// InvalidTextError names the fields whose text holds a NUL character or
// invalid UTF-8, neither of which every store can keep.
type InvalidTextError struct {
	Fields []string
}

func (e *InvalidTextError) Error() string {
	return "invalid text in fields: " + strings.Join(e.Fields, ", ")
}

// ValidateWriteFields requires title, content and author to be present and
// truthy, then coerces each to text. Partial bodies are rejected, and so
// is text that is not storable.
func ValidateWriteFields(body map[string]any) (model.PostFields, error) {
	var missing, invalid []string
	values := make(map[string]string, len(requiredFields))
	for _, name := range requiredFields {
		v, ok := body[name]
		if !ok || isEmpty(v) {
			missing = append(missing, name)
			continue
		}
		values[name] = toText(v)
		if !storableText(values[name]) {
			invalid = append(invalid, name)
		}
	}
	if len(missing) > 0 {
		return model.PostFields{}, &MissingFieldsError{Fields: missing}
	}
	if len(invalid) > 0 {
		return model.PostFields{}, &InvalidTextError{Fields: invalid}
	}
	return model.PostFields{
		Title:   values["title"],
		Content: values["content"],
		Author:  values["author"],
	}, nil
}

// NormalizeForRead turns a stored document into its wire shape. Missing
// text fields read as "" and an unset timestamp reads as null.
func NormalizeForRead(doc repository.Document) model.Post {
	return model.Post{
		ID:        doc.ID,
		Title:     textField(doc.Fields, "title"),
		Content:   textField(doc.Fields, "content"),
		Author:    textField(doc.Fields, "author"),
		CreatedAt: FormatTimestamp(doc.CreatedAt),
	}
}

// FormatTimestamp renders t in UTC with millisecond precision.
func FormatTimestamp(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.UTC().Format(isoLayout)
	return &s
}

// storableText reports whether s is valid UTF-8 without NUL characters.
// Postgres rejects both in text and jsonb.
func storableText(s string) bool {
	return utf8.ValidString(s) && !strings.ContainsRune(s, 0)
}

func textField(fields map[string]any, name string) string {
	v, ok := fields[name]
	if !ok || isEmpty(v) {
		return ""
	}
	return toText(v)
}

// isEmpty reports the JSON values that count as not provided:
// null, "", false and 0.
func isEmpty(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case float64:
		return v == 0
	case json.Number:
		f, err := v.Float64()
		return err == nil && f == 0
	}
	return false
}

func toText(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return formatNumber(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return formatNumber(f)
		}
		return v.String()
	case fmt.Stringer:
		return v.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// formatNumber renders f the way JavaScript's Number.prototype.toString
// does: plain decimals from 1e-6 up to 1e21, exponent form outside.
func formatNumber(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		s = strings.Replace(s, "e-0", "e-", 1)
		return strings.Replace(s, "e+0", "e+", 1)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
