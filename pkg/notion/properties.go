package notion

import (
	"strconv"
	"strings"
	"time"

	"github.com/jomei/notionapi"
)

// MaxTextLength is Notion's limit for one rich-text content block.
const MaxTextLength = 2000

// PlainText concatenates rich-text fragments.
func PlainText(rts []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range rts {
		if rt.PlainText != "" {
			b.WriteString(rt.PlainText)
		} else if rt.Text != nil {
			b.WriteString(rt.Text.Content)
		}
	}
	return b.String()
}

// Text reads a property as trimmed text. Title, rich text, select, number
// and formula-string properties are supported; anything else is "".
func Text(props notionapi.Properties, name string) string {
	prop, ok := props[name]
	if !ok {
		return ""
	}
	var s string
	switch p := prop.(type) {
	case *notionapi.TitleProperty:
		s = PlainText(p.Title)
	case *notionapi.RichTextProperty:
		s = PlainText(p.RichText)
	case *notionapi.SelectProperty:
		s = p.Select.Name
	case *notionapi.NumberProperty:
		s = strconv.FormatFloat(p.Number, 'f', -1, 64)
	case *notionapi.FormulaProperty:
		s = p.Formula.String
	}
	return strings.TrimSpace(s)
}

// Date reads a date property's start value.
func Date(props notionapi.Properties, name string) *time.Time {
	prop, ok := props[name]
	if !ok {
		return nil
	}
	dp, ok := prop.(*notionapi.DateProperty)
	if !ok || dp.Date == nil || dp.Date.Start == nil {
		return nil
	}
	t := time.Time(*dp.Date.Start)
	return &t
}

// RichText builds a rich-text property value.
func RichText(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		RichText: []notionapi.RichText{{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: s},
		}},
	}
}

// Number builds a number property value.
func Number(v float64) notionapi.NumberProperty {
	return notionapi.NumberProperty{Number: v}
}

// Select builds a select property value.
func Select(name string) notionapi.SelectProperty {
	return notionapi.SelectProperty{Select: notionapi.Option{Name: name}}
}

// DateValue builds a date property value. The time keeps its zone offset.
func DateValue(t time.Time) notionapi.DateProperty {
	d := notionapi.Date(t)
	return notionapi.DateProperty{Date: &notionapi.DateObject{Start: &d}}
}
