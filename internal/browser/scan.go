// Package browser - scan.go turns rendered page HTML into discovered form fields.
package browser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/apply-pilot/internal/types"
)

// ParseFields extracts form controls from rendered HTML in document order.
// It is a pure function of the markup so the scan logic is testable without a
// live browser; the session feeds it the page's outer HTML.
func ParseFields(html string) ([]types.FormField, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	var fields []types.FormField
	doc.Find("input, select, textarea").Each(func(i int, sel *goquery.Selection) {
		inputType := controlType(sel)
		if skipControl(inputType) {
			return
		}

		field := types.FormField{
			Locator:      locatorFor(sel, i),
			Label:        labelFor(doc, sel),
			Name:         sel.AttrOr("name", ""),
			ID:           idFor(sel),
			InputType:    inputType,
			Autocomplete: sel.AttrOr("autocomplete", ""),
			Context:      contextFor(sel),
			Required:     hasAttr(sel, "required") || sel.AttrOr("aria-required", "") == "true",
			Kind:         types.KindUnknown,
		}

		if goquery.NodeName(sel) == "select" {
			sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
				if v := strings.TrimSpace(opt.Text()); v != "" {
					field.Options = append(field.Options, v)
				}
			})
		}

		fields = append(fields, field)
	})

	return fields, nil
}

// skipControl filters control types that are never applicant-fillable.
func skipControl(inputType string) bool {
	switch inputType {
	case "hidden", "submit", "button", "image", "reset":
		return true
	}
	return false
}

// controlType normalizes the control's type: the type attribute for inputs,
// the tag name for select and textarea.
func controlType(sel *goquery.Selection) string {
	switch goquery.NodeName(sel) {
	case "select":
		return "select"
	case "textarea":
		return "textarea"
	default:
		t := strings.ToLower(sel.AttrOr("type", "text"))
		if t == "" {
			return "text"
		}
		return t
	}
}

// idFor prefers the id attribute, falling back to Workday's
// data-automation-id so vendor strategies can key off it.
func idFor(sel *goquery.Selection) string {
	if id := sel.AttrOr("id", ""); id != "" {
		return id
	}
	return sel.AttrOr("data-automation-id", "")
}

// locatorFor builds a stable CSS selector for the control. Controls with
// neither id nor name get a positional fallback that is only valid against
// the snapshot's page state.
func locatorFor(sel *goquery.Selection, index int) string {
	tag := goquery.NodeName(sel)
	if id := sel.AttrOr("id", ""); id != "" {
		return "#" + id
	}
	if auto := sel.AttrOr("data-automation-id", ""); auto != "" {
		return fmt.Sprintf(`%s[data-automation-id="%s"]`, tag, auto)
	}
	if name := sel.AttrOr("name", ""); name != "" {
		return fmt.Sprintf(`%s[name="%s"]`, tag, name)
	}
	return fmt.Sprintf("%s:nth-of-type(%d)", tag, index+1)
}

// labelFor resolves the visible label text for a control: a <label for=...>
// match first, then a wrapping <label>, then aria-label, then placeholder.
func labelFor(doc *goquery.Document, sel *goquery.Selection) string {
	if id := sel.AttrOr("id", ""); id != "" {
		label := doc.Find(fmt.Sprintf(`label[for="%s"]`, id))
		if label.Length() > 0 {
			return cleanText(label.First().Text())
		}
	}
	if parent := sel.Closest("label"); parent.Length() > 0 {
		clone := parent.Clone()
		clone.Find("input, select, textarea").Remove()
		if text := cleanText(clone.Text()); text != "" {
			return text
		}
	}
	if aria := sel.AttrOr("aria-label", ""); aria != "" {
		return aria
	}
	return sel.AttrOr("placeholder", "")
}

// contextFor captures nearby section text: the enclosing fieldset legend or
// the closest preceding heading inside the control's container.
func contextFor(sel *goquery.Selection) string {
	if fs := sel.Closest("fieldset"); fs.Length() > 0 {
		if legend := fs.Find("legend"); legend.Length() > 0 {
			return cleanText(legend.First().Text())
		}
	}
	container := sel.Closest("section, div.field, div.form-group, div")
	if container.Length() > 0 {
		if heading := container.Find("h1, h2, h3, h4, legend").First(); heading.Length() > 0 {
			return cleanText(heading.Text())
		}
	}
	return ""
}

func hasAttr(sel *goquery.Selection, name string) bool {
	_, ok := sel.Attr(name)
	return ok
}

// cleanText collapses whitespace runs in extracted label text.
func cleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
