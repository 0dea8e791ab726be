// Package pdfutil renders a scraped order into the archival pdf
// that gets uploaded. Layout is deliberately plain: a header, a
// metadata block, the body text flowed across pages, and a footer
// naming the original source.
package pdfutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"eomonitor/lib/scrapers/whitehouse"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

const (
	pageWidth  = 612 // letter, points
	pageHeight = 792
	margin     = 72

	bodyFontSize   = 11
	titleFontSize  = 16
	headerFontSize = 18
	footerFontSize = 8

	lineHeight   = 14
	maxLineChars = 88
)

type font struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// pdfcpu rejects a text box carrying both pos and anchor, so boxes
// are placed by position only.
type textBox struct {
	Value    string    `json:"value"`
	Position []float64 `json:"pos"`
	Font     font      `json:"font"`
	Width    float64   `json:"width,omitempty"`
}

type pageContent struct {
	Text []textBox `json:"text"`
}

type page struct {
	Content pageContent `json:"content"`
}

type descriptor struct {
	Paper  string          `json:"paper"`
	Origin string          `json:"origin"`
	Pages  map[string]page `json:"pages"`
}

// Generate writes the archival pdf for an order to outPath and
// stamps document properties carrying the order's provenance.
func Generate(order whitehouse.Order, outPath string) error {
	blob, err := json.Marshal(buildDescriptor(order, time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("building pdf descriptor: %w", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating pdf file: %w", err)
	}
	err = api.Create(nil, bytes.NewReader(blob), out, nil)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}

	return addProperties(order, outPath)
}

func buildDescriptor(order whitehouse.Order, now time.Time) descriptor {
	title := order.Title
	if title == "" {
		title = "Untitled Executive Order"
	}

	header := "EXECUTIVE ORDER"
	if order.Type == whitehouse.OrderTypeProclamation {
		header = "PROCLAMATION"
	}

	var meta []string
	if order.OrderNumber != "" {
		meta = append(meta, fmt.Sprintf("Order Number: EO %s", order.OrderNumber))
	}
	if order.DateStr != "" {
		meta = append(meta, fmt.Sprintf("Issue Date: %s", order.DateStr))
	} else if issueDate := order.Metadata["issue_date"]; issueDate != "" {
		meta = append(meta, fmt.Sprintf("Issue Date: %s", issueDate))
	}
	meta = append(meta, fmt.Sprintf("Source URL: %s", order.Url))
	meta = append(meta, fmt.Sprintf("Archived: %s", now.Format("2006-01-02 15:04:05 UTC")))
	if categories := order.Metadata["categories"]; categories != "" {
		meta = append(meta, fmt.Sprintf("Categories: %s", categories))
	}

	fullText := order.FullText
	if fullText == "" {
		fullText = "No content available."
	}

	footer := fmt.Sprintf(
		"Automatically archived by the Executive Orders Monitor | Original source: %s | Archive timestamp: %s",
		order.Url,
		now.Format("2006-01-02 15:04:05 UTC"),
	)

	pages := map[string]page{}

	firstPage := page{Content: pageContent{Text: []textBox{
		{
			Value:    header,
			Position: []float64{margin, margin},
			Font:     font{Name: "Helvetica-Bold", Size: headerFontSize},
		},
		{
			Value:    wrapText(title, maxLineChars),
			Position: []float64{margin, margin + 36},
			Width:    pageWidth - 2*margin,
			Font:     font{Name: "Helvetica-Bold", Size: titleFontSize},
		},
		{
			Value:    strings.Join(meta, "\n"),
			Position: []float64{margin, margin + 96},
			Width:    pageWidth - 2*margin,
			Font:     font{Name: "Helvetica", Size: 10},
		},
	}}}

	bodyStartFirst := margin + 96 + float64(len(meta)+2)*lineHeight
	chunks := paginate(fullText, bodyStartFirst)

	for i, chunk := range chunks {
		y := float64(margin)
		p := page{}
		if i == 0 {
			p = firstPage
			y = bodyStartFirst
		}
		p.Content.Text = append(p.Content.Text, textBox{
			Value:    chunk,
			Position: []float64{margin, y},
			Width:    pageWidth - 2*margin,
			Font:     font{Name: "Helvetica", Size: bodyFontSize},
		})
		pages[fmt.Sprint(i+1)] = p
	}
	if len(chunks) == 0 {
		pages["1"] = firstPage
	}

	// footer lands on the last page
	lastNo := fmt.Sprint(max(len(chunks), 1))
	last := pages[lastNo]
	last.Content.Text = append(last.Content.Text, textBox{
		Value:    wrapText(footer, 110),
		Position: []float64{margin, pageHeight - margin + 24},
		Width:    pageWidth - 2*margin,
		Font:     font{Name: "Helvetica", Size: footerFontSize},
	})
	pages[lastNo] = last

	return descriptor{
		Paper:  "Letter",
		Origin: "upperLeft",
		Pages:  pages,
	}
}

// paginate wraps the body text and splits it into page-sized chunks.
// The first chunk is shorter since the header and metadata block eat
// into the first page.
func paginate(fullText string, firstPageStart float64) []string {
	var lines []string
	for _, para := range strings.Split(fullText, "\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		lines = append(lines, strings.Split(wrapText(para, maxLineChars), "\n")...)
		lines = append(lines, "")
	}

	firstPageLines := int((pageHeight - margin - firstPageStart) / lineHeight)
	if firstPageLines < 1 {
		firstPageLines = 1
	}
	fullPageLines := int((pageHeight - 2*margin) / lineHeight)

	var chunks []string
	for len(lines) > 0 {
		limit := fullPageLines
		if len(chunks) == 0 {
			limit = firstPageLines
		}
		if limit > len(lines) {
			limit = len(lines)
		}
		chunk := strings.TrimRight(strings.Join(lines[:limit], "\n"), "\n")
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		lines = lines[limit:]
	}
	return chunks
}

func wrapText(s string, width int) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	var out strings.Builder
	lineLen := 0
	for i, word := range words {
		if i > 0 {
			if lineLen+1+len(word) > width {
				out.WriteString("\n")
				lineLen = 0
			} else {
				out.WriteString(" ")
				lineLen++
			}
		}
		out.WriteString(word)
		lineLen += len(word)
	}
	return out.String()
}

func addProperties(order whitehouse.Order, path string) error {
	keywords := "executive order, white house, presidential action"
	if order.OrderNumber != "" {
		keywords += fmt.Sprintf(", EO %s", order.OrderNumber)
	}

	props := map[string]string{
		"Title":     order.Title,
		"Author":    "The White House",
		"Subject":   "Executive Order",
		"Keywords":  keywords,
		"SourceURL": order.Url,
	}
	err := api.AddPropertiesFile(path, "", props, nil)
	if err != nil {
		return fmt.Errorf("stamping pdf properties: %w", err)
	}
	return nil
}
