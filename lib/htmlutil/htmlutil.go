package htmlutil

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || c == '\n' {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText trims a scraped string down to a single line of
// printable text with single spaces between words.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	return strings.Join(strings.Fields(s), " ")
}

var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "br": true, "tr": true, "blockquote": true,
}

// BlockText extracts the text content of a selection, inserting
// newlines at block element boundaries so paragraph structure
// survives the flattening.
func BlockText(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, node := range sel.Nodes {
		blockTextRecursive(node, &buffer)
	}

	var paragraphs []string
	for _, line := range strings.Split(buffer.String(), "\n") {
		line = CleanText(line)
		if line != "" {
			paragraphs = append(paragraphs, line)
		}
	}
	return strings.Join(paragraphs, "\n")
}

func blockTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	isBlock := node.Type == html.ElementNode && blockTags[node.Data]
	if isBlock {
		buffer.WriteString("\n")
	}
	child := node.FirstChild
	for child != nil {
		blockTextRecursive(child, buffer)
		child = child.NextSibling
	}
	if isBlock {
		buffer.WriteString("\n")
	}
}
