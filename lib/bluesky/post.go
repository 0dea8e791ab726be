package bluesky

import (
	"strings"

	"eomonitor/lib/scrapers/whitehouse"
	"eomonitor/lib/textutil"
)

// MaxPostLength is the hard character limit bluesky enforces on a post.
const MaxPostLength = 300

const fullHashtags = "#ExecutiveOrder #WhiteHouse #GovDocs #Transparency"
const minimalHashtag = "#ExecutiveOrder"

func assemblePost(order whitehouse.Order, docUrl string, titleLimit int) string {
	lines := []string{
		"🆕 Executive Order: " + textutil.TruncateAtWord(order.Title, titleLimit),
	}
	if order.OrderNumber != "" {
		lines = append(lines, "📄 EO-"+order.OrderNumber)
	}
	lines = append(lines, "Full text archived:")
	lines = append(lines, "🔗 DocumentCloud: "+docUrl)
	if order.Url != "" {
		lines = append(lines, "🔗 Original: "+order.Url)
	}
	lines = append(lines, fullHashtags)
	return strings.Join(lines, "\n")
}

// BuildPostText formats the announcement for an order, shrinking in
// stages until it fits: title capped at 100 characters, then at 50,
// then the hashtag block drops to a single tag. The final text is
// hard-truncated as a last resort.
func BuildPostText(order whitehouse.Order, docUrl string) string {
	text := assemblePost(order, docUrl, 100)

	if len([]rune(text)) > MaxPostLength {
		text = assemblePost(order, docUrl, 50)

		if len([]rune(text)) > MaxPostLength {
			text = strings.Replace(text, fullHashtags, minimalHashtag, 1)
		}
	}

	runes := []rune(text)
	if len(runes) > MaxPostLength {
		return string(runes[:MaxPostLength])
	}
	return text
}
