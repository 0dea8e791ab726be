package whitehouse

import (
	"net/url"
	"regexp"
	"strings"

	"eomonitor/lib/textutil"
)

type OrderType string

const (
	OrderTypeExecutiveOrder OrderType = "executive_order"
	OrderTypeProclamation   OrderType = "proclamation"
)

// Order is one presidential action scraped from the listing page.
// Orders are rebuilt from scratch on every scrape; only the Id is
// ever persisted.
type Order struct {
	Id          string
	Title       string
	Url         string
	DateStr     string
	OrderNumber string
	Type        OrderType
	FullText    string
	HtmlContent string
	Metadata    map[string]string
}

var orderNumberRegex = regexp.MustCompile(`(?i)Executive Order (\d+)`)

// ParseOrderNumber pulls the numeric order number out of a title,
// returning "" when the title doesn't carry one.
func ParseOrderNumber(title string) string {
	groups := orderNumberRegex.FindStringSubmatch(title)
	if len(groups) < 2 {
		return ""
	}
	return groups[1]
}

// DeriveId produces the stable identifier for an order. The url path
// is the primary source: slashes trimmed from both ends, internal
// slashes turned into hyphens. An order without a usable path falls
// back to a slug of its title. The same input always produces the
// same id, which is what the whole dedup scheme hangs on.
func DeriveId(rawurl string, title string) string {
	link, err := url.Parse(rawurl)
	if err == nil {
		path := strings.Trim(link.Path, "/")
		if path != "" {
			return strings.ReplaceAll(path, "/", "-")
		}
	}
	return textutil.Slugify(title, 100)
}
