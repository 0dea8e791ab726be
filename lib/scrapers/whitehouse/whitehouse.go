package whitehouse

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"eomonitor/lib/htmlutil"
	"eomonitor/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/whitehouse")

const (
	DefaultBaseUrl = "https://www.whitehouse.gov"
	ActionsPath    = "/presidential-actions/"
	UserAgent      = "DocumentCloud Executive Orders Monitor (+https://www.documentcloud.org)"
)

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	// pause between detail page fetches so we don't hammer the site
	DetailDelay time.Duration
}

type ClientOptions struct {
	BaseUrl     string
	DetailDelay time.Duration
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.DetailDelay == 0 {
		opts.DetailDelay = time.Second
	}

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetHeader("user-agent", UserAgent)
	client.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("accept-language", "en-US,en;q=0.5")
	client.SetTimeout(time.Second * 30)
	// 3 attempts total, doubling wait between them
	client.SetRetryCount(2)
	client.SetRetryWaitTime(time.Second * 2)
	client.SetRetryMaxWaitTime(time.Second * 8)

	telemetry.InstrumentResty(client, "scrapers/whitehouse/http")

	return &Client{
		BaseUrl:     baseUrl,
		Http:        client,
		DetailDelay: opts.DetailDelay,
	}, nil
}

func (c *Client) fetchDocument(ctx context.Context, link string) (*goquery.Document, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", link, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", link, res.Status())
	}
	return goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
}

// ScrapeRecent fetches the presidential actions listing and then,
// one rate-limited request at a time, the detail page of every
// candidate order. A listing fetch failure aborts; a detail page
// whose content can't be located just leaves FullText empty.
func (c *Client) ScrapeRecent(ctx context.Context, includeProclamations bool) ([]Order, error) {
	ctx, span := tracer.Start(ctx, "ScrapeRecent")
	defer span.End()

	doc, err := c.fetchDocument(ctx, ActionsPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch actions listing")
		return nil, err
	}

	orders := c.parseListing(ctx, doc, includeProclamations)
	slog.InfoContext(ctx, "parsed actions listing", "candidates", len(orders))

	for i := range orders {
		c.detailPause(ctx)

		err := c.fetchOrderContent(ctx, &orders[i])
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch order content")
			return nil, err
		}
	}

	return orders, nil
}

func (c *Client) detailPause(ctx context.Context) {
	jitterMs, err := random.IntRange(0, 250)
	if err != nil {
		jitterMs = 0
	}
	select {
	case <-time.After(c.DetailDelay + time.Duration(jitterMs)*time.Millisecond):
	case <-ctx.Done():
	}
}

var titleClassRegex = regexp.MustCompile(`title|heading`)

func (c *Client) parseListing(ctx context.Context, doc *goquery.Document, includeProclamations bool) []Order {
	ctx, span := tracer.Start(ctx, "parseListing")
	defer span.End()

	items := doc.Find("article.presidential-actions-listing__item")
	if items.Length() == 0 {
		items = doc.Find("div.view-content").First().Find("article")
	}

	var orders []Order
	items.Each(func(_ int, item *goquery.Selection) {
		order, ok := c.parseListingItem(item, includeProclamations)
		if !ok {
			return
		}
		orders = append(orders, order)
	})

	return orders
}

func (c *Client) parseListingItem(item *goquery.Selection, includeProclamations bool) (Order, bool) {
	titleSel := item.Find("h2,h3,h4").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return titleClassRegex.MatchString(s.AttrOr("class", ""))
	}).First()
	if titleSel.Length() == 0 {
		titleSel = item.Find("a").First()
	}
	if titleSel.Length() == 0 {
		return Order{}, false
	}

	title := htmlutil.CleanText(titleSel.Text())
	if title == "" {
		slog.Warn("listing item without a title, skipping")
		return Order{}, false
	}

	lower := strings.ToLower(title)
	isProclamation := strings.Contains(lower, "proclamation")
	if !includeProclamations && isProclamation {
		return Order{}, false
	}
	if !includeProclamations && !strings.Contains(lower, "executive order") {
		return Order{}, false
	}

	href := item.Find("a[href]").First().AttrOr("href", "")
	if href == "" {
		slog.Warn("listing item without a link, skipping", "title", title)
		return Order{}, false
	}
	link, err := url.Parse(href)
	if err != nil {
		slog.Warn("listing item with unparseable link, skipping", "title", title, "href", href)
		return Order{}, false
	}
	absoluteUrl := c.BaseUrl.ResolveReference(link).String()

	dateSel := item.Find("time").First()
	if dateSel.Length() == 0 {
		dateSel = item.Find(`[class*="date"],[class*="time"]`).First()
	}
	dateStr := htmlutil.CleanText(dateSel.Text())

	orderType := OrderTypeExecutiveOrder
	if isProclamation {
		orderType = OrderTypeProclamation
	}

	return Order{
		Id:          DeriveId(absoluteUrl, title),
		Title:       title,
		Url:         absoluteUrl,
		DateStr:     dateStr,
		OrderNumber: ParseOrderNumber(title),
		Type:        orderType,
	}, true
}

func (c *Client) fetchOrderContent(ctx context.Context, order *Order) error {
	ctx, span := tracer.Start(ctx, "fetchOrderContent")
	defer span.End()

	doc, err := c.fetchDocument(ctx, order.Url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch detail page")
		return err
	}

	content := doc.Find("div.body-content").First()
	if content.Length() == 0 {
		content = doc.Find("div.presidential-action-content").First()
	}
	if content.Length() == 0 {
		content = doc.Find("main").First()
	}
	if content.Length() == 0 {
		content = doc.Find("article").First()
	}
	if content.Length() == 0 {
		slog.WarnContext(ctx, "no content element on detail page", "url", order.Url)
		return nil
	}

	order.FullText = htmlutil.BlockText(content)
	html, err := goquery.OuterHtml(content)
	if err == nil {
		order.HtmlContent = html
	}

	metadata := map[string]string{}
	dateSel := doc.Find("div.presidential-action-date").First()
	if dateSel.Length() == 0 {
		dateSel = doc.Find("time").First()
	}
	if issueDate := htmlutil.CleanText(dateSel.Text()); issueDate != "" {
		metadata["issue_date"] = issueDate
	}

	var categories []string
	doc.Find("a.category,span.topic").Each(func(_ int, s *goquery.Selection) {
		if cat := htmlutil.CleanText(s.Text()); cat != "" {
			categories = append(categories, cat)
		}
	})
	if len(categories) > 0 {
		metadata["categories"] = strings.Join(categories, ", ")
	}

	if len(metadata) > 0 {
		order.Metadata = metadata
	}
	return nil
}
