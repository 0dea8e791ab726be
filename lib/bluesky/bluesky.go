// Package bluesky posts order announcements over the AT Protocol
// XRPC endpoints. Only the narrow slice the monitor needs is
// implemented: session creation and feed post records, optionally
// threaded.
package bluesky

import (
	"context"
	"fmt"
	"time"

	"eomonitor/lib/scrapers/whitehouse"
	"eomonitor/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("bluesky")

const DefaultServiceUrl = "https://bsky.social"

const feedPostCollection = "app.bsky.feed.post"

type Client struct {
	Http   *resty.Client
	Handle string

	password      string
	did           string
	accessJwt     string
	authenticated bool
}

type ClientOptions struct {
	ServiceUrl string
	Handle     string
	Password   string
}

func NewClient(opts ClientOptions) *Client {
	if opts.ServiceUrl == "" {
		opts.ServiceUrl = DefaultServiceUrl
	}

	client := resty.New()
	client.SetBaseURL(opts.ServiceUrl)
	client.SetTimeout(time.Second * 30)
	client.SetRetryCount(2)
	client.SetRetryWaitTime(time.Second)

	telemetry.InstrumentResty(client, "bluesky/http")

	return &Client{
		Http:     client,
		Handle:   opts.Handle,
		password: opts.Password,
	}
}

func (c *Client) Login(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	var session struct {
		Did       string `json:"did"`
		AccessJwt string `json:"accessJwt"`
	}
	res, err := c.Http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"identifier": c.Handle,
			"password":   c.password,
		}).
		SetResult(&session).
		Post("/xrpc/com.atproto.server.createSession")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create session")
		return fmt.Errorf("bluesky login: %w", err)
	}
	if res.IsError() {
		err = fmt.Errorf("bluesky login: unexpected status %s", res.Status())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	c.did = session.Did
	c.accessJwt = session.AccessJwt
	c.authenticated = true
	return nil
}

func (c *Client) ensureLogin(ctx context.Context) error {
	if c.authenticated {
		return nil
	}
	return c.Login(ctx)
}

// PostRef identifies a post on the network.
type PostRef struct {
	Uri string `json:"uri"`
	Cid string `json:"cid"`
}

type PostResult struct {
	PostRef
	PostText string
}

type postRecord struct {
	Type      string     `json:"$type"`
	Text      string     `json:"text"`
	CreatedAt string     `json:"createdAt"`
	Reply     *replyRefs `json:"reply,omitempty"`
}

type replyRefs struct {
	Root   PostRef `json:"root"`
	Parent PostRef `json:"parent"`
}

func (c *Client) createRecord(ctx context.Context, record postRecord) (PostRef, error) {
	var ref PostRef
	res, err := c.Http.R().
		SetContext(ctx).
		SetAuthToken(c.accessJwt).
		SetBody(map[string]any{
			"repo":       c.did,
			"collection": feedPostCollection,
			"record":     record,
		}).
		SetResult(&ref).
		Post("/xrpc/com.atproto.repo.createRecord")
	if err != nil {
		return PostRef{}, fmt.Errorf("creating post record: %w", err)
	}
	if res.IsError() {
		return PostRef{}, fmt.Errorf("creating post record: unexpected status %s", res.Status())
	}
	return ref, nil
}

// PostOrder announces one order, linking its archived document.
func (c *Client) PostOrder(ctx context.Context, order whitehouse.Order, docUrl string) (PostResult, error) {
	ctx, span := tracer.Start(ctx, "PostOrder")
	defer span.End()

	err := c.ensureLogin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return PostResult{}, err
	}

	text := BuildPostText(order, docUrl)
	ref, err := c.createRecord(ctx, postRecord{
		Type:      feedPostCollection,
		Text:      text,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "post failed")
		return PostResult{}, err
	}

	return PostResult{PostRef: ref, PostText: text}, nil
}

type ThreadResult struct {
	Main  PostResult
	Reply *PostRef
}

// PostThread announces an order and, when extra detail text is
// given, attaches it as a reply under the main post. The reply text
// is capped at the post limit.
func (c *Client) PostThread(ctx context.Context, order whitehouse.Order, docUrl string, extra string) (ThreadResult, error) {
	ctx, span := tracer.Start(ctx, "PostThread")
	defer span.End()

	main, err := c.PostOrder(ctx, order, docUrl)
	if err != nil {
		return ThreadResult{}, err
	}
	if extra == "" {
		return ThreadResult{Main: main}, nil
	}

	runes := []rune(extra)
	if len(runes) > MaxPostLength {
		extra = string(runes[:MaxPostLength])
	}

	reply, err := c.createRecord(ctx, postRecord{
		Type:      feedPostCollection,
		Text:      extra,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Reply: &replyRefs{
			Root:   main.PostRef,
			Parent: main.PostRef,
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reply failed")
		// the main post went out; report it alongside the error
		return ThreadResult{Main: main}, err
	}

	return ThreadResult{Main: main, Reply: &reply}, nil
}
