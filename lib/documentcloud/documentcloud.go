// Package documentcloud is a minimal client for the pieces of the
// DocumentCloud REST API the monitor needs: uploading one pdf with
// its metadata, and kicking off add-on runs.
package documentcloud

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"eomonitor/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("documentcloud")

const DefaultBaseUrl = "https://api.www.documentcloud.org"

type Client struct {
	Http *resty.Client
}

type ClientOptions struct {
	BaseUrl string
	Token   string
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	_, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetAuthToken(opts.Token)
	client.SetTimeout(time.Second * 60)
	client.SetRetryCount(2)
	client.SetRetryWaitTime(time.Second * 2)

	telemetry.InstrumentResty(client, "documentcloud/http")

	return &Client{Http: client}, nil
}

// Document is what the sink hands back after an upload: a stable
// identifier plus the public url the announcement links to.
type Document struct {
	Id           string `json:"id"`
	Title        string `json:"title"`
	CanonicalUrl string `json:"canonical_url"`
	PresignedUrl string `json:"presigned_url"`
}

type UploadRequest struct {
	Title       string
	Source      string
	Description string
	Language    string
	Data        map[string]string
	PdfPath     string
}

// Upload creates the document record, pushes the pdf bytes to the
// returned presigned url, then asks the platform to process it.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (Document, error) {
	ctx, span := tracer.Start(ctx, "Upload")
	defer span.End()

	span.SetAttributes(attribute.String("title", req.Title))

	var doc Document
	res, err := c.Http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"title":       req.Title,
			"source":      req.Source,
			"description": req.Description,
			"language":    req.Language,
			"data":        req.Data,
		}).
		SetResult(&doc).
		Post("/api/documents/")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create document")
		return Document{}, fmt.Errorf("creating document: %w", err)
	}
	if res.IsError() {
		err = fmt.Errorf("creating document: unexpected status %s", res.Status())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Document{}, err
	}

	pdf, err := os.ReadFile(req.PdfPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read pdf")
		return Document{}, fmt.Errorf("reading pdf: %w", err)
	}

	res, err = c.Http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/pdf").
		SetBody(pdf).
		Put(doc.PresignedUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upload pdf")
		return Document{}, fmt.Errorf("uploading pdf: %w", err)
	}
	if res.IsError() {
		err = fmt.Errorf("uploading pdf: unexpected status %s", res.Status())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Document{}, err
	}

	res, err = c.Http.R().
		SetContext(ctx).
		Post(fmt.Sprintf("/api/documents/%s/process/", doc.Id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to start processing")
		return Document{}, fmt.Errorf("processing document: %w", err)
	}
	if res.IsError() {
		err = fmt.Errorf("processing document: unexpected status %s", res.Status())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Document{}, err
	}

	return doc, nil
}

// TriggerAddonRun starts an add-on run against a set of documents.
// Fire and forget: the caller never consumes the run's result.
func (c *Client) TriggerAddonRun(ctx context.Context, addon string, parameters map[string]any) error {
	ctx, span := tracer.Start(ctx, "TriggerAddonRun")
	defer span.End()

	span.SetAttributes(attribute.String("addon", addon))

	res, err := c.Http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"addon":      addon,
			"parameters": parameters,
		}).
		Post("/api/addon_runs/")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to trigger addon run")
		return fmt.Errorf("triggering addon run: %w", err)
	}
	if res.IsError() {
		err = fmt.Errorf("triggering addon run: unexpected status %s", res.Status())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
