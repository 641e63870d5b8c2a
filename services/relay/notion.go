package relay

import (
	"context"
	"fmt"
	"time"

	"dmexport-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

// Record is one tracked account in the external structured store.
type Record struct {
	Id     string
	Handle string
	Status string
	Url    string
}

// RecordStore is the storage surface the webhook needs: lookup by
// handle, a status write, creation, and the known-handle list used for
// typo suggestions.
type RecordStore interface {
	Find(ctx context.Context, handle string) (Record, bool, error)
	SetStatus(ctx context.Context, id, status string) (Record, error)
	Create(ctx context.Context, handle, status string) (Record, error)
	Handles(ctx context.Context) ([]string, error)
}

type NotionConfig struct {
	Secret     string `json:"secret"`
	DatabaseId string `json:"database_id"`
	// TitleProperty is the database column holding the handle.
	TitleProperty string `json:"title_property"`
	// StatusProperty is the database column holding the status.
	StatusProperty string `json:"status_property"`
}

type NotionStore struct {
	http   *resty.Client
	config NotionConfig
}

var _ RecordStore = NotionStore{}

func NewNotionStore(config NotionConfig) NotionStore {
	client := resty.New()
	client.SetBaseURL("https://api.notion.com/v1")
	client.SetAuthToken(config.Secret)
	client.SetHeader("Notion-Version", "2022-06-28")
	client.SetTimeout(time.Second * 15)

	telemetry.InstrumentResty(client, "services/relay/notion")

	return NotionStore{http: client, config: config}
}

type notionPage struct {
	Id         string                    `json:"id"`
	Url        string                    `json:"url"`
	Properties map[string]notionProperty `json:"properties"`
}

type notionProperty struct {
	Title  []notionRichText `json:"title,omitempty"`
	Status *notionStatus    `json:"status,omitempty"`
}

type notionRichText struct {
	PlainText string      `json:"plain_text,omitempty"`
	Text      *notionText `json:"text,omitempty"`
}

type notionText struct {
	Content string `json:"content"`
}

type notionStatus struct {
	Name string `json:"name"`
}

func (s NotionStore) record(page notionPage) Record {
	rec := Record{Id: page.Id, Url: page.Url}
	if prop, ok := page.Properties[s.config.TitleProperty]; ok && len(prop.Title) > 0 {
		rec.Handle = prop.Title[0].PlainText
	}
	if prop, ok := page.Properties[s.config.StatusProperty]; ok && prop.Status != nil {
		rec.Status = prop.Status.Name
	}
	return rec
}

type notionQueryResult struct {
	Results    []notionPage `json:"results"`
	HasMore    bool         `json:"has_more"`
	NextCursor string       `json:"next_cursor"`
}

func (s NotionStore) query(ctx context.Context, body map[string]any) (notionQueryResult, error) {
	var result notionQueryResult
	res, err := s.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post(fmt.Sprintf("/databases/%s/query", s.config.DatabaseId))
	if err != nil {
		return notionQueryResult{}, err
	}
	if res.IsError() {
		return notionQueryResult{}, fmt.Errorf("notion query: status %s: %s", res.Status(), res.String())
	}
	return result, nil
}

func (s NotionStore) Find(ctx context.Context, handle string) (Record, bool, error) {
	result, err := s.query(ctx, map[string]any{
		"filter": map[string]any{
			"property": s.config.TitleProperty,
			"title":    map[string]any{"equals": handle},
		},
		"page_size": 1,
	})
	if err != nil {
		return Record{}, false, err
	}
	if len(result.Results) == 0 {
		return Record{}, false, nil
	}
	return s.record(result.Results[0]), true, nil
}

func (s NotionStore) SetStatus(ctx context.Context, id, status string) (Record, error) {
	var page notionPage
	res, err := s.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"properties": map[string]any{
				s.config.StatusProperty: map[string]any{
					"status": map[string]any{"name": status},
				},
			},
		}).
		SetResult(&page).
		Patch(fmt.Sprintf("/pages/%s", id))
	if err != nil {
		return Record{}, err
	}
	if res.IsError() {
		return Record{}, fmt.Errorf("notion update: status %s: %s", res.Status(), res.String())
	}
	return s.record(page), nil
}

func (s NotionStore) Create(ctx context.Context, handle, status string) (Record, error) {
	var page notionPage
	res, err := s.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"parent": map[string]any{"database_id": s.config.DatabaseId},
			"properties": map[string]any{
				s.config.TitleProperty: map[string]any{
					"title": []map[string]any{
						{"text": map[string]any{"content": handle}},
					},
				},
				s.config.StatusProperty: map[string]any{
					"status": map[string]any{"name": status},
				},
			},
		}).
		SetResult(&page).
		Post("/pages")
	if err != nil {
		return Record{}, err
	}
	if res.IsError() {
		return Record{}, fmt.Errorf("notion create: status %s: %s", res.Status(), res.String())
	}
	return s.record(page), nil
}

func (s NotionStore) Handles(ctx context.Context) ([]string, error) {
	var handles []string
	cursor := ""
	for {
		body := map[string]any{"page_size": 100}
		if cursor != "" {
			body["start_cursor"] = cursor
		}
		result, err := s.query(ctx, body)
		if err != nil {
			return nil, err
		}
		for _, page := range result.Results {
			rec := s.record(page)
			if rec.Handle != "" {
				handles = append(handles, rec.Handle)
			}
		}
		if !result.HasMore {
			return handles, nil
		}
		cursor = result.NextCursor
	}
}
