package powerbi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mbarros/fabricusage/internal/core"
	"github.com/samber/lo"
)

// valueEnvelope is the standard listing response wrapper. A missing value
// array decodes to nil and is treated as an empty listing.
type valueEnvelope[T any] struct {
	Value []T `json:"value"`
}

type listedItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// ListWorkspaces returns the workspaces visible to the service principal,
// in whatever order the API provides.
func (c *Client) ListWorkspaces(ctx context.Context) ([]core.Workspace, error) {
	return listValues[core.Workspace](ctx, c, "/groups", "groups")
}

// ListItems returns the workspace's reports, dashboards and datasets as a
// single sequence, in that endpoint order. Dashboards name themselves via
// displayName; reports and datasets via name. The first failing endpoint
// aborts the whole listing.
func (c *Client) ListItems(ctx context.Context, workspaceID string) ([]core.CatalogItem, error) {
	reports, err := listValues[listedItem](ctx, c, "/groups/"+workspaceID+"/reports", "reports")
	if err != nil {
		return nil, err
	}
	dashboards, err := listValues[listedItem](ctx, c, "/groups/"+workspaceID+"/dashboards", "dashboards")
	if err != nil {
		return nil, err
	}
	datasets, err := listValues[listedItem](ctx, c, "/groups/"+workspaceID+"/datasets", "datasets")
	if err != nil {
		return nil, err
	}

	items := lo.Map(reports, func(it listedItem, _ int) core.CatalogItem {
		return core.CatalogItem{ID: it.ID, Name: it.Name, Kind: core.ItemKindReport}
	})
	items = append(items, lo.Map(dashboards, func(it listedItem, _ int) core.CatalogItem {
		return core.CatalogItem{ID: it.ID, Name: it.DisplayName, Kind: core.ItemKindDashboard}
	})...)
	items = append(items, lo.Map(datasets, func(it listedItem, _ int) core.CatalogItem {
		return core.CatalogItem{ID: it.ID, Name: it.Name, Kind: core.ItemKindDataset}
	})...)

	return items, nil
}

func listValues[T any](ctx context.Context, c *Client, path, op string) ([]T, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, &CatalogError{Op: op, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &CatalogError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &CatalogError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	var envelope valueEnvelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &CatalogError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return envelope.Value, nil
}

func newJSONRequest(ctx context.Context, method, url, token string, body any) (*http.Request, error) {
	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
