package powerbi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mbarros/fabricusage/internal/core"
)

// QuerySpec is one DAX query plus its serialization options.
type QuerySpec struct {
	Query        string
	IncludeNulls bool
}

type executeQueriesRequest struct {
	Queries            []queryEntry       `json:"queries"`
	SerializerSettings serializerSettings `json:"serializerSettings"`
}

type queryEntry struct {
	Query string `json:"query"`
}

type serializerSettings struct {
	IncludeNulls bool `json:"includeNulls"`
}

type executeQueriesResponse struct {
	Results []struct {
		Tables []struct {
			Rows []core.Row `json:"rows"`
		} `json:"tables"`
	} `json:"results"`
}

// ExecuteQuery posts a single DAX query to the dataset's executeQueries
// endpoint and returns the rows of the first table of the first result.
// The tool issues exactly one query per request and expects exactly one
// result table back.
func (c *Client) ExecuteQuery(ctx context.Context, datasetID string, spec QuerySpec) (core.Table, error) {
	body := executeQueriesRequest{
		Queries:            []queryEntry{{Query: spec.Query}},
		SerializerSettings: serializerSettings{IncludeNulls: spec.IncludeNulls},
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/datasets/"+datasetID+"/executeQueries", body)
	if err != nil {
		return core.Table{}, &QueryError{Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return core.Table{}, &QueryError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return core.Table{}, &QueryError{Status: resp.StatusCode, Err: errors.New(readErrorBody(resp.Body))}
	}

	var decoded executeQueriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return core.Table{}, &QueryError{Malformed: true, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if len(decoded.Results) == 0 || len(decoded.Results[0].Tables) == 0 {
		return core.Table{}, &QueryError{Malformed: true, Err: errors.New("response has no result table")}
	}

	return core.Table{Rows: decoded.Results[0].Tables[0].Rows}, nil
}

// readErrorBody pulls a short error snippet out of a failed response so
// the surfaced message says more than the status code.
func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(data) == 0 {
		return "no response body"
	}
	return strings.TrimSpace(string(data))
}
