package powerbi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExecuteQuery_ExtractsFirstTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/datasets/ds-1/executeQueries" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body executeQueriesRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if len(body.Queries) != 1 {
			t.Fatalf("queries = %d, want 1", len(body.Queries))
		}
		if body.Queries[0].Query != "EVALUATE Items" {
			t.Errorf("query = %q", body.Queries[0].Query)
		}
		if !body.SerializerSettings.IncludeNulls {
			t.Error("includeNulls should be set")
		}

		w.Write([]byte(`{"results":[{"tables":[{"rows":[
			{"Items[Item Id]":"i-1","Items[Users]":3},
			{"Items[Item Id]":"i-2","Items[Users]":null}
		]}]}]}`))
	}))
	defer server.Close()

	c := NewClient(WithAPIBaseURL(server.URL))

	table, err := c.ExecuteQuery(context.Background(), "ds-1", QuerySpec{Query: "EVALUATE Items", IncludeNulls: true})
	if err != nil {
		t.Fatalf("ExecuteQuery() error: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}
	if table.Rows[0]["Items[Item Id]"] != "i-1" {
		t.Errorf("first row = %+v", table.Rows[0])
	}
	if v, present := table.Rows[1]["Items[Users]"]; !present || v != nil {
		t.Errorf("null cell should decode as present nil, got %v (present=%v)", v, present)
	}
}

func TestExecuteQuery_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"DatasetExecuteQueriesError"}}`))
	}))
	defer server.Close()

	c := NewClient(WithAPIBaseURL(server.URL))

	_, err := c.ExecuteQuery(context.Background(), "ds-1", QuerySpec{Query: "EVALUATE Items"})
	var queryErr *QueryError
	if !errors.As(err, &queryErr) {
		t.Fatalf("error = %v, want *QueryError", err)
	}
	if queryErr.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", queryErr.Status)
	}
	if queryErr.Malformed {
		t.Error("a status failure is not a malformed response")
	}
}

func TestExecuteQuery_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	c := NewClient(WithAPIBaseURL(server.URL))

	_, err := c.ExecuteQuery(context.Background(), "ds-1", QuerySpec{Query: "EVALUATE Items"})
	var queryErr *QueryError
	if !errors.As(err, &queryErr) {
		t.Fatalf("error = %v, want *QueryError", err)
	}
	if !queryErr.Malformed {
		t.Error("missing result table should be flagged malformed")
	}
}
