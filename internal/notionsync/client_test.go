package notionsync

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jomei/notionapi"
)

func TestNotionClient_Relay(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","results":[],"has_more":false}`))
	}))
	defer srv.Close()

	client, err := NewNotionClient("secret-token", WithRelay(srv.URL+"/notion"))
	if err != nil {
		t.Fatalf("NewNotionClient() error: %v", err)
	}

	resp, err := client.QueryDatabase(testContext(), "db1", &notionapi.DatabaseQueryRequest{PageSize: 10})
	if err != nil {
		t.Fatalf("QueryDatabase() error: %v", err)
	}
	if len(resp.Results) != 0 || resp.HasMore {
		t.Errorf("response = %+v", resp)
	}

	if !strings.HasPrefix(gotPath, "/notion/") || !strings.HasSuffix(gotPath, "/databases/db1/query") {
		t.Errorf("relayed path = %q", gotPath)
	}
	if !strings.Contains(gotAuth, "secret-token") {
		t.Errorf("Authorization = %q, want token forwarded", gotAuth)
	}
}

func TestNotionClient_RelayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"object":"error","status":400,"code":"validation_error","message":"bad filter"}`))
	}))
	defer srv.Close()

	client, err := NewNotionClient("secret-token", WithRelay(srv.URL))
	if err != nil {
		t.Fatalf("NewNotionClient() error: %v", err)
	}

	_, err = NewRecordStore(client, "db1").QueryAll(testContext())
	if !errors.Is(err, ErrQuery) {
		t.Fatalf("error = %v, want ErrQuery", err)
	}
}

func TestNewNotionClient_InvalidRelay(t *testing.T) {
	if _, err := NewNotionClient("token", WithRelay("not a url")); err == nil {
		t.Error("expected error for relay base without scheme and host")
	}
}
