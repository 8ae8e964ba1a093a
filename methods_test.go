package mure_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/severinsimmler/mure"
)

func TestGet_ConvenienceConstructor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, r.Method)
	}))
	defer srv.Close()

	it, err := mure.Get(context.Background(), []mure.Resource{{URL: srv.URL}}, mure.DefaultConfig())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer it.Close()

	resp, ok := it.Next()
	if !ok {
		t.Fatal("expected a response")
	}
	if string(resp.Content) != "GET" {
		t.Errorf("server saw method %q, want GET", resp.Content)
	}
}

func TestGet_MissingURL_UsageError(t *testing.T) {
	_, err := mure.Get(context.Background(), []mure.Resource{{}}, mure.DefaultConfig())
	if err == nil {
		t.Fatal("expected a UsageError for a resource with no url")
	}
	var usageErr *mure.UsageError
	if ue, ok := err.(*mure.UsageError); ok {
		usageErr = ue
	} else {
		t.Fatalf("err = %v (%T), want *mure.UsageError", err, err)
	}
	if usageErr.Field == "" {
		t.Error("UsageError.Field should name which resource failed")
	}
}

func TestPost_SendsJSONBody(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	it, err := mure.Post(context.Background(), []mure.Resource{
		{URL: srv.URL, JSON: map[string]any{"key": "value"}},
	}, mure.DefaultConfig())
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	defer it.Close()

	if _, ok := it.Next(); !ok {
		t.Fatal("expected a response")
	}
	if gotBody != `{"key":"value"}` {
		t.Errorf("server received body %q", gotBody)
	}
}

func TestRequests_MixedMethods(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		fmt.Fprint(w, r.Method)
	}))
	defer srv.Close()

	it, err := mure.Requests(context.Background(), []mure.Resource{
		{Method: mure.MethodGet, URL: srv.URL},
		{Method: mure.MethodPost, URL: srv.URL},
		{Method: mure.MethodDelete, URL: srv.URL},
	}, mure.DefaultConfig())
	if err != nil {
		t.Fatalf("Requests: %v", err)
	}
	defer it.Close()

	want := []string{"GET", "POST", "DELETE"}
	for i, w := range want {
		resp, ok := it.Next()
		if !ok {
			t.Fatalf("response %d: expected ok=true", i)
		}
		if string(resp.Content) != w {
			t.Errorf("response %d = %q, want %q", i, resp.Content, w)
		}
	}
}

func TestRequests_MissingMethod_UsageError(t *testing.T) {
	_, err := mure.Requests(context.Background(), []mure.Resource{{URL: "http://example.com"}}, mure.DefaultConfig())
	if err == nil {
		t.Fatal("expected a UsageError: Requests requires method on every resource")
	}
	if _, ok := err.(*mure.UsageError); !ok {
		t.Fatalf("err = %v (%T), want *mure.UsageError", err, err)
	}
}
