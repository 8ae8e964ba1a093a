package mure_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/severinsimmler/mure"
)

func TestDrive_OrderAndLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, r.URL.Query().Get("n"))
	}))
	defer srv.Close()

	const n = 6
	requests := make([]*mure.RequestRecord, n)
	for i := range requests {
		requests[i] = &mure.RequestRecord{
			Method: mure.MethodGet,
			URL:    srv.URL,
			Params: []mure.KV{{Name: "n", Value: fmt.Sprintf("%d", i)}},
		}
	}

	it := mure.Drive(context.Background(), requests, mure.DefaultConfig())
	defer it.Close()

	for i := 0; i < n; i++ {
		resp, ok := it.Next()
		if !ok {
			t.Fatalf("response %d: iterator exhausted early", i)
		}
		if want := fmt.Sprintf("%d", i); string(resp.Content) != want {
			t.Errorf("response %d = %q, want %q", i, resp.Content, want)
		}
	}
	if _, ok := it.Next(); ok {
		t.Fatal("expected iterator to be exhausted after n responses")
	}
}

func TestDrive_EmptyBatch(t *testing.T) {
	it := mure.Drive(context.Background(), nil, mure.DefaultConfig())
	defer it.Close()
	if _, ok := it.Next(); ok {
		t.Fatal("empty batch should yield no responses")
	}
}

func TestDrive_TransportFailureIsData(t *testing.T) {
	requests := []*mure.RequestRecord{{Method: mure.MethodGet, URL: "://bad"}}
	it := mure.Drive(context.Background(), requests, mure.DefaultConfig())
	defer it.Close()

	resp, ok := it.Next()
	if !ok {
		t.Fatal("expected a synthetic failure response, not exhaustion")
	}
	if resp.OK || resp.Status != 0 {
		t.Errorf("resp = %+v, want OK=false Status=0", resp)
	}
}

func TestDrive_ResponseJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"greeting":"hello"}`)
	}))
	defer srv.Close()

	requests := []*mure.RequestRecord{{Method: mure.MethodGet, URL: srv.URL}}
	it := mure.Drive(context.Background(), requests, mure.DefaultConfig())
	defer it.Close()

	resp, ok := it.Next()
	if !ok {
		t.Fatal("expected a response")
	}

	var decoded struct {
		Greeting string `json:"greeting"`
	}
	if err := resp.JSON(&decoded); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if decoded.Greeting != "hello" {
		t.Errorf("decoded.Greeting = %q, want hello", decoded.Greeting)
	}
}

func TestDrive_ResponseJSON_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	}))
	defer srv.Close()

	requests := []*mure.RequestRecord{{Method: mure.MethodGet, URL: srv.URL}}
	it := mure.Drive(context.Background(), requests, mure.DefaultConfig())
	defer it.Close()

	resp, ok := it.Next()
	if !ok {
		t.Fatal("expected a response")
	}

	var decoded map[string]any
	err := resp.JSON(&decoded)
	if err == nil {
		t.Fatal("expected a DecodeError")
	}
	var decErr *mure.DecodeError
	if !asDecodeError(err, &decErr) {
		t.Errorf("err = %v (%T), want *mure.DecodeError", err, err)
	}
}

func asDecodeError(err error, target **mure.DecodeError) bool {
	if de, ok := err.(*mure.DecodeError); ok {
		*target = de
		return true
	}
	return false
}
