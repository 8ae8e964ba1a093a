package transport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/severinsimmler/mure/internal/transport"
	"github.com/severinsimmler/mure/pkg/muretypes"
)

func TestClient_Send_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if got := req.URL.Query().Get("foo"); got != "bar" {
			t.Errorf("query foo = %q, want bar", got)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := transport.NewClient()
	defer c.Close()

	req := &muretypes.RequestRecord{
		Method: muretypes.MethodGet,
		URL:    srv.URL + "/get",
		Params: []muretypes.KV{{Name: "foo", Value: "bar"}},
	}
	resp := c.Send(context.Background(), req)

	if !resp.OK || resp.Status != 200 {
		t.Fatalf("got ok=%v status=%d, want ok=true status=200", resp.OK, resp.Status)
	}
	var decoded struct {
		OK bool `json:"ok"`
	}
	if err := resp.JSON(&decoded); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if !decoded.OK {
		t.Errorf("decoded.OK = false, want true")
	}
}

func TestClient_Send_InvalidURL(t *testing.T) {
	c := transport.NewClient()
	defer c.Close()

	resp := c.Send(context.Background(), &muretypes.RequestRecord{
		Method: muretypes.MethodGet,
		URL:    "://not a url",
	})

	if resp.OK || resp.Status != 0 {
		t.Fatalf("got ok=%v status=%d, want ok=false status=0", resp.OK, resp.Status)
	}
	if resp.Reason == "" {
		t.Error("Reason should describe the failure")
	}
	if resp.URL != "" {
		t.Errorf("URL = %q, want empty on transport failure", resp.URL)
	}
}

func TestClient_Send_PostJSONBody(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		dec := make(map[string]any)
		_ = json.NewDecoder(req.Body).Decode(&dec)
		received = dec
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := transport.NewClient()
	defer c.Close()

	resp := c.Send(context.Background(), &muretypes.RequestRecord{
		Method:   muretypes.MethodPost,
		URL:      srv.URL + "/post",
		BodyJSON: map[string]any{"foo": "bar"},
	})

	if resp.Status != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.Status)
	}
	if received["foo"] != "bar" {
		t.Errorf("server received %v, want foo=bar", received)
	}
}

func TestClient_Send_UnrecognizedCharsetFallsBackToDetection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=bogus-1")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := transport.NewClient()
	defer c.Close()

	resp := c.Send(context.Background(), &muretypes.RequestRecord{
		Method: muretypes.MethodGet,
		URL:    srv.URL,
	})

	if resp.Encoding != "utf-8" {
		t.Errorf("Encoding = %q, want the byte-detector fallback %q for an unrecognized declared charset", resp.Encoding, "utf-8")
	}
}

func TestClient_Send_TimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := transport.NewClient()
	defer c.Close()

	timeout := 10 * time.Millisecond
	resp := c.Send(context.Background(), &muretypes.RequestRecord{
		Method:  muretypes.MethodGet,
		URL:     srv.URL,
		Timeout: &timeout,
	})

	if resp.OK || resp.Status != 0 {
		t.Fatalf("got ok=%v status=%d, want a synthetic timeout failure", resp.OK, resp.Status)
	}
}

