package directory_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"paykit/internal/directory"
	"paykit/internal/domain"
)

const owner = domain.PeerIdentity("ybndrfg8ejkmcpqxot1uwisza345h769ybndrfg8ejkmcpqxot1u")

func TestGet_RoutesByOwnerHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Directory-Owner"); got != owner.String() {
			t.Errorf("owner header = %q", got)
		}
		if r.URL.Path != "/pub/paykit/v0/noise" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"host":"10.0.0.5","port":9000}`))
	}))
	defer srv.Close()

	c := directory.New(srv.URL, nil)
	// Owner header must be normalized even when callers pass a prefixed id.
	body, err := c.Get(context.Background(), "pk:"+owner, "/pub/paykit/v0/noise")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(body) == 0 {
		t.Fatal("empty body")
	}
}

func TestGet_404IsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := directory.New(srv.URL, nil)
	if _, err := c.Get(context.Background(), owner, "/missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestGet_ServerErrorIsNotNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := directory.New(srv.URL, nil)
	_, err := c.Get(context.Background(), owner, "/x")
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("500 must be a plain error, got %v", err)
	}
}

func TestPut_RequiresSession(t *testing.T) {
	c := directory.New("http://unused", nil)
	if err := c.Put(context.Background(), "/x", []byte("{}")); !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("want ErrNotConfigured, got %v", err)
	}
	if err := c.Delete(context.Background(), "/x"); !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("want ErrNotConfigured, got %v", err)
	}
}

func TestPutDelete_SendBearerToken(t *testing.T) {
	var sawPut, sawDelete bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("auth header = %q", got)
		}
		switch r.Method {
		case http.MethodPut:
			sawPut = true
		case http.MethodDelete:
			sawDelete = true
		}
	}))
	defer srv.Close()

	c := directory.New(srv.URL, nil)
	c.SetSession("tok")
	if err := c.Put(context.Background(), "/pub/paykit/v0/requests/ctx/req1", []byte("{}")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Delete(context.Background(), "/pub/paykit/v0/requests/ctx/req1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !sawPut || !sawDelete {
		t.Fatal("server did not see both write methods")
	}
}

func TestList_ShallowNames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("shallow") != "true" {
			t.Errorf("missing shallow query: %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode([]string{"req1", "req2"})
	}))
	defer srv.Close()

	c := directory.New(srv.URL, nil)
	names, err := c.List(context.Background(), owner, "/pub/paykit/v0/requests/ctx")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 || names[0] != "req1" || names[1] != "req2" {
		t.Fatalf("names = %v", names)
	}
}

func TestList_404IsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := directory.New(srv.URL, nil)
	names, err := c.List(context.Background(), owner, "/pub/paykit/v0/requests/ctx")
	if err != nil {
		t.Fatalf("List on missing prefix must not error: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("names = %v", names)
	}
}
