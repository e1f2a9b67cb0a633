package render

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

var testMagazine = uuid.MustParse("ba9c5bcb-cf96-4215-a2f5-841ddb4a119c")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_Render(t *testing.T) {
	want := []byte("%PDF-1.4 fake document")
	var gotForm map[string]string
	var gotHeaders http.Header

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing form: %v", err)
		}
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		gotHeaders = r.Header.Clone()
		w.Write(want)
	}))
	defer ts.Close()

	c := NewClient(ClientConfig{
		Endpoint: ts.URL,
		UserID:   "f3786b15-4b19-456e-9b58-2af137a35bcd",
		Logger:   quietLogger(),
	})

	buf, err := c.Render(context.Background(), testMagazine, []int{0, 1, 2})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !bytes.Equal(buf, want) {
		t.Errorf("response = %q, want %q", buf, want)
	}

	checks := map[string]string{
		"magazineId": testMagazine.String(),
		"userId":     "f3786b15-4b19-456e-9b58-2af137a35bcd",
		"pages[0]":   "0",
		"pages[1]":   "1",
		"pages[2]":   "2",
	}
	for k, v := range checks {
		if gotForm[k] != v {
			t.Errorf("form[%s] = %q, want %q", k, gotForm[k], v)
		}
	}
	if _, ok := gotForm["pages[3]"]; ok {
		t.Error("form has pages[3], want exactly three page fields")
	}

	if ct := gotHeaders.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %s", ct)
	}
	if ua := gotHeaders.Get("User-Agent"); ua == "" || ua == "Go-http-client/1.1" {
		t.Errorf("User-Agent = %q, want a browser profile", ua)
	}
}

func TestClient_RenderNon200IsFatal(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	c := NewClient(ClientConfig{Endpoint: ts.URL, Logger: quietLogger()})
	if _, err := c.Render(context.Background(), testMagazine, []int{0}); err == nil {
		t.Fatal("Render succeeded on 403, want error")
	}
	if calls != 1 {
		t.Errorf("server saw %d calls, want 1 (no retries)", calls)
	}
}

func TestCheckPageCount_UnreadableIsNonFatal(t *testing.T) {
	// Must not panic or fail the pipeline on a document pdfcpu cannot read.
	CheckPageCount([]byte("not a pdf at all"), 10, quietLogger())
}
