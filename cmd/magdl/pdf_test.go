package main

import (
	"bytes"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/magtools/magdl/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	opacityLiteral = []byte("<</CA 0.25/ca 0.25>>")
	hiddenLiteral  = []byte("<</CA 0.00/ca 0.00>>")
)

// buildRenderedDoc fakes the render endpoint's output: one watermark triple
// per page in the preamble, then the page objects.
func buildRenderedDoc(t *testing.T, pages int) []byte {
	t.Helper()
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	b.WriteString("1 0 obj\n<</Producer(mcPDF 2.1)/CreationDate(D:20150826114654+01'00')/ModDate(D:20150826120000+01'00')>>\nendobj\n")

	obj := 2
	for i := 0; i < pages; i++ {
		fmt.Fprintf(&b, "%d 0 obj\n", obj)
		b.Write(opacityLiteral)
		b.WriteString("\nendobj\n")
		obj++
		for _, content := range []string{
			fmt.Sprintf("q 1 0 0 1 %d 40 cm Q", 50+7*i),
			fmt.Sprintf("BT /F1 9 Tf (Downloaded by subscriber %d) Tj ET", i),
		} {
			var z bytes.Buffer
			zw := zlib.NewWriter(&z)
			zw.Write([]byte(content))
			zw.Close()
			fmt.Fprintf(&b, "%d 0 obj\n<</Length %d/Filter/FlateDecode>>stream\n", obj, z.Len())
			b.Write(z.Bytes())
			b.WriteString("\nendstream\nendobj\n")
			obj++
		}
	}
	for i := 0; i < pages; i++ {
		fmt.Fprintf(&b, "%d 0 obj\n<</Type/Page/MediaBox[0 0 595 842]/Parent 99 0 R>>\nendobj\n", obj)
		obj++
	}
	b.WriteString("trailer\n<</Root 99 0 R>>\n%%EOF\n")
	return b.Bytes()
}

// magazineServer serves extralow page probes for pages 0..lastPage and the
// render endpoint.
func magazineServer(t *testing.T, lastPage int, doc []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/render", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Write(doc)
	})
	mux.HandleFunc("/mcmags/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		name := parts[len(parts)-1]
		page, err := strconv.Atoi(strings.TrimSuffix(name, ".jpg"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if page <= lastPage {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	return httptest.NewServer(mux)
}

func testConfig(endpoint string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Quality = "original"
	cfg.RangeFrom = 1
	cfg.RangeTo = 10
	cfg.HideWatermark = true
	cfg.UserID = "f3786b15-4b19-456e-9b58-2af137a35bcd"
	cfg.RenderEndpoint = endpoint
	return cfg
}

func TestDownloadPDF_EndToEnd(t *testing.T) {
	const pages = 10
	doc := buildRenderedDoc(t, pages)
	ts := magazineServer(t, pages-1, doc)
	defer ts.Close()

	rawURL := ts.URL + "/mcmags/f3786b15-4b19-456e-9b58-2af137a35bcd/ba9c5bcb-cf96-4215-a2f5-841ddb4a119c/mid/0046.jpg"
	outPath := filepath.Join(t.TempDir(), "out.pdf")
	cfg := testConfig(ts.URL + "/render")

	err := downloadPDF(context.Background(), cfg, quietLogger(), outPath, rawURL, ts.Client())
	if err != nil {
		t.Fatalf("downloadPDF failed: %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("output file is empty")
	}
	if len(got) != len(doc) {
		t.Errorf("output length %d differs from render response length %d", len(got), len(doc))
	}
	if n := bytes.Count(got, opacityLiteral); n != 0 {
		t.Errorf("original opacity literal occurs %d times, want 0", n)
	}
	if n := bytes.Count(got, hiddenLiteral); n != pages {
		t.Errorf("hidden opacity literal occurs %d times, want %d", n, pages)
	}
}

func TestDownloadPDF_CapsRangeToExistingPages(t *testing.T) {
	const pages = 6
	doc := buildRenderedDoc(t, pages)
	ts := magazineServer(t, pages-1, doc)
	defer ts.Close()

	rawURL := ts.URL + "/mcmags/f3786b15-4b19-456e-9b58-2af137a35bcd/ba9c5bcb-cf96-4215-a2f5-841ddb4a119c/mid/0001.jpg"
	cfg := testConfig(ts.URL + "/render")
	cfg.RangeTo = 50 // more than exist

	outPath := filepath.Join(t.TempDir(), "out.pdf")
	if err := downloadPDF(context.Background(), cfg, quietLogger(), outPath, rawURL, ts.Client()); err != nil {
		t.Fatalf("downloadPDF failed: %v", err)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

// countingTransport fails every request and counts how many were attempted.
type countingTransport struct {
	calls int
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls++
	return nil, errors.New("transport must not be reached")
}

func TestDownloadPDF_InvalidUUIDRejectedBeforeNetwork(t *testing.T) {
	ct := &countingTransport{}
	client := &http.Client{Transport: ct}
	cfg := testConfig("https://render.invalid/")

	// Magazine UUID segment has the wrong hex length.
	rawURL := "https://host.invalid/mcmags/f3786b15-4b19-456e-9b58-2af137a35bcd/ba9c5bcb-cf96-4215-a2f5-841ddb4a119/mid/0001.jpg"
	outPath := filepath.Join(t.TempDir(), "out.pdf")

	err := downloadPDF(context.Background(), cfg, quietLogger(), outPath, rawURL, client)
	if err == nil {
		t.Fatal("downloadPDF succeeded with invalid UUID, want error")
	}
	if ct.calls != 0 {
		t.Errorf("transport saw %d calls, want 0", ct.calls)
	}
	if _, statErr := os.Stat(outPath); statErr == nil {
		t.Error("output file written on fatal validation path")
	}
}

func TestDownloadPDF_InvalidConfigRejectedBeforeNetwork(t *testing.T) {
	ct := &countingTransport{}
	client := &http.Client{Transport: ct}
	cfg := testConfig("https://render.invalid/")
	cfg.Delay = -time.Second

	rawURL := "https://host.invalid/mcmags/f3786b15-4b19-456e-9b58-2af137a35bcd/ba9c5bcb-cf96-4215-a2f5-841ddb4a119c/mid/0001.jpg"
	err := downloadPDF(context.Background(), cfg, quietLogger(), filepath.Join(t.TempDir(), "out.pdf"), rawURL, client)
	if err == nil {
		t.Fatal("downloadPDF succeeded with negative delay, want error")
	}
	if ct.calls != 0 {
		t.Errorf("transport saw %d calls, want 0", ct.calls)
	}
}
