package listing

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func serveHTML(t *testing.T, body string) (*httptest.Server, *url.URL) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	u, err := url.Parse(server.URL + "/ftp/python/")
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	return server, u
}

func TestLinks(t *testing.T) {
	_, pageURL := serveHTML(t, `<html><body><pre>
<a href="3.11.5/">3.11.5/</a>
<a href="/absolute/path/">elsewhere</a>
<a name="anchor-without-href">skip me</a>
<a href="nested/"><b>bold</b> text</a>
</pre></body></html>`)

	client := NewClient()
	links, err := client.Links(pageURL)
	if err != nil {
		t.Fatalf("Links() error = %v", err)
	}

	if len(links) != 3 {
		t.Fatalf("Links() returned %d links, want 3: %v", len(links), links)
	}

	if links[0].Text != "3.11.5/" {
		t.Errorf("links[0].Text = %q, want %q", links[0].Text, "3.11.5/")
	}
	if got := links[0].URL.Path; got != "/ftp/python/3.11.5/" {
		t.Errorf("relative href resolved to %q, want %q", got, "/ftp/python/3.11.5/")
	}
	if got := links[1].URL.Path; got != "/absolute/path/" {
		t.Errorf("absolute href resolved to %q, want %q", got, "/absolute/path/")
	}
	if links[2].Text != "bold text" {
		t.Errorf("nested anchor text = %q, want %q", links[2].Text, "bold text")
	}
}

func TestLinksHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()
	u, _ := url.Parse(server.URL)

	client := NewClient()
	if _, err := client.Links(u); err == nil {
		t.Fatal("Links() expected error for 503 response")
	}
}

func TestLinksNetworkError(t *testing.T) {
	u, _ := url.Parse("http://127.0.0.1:1/listing/")

	client := NewClient()
	if _, err := client.Links(u); err == nil {
		t.Fatal("Links() expected error for unreachable host")
	}
}

func TestLinksTolerantOfSloppyMarkup(t *testing.T) {
	// Real directory listings rarely close their tags.
	_, pageURL := serveHTML(t, `<title>Index of /ftp/python</title>
<a href="3.11.5/">3.11.5/</a><br>
<a href="3.11.6/">3.11.6/</a>`)

	client := NewClient()
	links, err := client.Links(pageURL)
	if err != nil {
		t.Fatalf("Links() error = %v", err)
	}
	if len(links) != 2 {
		t.Errorf("Links() returned %d links, want 2", len(links))
	}
}
