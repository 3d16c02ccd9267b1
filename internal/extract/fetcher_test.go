package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hazieon/Assist-chan-2026/internal/domain"
)

// fakeParser records the page text it was handed and returns a canned guide.
type fakeParser struct {
	guide    *domain.Guide
	err      error
	pageText string
}

func (p *fakeParser) ExtractGuide(_ context.Context, pageText string) (*domain.Guide, error) {
	p.pageText = pageText
	if p.err != nil {
		return nil, p.err
	}
	g := *p.guide
	return &g, nil
}

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>How to Patch a Bike Tube</title>
  <script>trackVisitor();</script>
  <style>.ad { display: none }</style>
</head>
<body>
  <nav>Home | Guides | About</nav>
  <header>Site header junk</header>
  <h1>How to Patch a Bike Tube</h1>
  <p>A flat tire is no reason to walk home.</p>
  <ol>
    <li>Remove the wheel from the frame.</li>
    <li>Pull the tube out of the tire.</li>
  </ol>
  <footer>Copyright nobody</footer>
</body>
</html>`

func TestExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	parser := &fakeParser{guide: &domain.Guide{
		Title:     "Patch a Bike Tube",
		Materials: []string{"patch kit"},
		Steps:     []string{"Remove the wheel.", "Pull the tube."},
	}}
	f := NewFetcher(parser, zap.NewNop())

	guide, err := f.Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if guide.Title != "Patch a Bike Tube" {
		t.Errorf("title = %q", guide.Title)
	}
	if len(guide.Sources) != 1 {
		t.Fatalf("sources = %v, want exactly one", guide.Sources)
	}
	if guide.Sources[0].URI != srv.URL {
		t.Errorf("source URI = %q, want %q", guide.Sources[0].URI, srv.URL)
	}
	if guide.Sources[0].Title != "How to Patch a Bike Tube" {
		t.Errorf("source title = %q", guide.Sources[0].Title)
	}
}

func TestExtractReadableTextSkipsChrome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	parser := &fakeParser{guide: &domain.Guide{Title: "x"}}
	f := NewFetcher(parser, zap.NewNop())
	if _, err := f.Extract(context.Background(), srv.URL); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	text := parser.pageText
	for _, junk := range []string{"trackVisitor", ".ad", "Home | Guides", "Site header junk", "Copyright nobody"} {
		if strings.Contains(text, junk) {
			t.Errorf("page text should not contain %q:\n%s", junk, text)
		}
	}
	for _, want := range []string{"A flat tire is no reason to walk home.", "Remove the wheel from the frame.", "Pull the tube out of the tire."} {
		if !strings.Contains(text, want) {
			t.Errorf("page text missing %q:\n%s", want, text)
		}
	}

	// List items must land on separate lines or the parser cannot tell
	// steps apart.
	lines := strings.Split(text, "\n")
	var sawSplit bool
	for _, line := range lines {
		if strings.Contains(line, "Remove the wheel") && !strings.Contains(line, "Pull the tube") {
			sawSplit = true
		}
	}
	if !sawSplit {
		t.Errorf("list items not separated by newlines:\n%s", text)
	}
}

func TestExtractInvalidAddress(t *testing.T) {
	f := NewFetcher(&fakeParser{guide: &domain.Guide{Title: "x"}}, zap.NewNop())
	_, err := f.Extract(context.Background(), "not a url at all")
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("err = %v, want ErrExtraction", err)
	}
}

func TestExtractHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(&fakeParser{guide: &domain.Guide{Title: "x"}}, zap.NewNop())
	_, err := f.Extract(context.Background(), srv.URL)
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("err = %v, want ErrExtraction", err)
	}
}

func TestExtractEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><head><script>only()</script></head><body></body></html>")
	}))
	defer srv.Close()

	f := NewFetcher(&fakeParser{guide: &domain.Guide{Title: "x"}}, zap.NewNop())
	_, err := f.Extract(context.Background(), srv.URL)
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("err = %v, want ErrExtraction", err)
	}
}

func TestExtractParserFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	f := NewFetcher(&fakeParser{err: errors.New("model unavailable")}, zap.NewNop())
	_, err := f.Extract(context.Background(), srv.URL)
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("err = %v, want ErrExtraction", err)
	}
}

func TestExtractTruncatesLongPages(t *testing.T) {
	long := "<html><head><title>Long</title></head><body><p>" +
		strings.Repeat("word ", maxPageText) +
		"</p></body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, long)
	}))
	defer srv.Close()

	parser := &fakeParser{guide: &domain.Guide{Title: "x"}}
	f := NewFetcher(parser, zap.NewNop())
	if _, err := f.Extract(context.Background(), srv.URL); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(parser.pageText) > maxPageText {
		t.Errorf("page text length = %d, want at most %d", len(parser.pageText), maxPageText)
	}
}

func TestExtractSendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	f := NewFetcher(&fakeParser{guide: &domain.Guide{Title: "x"}}, zap.NewNop(), WithUserAgent("Probe/2.0"))
	if _, err := f.Extract(context.Background(), srv.URL); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if gotUA != "Probe/2.0" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "Probe/2.0")
	}
}
