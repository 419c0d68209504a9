// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/edgar-export/pkg/types"
)

// fakeRenderer writes a stub PDF, records calls, and detects overlapping
// renders of the same path.
type fakeRenderer struct {
	mu      sync.Mutex
	calls   []string
	err     error
	active  int32
	overlap int32
	delay   time.Duration
}

func (f *fakeRenderer) Name() string { return "fake" }
func (f *fakeRenderer) Close() error { return nil }

func (f *fakeRenderer) Render(_ context.Context, sourceURL, destPath string) error {
	if atomic.AddInt32(&f.active, 1) > 1 {
		atomic.StoreInt32(&f.overlap, 1)
	}
	defer atomic.AddInt32(&f.active, -1)
	time.Sleep(f.delay)

	f.mu.Lock()
	f.calls = append(f.calls, sourceURL)
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(destPath, []byte("%PDF "+sourceURL), 0o644)
}

var filed = time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC)

func newTestExporter(t *testing.T, r *fakeRenderer, client *http.Client) *Exporter {
	t.Helper()
	cfg := types.DefaultPipelineConfig().Export
	cfg.OutputDir = t.TempDir()
	if client == nil {
		client = http.DefaultClient
	}
	e := New(client, r, cfg, "AAPL")
	require.NoError(t, e.EnsureDirs())
	return e
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10-K", "10-K"},
		{"10-K/A", "10-KA"},
		{"EX-10.1", "EX-10.1"},
		{"2015-03-01 Form 10-K EX-99(a)", "2015-03-01 Form 10-K EX-99(a)"},
		{`a:b*c?"d<e>f|g\h`, "abcdefgh"},
		{"über_report", "über_report"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in), "input %q", tt.in)
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"", "plain", "10-K/A", "../../etc/passwd", "tab\there", "new\nline",
		"emoji 📄 doc", "ünïcödé", "()[]{}<>", "a.b_c-d e", "\x00\x01",
	}
	for _, s := range inputs {
		once := Sanitize(s)
		assert.Equal(t, once, Sanitize(once), "input %q", s)
	}
}

func TestClassify(t *testing.T) {
	cfg := types.DefaultPipelineConfig().Export
	tests := []struct {
		ext  string
		want Action
	}{
		{".htm", ActionRender},
		{".html", ActionRender},
		{".HTM", ActionRender},
		{".xhtml", ActionRender},
		{".pdf", ActionCopy},
		{".txt", ActionCopy},
		{".xml", ActionCopy},
		{".jpg", ActionSkip},
		{".xsd", ActionSkip},
		{"", ActionSkip},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classify(tt.ext, cfg), "ext %q", tt.ext)
	}

	cfg.CopyExtensions = []string{"jpg"}
	assert.Equal(t, ActionCopy, classify(".jpg", cfg))
	assert.Equal(t, ActionSkip, classify(".pdf", cfg))
}

func TestPlan(t *testing.T) {
	e := newTestExporter(t, &fakeRenderer{}, nil)

	target, action := e.Plan(Request{DocType: "10-K", SourceURL: "https://www.sec.gov/a.htm", FilingDate: filed, PrimaryFormType: "10-K"})
	assert.Equal(t, ActionRender, action)
	assert.Equal(t, e.RootDir(), target.Dir)
	assert.Equal(t, "2015-03-01 Form 10-K.pdf", filepath.Base(target.Path()))

	target, action = e.Plan(Request{DocType: "EX-10.1", SourceURL: "https://www.sec.gov/b.htm", FilingDate: filed, PrimaryFormType: "10-K"})
	assert.Equal(t, ActionRender, action)
	assert.Equal(t, e.ExhibitsDir(), target.Dir)
	assert.Equal(t, "2015-03-01 Form 10-K EX-10.1.pdf", filepath.Base(target.Path()))

	target, action = e.Plan(Request{DocType: "EX-101.INS", SourceURL: "https://www.sec.gov/c.xml", FilingDate: filed, PrimaryFormType: "10-K"})
	assert.Equal(t, ActionCopy, action)
	assert.Equal(t, "2015-03-01 Form 10-K EX-101.INS.xml", filepath.Base(target.Path()))

	target, _ = e.Plan(Request{DocType: "10-K/A", SourceURL: "https://www.sec.gov/d.txt", FilingDate: filed, PrimaryFormType: "10-K/A"})
	assert.Equal(t, "2015-03-01 Form 10-KA.txt", filepath.Base(target.Path()))

	assert.Equal(t, filepath.Join(e.cfg.OutputDir, "AAPL", "SEC"), e.RootDir())
	assert.Equal(t, filepath.Join(e.cfg.OutputDir, "AAPL", "SEC", "Exhibits"), e.ExhibitsDir())
}

func TestEnsureDirs_Idempotent(t *testing.T) {
	e := newTestExporter(t, &fakeRenderer{}, nil)
	require.NoError(t, e.EnsureDirs())
	require.NoError(t, e.EnsureDirs())

	info, err := os.Stat(e.ExhibitsDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestExport_Render(t *testing.T) {
	r := &fakeRenderer{}
	e := newTestExporter(t, r, nil)

	res, err := e.Export(context.Background(), Request{DocType: "10-K", SourceURL: "https://www.sec.gov/a.htm", FilingDate: filed, PrimaryFormType: "10-K"})
	require.NoError(t, err)

	assert.Equal(t, types.ExportDone, res.Status)
	assert.Equal(t, []string{"https://www.sec.gov/a.htm"}, r.calls)
	_, err = os.Stat(filepath.Join(e.RootDir(), "2015-03-01 Form 10-K.pdf"))
	assert.NoError(t, err)
}

func TestExport_Copy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("raw bytes " + r.URL.Path))
	}))
	defer ts.Close()

	r := &fakeRenderer{}
	e := newTestExporter(t, r, ts.Client())

	res, err := e.Export(context.Background(), Request{DocType: "EX-99", SourceURL: ts.URL + "/ex99.pdf", FilingDate: filed, PrimaryFormType: "8-K"})
	require.NoError(t, err)
	assert.Equal(t, ActionCopy, res.Action)
	assert.Empty(t, r.calls)

	data, err := os.ReadFile(filepath.Join(e.ExhibitsDir(), "2015-03-01 Form 8-K EX-99.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "raw bytes /ex99.pdf", string(data))
}

func TestExport_SkipsUnlistedExtension(t *testing.T) {
	r := &fakeRenderer{}
	e := newTestExporter(t, r, nil)

	for _, u := range []string{"https://www.sec.gov/chart.jpg", ""} {
		res, err := e.Export(context.Background(), Request{DocType: "EX-99", SourceURL: u, FilingDate: filed, PrimaryFormType: "10-K"})
		require.NoError(t, err)
		assert.Equal(t, ActionSkip, res.Action)
		assert.Equal(t, types.ExportSkipped, res.Status)
	}
	assert.Empty(t, r.calls)
}

func TestExport_Failures(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	tests := []struct {
		name string
		r    *fakeRenderer
		url  string
	}{
		{"render error", &fakeRenderer{err: errors.New("wkhtmltopdf crashed")}, "https://www.sec.gov/a.htm"},
		{"download error", &fakeRenderer{}, ts.URL + "/a.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExporter(t, tt.r, ts.Client())
			req := Request{DocType: "10-K", SourceURL: tt.url, FilingDate: filed, PrimaryFormType: "10-K"}
			res, err := e.Export(context.Background(), req)
			require.Error(t, err)
			var ee *ExportError
			require.True(t, errors.As(err, &ee))
			assert.Equal(t, types.ExportFailed, res.Status)
			assert.Equal(t, tt.url, ee.URL)
		})
	}
}

func TestExport_SamePathSerialized(t *testing.T) {
	r := &fakeRenderer{delay: 20 * time.Millisecond}
	e := newTestExporter(t, r, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Export(context.Background(), Request{DocType: "10-K", SourceURL: "https://www.sec.gov/a.htm", FilingDate: filed, PrimaryFormType: "10-K"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, r.calls, 4)
	assert.Equal(t, int32(0), atomic.LoadInt32(&r.overlap), "exports to one path must not overlap")
	assert.Empty(t, e.locks.m, "locks are released")
}
