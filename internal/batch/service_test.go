package batch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"stockmeta/internal/domain"
	"stockmeta/internal/domain/jsoncfg"
)

type stubGenerator struct {
	mu    sync.Mutex
	creds []string
	fail  map[string]bool
}

func (g *stubGenerator) Generate(_ context.Context, img []byte, mime string, cfg domain.GenerationConfig, credential string) (domain.Metadata, error) {
	g.mu.Lock()
	g.creds = append(g.creds, credential)
	fail := g.fail[credential]
	g.mu.Unlock()
	if len(img) == 0 || mime != "image/jpeg" {
		return domain.Metadata{}, errors.New("bad image")
	}
	if fail {
		return domain.Metadata{}, &domain.GenerationError{Kind: domain.KindTerminal, Provider: cfg.Provider, Status: 429, Message: "quota exceeded"}
	}
	return domain.Metadata{Title: "Blue square", Keywords: []string{"blue"}}, nil
}

func (g *stubGenerator) setFail(cred string, fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail == nil {
		g.fail = map[string]bool{}
	}
	g.fail[cred] = fail
}

type staticKeys map[domain.Provider][]string

func (k staticKeys) Keys(_ context.Context, p domain.Provider) ([]string, error) {
	return k[p], nil
}

func noSleep(context.Context, time.Duration) error { return nil }

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newTestService(gen *stubGenerator, keys staticKeys) *Service {
	return NewService(Options{Generator: gen, Keys: keys, Sleep: noSleep})
}

func groqSettings() jsoncfg.Settings {
	s := jsoncfg.DefaultSettings()
	s.Provider = domain.ProviderGroq
	s.Model = ""
	return s
}

func TestPrepareSkipsAndSortsNaturally(t *testing.T) {
	svc := newTestService(&stubGenerator{}, nil)
	data := pngBytes(t)
	items, skipped := svc.Prepare([]Upload{
		{Filename: "img10.png", MimeType: "image/png", Data: data},
		{Filename: "notes.txt", MimeType: "text/plain", Data: []byte("hi")},
		{Filename: "img2.png", MimeType: "image/png", Data: data},
		{Filename: "broken.jpg", MimeType: "image/jpeg", Data: []byte("nope")},
	})
	if len(items) != 2 || items[0].Filename != "img2.png" || items[1].Filename != "img10.png" {
		t.Fatalf("items = %+v", items)
	}
	if items[0].MimeType != "image/jpeg" || items[0].Status != domain.StatusPending {
		t.Fatalf("item = %+v", items[0])
	}
	if len(skipped) != 2 || skipped[0] != "notes.txt" || skipped[1] != "broken.jpg" {
		t.Fatalf("skipped = %q", skipped)
	}
}

func TestRunCompletesItems(t *testing.T) {
	gen := &stubGenerator{}
	svc := newTestService(gen, staticKeys{domain.ProviderGroq: {"k1"}})
	data := pngBytes(t)
	b := svc.Create([]Upload{
		{Filename: "a.png", MimeType: "image/png", Data: data},
		{Filename: "b.png", MimeType: "image/png", Data: data},
	}, groqSettings())

	sum, err := svc.Run(context.Background(), b)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if sum.Completed != 2 || sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	snap := b.Snapshot()
	if snap.Running || snap.Counts[domain.StatusComplete] != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Items[0].Metadata == nil || snap.Items[0].Metadata.Title != "Blue square" {
		t.Fatalf("metadata = %+v", snap.Items[0].Metadata)
	}
}

func TestStartRejectsEmptyPool(t *testing.T) {
	svc := newTestService(&stubGenerator{}, staticKeys{})
	b := svc.Create([]Upload{{Filename: "a.png", MimeType: "image/png", Data: pngBytes(t)}}, groqSettings())

	err := svc.Start(context.Background(), b)
	if !errors.Is(err, domain.ErrMissingCredentials) || !domain.IsKind(err, domain.KindConfiguration) {
		t.Fatalf("err = %v, want missing credentials", err)
	}
	if b.Running() {
		t.Fatal("batch should not be running")
	}
}

func TestRetryReprocessesFailures(t *testing.T) {
	gen := &stubGenerator{}
	gen.setFail("k1", true)
	svc := newTestService(gen, staticKeys{domain.ProviderGroq: {"k1"}})
	b := svc.Create([]Upload{{Filename: "a.png", MimeType: "image/png", Data: pngBytes(t)}}, groqSettings())

	sum, err := svc.Run(context.Background(), b)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if sum.Failed != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if got := b.Items()[0]; got.Status != domain.StatusError || got.Err != "quota exceeded" {
		t.Fatalf("item = %+v", got)
	}

	gen.setFail("k1", false)
	n, err := svc.Retry(context.Background(), b)
	if err != nil || n != 1 {
		t.Fatalf("Retry = %d, %v", n, err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for b.Running() {
		if time.Now().After(deadline) {
			t.Fatal("retry run did not finish")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := b.Items()[0]; got.Status != domain.StatusComplete {
		t.Fatalf("status after retry = %s", got.Status)
	}
}

func TestGetUnknownBatch(t *testing.T) {
	svc := newTestService(&stubGenerator{}, nil)
	if _, err := svc.Get("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDescribeRotatesAcrossKeys(t *testing.T) {
	gen := &stubGenerator{}
	gen.setFail("k1", true)
	svc := newTestService(gen, staticKeys{domain.ProviderGroq: {"k1", "k2"}})

	md, err := svc.Describe(context.Background(), Upload{Filename: "a.png", MimeType: "image/png", Data: pngBytes(t)}, groqSettings())
	if err != nil {
		t.Fatalf("Describe error: %v", err)
	}
	if md.Title != "Blue square" {
		t.Fatalf("title = %q", md.Title)
	}
	if len(gen.creds) != 2 || gen.creds[0] != "k1" || gen.creds[1] != "k2" {
		t.Fatalf("credentials = %q", gen.creds)
	}
}

func TestDescribeRejectsUnsupportedFile(t *testing.T) {
	svc := newTestService(&stubGenerator{}, staticKeys{domain.ProviderGroq: {"k1"}})
	if _, err := svc.Describe(context.Background(), Upload{Filename: "a.gif", MimeType: "image/gif"}, groqSettings()); err == nil {
		t.Fatal("expected an error for a gif upload")
	}
}

type keysFunc func(ctx context.Context, p domain.Provider) ([]string, error)

func (f keysFunc) Keys(ctx context.Context, p domain.Provider) ([]string, error) { return f(ctx, p) }

func TestRetryLosingClaimKeepsFailures(t *testing.T) {
	gen := &stubGenerator{}
	gen.setFail("k1", true)
	var (
		b     *Batch
		claim bool
	)
	keys := keysFunc(func(context.Context, domain.Provider) ([]string, error) {
		if claim {
			// another caller starts the batch while keys load
			b.mu.Lock()
			b.running = true
			b.mu.Unlock()
		}
		return []string{"k1"}, nil
	})
	svc := NewService(Options{Generator: gen, Keys: keys, Sleep: noSleep})
	b = svc.Create([]Upload{{Filename: "a.png", MimeType: "image/png", Data: pngBytes(t)}}, groqSettings())
	if _, err := svc.Run(context.Background(), b); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	claim = true
	n, err := svc.Retry(context.Background(), b)
	if !errors.Is(err, ErrRunning) || n != 0 {
		t.Fatalf("Retry = %d, %v, want ErrRunning", n, err)
	}
	if got := b.Items()[0]; got.Status != domain.StatusError {
		t.Fatalf("status = %s, want error", got.Status)
	}
}

func TestDescribeSharesCursorAcrossCalls(t *testing.T) {
	gen := &stubGenerator{}
	gen.setFail("k1", true)
	svc := newTestService(gen, staticKeys{domain.ProviderGroq: {"k1", "k2"}})
	u := Upload{Filename: "a.png", MimeType: "image/png", Data: pngBytes(t)}

	for i := 0; i < 2; i++ {
		if _, err := svc.Describe(context.Background(), u, groqSettings()); err != nil {
			t.Fatalf("Describe %d error: %v", i, err)
		}
	}
	if len(gen.creds) != 3 || gen.creds[2] != "k2" {
		t.Fatalf("credentials = %q, want second call to start at k2", gen.creds)
	}
}
