package chromehost

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os/exec"
	"testing"
	"time"

	"pkt.systems/optimus/schema"
)

func TestResolveLocation(t *testing.T) {
	base, err := url.Parse("http://localhost:3000/app/")
	if err != nil {
		t.Fatalf("parse base: %v", err)
	}
	cases := []struct {
		name     string
		base     *url.URL
		location schema.ContentLocation
		want     string
		wantErr  bool
	}{
		{name: "absolute path", base: base, location: "/im", want: "http://localhost:3000/im"},
		{name: "relative path", base: base, location: "orders", want: "http://localhost:3000/app/orders"},
		{name: "absolute url", base: base, location: "http://localhost:3000/other", want: "http://localhost:3000/other"},
		{name: "absolute url without base", location: "file:///srv/im.html", want: "file:///srv/im.html"},
		{name: "relative without base", location: "/im", wantErr: true},
		{name: "empty", base: base, location: "  ", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveLocation(tc.base, tc.location)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestAllocatorOptionsGrowWithConfig(t *testing.T) {
	plain := allocatorOptions(Config{Headless: true})
	full := allocatorOptions(Config{Headless: true, NoSandbox: true, ExecPath: "/usr/bin/chromium", UserDataDir: "/tmp/profile", Debug: true})
	if len(full)-len(plain) != 4 {
		t.Fatalf("expected four extra options, got %d", len(full)-len(plain))
	}
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	if _, err := New(context.Background(), Config{BaseURL: "/app/"}, nil); err == nil {
		t.Fatalf("expected relative base url to be rejected")
	}
}

func TestChromeHostWindowLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	execPath := findChrome()
	if execPath == "" {
		t.Skip("chrome not installed")
	}
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>" + r.URL.Path + "</body></html>"))
	}))
	t.Cleanup(site.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	host, err := New(ctx, Config{ExecPath: execPath, BaseURL: site.URL, Headless: true, NoSandbox: true}, nil)
	if err != nil {
		t.Fatalf("start host: %v", err)
	}
	t.Cleanup(host.Shutdown)

	spec := schema.WindowSpec{Name: "im", Title: "im", Location: "/im", Options: schema.DefaultWindowOptions()}
	handle, err := host.CreateWindow(ctx, spec)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if handle.ID == "" {
		t.Fatalf("expected target id")
	}
	exists, err := host.WindowExists(ctx, "im")
	if err != nil || !exists {
		t.Fatalf("expected window to exist, got %v %v", exists, err)
	}
	if _, err := host.CreateWindow(ctx, spec); !errors.Is(err, schema.ErrWindowExists) {
		t.Fatalf("expected ErrWindowExists, got %v", err)
	}
	if err := host.FocusWindow(ctx, "im"); err != nil {
		t.Fatalf("focus: %v", err)
	}
	if err := host.OpenDevtools(ctx, handle); err == nil {
		t.Fatalf("expected devtools to require debug mode")
	}
	if err := host.FocusWindow(ctx, "dashboard"); !errors.Is(err, schema.ErrWindowNotFound) {
		t.Fatalf("expected ErrWindowNotFound, got %v", err)
	}
}

func findChrome() string {
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}
