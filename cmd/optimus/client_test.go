package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"pkt.systems/optimus/core"
	"pkt.systems/optimus/httpapi"
	"pkt.systems/optimus/internal/command"
	"pkt.systems/optimus/internal/eventbus"
	"pkt.systems/optimus/internal/memhost"
	"pkt.systems/optimus/internal/registry"
	"pkt.systems/optimus/schema"
)

func newTestShell(t *testing.T, basePath string) (*httptest.Server, *eventbus.Bus) {
	t.Helper()
	reg, err := registry.New(map[string]string{"im": "/im", "dashboard": "/dashboard"})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	bus := eventbus.New(nil)
	svc, err := core.NewService(schema.ShellConfig{}, core.ServiceDeps{
		Host:      memhost.New(nil),
		Locations: reg,
		EventSink: bus,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	api := httpapi.NewServer(httpapi.Config{BasePath: basePath}, svc, command.NewHandler(svc, command.HandlerConfig{}), bus)
	server := httptest.NewServer(api.Handler())
	t.Cleanup(server.Close)
	return server, bus
}

func TestNewAPIClientBaseURL(t *testing.T) {
	tests := []struct {
		addr     string
		basePath string
		want     string
	}{
		{addr: "127.0.0.1:27490", want: "http://127.0.0.1:27490"},
		{addr: "http://shell.local/", want: "http://shell.local"},
		{addr: "127.0.0.1:27490", basePath: "/shell/", want: "http://127.0.0.1:27490/shell"},
	}
	for _, tc := range tests {
		if got := newAPIClient(tc.addr, tc.basePath).baseURL; got != tc.want {
			t.Fatalf("newAPIClient(%q, %q) = %q, want %q", tc.addr, tc.basePath, got, tc.want)
		}
	}
}

func TestClientCreateWindow(t *testing.T) {
	server, _ := newTestShell(t, "")
	client := newAPIClient(server.URL, "")
	ctx := context.Background()

	resp, err := client.CreateWindow(ctx, "im")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !resp.Created || resp.WindowCount != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
	resp, err = client.CreateWindow(ctx, "im")
	if err != nil || !resp.Focused || resp.WindowCount != 1 {
		t.Fatalf("expected focus, got %+v %v", resp, err)
	}
	if _, err := client.CreateWindow(ctx, "ghost"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
}

func TestClientCommandHandling(t *testing.T) {
	server, bus := newTestShell(t, "/shell")
	ch, cancel := bus.Subscribe("im")
	defer cancel()
	client := newAPIClient(server.URL, "/shell")

	resp, err := client.CommandHandling(context.Background(), "im", "buy 10")
	if err != nil || !resp.Emitted {
		t.Fatalf("expected emission, got %+v %v", resp, err)
	}
	event := <-ch
	if event.Name != schema.EventTargetField || event.Payload != "buy 10" {
		t.Fatalf("unexpected event %+v", event)
	}
	if _, err := client.CommandHandling(context.Background(), " ", "x"); err == nil {
		t.Fatalf("expected missing target error")
	}
}

func TestOpenAndSendCommands(t *testing.T) {
	server, _ := newTestShell(t, "")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"open", "dashboard", "--addr", server.URL})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	if !strings.Contains(out.String(), "window dashboard created (windows created: 1)") {
		t.Fatalf("unexpected output %q", out.String())
	}

	root = newRootCmd()
	out.Reset()
	root.SetOut(&out)
	root.SetArgs([]string{"send", "orders", "x", "--addr", server.URL})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(out.String(), "nothing sent to orders") {
		t.Fatalf("unexpected output %q", out.String())
	}

	root = newRootCmd()
	out.Reset()
	root.SetOut(&out)
	root.SetArgs([]string{"windows", "--live", "--addr", server.URL})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("windows: %v", err)
	}
	if !strings.Contains(out.String(), "dashboard") || !strings.Contains(out.String(), "open") {
		t.Fatalf("unexpected output %q", out.String())
	}
}
