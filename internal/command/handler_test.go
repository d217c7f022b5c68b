package command

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pkt.systems/optimus/schema"
)

func TestHandleOpenCreatesWindow(t *testing.T) {
	var got schema.CreateWindowRequest
	svc := &fakeService{
		createFn: func(_ context.Context, req schema.CreateWindowRequest) (schema.CreateWindowResponse, error) {
			got = req
			return schema.CreateWindowResponse{Name: req.Name, Created: true, WindowCount: 1}, nil
		},
	}
	handler := NewHandler(svc, HandlerConfig{})
	for _, input := range []string{"open im", "WINDOW im"} {
		res, err := handler.Handle(context.Background(), input)
		if err != nil {
			t.Fatalf("%q: Handle: %v", input, err)
		}
		if got.Name != "im" {
			t.Fatalf("%q: expected im, got %q", input, got.Name)
		}
		if len(res.Lines) != 1 || !strings.Contains(res.Lines[0], "window im created") {
			t.Fatalf("%q: unexpected output %+v", input, res.Lines)
		}
	}
}

func TestHandleOpenUsage(t *testing.T) {
	handler := NewHandler(&fakeService{}, HandlerConfig{})
	_, err := handler.Handle(context.Background(), "open")
	if !errors.Is(err, schema.ErrInvalidRequest) || !strings.Contains(err.Error(), "usage: open") {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestHandleOpenPropagatesUnknownWindow(t *testing.T) {
	svc := &fakeService{
		createFn: func(_ context.Context, req schema.CreateWindowRequest) (schema.CreateWindowResponse, error) {
			return schema.CreateWindowResponse{}, schema.ErrUnknownWindowName
		},
	}
	_, err := NewHandler(svc, HandlerConfig{}).Handle(context.Background(), "open ghost")
	if !errors.Is(err, schema.ErrUnknownWindowName) {
		t.Fatalf("expected ErrUnknownWindowName, got %v", err)
	}
}

func TestHandleSendJoinsArgs(t *testing.T) {
	var got schema.Command
	svc := &fakeService{
		dispatchFn: func(_ context.Context, req schema.DispatchCommandRequest) (schema.DispatchCommandResponse, error) {
			got = req.Command
			return schema.DispatchCommandResponse{Emitted: true}, nil
		},
	}
	res, err := NewHandler(svc, HandlerConfig{}).Handle(context.Background(), `send im "buy AAPL" 100`)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got.Target != "im" || got.Args != "buy AAPL 100" {
		t.Fatalf("unexpected command %+v", got)
	}
	if res.Command != "send" || res.Lines[0] != "sent to im" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestHandleUnknownVerbDispatchesToWindow(t *testing.T) {
	var got schema.Command
	svc := &fakeService{
		dispatchFn: func(_ context.Context, req schema.DispatchCommandRequest) (schema.DispatchCommandResponse, error) {
			got = req.Command
			return schema.DispatchCommandResponse{Reason: schema.DispatchReasonEmptyArgs}, nil
		},
	}
	res, err := NewHandler(svc, HandlerConfig{}).Handle(context.Background(), "im")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got.Target != "im" || got.Args != "" {
		t.Fatalf("unexpected command %+v", got)
	}
	if !strings.Contains(res.Lines[0], string(schema.DispatchReasonEmptyArgs)) {
		t.Fatalf("expected skip reason, got %+v", res.Lines)
	}
}

func TestHandleWindowsListsRegistry(t *testing.T) {
	svc := &fakeService{
		listFn: func(_ context.Context, _ schema.ListWindowsRequest) (schema.ListWindowsResponse, error) {
			return schema.ListWindowsResponse{
				Windows: []schema.WindowSnapshot{
					{Name: "dashboard", Location: "/dashboard", Open: true},
					{Name: "im", Location: "/im"},
				},
			}, nil
		},
	}
	res, err := NewHandler(svc, HandlerConfig{}).Handle(context.Background(), "windows")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	want := []string{"dashboard\topen\t/dashboard", "im\tclosed\t/im"}
	if strings.Join(res.Lines, "\n") != strings.Join(want, "\n") {
		t.Fatalf("unexpected lines %q", res.Lines)
	}
}

func TestHandleStatus(t *testing.T) {
	svc := &fakeService{
		stateFn: func(_ context.Context, _ schema.GetStateRequest) (schema.GetStateResponse, error) {
			return schema.GetStateResponse{State: schema.AppState{WindowCount: 3}}, nil
		},
	}
	res, err := NewHandler(svc, HandlerConfig{}).Handle(context.Background(), "status")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.Lines[0] != "windows created: 3" {
		t.Fatalf("unexpected status %q", res.Lines[0])
	}
}

func TestHandleEmptyInput(t *testing.T) {
	_, err := NewHandler(&fakeService{}, HandlerConfig{}).Handle(context.Background(), "   ")
	if !errors.Is(err, schema.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

type fakeService struct {
	createFn   func(context.Context, schema.CreateWindowRequest) (schema.CreateWindowResponse, error)
	dispatchFn func(context.Context, schema.DispatchCommandRequest) (schema.DispatchCommandResponse, error)
	listFn     func(context.Context, schema.ListWindowsRequest) (schema.ListWindowsResponse, error)
	stateFn    func(context.Context, schema.GetStateRequest) (schema.GetStateResponse, error)
}

func (f *fakeService) CreateOrFocusWindow(ctx context.Context, req schema.CreateWindowRequest) (schema.CreateWindowResponse, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return schema.CreateWindowResponse{}, errors.New("unexpected CreateOrFocusWindow")
}

func (f *fakeService) DispatchCommand(ctx context.Context, req schema.DispatchCommandRequest) (schema.DispatchCommandResponse, error) {
	if f.dispatchFn != nil {
		return f.dispatchFn(ctx, req)
	}
	return schema.DispatchCommandResponse{}, errors.New("unexpected DispatchCommand")
}

func (f *fakeService) ListWindows(ctx context.Context, req schema.ListWindowsRequest) (schema.ListWindowsResponse, error) {
	if f.listFn != nil {
		return f.listFn(ctx, req)
	}
	return schema.ListWindowsResponse{}, errors.New("unexpected ListWindows")
}

func (f *fakeService) GetState(ctx context.Context, req schema.GetStateRequest) (schema.GetStateResponse, error) {
	if f.stateFn != nil {
		return f.stateFn(ctx, req)
	}
	return schema.GetStateResponse{}, errors.New("unexpected GetState")
}
