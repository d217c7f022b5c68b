package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pkt.systems/optimus/internal/appconfig"
	"pkt.systems/pslog"
)

// apiClient talks to a running shell's invocation API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(addr, basePath string) *apiClient {
	base := strings.TrimRight(strings.TrimSpace(addr), "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	if path := strings.Trim(strings.TrimSpace(basePath), "/"); path != "" {
		base += "/" + path
	}
	return &apiClient{baseURL: base, http: &http.Client{Timeout: 30 * time.Second}}
}

// clientFromConfig resolves the API address from flags or the config file.
func clientFromConfig(cfgPath, addr string) (*apiClient, error) {
	if addr != "" {
		return newAPIClient(addr, ""), nil
	}
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	return newAPIClient(cfg.HTTP.Addr, cfg.HTTP.BasePath), nil
}

func (c *apiClient) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(ctx, req, out)
}

func (c *apiClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(ctx, req, out)
}

func (c *apiClient) do(ctx context.Context, req *http.Request, out any) error {
	log := pslog.Ctx(ctx).With("method", req.Method, "url", req.URL.String())
	log.Debug("client request start")
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("client request failed", "err", err)
		return err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	log.Debug("client request done", "status", resp.StatusCode, "request", resp.Header.Get("X-Request-ID"))
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (%d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type createWindowResult struct {
	Name        string `json:"name"`
	Created     bool   `json:"created"`
	Focused     bool   `json:"focused"`
	WindowCount uint64 `json:"window_count"`
}

type commandHandlingResult struct {
	Emitted bool   `json:"emitted"`
	Reason  string `json:"reason"`
}

type windowsResult struct {
	Windows []struct {
		Name     string `json:"name"`
		Location string `json:"location"`
		Open     bool   `json:"open"`
	} `json:"windows"`
	WindowCount uint64 `json:"window_count"`
}

func (c *apiClient) CreateWindow(ctx context.Context, name string) (createWindowResult, error) {
	var out createWindowResult
	err := c.post(ctx, "/api/invoke/create_window", map[string]string{"name": name}, &out)
	return out, err
}

func (c *apiClient) CommandHandling(ctx context.Context, target, args string) (commandHandlingResult, error) {
	if strings.TrimSpace(target) == "" {
		return commandHandlingResult{}, errors.New("target window is required")
	}
	var out commandHandlingResult
	err := c.post(ctx, "/api/invoke/command_handling", map[string]string{"command": target, "args": args}, &out)
	return out, err
}

func (c *apiClient) Windows(ctx context.Context) (windowsResult, error) {
	var out windowsResult
	err := c.get(ctx, "/api/windows", &out)
	return out, err
}
