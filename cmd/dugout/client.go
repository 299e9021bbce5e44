package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"dugout/internal/config"
	"dugout/internal/daemon"
	"dugout/internal/importer"
)

// apiClient talks to the daemon's HTTP API.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(cfg *config.Config) *apiClient {
	return &apiClient{
		base: "http://" + cfg.Paths.APIBind,
		http: &http.Client{Timeout: 60 * time.Second},
	}
}

type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("daemon returned status %d", e.Status)
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("is dugoutd running? %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return &apiError{Status: resp.StatusCode, Message: payload.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *apiClient) enqueue(ctx context.Context, gameID *int64, files []importer.IntakeFile) (daemon.TaskPayload, error) {
	type fileRef struct {
		Path string `json:"path"`
		Name string `json:"name"`
	}
	request := struct {
		GameID *int64    `json:"game_id"`
		Files  []fileRef `json:"files"`
	}{GameID: gameID}
	for _, file := range files {
		request.Files = append(request.Files, fileRef{Path: file.Path, Name: file.Name})
	}

	var task daemon.TaskPayload
	err := c.do(ctx, http.MethodPost, "/api/tasks", request, &task)
	return task, err
}

func (c *apiClient) getTask(ctx context.Context, id string) (daemon.TaskPayload, error) {
	var task daemon.TaskPayload
	err := c.do(ctx, http.MethodGet, "/api/tasks/"+id, nil, &task)
	return task, err
}

func (c *apiClient) listTasks(ctx context.Context, gameID *int64, all bool, status string) ([]daemon.TaskPayload, error) {
	path := "/api/tasks"
	sep := "?"
	if gameID != nil {
		path += fmt.Sprintf("%sgame=%d", sep, *gameID)
		sep = "&"
	}
	if all {
		path += sep + "all=1"
		sep = "&"
	}
	if status != "" {
		path += sep + "status=" + url.QueryEscape(status)
	}

	var payload struct {
		Tasks []daemon.TaskPayload `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Tasks, nil
}

func (c *apiClient) restartTask(ctx context.Context, id string) (daemon.TaskPayload, error) {
	var task daemon.TaskPayload
	err := c.do(ctx, http.MethodPost, "/api/tasks/"+id+"/restart", nil, &task)
	return task, err
}

type healthPayload struct {
	Total      int `json:"total"`
	Queued     int `json:"queued"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	QueueDepth int `json:"queue_depth"`
}

func (c *apiClient) health(ctx context.Context) (healthPayload, error) {
	var payload healthPayload
	err := c.do(ctx, http.MethodGet, "/api/health", nil, &payload)
	return payload, err
}

func (c *apiClient) runSweep(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/api/sweeps/"+name, nil, nil)
}
