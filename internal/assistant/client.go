package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/fiskara/taxchat/internal/config"
)

// Client talks to an OpenAI-Assistants-compatible API: threads, runs,
// thread messages and the file store.
type Client struct {
	apiKey      string
	baseURL     string
	assistantID string
	httpClient  *http.Client
}

func New(apiKey, baseURL, assistantID string) *Client {
	return &Client{
		apiKey:      apiKey,
		baseURL:     baseURL,
		assistantID: assistantID,
		httpClient:  &http.Client{Timeout: config.ProviderRequestTimeout},
	}
}

// CreateThread creates an empty conversation thread and returns its handle.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	var thread struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/threads", struct{}{}, &thread); err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	return thread.ID, nil
}

// PostMessage appends a user message to the thread. Attachments grant the
// assistant both retrieval and code-execution access to the file content.
func (c *Client) PostMessage(ctx context.Context, threadID, text string, fileIDs []string) error {
	payload := struct {
		Role        string              `json:"role"`
		Content     string              `json:"content"`
		Attachments []MessageAttachment `json:"attachments,omitempty"`
	}{
		Role:    "user",
		Content: text,
	}
	for _, id := range fileIDs {
		payload.Attachments = append(payload.Attachments, MessageAttachment{
			FileID: id,
			Tools:  []Tool{{Type: "file_search"}, {Type: "code_interpreter"}},
		})
	}

	if err := c.post(ctx, "/threads/"+threadID+"/messages", payload, nil); err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	return nil
}

// CreateRun starts a run against the thread. Zero-value config fields fall
// back to the client's assistant.
func (c *Client) CreateRun(ctx context.Context, threadID string, cfg RunConfig) (*Run, error) {
	if cfg.AssistantID == "" {
		cfg.AssistantID = c.assistantID
	}
	var run Run
	if err := c.post(ctx, "/threads/"+threadID+"/runs", cfg, &run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return &run, nil
}

// GetRun fetches the current status of a run.
func (c *Client) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var run Run
	if err := c.get(ctx, "/threads/"+threadID+"/runs/"+runID, &run); err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &run, nil
}

// SubmitToolOutputs resumes a run paused in requires_action with the
// produced outputs, submitted as one batch.
func (c *Client) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) error {
	payload := struct {
		ToolOutputs []ToolOutput `json:"tool_outputs"`
	}{ToolOutputs: outputs}

	if err := c.post(ctx, "/threads/"+threadID+"/runs/"+runID+"/submit_tool_outputs", payload, nil); err != nil {
		return fmt.Errorf("submit tool outputs: %w", err)
	}
	return nil
}

// ListMessages returns the full message list of a thread. The provider
// gives no usable ordering guarantee; callers sort by timestamp.
func (c *Client) ListMessages(ctx context.Context, threadID string) ([]ThreadMessage, error) {
	var result struct {
		Data []ThreadMessage `json:"data"`
	}
	if err := c.get(ctx, "/threads/"+threadID+"/messages?limit=100", &result); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return result.Data, nil
}

// UploadFile stores a file in the provider's file store tagged for
// assistant use and returns the remote handle.
func (c *Client) UploadFile(ctx context.Context, name string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("purpose", "assistants"); err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("upload file: read content: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &buf)
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	c.setAuth(req)

	var file struct {
		ID string `json:"id"`
	}
	if err := c.do(req, &file); err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}
	return file.ID, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setAuth(req)

	return c.do(req, out)
}

func (c *Client) setAuth(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
