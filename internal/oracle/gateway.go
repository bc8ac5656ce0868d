// internal/oracle/gateway.go
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/thiagoisdead/sustento-back/internal/logging"
)

const defaultGatewayModel = "anthropic/claude-3.5-sonnet"

// Gateway calls a chat model through the MCP proxy's OpenRouter gateway tool.
type Gateway struct {
	httpClient *http.Client
	proxyURL   string
	apiKey     string
	model      string
	logger     *zap.Logger
}

func NewGateway(proxyURL, apiKey, model string, timeout time.Duration, logger *zap.Logger) *Gateway {
	if model == "" {
		model = defaultGatewayModel
	}
	return &Gateway{
		httpClient: &http.Client{Timeout: timeout},
		proxyURL:   strings.TrimRight(proxyURL, "/"),
		apiKey:     apiKey,
		model:      model,
		logger:     logging.OrNop(logger).Named("oracle.gateway"),
	}
}

// completionArgs are the arguments of the gateway's create_completion tool.
type completionArgs struct {
	Model        string        `json:"model"`
	SystemPrompt string        `json:"system_prompt,omitempty"`
	Messages     []chatMessage `json:"messages"`
	MaxTokens    int           `json:"max_tokens,omitempty"`
	Temperature  float32       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  rpcToolParams `json:"params"`
}

type rpcToolParams struct {
	Name      string      `json:"name"`
	Arguments interface{} `json:"arguments"`
}

type rpcResponse struct {
	Result *struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

// rpcError is a JSON-RPC error returned by the proxy.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("gateway rpc error %d: %s", e.Code, e.Message)
}

// maxErrorBody bounds how much of a failed response ends up in the error.
const maxErrorBody = 512

func (g *Gateway) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	text, err := g.callTool(ctx, "create_completion", completionArgs{
		Model:        g.model,
		SystemPrompt: req.System,
		Messages:     []chatMessage{{Role: "user", Content: req.User}},
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to complete via gateway: %w", err)
	}

	content := completionContent(text)
	g.logger.Debug("completion",
		zap.String("model", g.model),
		zap.Int("chars", len(content)),
		zap.Duration("took", time.Since(start)))

	return ExtractJSON(content)
}

// callTool runs one tools/call against the gateway and returns the text of
// the first content block.
func (g *Gateway) callTool(ctx context.Context, tool string, args interface{}) (string, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  rpcToolParams{Name: tool, Arguments: args},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode %s call: %w", tool, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.proxyURL+"/openrouter-gateway", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build %s request: %w", tool, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to reach gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("gateway returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if out.Error != nil {
		return "", out.Error
	}
	if out.Result == nil || len(out.Result.Content) == 0 {
		return "", fmt.Errorf("gateway %s result has no content", tool)
	}
	return out.Result.Content[0].Text, nil
}

// completionContent unwraps the gateway's {"content": "..."} completion
// envelope. Text that is not an envelope is returned as is.
func completionContent(text string) string {
	var completion struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(text), &completion); err != nil || completion.Content == "" {
		return text
	}
	return completion.Content
}
