package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"docqa/internal/port"
)

// OpenAIChat talks to an OpenAI-compatible chat completions endpoint with
// function calling enabled.
type OpenAIChat struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Tools       []chatTool    `json:"tools,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatTool struct {
	Type     string          `json:"type"`
	Function chatToolDetails `json:"function"`
}

type chatToolDetails struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  toolParams `json:"parameters"`
}

type toolParams struct {
	Type       string               `json:"type"`
	Properties map[string]toolParam `json:"properties"`
	Required   []string             `json:"required"`
}

type toolParam struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *apiError    `json:"error,omitempty"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// toolArguments is the single-parameter schema every tool shares.
type toolArguments struct {
	Query string `json:"query"`
}

func NewOpenAIChat(apiKeyEnv, model string) (*OpenAIChat, error) {
	return NewOpenAICompatibleChat(apiKeyEnv, model, "https://api.openai.com/v1")
}

func NewOllamaChat(model, baseURL string) (*OpenAIChat, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	return &OpenAIChat{
		apiKey:  "ollama",
		model:   model,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

func NewOpenAICompatibleChat(apiKeyEnv, model, baseURL string) (*OpenAIChat, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	return &OpenAIChat{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

func (c *OpenAIChat) ModelName() string {
	return c.model
}

// Decide sends the conversation and the available tools, and returns either
// the first tool call the model requested or its final answer.
func (c *OpenAIChat) Decide(system string, turns []port.Turn, tools []port.ToolSpec) (port.Decision, error) {
	messages := make([]chatMessage, 0, len(turns)+1)
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	for _, turn := range turns {
		messages = append(messages, toMessage(turn))
	}

	req := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Tools:       toChatTools(tools),
		Temperature: 0,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return port.Decision{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequest("POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return port.Decision{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return port.Decision{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return port.Decision{}, fmt.Errorf("failed to read response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return port.Decision{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if chatResp.Error != nil {
		return port.Decision{}, fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return port.Decision{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if len(chatResp.Choices) == 0 {
		return port.Decision{}, fmt.Errorf("no choices in response")
	}

	msg := chatResp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		call := msg.ToolCalls[0]
		return port.Decision{
			Tool:   call.Function.Name,
			Input:  parseQuery(call.Function.Arguments),
			CallID: call.ID,
		}, nil
	}

	return port.Decision{Answer: msg.Content}, nil
}

func toMessage(turn port.Turn) chatMessage {
	msg := chatMessage{Role: turn.Role, Content: turn.Content}
	if turn.Role == "assistant" && turn.Tool != "" {
		args, _ := json.Marshal(toolArguments{Query: turn.Input})
		msg.ToolCalls = []chatToolCall{{
			ID:   turn.CallID,
			Type: "function",
			Function: chatFunction{
				Name:      turn.Tool,
				Arguments: string(args),
			},
		}}
	}
	if turn.Role == "tool" {
		msg.ToolCallID = turn.CallID
	}
	return msg
}

func toChatTools(tools []port.ToolSpec) []chatTool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]chatTool, 0, len(tools))
	for _, tool := range tools {
		out = append(out, chatTool{
			Type: "function",
			Function: chatToolDetails{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters: toolParams{
					Type: "object",
					Properties: map[string]toolParam{
						"query": {Type: "string", Description: "The search query"},
					},
					Required: []string{"query"},
				},
			},
		})
	}
	return out
}

// parseQuery extracts the query argument. Some models emit bare strings
// instead of the JSON object the schema asks for; take those as-is.
func parseQuery(arguments string) string {
	var args toolArguments
	if err := json.Unmarshal([]byte(arguments), &args); err == nil && args.Query != "" {
		return args.Query
	}
	return arguments
}
