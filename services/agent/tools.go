package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"prepwise/models"
	"prepwise/services"

	"github.com/inbucket/html2text"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
)

const (
	FetchURLToolName       = "fetch_url"
	SearchMemoryToolName   = "search_memory"
	GetCurrentTimeToolName = "get_current_time"

	maxFetchSize        = 1 << 20
	defaultFetchTimeout = 15 * time.Second
	fetchUserAgent      = "prepwise-agent/1.0"
)

// AgentTool interface that all tools must implement
type AgentTool interface {
	Name() string
	Description() string
	Call(ctx context.Context, input string) (string, error)
	Schema() *jsonschema.Schema
}

type sessionKey struct{}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

func SessionIDFromContext(ctx context.Context) string {
	sessionID, _ := ctx.Value(sessionKey{}).(string)
	return sessionID
}

// Toolbox holds every tool the process can offer. Each run picks a subset
// by name.
type Toolbox struct {
	tools []AgentTool
}

func NewToolbox(tools ...AgentTool) *Toolbox {
	return &Toolbox{tools: tools}
}

func (t *Toolbox) Names() []string {
	return lo.Map(t.tools, func(tool AgentTool, _ int) string {
		return tool.Name()
	})
}

func (t *Toolbox) Select(names []string) []AgentTool {
	return lo.Filter(t.tools, func(tool AgentTool, _ int) bool {
		return lo.Contains(names, tool.Name())
	})
}

func (t *Toolbox) Execute(ctx context.Context, tools []AgentTool, toolName, arguments string) (string, error) {
	tool, ok := lo.Find(tools, func(tool AgentTool) bool {
		return tool.Name() == toolName
	})
	if !ok {
		return "", fmt.Errorf("tool %s not found", toolName)
	}
	return tool.Call(ctx, arguments)
}

func reflectSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

type FetchURLToolInput struct {
	URL string `json:"url" jsonschema:"required,description=The http or https URL to fetch"`
}

type FetchURLTool struct {
	client *http.Client
}

// NewFetchURLTool returns a fetcher that only dials public addresses. The
// check runs on the resolved IP of every connection, redirects included.
func NewFetchURLTool() FetchURLTool {
	dialer := &net.Dialer{
		Timeout: defaultFetchTimeout,
		Control: func(network, address string, _ syscall.RawConn) error {
			return checkFetchAddress(address)
		},
	}

	transport := &http.Transport{
		Proxy:               nil,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return FetchURLTool{client: &http.Client{
		Timeout:   defaultFetchTimeout,
		Transport: transport,
	}}
}

func checkFetchAddress(address string) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("invalid dial address %q: %w", address, err)
	}

	ip, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("invalid dial address %q: %w", address, err)
	}
	ip = ip.Unmap()

	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified() || ip.IsMulticast() || ip.IsInterfaceLocalMulticast() {
		return fmt.Errorf("fetching address %s is not allowed", ip)
	}

	return nil
}

func (f FetchURLTool) Name() string {
	return FetchURLToolName
}

func (f FetchURLTool) Description() string {
	return "Fetches a web page (HTTP GET) and returns its readable text. Use it for curriculum and syllabus pages."
}

func (f FetchURLTool) Call(ctx context.Context, input string) (string, error) {
	var params FetchURLToolInput
	if err := decodeInput(input, &params); err != nil {
		return "", fmt.Errorf("failed to parse fetch url tool input: %v", err)
	}

	target, err := url.Parse(params.URL)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return "", fmt.Errorf("invalid url %q", params.URL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	text, err := html2text.FromReader(io.LimitReader(resp.Body, maxFetchSize), html2text.Options{
		OmitLinks:    false,
		PrettyTables: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	return text, nil
}

func (f FetchURLTool) Schema() *jsonschema.Schema {
	return reflectSchema[FetchURLToolInput]()
}

type SearchMemoryToolInput struct {
	Terms []string `json:"terms" jsonschema:"required,description=Keywords to look for in what the user has shared before"`
}

type SearchMemoryTool struct {
	memoryService *services.MemoryService
}

func NewSearchMemoryTool(memoryService *services.MemoryService) SearchMemoryTool {
	return SearchMemoryTool{memoryService: memoryService}
}

func (s SearchMemoryTool) Name() string {
	return SearchMemoryToolName
}

func (s SearchMemoryTool) Description() string {
	return "Searches the current user's stored memories for the given keywords (typo tolerant)"
}

func (s SearchMemoryTool) Call(ctx context.Context, input string) (string, error) {
	var params SearchMemoryToolInput
	if err := decodeInput(input, &params); err != nil {
		return "", fmt.Errorf("failed to parse search memory tool input: %v", err)
	}

	sessionID := SessionIDFromContext(ctx)
	if sessionID == "" {
		return "", fmt.Errorf("no session in context")
	}

	matches := s.memoryService.SearchMemories(ctx, sessionID, params.Terms)
	texts := lo.Map(matches, func(entry models.MemoryEntry, _ int) string {
		return entry.Memory
	})

	result, err := json.Marshal(texts)
	if err != nil {
		return "", fmt.Errorf("failed to marshal memory matches: %v", err)
	}

	return string(result), nil
}

func (s SearchMemoryTool) Schema() *jsonschema.Schema {
	return reflectSchema[SearchMemoryToolInput]()
}

type GetCurrentTimeToolInput struct{}

type GetCurrentTimeTool struct{}

func NewGetCurrentTimeTool() GetCurrentTimeTool {
	return GetCurrentTimeTool{}
}

func (t GetCurrentTimeTool) Name() string {
	return GetCurrentTimeToolName
}

func (t GetCurrentTimeTool) Description() string {
	return "Gets the current timestamp in ISO format"
}

func (t GetCurrentTimeTool) Call(ctx context.Context, input string) (string, error) {
	var params GetCurrentTimeToolInput
	if err := decodeInput(input, &params); err != nil {
		return "", fmt.Errorf("failed to parse get current time tool input: %v", err)
	}

	return time.Now().Format(time.RFC3339), nil
}

func (t GetCurrentTimeTool) Schema() *jsonschema.Schema {
	return reflectSchema[GetCurrentTimeToolInput]()
}

func decodeInput(input string, v any) error {
	if strings.TrimSpace(input) == "" {
		input = "{}"
	}
	return json.Unmarshal([]byte(input), v)
}
