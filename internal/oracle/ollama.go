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

	"github.com/janpfeifer/arcadeai/internal/parameters"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const (
	DefaultOllamaURL   = "http://localhost:11434/api"
	DefaultOllamaModel = "llama3.2"
	DefaultTimeout     = 2 * time.Minute
	DefaultMaxTokens   = 500
)

func init() {
	RegisterModule("ollama", newOllamaFromParams)
}

// Ollama is an Oracle served by an Ollama server, using its generate API.
type Ollama struct {
	url         string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

var _ Oracle = (*Ollama)(nil)

// NewOllama returns an Ollama oracle with the default configuration.
func NewOllama() *Ollama {
	return &Ollama{
		url:         DefaultOllamaURL,
		model:       DefaultOllamaModel,
		maxTokens:   DefaultMaxTokens,
		temperature: 0.7,
		client:      &http.Client{Timeout: DefaultTimeout},
	}
}

// WithURL sets the base URL of the API, e.g. "http://localhost:11434/api".
func (o *Ollama) WithURL(url string) *Ollama {
	o.url = strings.TrimRight(url, "/")
	return o
}

// WithModel sets the model to query.
func (o *Ollama) WithModel(model string) *Ollama {
	o.model = model
	return o
}

// WithTimeout sets the timeout of each call.
func (o *Ollama) WithTimeout(timeout time.Duration) *Ollama {
	o.client.Timeout = timeout
	return o
}

// WithMaxTokens limits the length of the answers.
func (o *Ollama) WithMaxTokens(maxTokens int) *Ollama {
	o.maxTokens = maxTokens
	return o
}

// WithTemperature sets the sampling temperature.
func (o *Ollama) WithTemperature(temperature float64) *Ollama {
	o.temperature = temperature
	return o
}

func newOllamaFromParams(params parameters.Params) (Oracle, error) {
	o := NewOllama()
	url, err := parameters.PopParamOr(params, "url", o.url)
	if err != nil {
		return nil, err
	}
	model, err := parameters.PopParamOr(params, "model", o.model)
	if err != nil {
		return nil, err
	}
	timeoutStr, err := parameters.PopParamOr(params, "timeout", o.client.Timeout.String())
	if err != nil {
		return nil, err
	}
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid timeout=%q", timeoutStr)
	}
	maxTokens, err := parameters.PopParamOr(params, "max_tokens", o.maxTokens)
	if err != nil {
		return nil, err
	}
	temperature, err := parameters.PopParamOr(params, "temperature", o.temperature)
	if err != nil {
		return nil, err
	}
	return o.WithURL(url).WithModel(model).WithTimeout(timeout).WithMaxTokens(maxTokens).WithTemperature(temperature), nil
}

func (o *Ollama) String() string {
	return fmt.Sprintf("ollama(%s, model=%s)", o.url, o.model)
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	NumPredict  int     `json:"num_predict"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Suggest implements Oracle, with a non-streaming call to the generate API.
func (o *Ollama) Suggest(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:   o.model,
		Prompt:  prompt,
		Options: generateOptions{NumPredict: o.maxTokens, Temperature: o.temperature},
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrapf(err, "%s: invalid request", o)
	}
	req.Header.Set("Content-Type", "application/json")
	start := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "%s: request failed", o)
	}
	defer func() { _ = resp.Body.Close() }()
	contents, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrapf(err, "%s: failed reading response", o)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.Errorf("%s: status %s: %s", o, resp.Status, truncate(string(contents), 200))
	}
	var generated generateResponse
	if err := json.Unmarshal(contents, &generated); err != nil {
		return "", errors.Wrapf(err, "%s: malformed response %q", o, truncate(string(contents), 200))
	}
	if generated.Error != "" {
		return "", errors.Errorf("%s: %s", o, generated.Error)
	}
	klog.V(2).Infof("%s answered %d bytes in %s", o, len(generated.Response), time.Since(start))
	return generated.Response, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
