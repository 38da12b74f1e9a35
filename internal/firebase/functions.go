package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// FunctionsConfig locates deployed callable functions.
type FunctionsConfig struct {
	ProjectID string
	Region    string
	// EmulatorOrigin, when set, replaces the cloudfunctions.net origin,
	// e.g. http://127.0.0.1:5001.
	EmulatorOrigin string
}

// Functions invokes HTTPS callable functions. The Go admin SDK has no
// Functions client so this speaks the callable protocol directly.
type Functions struct {
	cfg  FunctionsConfig
	http *http.Client
}

// FunctionError is the error envelope a callable function returns.
type FunctionError struct {
	Name    string          `json:"-"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

func (e *FunctionError) Error() string {
	return fmt.Sprintf("function %s: %s: %s", e.Name, e.Status, e.Message)
}

var ErrFunctionName = errors.New("function name is required")

func NewFunctions(cfg FunctionsConfig, hc *http.Client) *Functions {
	if cfg.Region == "" {
		cfg.Region = "us-central1"
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Functions{cfg: cfg, http: hc}
}

// URL returns the endpoint for a callable function.
func (f *Functions) URL(name string) string {
	name = url.PathEscape(name)
	if f.cfg.EmulatorOrigin != "" {
		return fmt.Sprintf("%s/%s/%s/%s", strings.TrimRight(f.cfg.EmulatorOrigin, "/"), f.cfg.ProjectID, f.cfg.Region, name)
	}
	return fmt.Sprintf("https://%s-%s.cloudfunctions.net/%s", f.cfg.Region, f.cfg.ProjectID, name)
}

// Call invokes name with in as the data payload and decodes the result into
// out (which may be nil). idToken is forwarded as the caller's identity; an
// empty token makes an unauthenticated call.
func (f *Functions) Call(ctx context.Context, idToken, name string, in, out any) error {
	if name == "" {
		return ErrFunctionName
	}

	body, err := json.Marshal(map[string]any{"data": in})
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.URL(name), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if idToken != "" {
		req.Header.Set("Authorization", "Bearer "+idToken)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", name, err)
	}

	var env struct {
		Result json.RawMessage `json:"result"`
		Error  *FunctionError  `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 300 {
			return &FunctionError{Name: name, Status: http.StatusText(resp.StatusCode), Message: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("decode %s response: %w", name, err)
	}
	if env.Error != nil {
		env.Error.Name = name
		return env.Error
	}
	if resp.StatusCode >= 300 {
		return &FunctionError{Name: name, Status: http.StatusText(resp.StatusCode)}
	}
	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", name, err)
	}
	return nil
}
