package script

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/Shopify/go-lua"
	"github.com/google/uuid"
)

// logSink captures console-style output from scripts. The script runs in
// its own goroutine, so appends are guarded.
type logSink struct {
	mu    sync.Mutex
	lines []string
}

func newLogSink() *logSink {
	return &logSink{}
}

func (s *logSink) append(line string) {
	s.mu.Lock()
	s.lines = append(s.lines, line)
	s.mu.Unlock()
}

func (s *logSink) drain() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]string, len(s.lines))
	copy(lines, s.lines)

	return lines
}

// registerBuiltins installs the fixed utility allow-list: logging, uuid,
// date helpers, crypto digests, validation, JSON codecs, and an HTTP
// fetch client.
func (e *Executor) registerBuiltins(l *lua.State, logs *logSink) {
	l.Register("log", func(l *lua.State) int {
		parts := make([]string, 0, l.Top())

		for i := 1; i <= l.Top(); i++ {
			parts = append(parts, fmt.Sprintf("%v", luaToGo(l, i)))
		}

		logs.append(strings.Join(parts, " "))

		return 0
	})

	l.Register("uuid", func(l *lua.State) int {
		l.PushString(uuid.New().String())

		return 1
	})

	l.Register("now", func(l *lua.State) int {
		l.PushString(time.Now().UTC().Format(time.RFC3339))

		return 1
	})

	l.Register("timestamp", func(l *lua.State) int {
		l.PushNumber(float64(time.Now().UTC().Unix()))

		return 1
	})

	l.Register("date_add", func(l *lua.State) int {
		value, _ := l.ToString(1)
		seconds, _ := l.ToNumber(2)

		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			l.PushNil()

			return 1
		}

		l.PushString(parsed.Add(time.Duration(seconds) * time.Second).Format(time.RFC3339))

		return 1
	})

	l.Register("sha256", func(l *lua.State) int {
		value, _ := l.ToString(1)
		digest := sha256.Sum256([]byte(value))
		l.PushString(hex.EncodeToString(digest[:]))

		return 1
	})

	l.Register("hmac_sha256", func(l *lua.State) int {
		key, _ := l.ToString(1)
		value, _ := l.ToString(2)

		mac := hmac.New(sha256.New, []byte(key))
		mac.Write([]byte(value))
		l.PushString(hex.EncodeToString(mac.Sum(nil)))

		return 1
	})

	l.Register("is_email", func(l *lua.State) int {
		value, _ := l.ToString(1)
		_, err := mail.ParseAddress(value)
		l.PushBoolean(err == nil)

		return 1
	})

	l.Register("json_encode", func(l *lua.State) int {
		raw, err := json.Marshal(luaToGo(l, 1))
		if err != nil {
			l.PushNil()

			return 1
		}

		l.PushString(string(raw))

		return 1
	})

	l.Register("json_decode", func(l *lua.State) int {
		value, _ := l.ToString(1)

		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err != nil {
			l.PushNil()

			return 1
		}

		goToLua(l, decoded)

		return 1
	})

	l.Register("fetch", e.fetchBuiltin)
}

// fetchBuiltin performs an HTTP call: fetch(url) or
// fetch(url, {method=..., body=..., headers={...}}). Returns a table with
// status and body; the body is decoded from JSON when possible.
func (e *Executor) fetchBuiltin(l *lua.State) int {
	url, _ := l.ToString(1)

	method := http.MethodGet
	body := ""
	headers := map[string]string{}

	if l.Top() >= 2 && l.TypeOf(2) == lua.TypeTable {
		options, _ := luaToGo(l, 2).(map[string]any)

		if m, ok := options["method"].(string); ok && m != "" {
			method = strings.ToUpper(m)
		}

		if b, ok := options["body"].(string); ok {
			body = b
		} else if b, ok := options["body"].(map[string]any); ok {
			if raw, err := json.Marshal(b); err == nil {
				body = string(raw)
			}
		}

		if h, ok := options["headers"].(map[string]any); ok {
			for key, value := range h {
				if s, ok := value.(string); ok {
					headers[key] = s
				}
			}
		}
	}

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		l.PushNil()
		l.PushString(err.Error())

		return 2
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		l.PushNil()
		l.PushString(err.Error())

		return 2
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		l.PushNil()
		l.PushString(err.Error())

		return 2
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		decoded = string(raw)
	}

	goToLua(l, map[string]any{
		"status": resp.StatusCode,
		"body":   decoded,
	})

	return 1
}
