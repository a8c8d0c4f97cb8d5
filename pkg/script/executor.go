// Package script executes user-authored code steps in a sandboxed Lua
// interpreter with a fixed set of built-in utilities and an explicit
// allow-list of loadable packages.
package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Shopify/go-lua"
)

var (
	// ErrScriptTimeout is returned when a code step exceeds its configured
	// timeout. Distinct from ErrScript so callers can tell an aborted step
	// from a crashing one.
	ErrScriptTimeout = errors.New("script timed out")

	// ErrScript is returned when the script itself raises an error.
	ErrScript = errors.New("script error")

	// ErrPackageNotAllowed is returned when a script declares a package
	// outside the executor's allow-list.
	ErrPackageNotAllowed = errors.New("package not in allow-list")
)

// DefaultTimeout bounds script execution when the node configures none.
const DefaultTimeout = 5000 * time.Millisecond

// libraries that would give scripts filesystem, process, or loader access.
var excludedGlobals = [...]string{
	"io", "os", "debug", "package", "require", "dofile", "loadfile", "load",
}

// Bindings are the only data values visible to a script.
type Bindings struct {
	Last    any
	Input   any
	Trigger any
	Outputs map[string]any
}

// Options configure a single execution.
type Options struct {
	Timeout  time.Duration
	Packages []string
}

// Result carries the script's return value and any captured log output.
// Logging never alters the return value.
type Result struct {
	Value any
	Logs  []string
}

// PackageLoader pushes a package table onto the Lua stack, returning 1.
type PackageLoader func(l *lua.State) int

// Executor runs scripts. Packages must be registered up front; scripts
// cannot load anything else.
type Executor struct {
	logger     *slog.Logger
	httpClient *http.Client
	packages   map[string]PackageLoader
}

// NewExecutor creates a script executor with an empty package allow-list.
func NewExecutor(logger *slog.Logger) *Executor {
	return &Executor{
		logger:     logger.With("module", "script_executor"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		packages:   make(map[string]PackageLoader),
	}
}

// RegisterPackage adds a named package to the allow-list.
func (e *Executor) RegisterPackage(name string, loader PackageLoader) {
	e.packages[name] = loader
}

// SetHTTPClient overrides the client backing the fetch builtin.
func (e *Executor) SetHTTPClient(client *http.Client) {
	e.httpClient = client
}

type outcome struct {
	value any
	err   error
}

// Execute runs the script with the given bindings. The script's return
// value becomes the result value. A timeout aborts only this step.
func (e *Executor) Execute(ctx context.Context, code string, bindings Bindings, opts Options) (Result, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	l := lua.NewState()
	lua.OpenLibraries(l)
	stripUnsafeGlobals(l)

	logs := newLogSink()
	e.registerBuiltins(l, logs)

	goToLua(l, bindings.Last)
	l.SetGlobal("last")
	goToLua(l, bindings.Input)
	l.SetGlobal("input")
	goToLua(l, bindings.Trigger)
	l.SetGlobal("trigger")

	outputs := make(map[string]any, len(bindings.Outputs))
	for key, value := range bindings.Outputs {
		outputs[key] = value
	}

	goToLua(l, outputs)
	l.SetGlobal("outputs")

	for _, name := range opts.Packages {
		loader, ok := e.packages[name]
		if !ok {
			return Result{Logs: logs.drain()}, fmt.Errorf("%w: %q", ErrPackageNotAllowed, name)
		}

		loader(l)
		l.SetGlobal(name)
	}

	done := make(chan outcome, 1)

	go func() {
		if err := lua.LoadString(l, code); err != nil {
			done <- outcome{err: fmt.Errorf("%w: %w", ErrScript, err)}

			return
		}

		if err := l.ProtectedCall(0, 1, 0); err != nil {
			done <- outcome{err: fmt.Errorf("%w: %w", ErrScript, err)}

			return
		}

		value := luaToGo(l, -1)
		l.Pop(1)
		done <- outcome{value: value}
	}()

	select {
	case result := <-done:
		return Result{Value: result.value, Logs: logs.drain()}, result.err
	case <-ctx.Done():
		// The interpreter goroutine is abandoned; its state is owned by
		// this call only, so nothing shared is left inconsistent.
		return Result{Logs: logs.drain()}, fmt.Errorf("%w: %w", ErrScriptTimeout, ctx.Err())
	case <-time.After(timeout):
		return Result{Logs: logs.drain()}, fmt.Errorf("%w: after %s", ErrScriptTimeout, timeout)
	}
}

func stripUnsafeGlobals(l *lua.State) {
	l.Global("_G")

	for _, name := range excludedGlobals {
		l.PushNil()
		l.SetField(-2, name)
	}

	l.Pop(1)
}

func goToLua(l *lua.State, value any) {
	switch v := value.(type) {
	case nil:
		l.PushNil()
	case string:
		l.PushString(v)
	case bool:
		l.PushBoolean(v)
	case int:
		l.PushInteger(v)
	case int64:
		l.PushInteger(int(v))
	case float64:
		l.PushNumber(v)
	case []any:
		l.CreateTable(len(v), 0)

		for i, item := range v {
			l.PushInteger(i + 1)
			goToLua(l, item)
			l.SetTable(-3)
		}
	case map[string]any:
		l.CreateTable(0, len(v))

		for key, item := range v {
			l.PushString(key)
			goToLua(l, item)
			l.SetTable(-3)
		}
	default:
		l.PushString(fmt.Sprintf("%v", v))
	}
}

func luaToGo(l *lua.State, index int) any {
	switch l.TypeOf(index) {
	case lua.TypeNil:
		return nil
	case lua.TypeBoolean:
		return l.ToBoolean(index)
	case lua.TypeNumber:
		number, _ := l.ToNumber(index)

		return number
	case lua.TypeString:
		s, _ := l.ToString(index)

		return s
	case lua.TypeTable:
		return luaTableToGo(l, index)
	default:
		return nil
	}
}

func luaTableToGo(l *lua.State, index int) any {
	length := 0
	isArray := true

	l.PushNil()

	for l.Next(index - 1) {
		if !l.IsNumber(-2) {
			isArray = false

			l.Pop(2)

			break
		}

		length++
		l.Pop(1)
	}

	if isArray && length > 0 {
		absIndex := index
		if index < 0 {
			absIndex = l.Top() + index + 1
		}

		arr := make([]any, length)

		for i := 1; i <= length; i++ {
			l.RawGetInt(absIndex, i)
			arr[i-1] = luaToGo(l, -1)
			l.Pop(1)
		}

		return arr
	}

	result := map[string]any{}

	l.PushNil()

	for l.Next(index - 1) {
		var key string
		if l.TypeOf(-2) == lua.TypeString {
			key, _ = l.ToString(-2)
		} else {
			key = fmt.Sprintf("%v", luaToGo(l, -2))
		}

		result[key] = luaToGo(l, -1)
		l.Pop(1)
	}

	return result
}
