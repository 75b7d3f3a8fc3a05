package compilecache

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Compiler turns a source file into an artifact.
type Compiler interface {
	// Version identifies the output format; it is part of the cache key.
	Version() string
	Compile(source []byte, sourcePath string) ([]byte, error)
}

// ErrScriptingUnsupported is returned by ScriptCompiler.
var ErrScriptingUnsupported = errors.New("compilecache: DSP scripting is not supported")

// ScriptPlaceholder is the blob ScriptCompiler emits.
var ScriptPlaceholder = []byte("OLSP")

// ScriptCompiler is the reserved hook for a DSP scripting language. It
// always returns ScriptPlaceholder and ErrScriptingUnsupported.
type ScriptCompiler struct{}

func (ScriptCompiler) Version() string { return "olsp/0" }

func (ScriptCompiler) Compile([]byte, string) ([]byte, error) {
	return append([]byte(nil), ScriptPlaceholder...), ErrScriptingUnsupported
}

// GetOrCompile returns the cached result for sourcePath, or compiles the
// file and stores the result. Failed compilations are stored too, with
// IsValid false and the error text, and their error is returned along
// with the result.
func (c *Cache) GetOrCompile(sourcePath string, comp Compiler) (*Result, error) {
	if r, ok := c.Get(sourcePath, comp.Version()); ok {
		if !r.IsValid {
			return r, fmt.Errorf("compilecache: %s: %s", sourcePath, r.ErrorMessage)
		}

		return r, nil
	}

	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("compilecache: read source: %w", err)
	}

	start := time.Now()
	data, compileErr := comp.Compile(source, sourcePath)
	elapsed := time.Since(start)

	r := &Result{
		SourcePath:        sourcePath,
		Data:              data,
		SourceHash:        hashString(string(source)),
		CompilationTime:   c.now(),
		CompilerVersion:   comp.Version(),
		IsValid:           compileErr == nil,
		CompilationTimeMs: float64(elapsed.Microseconds()) / 1000,
		SourceSize:        uint64(len(source)),
		CompiledSize:      uint64(len(data)),
	}

	if compileErr != nil {
		r.ErrorMessage = compileErr.Error()
	}

	if err := c.Store(r); err != nil {
		c.logger.Warn("compile cache: store failed", "source", sourcePath, "error", err)
	}

	if compileErr != nil {
		return r, fmt.Errorf("compilecache: compile %s: %w", sourcePath, compileErr)
	}

	return r, nil
}
