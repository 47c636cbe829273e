package jsruntime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/google/uuid"
)

// ExecutionOptions configures a single mutate() invocation.
type ExecutionOptions struct {
	// Input is exposed to the script as the global `input` object. It
	// represents the mutable view of the flow (message body, headers,
	// metadata) the script is allowed to transform.
	Input       map[string]interface{}
	TimeoutMs   int
	ExecutionID string
}

// Execute compiles and runs code in an isolated VM. The script is expected
// to define a top-level function `mutate(input)` returning the transformed
// object; anything else returned fails with ErrorCodeInvalidReturn. No
// network, filesystem, timer, or host-callback capability is exposed —
// this sandbox is strictly narrower than a general-purpose embedding since
// scripts here only ever reshape a JSON document.
func Execute(ctx context.Context, code string, opts ExecutionOptions) *Result {
	if opts.ExecutionID == "" {
		opts.ExecutionID = uuid.New().String()
	}
	if opts.Input == nil {
		opts.Input = make(map[string]interface{})
	}

	timeoutMs := opts.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = 500
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	resultChan := make(chan *Result, 1)
	go func() {
		resultChan <- runOnce(code, opts.Input)
	}()

	select {
	case result := <-resultChan:
		return result
	case <-timeoutCtx.Done():
		return NewErrorResult(NewJsError(ErrorCodeTimeout, "mutation script exceeded timeout"))
	}
}

// ExecutePooled behaves like Execute but borrows a VM from pool instead of
// allocating one, returning it (freshly replaced, since goja VMs are not
// safely resettable) when done.
func ExecutePooled(ctx context.Context, pool *Pool, code string, opts ExecutionOptions) *Result {
	if opts.Input == nil {
		opts.Input = make(map[string]interface{})
	}
	timeoutMs := opts.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = 500
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	vm, err := pool.Acquire(timeoutCtx)
	if err != nil {
		return NewErrorResult(NewJsError(ErrorCodeTimeout, "timed out acquiring script VM"))
	}
	defer func() { _ = pool.Release(vm) }()

	resultChan := make(chan *Result, 1)
	go func() { resultChan <- runWithVM(vm, code, opts.Input) }()

	select {
	case result := <-resultChan:
		return result
	case <-timeoutCtx.Done():
		return NewErrorResult(NewJsError(ErrorCodeTimeout, "mutation script exceeded timeout"))
	}
}

func runOnce(code string, input map[string]interface{}) *Result {
	vm := goja.New()
	return runWithVM(vm, code, input)
}

func runWithVM(vm *goja.Runtime, code string, input map[string]interface{}) *Result {
	setupSandbox(vm)

	if err := vm.Set("input", input); err != nil {
		return NewErrorResult(NewJsError(ErrorCodeRuntimeError, fmt.Sprintf("failed to bind input: %v", err)))
	}

	if _, err := goja.Compile("", code, false); err != nil {
		if exception, ok := err.(*goja.Exception); ok {
			return NewErrorResult(NewJsErrorWithStack(ErrorCodeSyntaxError, exception.String(), exception.String()))
		}
		return NewErrorResult(NewJsError(ErrorCodeSyntaxError, err.Error()))
	}

	if _, err := vm.RunString(code); err != nil {
		return errorFromException(err)
	}

	mutateFn, ok := goja.AssertFunction(vm.Get("mutate"))
	if !ok {
		return NewErrorResult(NewJsError(ErrorCodeInvalidReturn, "script must define function mutate(input)"))
	}

	value, err := mutateFn(goja.Undefined(), vm.ToValue(input))
	if err != nil {
		return errorFromException(err)
	}

	exported := value.Export()
	out, ok := exported.(map[string]interface{})
	if !ok {
		return NewErrorResult(NewJsError(ErrorCodeInvalidReturn, "mutate() must return an object"))
	}

	if err := validateSerializable(out); err != nil {
		return NewErrorResult(NewJsError(ErrorCodeSerializationError, err.Error()))
	}
	return NewSuccessResult(out)
}

func errorFromException(err error) *Result {
	if exception, ok := err.(*goja.Exception); ok {
		return NewErrorResult(NewJsErrorWithStack(ErrorCodeRuntimeError, exception.Error(), exception.String()))
	}
	return NewErrorResult(NewJsError(ErrorCodeRuntimeError, err.Error()))
}

// setupSandbox strips every host capability goja exposes by default beyond
// plain ECMAScript evaluation.
func setupSandbox(vm *goja.Runtime) {
	for _, name := range []string{"require", "setTimeout", "setInterval", "clearTimeout", "clearInterval"} {
		_ = vm.Set(name, goja.Undefined())
	}
}

func validateSerializable(value interface{}) error {
	if _, err := json.Marshal(value); err != nil {
		return fmt.Errorf("result must be JSON-serializable: %w", err)
	}
	return nil
}
