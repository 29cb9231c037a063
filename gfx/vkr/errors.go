// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/kvk/gfx"
)

// NativeError is a failed native call.
type NativeError struct {
	// Call is the native function, as in "vk.CreateBuffer()"
	Call   string
	Result vk.Result
}

func (e *NativeError) Error() string {
	if err := vk.Error(e.Result); err != nil {
		return fmt.Sprintf("%s: %s", e.Call, err.Error())
	}
	return fmt.Sprintf("%s: result %d", e.Call, int32(e.Result))
}

// Unwrap makes every native error match gfx.ErrNativeFailure.
func (e *NativeError) Unwrap() error {
	return gfx.ErrNativeFailure
}

// creationError is a failed resource creation. It matches both its
// sentinel and the native cause.
type creationError struct {
	sentinel error
	cause    error
}

func (e *creationError) Error() string {
	return e.sentinel.Error() + ": " + e.cause.Error()
}

func (e *creationError) Is(target error) bool {
	return target == e.sentinel
}

func (e *creationError) Unwrap() error {
	return e.cause
}

// inRange reports whether length bytes at offset fit in size bytes.
func inRange(offset, length, size uint64) bool {
	return offset <= size && length <= size-offset
}

// check turns a native result into an error.
func check(call string, result vk.Result) error {
	if result == vk.Success {
		return nil
	}
	return &NativeError{Call: call, Result: result}
}
