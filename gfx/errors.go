// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"errors"

	"github.com/devblok/kvk/gfx/handle"
)

// package errors
var (
	// Configuration errors, detected before any native allocation.
	ErrNullSharedState        = errors.New("unit constructed without shared backend state")
	ErrInvalidParameters      = errors.New("invalid parameters")
	ErrUnsupportedFormat      = errors.New("no supported format among candidates")
	ErrUnsupportedBackendKind = errors.New("unsupported backend kind")

	ErrInvalidShaderByteCode = errors.New("invalid shader byte code")
	ErrShaderCreationFailed  = errors.New("shader creation failed")

	// Command buffer and frame lifecycle misuse.
	ErrAlreadyRecording  = errors.New("command buffer is already recording")
	ErrNotRecording      = errors.New("command buffer is not recording")
	ErrInvalidFrameState = errors.New("operation not allowed in current frame state")

	// ErrNativeFailure is wrapped by every failed native API call.
	ErrNativeFailure = errors.New("native api failure")

	ErrInvalidReference = handle.ErrInvalidReference
)
