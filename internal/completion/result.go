// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Reason prefixes for each failure kind.
const (
	TransportPrefix = "fetch error: "
	ParsePrefix     = "json parse error: "
)

// Kind classifies a Result.
type Kind int

const (
	// KindOK marks a successful completion.
	KindOK Kind = iota
	// TransportFailure covers everything before a usable body was received.
	TransportFailure
	// ParseFailure means the body was received but was not a valid completion.
	ParseFailure
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case TransportFailure:
		return "transport"
	case ParseFailure:
		return "parse"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Request is the wire body sent to the endpoint.
type Request struct {
	Prompt string `json:"prompt"`
}

// response is the wire body expected back. Completion is a pointer so a
// missing field can be told apart from an empty completion.
type response struct {
	Completion *string `json:"completion"`
}

// Result is the outcome of one completion call.
type Result struct {
	kind   Kind
	text   string
	reason string
	cause  error
}

// Ok returns a successful result.
func Ok(text string) Result {
	return Result{kind: KindOK, text: text}
}

// Err returns a failed result. The reason is prefixed according to kind.
func Err(kind Kind, detail string) Result {
	return errResult(kind, detail, nil)
}

func errResult(kind Kind, detail string, cause error) Result {
	prefix := TransportPrefix
	if kind == ParseFailure {
		prefix = ParsePrefix
	}
	if kind == KindOK {
		kind = TransportFailure
	}
	return Result{kind: kind, reason: prefix + detail, cause: cause}
}

// transportErr builds a transport failure from an underlying error.
func transportErr(err error) Result {
	return errResult(TransportFailure, err.Error(), err)
}

// parseErr builds a parse failure from an underlying error.
func parseErr(err error) Result {
	return errResult(ParseFailure, err.Error(), err)
}

// OK reports whether the call produced a completion.
func (r Result) OK() bool { return r.kind == KindOK }

// Kind returns the result classification.
func (r Result) Kind() Kind { return r.kind }

// Text returns the completion text. Empty for failures.
func (r Result) Text() string { return r.text }

// Reason returns the failure reason, e.g. "fetch error: ...". Empty for Ok.
func (r Result) Reason() string { return r.reason }

// Err returns the failure as an error, or nil for Ok.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &Failure{Kind: r.kind, Reason: r.reason, cause: r.cause}
}

// Canceled reports whether the failure came from context cancellation.
func (r Result) Canceled() bool {
	return errors.Is(r.cause, context.Canceled)
}

// Failure is the error form of a failed Result.
type Failure struct {
	Kind   Kind
	Reason string
	cause  error
}

// Error implements the error interface.
func (f *Failure) Error() string { return f.Reason }

// Unwrap returns the underlying cause, if any.
func (f *Failure) Unwrap() error { return f.cause }

// =============================================================================
// WIRE HELPERS
// =============================================================================

// RequestBody serializes a prompt into the wire request body.
func RequestBody(prompt string) ([]byte, error) {
	return json.Marshal(Request{Prompt: prompt})
}

// ParseResponse decodes a response body into a Result.
func ParseResponse(body []byte) Result {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return parseErr(err)
	}
	if resp.Completion == nil {
		return Err(ParseFailure, "missing field `completion`")
	}
	return Ok(*resp.Completion)
}
