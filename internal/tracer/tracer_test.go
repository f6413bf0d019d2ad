// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tracer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	// Spans on a noop provider are not recording.
	_, span := StartSpan(context.Background(), "noop")
	defer span.End()
	assert.False(t, span.IsRecording())
}

func TestSetup_UnsupportedExporter(t *testing.T) {
	_, err := Setup(context.Background(), Config{Enabled: true, Exporter: "jaeger"})
	assert.Error(t, err)
}

func TestSetup_StdoutExport(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Setup(context.Background(), Config{Enabled: true, Exporter: "stdout", Writer: &buf})
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "completion.request")
	span.SetAttributes(StringAttr("k", "v"), IntAttr("n", 1))
	RecordError(span, errors.New("boom"))
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "completion.request")

	// Leave the global provider in a quiet state for other tests.
	_, _ = Setup(context.Background(), Config{})
}
