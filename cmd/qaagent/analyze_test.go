package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jblacketter/qaagent-sub000/internal/qaerr"
)

func TestExactArgs_WrongCountReturnsValidationError(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	err := exactArgs(1)(cmd, []string{})
	require.Error(t, err)
	assert.Equal(t, 2, qaerr.ExitCode(err))
}

func TestMaximumNArgs_TooManyReturnsValidationError(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	err := maximumNArgs(1)(cmd, []string{"a", "b"})
	require.Error(t, err)
	assert.Equal(t, 2, qaerr.ExitCode(err))
}

func TestMaximumNArgs_WithinLimitIsNil(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	assert.NoError(t, maximumNArgs(1)(cmd, []string{"only-one"}))
}

func TestPrintSuccess_IsOneLineWithRunID(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	require.NoError(t, printSuccess(cmd, "collectors", "20260801_101500Z"))
	assert.Equal(t, "collectors: run 20260801_101500Z complete\n", buf.String())
}
