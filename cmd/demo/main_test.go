package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDemoDefaultScenario(t *testing.T) {
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), "schedule.csv")
	require.NoError(t, runDemo(&out, "", path))

	assert.Contains(t, out.String(), "caustic: 2 days")
	assert.Contains(t, out.String(), "After dropping one delivery on 2025-03-02")
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestRunDemoMissingSettings(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, runDemo(&out, filepath.Join(t.TempDir(), "nope.yaml"), ""))
}
