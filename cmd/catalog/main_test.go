package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const validCatalog = `achievements:
  - id: 1
    name: Primeiro Passo
    category: progress
    condition_type: topics_completed
    condition_value: 1
    points: 10
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLint(t *testing.T) {
	good := writeFile(t, "good.yaml", validCatalog)
	bad := writeFile(t, "bad.yaml", "achievements:\n  - id: 1\n    colour: red\n")

	var out bytes.Buffer
	assert.Equal(t, 0, run([]string{"lint", good}, &out))
	assert.Contains(t, out.String(), "OK (1 achievements)")

	out.Reset()
	assert.Equal(t, 1, run([]string{"lint", good, bad}, &out))
	assert.Contains(t, out.String(), "bad.yaml:")
}

func TestUsage(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 2, run(nil, &out))
	assert.Equal(t, 2, run([]string{"explode"}, &out))
	assert.Equal(t, 2, run([]string{"lint"}, &out))
}
