package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_TagsEveryLine(t *testing.T) {
	var buf bytes.Buffer
	log := New("[test]", &buf)

	log.Info("hello %s", "world")
	log.Warn("careful")
	log.Error("broken")
	log.Success("done")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 4)
	for _, line := range lines {
		assert.Contains(t, line, "[test]")
	}
	assert.Contains(t, lines[0], "hello world")
}

func TestLogger_EmptyMessage_EmitsBlankSeparator(t *testing.T) {
	var buf bytes.Buffer
	log := New("[test]", &buf)

	log.Info("")

	assert.Equal(t, "\n", buf.String(), "blank separator must carry no tag")
}

func TestLogger_Tag(t *testing.T) {
	log := New("[RunOnBuild]", &bytes.Buffer{})
	assert.Equal(t, "[RunOnBuild]", log.Tag())
}
