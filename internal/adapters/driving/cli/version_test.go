package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCmd(t *testing.T) {
	old := version
	version = "1.2.3"
	defer func() { version = old }()

	out, err := execute("version")

	assert.NoError(t, err)
	assert.Contains(t, out, "sailtap version 1.2.3")
}
