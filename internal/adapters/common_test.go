package adapters

import (
	"runtime"
	"strings"
	"testing"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDriverPath(t *testing.T) {
	p, err := DefaultDriverPath("postgresql")
	require.NoError(t, err)
	assert.Contains(t, p, "adbc_driver_postgresql")
	if runtime.GOOS == "linux" {
		assert.True(t, strings.HasSuffix(p, ".so"))
	}

	_, err = DefaultDriverPath("oracle")
	assert.Error(t, err)
}

func TestDriverOptions(t *testing.T) {
	duck := DriverOptions("duckdb", "ignored", "/tmp/x.db")
	assert.Equal(t, "duckdb_adbc_init", duck["entrypoint"])
	assert.Equal(t, "/tmp/x.db", duck["path"])
	assert.NotContains(t, duck, adbc.OptionKeyURI)

	pg := DriverOptions("postgresql", "postgres://localhost/db", "")
	assert.Equal(t, "postgres://localhost/db", pg[adbc.OptionKeyURI])
}
