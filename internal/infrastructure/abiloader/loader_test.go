package abiloader

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoad_Default(t *testing.T) {
	l := NewLoader(time.Second, zap.NewNop())
	parsed, err := l.Load("")
	require.NoError(t, err)
	for _, m := range RequiredMethods {
		assert.Contains(t, parsed.Methods, m)
	}
	// approve(address,uint256)
	assert.Equal(t, []byte{0x09, 0x5e, 0xa7, 0xb3}, parsed.Methods["approve"].ID)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "erc20_abi.json")
	require.NoError(t, os.WriteFile(path, defaultERC20ABI, 0o600))

	parsed, err := NewLoader(time.Second, zap.NewNop()).Load(path)
	require.NoError(t, err)
	assert.Contains(t, parsed.Methods, "allowance")

	_, err = NewLoader(time.Second, zap.NewNop()).Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoad_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/erc20.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(defaultERC20ABI)
	}))
	defer srv.Close()

	l := NewLoader(2*time.Second, zap.NewNop())
	parsed, err := l.Load(srv.URL + "/erc20.json")
	require.NoError(t, err)
	assert.Contains(t, parsed.Methods, "decimals")

	_, err = l.Load(srv.URL + "/missing.json")
	assert.Error(t, err)
}

func TestParse_MissingMethod(t *testing.T) {
	raw := []byte(`[{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function"}]`)
	_, err := Parse(raw)
	assert.ErrorContains(t, err, "missing required method")

	_, err = Parse([]byte("not json"))
	assert.Error(t, err)
}
