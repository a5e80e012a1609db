package tokenloader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"allowance_manager/internal/domain/entity"
	"allowance_manager/internal/domain/tokenid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleList = `moonbeam|erc20,addr=0xAcc15dC74880C9944775448304B263D191c6077F

moonbeam|xc20,id42
astar|native
moonbeam|xc20,idabc
notachain
astar|erc20,addr=0x6a2d262D56735DbA19Dd70682B39F6bE9a931D98
`

func knownChains(c entity.ChainName) bool { return c == "moonbeam" || c == "astar" }

func TestTokenFileLoader_Read(t *testing.T) {
	l := NewTokenLoader("", tokenid.NewDecoder(knownChains), nil, nil)

	batch, err := l.Read(strings.NewReader(sampleList))
	require.NoError(t, err)

	assert.Equal(t, 6, batch.TotalLines)
	require.Len(t, batch.Tokens, 3)
	assert.Equal(t, 1, batch.Tokens[0].LineNumber)
	assert.Equal(t, "0xAcc15dC74880C9944775448304B263D191c6077F", batch.Tokens[0].Address)
	assert.Equal(t, 3, batch.Tokens[1].LineNumber)
	assert.Equal(t, "0xffffffff0000000000000000000000000000002a", batch.Tokens[1].Address)
	assert.Equal(t, entity.ChainName("astar"), batch.Tokens[2].Chain)
	assert.Equal(t, 7, batch.Tokens[2].LineNumber)

	require.Len(t, batch.Skipped, 1)
	assert.Equal(t, entity.SkippedLine{LineNumber: 4, Line: "astar|native"}, batch.Skipped[0])

	require.Len(t, batch.Failures, 2)
	assert.Equal(t, 5, batch.Failures[0].LineNumber)
	assert.Equal(t, entity.ChainName("moonbeam"), batch.Failures[0].Chain)
	assert.Equal(t, "decode", batch.Failures[0].Stage)
	assert.Equal(t, 6, batch.Failures[1].LineNumber)
}

func TestTokenFileLoader_OverlongLineIsIsolated(t *testing.T) {
	long := "moonbeam|erc20,addr=0x" + strings.Repeat("a", 100*1024)
	input := long + "\nastar|erc20,addr=0x6a2d262D56735DbA19Dd70682B39F6bE9a931D98"
	l := NewTokenLoader("", tokenid.NewDecoder(knownChains), nil, nil)

	batch, err := l.Read(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 2, batch.TotalLines)
	require.Len(t, batch.Failures, 1)
	assert.Equal(t, 1, batch.Failures[0].LineNumber)
	assert.Equal(t, "decode", batch.Failures[0].Stage)
	require.Len(t, batch.Tokens, 1)
	assert.Equal(t, 2, batch.Tokens[0].LineNumber)
}

func TestTokenFileLoader_LoadTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unformatted_token_list.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleList), 0o600))

	var infoCalls int
	l := NewTokenLoader(path, tokenid.NewDecoder(knownChains), func(string, ...any) { infoCalls++ }, nil)
	batch, err := l.LoadTokens()
	require.NoError(t, err)
	assert.Len(t, batch.Tokens, 3)
	assert.Equal(t, 1, infoCalls)
}

func TestTokenFileLoader_MissingFile(t *testing.T) {
	l := NewTokenLoader(filepath.Join(t.TempDir(), "nope.txt"), tokenid.NewDecoder(nil), nil, nil)
	_, err := l.LoadTokens()
	assert.Error(t, err)
}
