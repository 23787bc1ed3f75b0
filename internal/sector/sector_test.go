package sector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	tbl := Default()
	assert.Equal(t, "IT", tbl.Sector("Technology"))
	assert.Equal(t, "IT", tbl.Sector("  technology "))
	assert.Equal(t, "반도체", tbl.Sector("반도체"))
	assert.Equal(t, "Consumer Electronics", tbl.Industry("Consumer Electronics"))
}

func TestLoad_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sectors:
  Technology: 정보기술
  Semiconductors: 반도체
industries:
  Consumer Electronics: 가전
`), 0o600))

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "정보기술", tbl.Sector("Technology"))
	assert.Equal(t, "반도체", tbl.Sector("semiconductors"))
	assert.Equal(t, "금융", tbl.Sector("Financial Services"))
	assert.Equal(t, "가전", tbl.Industry("Consumer Electronics"))
}

func TestLoad_EmptyPath(t *testing.T) {
	tbl, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "IT", tbl.Sector("Technology"))
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sectors: [1, 2"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}
