package common

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUniverse_Default(t *testing.T) {
	companies, err := LoadUniverse("")
	require.NoError(t, err)
	require.Len(t, companies, 6)

	tickers := make([]string, len(companies))
	for i, c := range companies {
		tickers[i] = c.Ticker
	}
	assert.Equal(t, []string{"AAPL", "MSFT", "JPM", "JNJ", "TSLA", "XOM"}, tickers)
	assert.Equal(t, "Financial Services", companies[2].Sector)
}

func TestLoadUniverse_File(t *testing.T) {
	path := writeFile(t, t.TempDir(), "companies.yaml", `
companies:
  - ticker: nvda
    name: NVIDIA Corporation
    sector: Technology
  - ticker: KO
  - ticker: NVDA
    name: duplicate
`)

	companies, err := LoadUniverse(path)
	require.NoError(t, err)
	require.Len(t, companies, 2)

	assert.Equal(t, TargetCompany{Ticker: "NVDA", Name: "NVIDIA Corporation", Sector: "Technology"}, companies[0])
	assert.Equal(t, TargetCompany{Ticker: "KO", Name: "KO", Sector: "Unknown"}, companies[1])
}

func TestLoadUniverse_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadUniverse(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadUniverse(writeFile(t, dir, "empty.yaml", "companies: []\n"))
	assert.Error(t, err)

	_, err = LoadUniverse(writeFile(t, dir, "noticker.yaml", "companies:\n  - name: Nameless\n"))
	assert.Error(t, err)

	_, err = LoadUniverse(writeFile(t, dir, "broken.yaml", "companies: [\n"))
	assert.Error(t, err)
}

func TestFilterUniverse(t *testing.T) {
	all := DefaultUniverse()

	assert.Equal(t, all, FilterUniverse(all, nil))

	filtered := FilterUniverse(all, []string{"msft", " xom", "ZZZ", ""})
	require.Len(t, filtered, 3)
	assert.Equal(t, "Microsoft Corporation", filtered[0].Name)
	assert.Equal(t, "XOM", filtered[1].Ticker)
	assert.Equal(t, TargetCompany{Ticker: "ZZZ", Name: "ZZZ", Sector: "Unknown"}, filtered[2])
}
