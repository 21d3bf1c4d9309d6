package common

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TargetCompany is one entry of the company universe processed by the pipeline
type TargetCompany struct {
	Ticker string `yaml:"ticker"`
	Name   string `yaml:"name"`
	Sector string `yaml:"sector"`
}

type universeFile struct {
	Companies []TargetCompany `yaml:"companies"`
}

// DefaultUniverse is used when no companies file is configured
func DefaultUniverse() []TargetCompany {
	return []TargetCompany{
		{Ticker: "AAPL", Name: "Apple Inc.", Sector: "Technology"},
		{Ticker: "MSFT", Name: "Microsoft Corporation", Sector: "Technology"},
		{Ticker: "JPM", Name: "JPMorgan Chase & Co.", Sector: "Financial Services"},
		{Ticker: "JNJ", Name: "Johnson & Johnson", Sector: "Healthcare"},
		{Ticker: "TSLA", Name: "Tesla Inc.", Sector: "Consumer Discretionary"},
		{Ticker: "XOM", Name: "Exxon Mobil Corporation", Sector: "Energy"},
	}
}

// LoadUniverse reads the companies YAML file, or returns the default
// universe when path is empty. Tickers are upper-cased and duplicates dropped.
func LoadUniverse(path string) ([]TargetCompany, error) {
	if path == "" {
		return DefaultUniverse(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read companies file %s: %w", path, err)
	}

	var file universeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse companies file %s: %w", path, err)
	}

	seen := make(map[string]bool, len(file.Companies))
	companies := make([]TargetCompany, 0, len(file.Companies))
	for i, c := range file.Companies {
		c.Ticker = strings.ToUpper(strings.TrimSpace(c.Ticker))
		if c.Ticker == "" {
			return nil, fmt.Errorf("companies file %s: entry %d has no ticker", path, i+1)
		}
		if seen[c.Ticker] {
			continue
		}
		seen[c.Ticker] = true
		if c.Name == "" {
			c.Name = c.Ticker
		}
		if c.Sector == "" {
			c.Sector = "Unknown"
		}
		companies = append(companies, c)
	}

	if len(companies) == 0 {
		return nil, fmt.Errorf("companies file %s lists no companies", path)
	}
	return companies, nil
}

// FilterUniverse keeps only the requested tickers; an empty filter keeps all.
// Requested tickers missing from the universe are returned as ad hoc entries.
func FilterUniverse(companies []TargetCompany, tickers []string) []TargetCompany {
	if len(tickers) == 0 {
		return companies
	}

	byTicker := make(map[string]TargetCompany, len(companies))
	for _, c := range companies {
		byTicker[c.Ticker] = c
	}

	filtered := make([]TargetCompany, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if c, ok := byTicker[t]; ok {
			filtered = append(filtered, c)
			continue
		}
		filtered = append(filtered, TargetCompany{Ticker: t, Name: t, Sector: "Unknown"})
	}
	return filtered
}
