package snapshot

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"spese/internal/core"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" and "yml".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType is the media type served for the format.
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// yamlRecord keeps amounts as YAML numbers rather than quoted strings.
type yamlRecord struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Amount    yaml.Node `yaml:"amount"`
	Category  string    `yaml:"category"`
	DateLabel string    `yaml:"dateLabel"`
	Timestamp int64     `yaml:"timestamp"`
}

func numberNode(v string) yaml.Node {
	tag := "!!int"
	if strings.ContainsAny(v, ".eE") {
		tag = "!!float"
	}
	return yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v}
}

// EncodeYAML renders the ledger as a YAML sequence. The output is meant for
// people and other tools; it is never read back as a snapshot.
func EncodeYAML(l core.Ledger) ([]byte, error) {
	out := make([]yamlRecord, len(l))
	for i, t := range l {
		out[i] = yamlRecord{
			ID:        t.ID,
			Title:     t.Title,
			Amount:    numberNode(t.Amount.String()),
			Category:  string(t.Category),
			DateLabel: t.DateLabel,
			Timestamp: t.Timestamp,
		}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// Export encodes the ledger in the requested format.
func Export(l core.Ledger, f Format) ([]byte, error) {
	if f == FormatYAML {
		return EncodeYAML(l)
	}
	return Encode(l)
}
