package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Yousuf-Basir/sso-server/internal/sso/domain"
	"gopkg.in/yaml.v3"
)

// fileClient is one entry of the clients file.
type fileClient struct {
	ClientID       string   `json:"clientId"       yaml:"clientId"`
	ClientSecret   string   `json:"clientSecret"   yaml:"clientSecret"`
	Name           string   `json:"name"           yaml:"name"`
	RedirectURLs   []string `json:"redirectUrls"   yaml:"redirectUrls"`
	AllowedOrigins []string `json:"allowedOrigins" yaml:"allowedOrigins"`
}

type fileDoc struct {
	Clients []fileClient `json:"clients" yaml:"clients"`
}

// LoadFile reads a clients file in JSON or YAML form.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("registry: read %s: %w", path, err)
	}
	snap, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("registry: %s: %w", path, err)
	}
	return snap, nil
}

// Parse decodes a clients document. ext selects the decoder (".json",
// ".yaml", ".yml"); anything else is sniffed from the content.
func Parse(data []byte, ext string) (*Snapshot, error) {
	var doc fileDoc

	switch {
	case isJSON(data, ext):
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	}

	clients := make([]domain.Client, 0, len(doc.Clients))
	for _, fc := range doc.Clients {
		clients = append(clients, domain.Client{
			ID:             fc.ClientID,
			Secret:         fc.ClientSecret,
			Name:           fc.Name,
			RedirectURLs:   fc.RedirectURLs,
			AllowedOrigins: fc.AllowedOrigins,
		})
	}
	return NewSnapshot(clients)
}

func isJSON(data []byte, ext string) bool {
	switch strings.ToLower(ext) {
	case ".json":
		return true
	case ".yaml", ".yml":
		return false
	}
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
