package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// OrganizationDomains is one manifest entry: an organization acronym and the
// domains it owns.
type OrganizationDomains struct {
	Acronym string
	Domains []string
}

// Manifest maps organization acronyms to their domains. Entries keep the
// order of the source document.
type Manifest []OrganizationDomains

func (m Manifest) DomainCount() int {
	count := 0
	for _, entry := range m {
		count += len(entry.Domains)
	}
	return count
}

func (m *Manifest) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))

	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("manifest must be a JSON object, got %v", token)
	}

	var entries Manifest
	for decoder.More() {
		token, err = decoder.Token()
		if err != nil {
			return err
		}
		acronym, ok := token.(string)
		if !ok {
			return fmt.Errorf("unexpected manifest key %v", token)
		}
		var domains []string
		if err = decoder.Decode(&domains); err != nil {
			return fmt.Errorf("domains of %s: %w", acronym, err)
		}
		entries = append(entries, OrganizationDomains{Acronym: acronym, Domains: domains})
	}
	if _, err = decoder.Token(); err != nil {
		return err
	}

	*m = entries
	return nil
}

func (m *Manifest) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("manifest must be a YAML mapping, line %d", value.Line)
	}

	entries := make(Manifest, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		acronym := value.Content[i].Value
		var domains []string
		if err := value.Content[i+1].Decode(&domains); err != nil {
			return fmt.Errorf("domains of %s: %w", acronym, err)
		}
		entries = append(entries, OrganizationDomains{Acronym: acronym, Domains: domains})
	}

	*m = entries
	return nil
}
