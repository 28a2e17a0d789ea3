package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Stores []Store `yaml:"stores"`
}

// LoadFile reads a store catalog from a YAML file. The file lists stores in
// the order the catalog should iterate them:
//
//	stores:
//	  - key: tesco
//	    name: Tesco
//	    api_endpoint: https://api.tesco.example/prices
//	    min_order: "40.00"
//	    delivery_fee: "3.95"
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML catalog document.
func Parse(raw []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	cat, err := New(file.Stores)
	if err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	return cat, nil
}
