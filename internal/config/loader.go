package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFlag    SourceKind = "flag"
	SourceFile    SourceKind = "file"
)

type Source struct {
	Kind   SourceKind
	Name   string // flag name
	File   string
	Line   int
	Column int
}

type LoadResult struct {
	Config *Config
	// Sources maps a YAML path to whatever set it last. Paths missing here
	// come from DefaultConfig.
	Sources  map[string]Source
	File     string // empty when no file was read
	Warnings []string
}

// LoadWithSources loads the file at DefaultConfigPath.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// Override records that a command-line flag replaced the value at path.
func (r *LoadResult) Override(path string, flag string) {
	if r == nil {
		return
	}
	if r.Sources == nil {
		r.Sources = map[string]Source{}
	}
	r.Sources[path] = Source{Kind: SourceFlag, Name: flag}
}

// LoadFromPath reads one config file over the defaults. A missing file is
// not an error.
func LoadFromPath(path string) (*LoadResult, error) {
	raw, sources, err := readRaw(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		path = ""
	case err != nil:
		return nil, err
	}

	cfg, err := BuildEffectiveConfig(raw)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		return nil, withSource(err, sources)
	}

	return &LoadResult{
		Config:   cfg,
		Sources:  sources,
		File:     path,
		Warnings: cfg.Warnings(),
	}, nil
}

func readRaw(path string) (RawConfig, map[string]Source, error) {
	sources := map[string]Source{}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return RawConfig{}, sources, err
		}
		return RawConfig{}, nil, fmt.Errorf("%s: failed to read: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return RawConfig{}, nil, fmt.Errorf("%s: failed to parse yaml: %w", path, err)
	}

	var raw RawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return RawConfig{}, nil, fmt.Errorf("%s: %w", path, err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	recordSources(root, path, "", sources)
	return raw, sources, nil
}

// recordSources notes the position of every mapping value under node.
// Sequences are recorded as a whole.
func recordSources(node *yaml.Node, file, prefix string, out map[string]Source) {
	if node == nil || node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		if prefix != "" {
			key = prefix + "." + key
		}
		out[key] = Source{Kind: SourceFile, File: file, Line: val.Line, Column: val.Column}
		recordSources(val, file, key, out)
	}
}

func withSource(err error, sources map[string]Source) error {
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path == "" {
		return err
	}
	if src, ok := sources[verr.Path]; ok {
		verr.Source = src
	}
	return verr
}
