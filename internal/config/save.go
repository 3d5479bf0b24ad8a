package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SaveTracing updates the tracing section in the config file.
// Comments and formatting in other sections are preserved by editing the
// yaml.Node tree instead of re-marshaling the whole config.
func SaveTracing(configPath string, cfg Config) error {
	return saveSection(configPath, "tracing", buildTracingNode(cfg))
}

// SaveSnapshot updates the snapshot section in the config file.
func SaveSnapshot(configPath string, cfg Config) error {
	return saveSection(configPath, "snapshot", buildSnapshotNode(cfg))
}

// SaveLog updates the log section in the config file.
func SaveLog(configPath string, cfg Config) error {
	return saveSection(configPath, "log", buildLogNode(cfg))
}

// saveSection replaces (or appends) one top-level section of the config
// file and writes the result atomically.
func saveSection(configPath, key string, sectionNode *yaml.Node) error {
	data, err := os.ReadFile(configPath) // #nosec G304 -- user-chosen config path
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	if doc.Kind == 0 {
		// Empty or new file
		doc = yaml.Node{
			Kind: yaml.DocumentNode,
			Content: []*yaml.Node{
				{
					Kind: yaml.MappingNode,
					Content: []*yaml.Node{
						{Kind: yaml.ScalarNode, Value: key},
						sectionNode,
					},
				},
			},
		}
	} else if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root := doc.Content[0]
		if root.Kind == yaml.MappingNode {
			found := false
			for i := 0; i < len(root.Content)-1; i += 2 {
				if root.Content[i].Value == key {
					root.Content[i+1] = sectionNode
					found = true
					break
				}
			}
			if !found {
				root.Content = append(root.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Value: key},
					sectionNode,
				)
			}
		}
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	// Write atomically (write to temp, then rename)
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".loom.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(buf.Bytes()); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, configPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}

func buildTracingNode(cfg Config) *yaml.Node {
	node := mappingNode()
	appendBool(node, "enabled", cfg.Tracing.Enabled)
	appendScalar(node, "exporter", cfg.Tracing.Exporter)
	if cfg.Tracing.FilePath != "" {
		appendScalar(node, "file_path", cfg.Tracing.FilePath)
	}
	if cfg.Tracing.OTLPEndpoint != "" {
		appendScalar(node, "otlp_endpoint", cfg.Tracing.OTLPEndpoint)
	}
	appendFloat(node, "sample_rate", cfg.Tracing.SampleRate)
	if cfg.Tracing.ServiceName != "" {
		appendScalar(node, "service_name", cfg.Tracing.ServiceName)
	}
	return node
}

func buildSnapshotNode(cfg Config) *yaml.Node {
	node := mappingNode()
	appendScalar(node, "db_path", cfg.Snapshot.DBPath)
	return node
}

func buildLogNode(cfg Config) *yaml.Node {
	node := mappingNode()
	appendBool(node, "enabled", cfg.Log.Enabled)
	appendScalar(node, "level", cfg.Log.Level)
	if cfg.Log.Path != "" {
		appendScalar(node, "path", cfg.Log.Path)
	}
	return node
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Content: make([]*yaml.Node, 0)}
}

func appendScalar(node *yaml.Node, key, value string) {
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
}

func appendBool(node *yaml.Node, key string, value bool) {
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(value)},
	)
}

func appendFloat(node *yaml.Node, key string, value float64) {
	s := strconv.FormatFloat(value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: s},
	)
}
