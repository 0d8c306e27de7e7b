package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML config key names used for shallow merge.
const (
	keyBackend       = "backend"
	keySearch        = "search"
	keyCache         = "cache"
	keyEvents        = "events"
	keyNotifications = "notifications"
	keyOutput        = "output"
	keyLogging       = "logging"
)

// ShallowMergeYAML loads a YAML file and merges its top-level keys onto
// the target Config. Keys present in the overlay replace entire sections
// in the target. Keys absent in the overlay are left unchanged; unknown
// keys (including "version") are ignored.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]yaml.Node
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}

	for key, node := range overlay {
		if err = mergeSection(target, key, &node); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}
	return nil
}

// mergeSection decodes node into a fresh zero value of the section named key and
// replaces that section of target. Decoding into a fresh value keeps the merge
// shallow: yaml.v3 would otherwise merge into existing maps.
func mergeSection(target *Config, key string, node *yaml.Node) error {
	switch key {
	case keyBackend:
		return replace(node, &target.Backend)
	case keySearch:
		return replace(node, &target.Search)
	case keyCache:
		return replace(node, &target.Cache)
	case keyEvents:
		return replace(node, &target.Events)
	case keyNotifications:
		return replace(node, &target.Notifications)
	case keyOutput:
		return replace(node, &target.Output)
	case keyLogging:
		return replace(node, &target.Logging)
	default:
		return nil
	}
}

func replace[T any](node *yaml.Node, dst *T) error {
	var v T
	if err := node.Decode(&v); err != nil {
		return err
	}
	*dst = v
	return nil
}
