package venue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadDefinitionFile reads a venue definition. Files ending in .json are
// decoded as JSON, everything else as YAML.
func LoadDefinitionFile(path string) (Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return Definition{}, fmt.Errorf("open venue file: %w", err)
	}
	defer f.Close()

	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	return DecodeDefinition(f, format)
}

// DecodeDefinition decodes a definition in the given format ("yaml" or "json").
func DecodeDefinition(r io.Reader, format string) (Definition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Definition{}, fmt.Errorf("read venue definition: %w", err)
	}

	var def Definition
	switch format {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&def)
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &def)
	default:
		return Definition{}, fmt.Errorf("unsupported venue format %q", format)
	}
	if err != nil {
		return Definition{}, fmt.Errorf("decode venue definition: %w", err)
	}

	for i := range def.Waypoints {
		if def.Waypoints[i].Congestion == "" {
			def.Waypoints[i].Congestion = CongestionLow
		}
	}
	return def, nil
}
