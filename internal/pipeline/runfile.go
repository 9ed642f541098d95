// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citaciones/pkg/types"
)

// WriteRun saves a run file.
func WriteRun(path string, run types.Run) error {
	data, err := yaml.Marshal(&run)
	if err != nil {
		return fmt.Errorf("marshaling run file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadRun loads a run file and its outcomes.
func ReadRun(path string) (*types.Run, []types.Outcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading run file: %w", err)
	}
	var run types.Run
	if err := yaml.Unmarshal(data, &run); err != nil {
		return nil, nil, fmt.Errorf("parsing run file: %w", err)
	}
	outcomes, err := types.FromDocs(run.Outcomes)
	if err != nil {
		return nil, nil, fmt.Errorf("run file %s: %w", path, err)
	}
	return &run, outcomes, nil
}
