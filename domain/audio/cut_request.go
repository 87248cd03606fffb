package audio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultCutSuffix is appended to the source stem to build the output filename
const DefaultCutSuffix = "_cut"

// CutRequest represents a request to extract a time range from a source file
type CutRequest struct {
	SourcePath string
	Range      TimeRange
	OutputPath string
}

// NewCutRequest creates a validated CutRequest
func NewCutRequest(sourcePath string, r TimeRange, outputPath string) (*CutRequest, error) {
	req := &CutRequest{
		SourcePath: sourcePath,
		Range:      r,
		OutputPath: outputPath,
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return req, nil
}

// Validate checks that the cut request is valid
func (r *CutRequest) Validate() error {
	if r.SourcePath == "" {
		return fmt.Errorf("source path is required")
	}
	if r.OutputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if filepath.Clean(r.SourcePath) == filepath.Clean(r.OutputPath) {
		return fmt.Errorf("%w: output path %s would overwrite the source", ErrIO, r.OutputPath)
	}
	return r.Range.Validate()
}

// OutputFilename returns "<stem><suffix><ext>" for sourcePath.
// An empty suffix falls back to DefaultCutSuffix.
func OutputFilename(sourcePath, suffix string) string {
	if suffix == "" {
		suffix = DefaultCutSuffix
	}
	base := filepath.Base(sourcePath)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + suffix + ext
}
