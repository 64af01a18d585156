package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load error codes, shared by the YAML and CUE loaders.
const (
	ErrCodeLoadGeneric  = "E001" // generic load error
	ErrCodeScanError    = "E002" // directory scan error
	ErrCodeNoFiles      = "E003" // no metadata files found
	ErrCodeLoadFailed   = "E004" // CUE load failed
	ErrCodeNotFound     = "E005" // path not found
	ErrCodeBuildFailed  = "E006" // CUE build failed
	ErrCodeDecodeFailed = "E008" // YAML decode failed
	ErrCodeInvalidField = "E009" // field has the wrong shape
)

// LoadError is a metadata loading failure with an optional source location.
type LoadError struct {
	Code    string
	Message string
	File    string
	Line    int
	Column  int
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Code, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads a schema from path. Directories and .cue files are loaded
// as CUE; .yaml and .yml files as YAML.
func Load(path string) (*Schema, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema: %v", err)}
	}

	if info.IsDir() {
		return LoadCUE(path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return LoadCUE(path)
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return nil, &LoadError{
			Code:    ErrCodeLoadGeneric,
			Message: fmt.Sprintf("unsupported schema file extension %q (want .yaml, .yml or .cue)", filepath.Ext(path)),
			File:    path,
		}
	}
}
