package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"gopkg.in/yaml.v3"
)

// Load reads a definition file or directory. Directories are loaded as a
// CUE package; files are dispatched on extension (.cue, .yaml, .yml).
func Load(path string) (*File, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("definition path not found: %s", path)}
	}
	if err != nil {
		return nil, &Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing %s: %v", path, err)}
	}
	if info.IsDir() {
		return LoadDir(path)
	}

	switch filepath.Ext(path) {
	case ".cue":
		return loadCUEInstance(filepath.Dir(path), []string{filepath.Base(path)})
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &Error{Code: ErrCodeLoadFailed, Message: err.Error()}
		}
		return ParseYAML(data)
	default:
		return nil, &Error{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("unsupported definition file %s (want .cue, .yaml or .yml)", path)}
	}
}

// LoadDir loads every .cue file of dir as one CUE package.
func LoadDir(dir string) (*File, error) {
	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &Error{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &Error{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}
	return loadCUEInstance(dir, []string{"."})
}

// FindCUEFiles returns the .cue files directly inside dir, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func loadCUEInstance(dir string, args []string) (*File, error) {
	ctx := cuecontext.New()
	instances := load.Instances(args, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &Error{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &Error{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, cueError(ErrCodeBuildFailed, "building CUE value", err)
	}
	return decodeCUE(value)
}

// ParseCUE compiles CUE source held in memory.
func ParseCUE(src string) (*File, error) {
	value := cuecontext.New().CompileString(src)
	if err := value.Err(); err != nil {
		return nil, cueError(ErrCodeBuildFailed, "compiling CUE source", err)
	}
	return decodeCUE(value)
}

func decodeCUE(value cue.Value) (*File, error) {
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(ErrCodeBuildFailed, "definitions must be concrete", err)
	}
	var f File
	if err := value.Decode(&f); err != nil {
		return nil, cueError(ErrCodeDecodeFailed, "decoding definitions", err)
	}
	return &f, nil
}

// cueError reports the first CUE error, with its position when known.
func cueError(code, context string, err error) *Error {
	e := &Error{Code: code, Message: fmt.Sprintf("%s: %v", context, err)}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return e
	}
	first := errs[0]
	e.Message = fmt.Sprintf("%s: %s", context, first.Error())
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}

// ParseYAML decodes a YAML definition file. Unknown keys are errors.
func ParseYAML(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, &Error{Code: ErrCodeDecodeFailed, Message: fmt.Sprintf("decoding YAML: %v", err)}
	}
	return &f, nil
}
