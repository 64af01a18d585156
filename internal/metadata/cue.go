package metadata

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// LoadCUE reads a schema from a .cue file or from every .cue file in a
// directory (which must form a single CUE package). The layout is:
//
//	entity: User: {
//		table:       "users" // optional
//		primary_key: "Id"    // optional
//		properties: {
//			Id: {}
//			IsActive: "is_active" // a string is the column name
//			CreatedAt: {column: "created_at"}
//		}
//	}
//	function: LEN: dialects: {sqlserver: "LEN", postgres: "LENGTH"}
func LoadCUE(path string) (*Schema, error) {
	value, err := buildCUE(path)
	if err != nil {
		return nil, err
	}
	return CompileSchema(value)
}

func buildCUE(path string) (cue.Value, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return cue.Value{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema not found: %s", path)}
	}
	if err != nil {
		return cue.Value{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema: %v", err)}
	}

	ctx := cuecontext.New()

	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return cue.Value{}, &LoadError{Code: ErrCodeLoadGeneric, Message: err.Error(), File: path}
		}
		value := ctx.CompileBytes(data, cue.Filename(path))
		if err := value.Err(); err != nil {
			return cue.Value{}, formatCUEError(err, ErrCodeBuildFailed)
		}
		return value, nil
	}

	files, err := FindCUEFiles(path)
	if err != nil {
		return cue.Value{}, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return cue.Value{}, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: path})
	if len(instances) == 0 {
		return cue.Value{}, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return cue.Value{}, formatCUEError(err, ErrCodeBuildFailed)
	}
	return value, nil
}

// FindCUEFiles returns every .cue file directly inside dir.
func FindCUEFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// CompileSchema builds a schema from a CUE value holding `entity` and
// optional `function` structs.
func CompileSchema(v cue.Value) (*Schema, error) {
	entitiesVal := v.LookupPath(cue.ParsePath("entity"))
	if !entitiesVal.Exists() {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: "no entities declared"}
	}

	iter, err := entitiesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err, ErrCodeInvalidField)
	}
	var entities []Entity
	for iter.Next() {
		e, err := CompileEntity(iter.Value())
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}

	var functions []FunctionDef
	funcsVal := v.LookupPath(cue.ParsePath("function"))
	if funcsVal.Exists() {
		fiter, err := funcsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err, ErrCodeInvalidField)
		}
		for fiter.Next() {
			f, err := compileFunction(fiter.Label(), fiter.Value())
			if err != nil {
				return nil, err
			}
			functions = append(functions, f)
		}
	}

	return build(entities, functions)
}

// CompileEntity parses one entity struct. The entity name is the struct label:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`entity: User: properties: {Id: {}}`)
//	e, err := CompileEntity(v.LookupPath(cue.ParsePath("entity.User")))
func CompileEntity(v cue.Value) (Entity, error) {
	if err := v.Err(); err != nil {
		return Entity{}, formatCUEError(err, ErrCodeInvalidField)
	}

	var e Entity
	if labels := v.Path().Selectors(); len(labels) > 0 {
		e.Name = labels[len(labels)-1].String()
	}

	var err error
	if e.Table, err = optionalString(v, "table"); err != nil {
		return Entity{}, err
	}
	if e.PrimaryKey, err = optionalString(v, "primary_key"); err != nil {
		return Entity{}, err
	}

	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if !propsVal.Exists() {
		return Entity{}, positioned(ErrCodeInvalidField, fmt.Sprintf("%s: properties are required", e.Name), v.Pos())
	}
	iter, err := propsVal.Fields()
	if err != nil {
		return Entity{}, formatCUEError(err, ErrCodeInvalidField)
	}
	for iter.Next() {
		p, err := compileProperty(iter.Label(), iter.Value())
		if err != nil {
			return Entity{}, err
		}
		e.Properties = append(e.Properties, p)
	}
	return e, nil
}

// compileProperty accepts a column string or a struct with an optional column.
func compileProperty(name string, v cue.Value) (Property, error) {
	p := Property{Name: name}
	if col, err := v.String(); err == nil {
		p.Column = col
		return p, nil
	}
	if v.IncompleteKind() != cue.StructKind {
		return Property{}, positioned(ErrCodeInvalidField,
			fmt.Sprintf("property %s must be a column string or a struct", name), v.Pos())
	}
	col, err := optionalString(v, "column")
	if err != nil {
		return Property{}, err
	}
	p.Column = col
	return p, nil
}

func compileFunction(name string, v cue.Value) (FunctionDef, error) {
	f := FunctionDef{Name: name, Dialects: make(map[string]string)}

	if infixVal := v.LookupPath(cue.ParsePath("infix")); infixVal.Exists() {
		infix, err := infixVal.Bool()
		if err != nil {
			return FunctionDef{}, formatCUEError(err, ErrCodeInvalidField)
		}
		f.Infix = infix
	}

	dialectsVal := v.LookupPath(cue.ParsePath("dialects"))
	if !dialectsVal.Exists() {
		return f, nil
	}
	iter, err := dialectsVal.Fields()
	if err != nil {
		return FunctionDef{}, formatCUEError(err, ErrCodeInvalidField)
	}
	for iter.Next() {
		spelling, err := iter.Value().String()
		if err != nil {
			return FunctionDef{}, formatCUEError(err, ErrCodeInvalidField)
		}
		f.Dialects[iter.Label()] = spelling
	}
	return f, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err, ErrCodeInvalidField)
	}
	return s, nil
}

func positioned(code, msg string, pos token.Pos) *LoadError {
	le := &LoadError{Code: code, Message: msg}
	if pos.IsValid() {
		le.File = pos.Filename()
		le.Line = pos.Line()
		le.Column = pos.Column()
	}
	return le
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error, code string) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return positioned(code, first.Error(), positions[0])
	}
	return &LoadError{Code: code, Message: first.Error()}
}
