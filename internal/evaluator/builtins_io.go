package evaluator

import "unicode/utf16"

// IOBuiltins returns the file system and console intrinsics. File system
// failures come back as Err values, never as runtime errors.
func IOBuiltins() map[string]*Builtin {
	return map[string]*Builtin{
		"io.print":       {Fn: builtinPrint, Name: "io.print", Arity: 1},
		"io.read_file":   {Fn: builtinReadFile, Name: "io.read_file", Arity: 1},
		"io.write_file":  {Fn: builtinWriteFile, Name: "io.write_file", Arity: 2},
		"io.file_exists": {Fn: builtinFileExists, Name: "io.file_exists", Arity: 1},
		"io.read_dir":    {Fn: builtinReadDir, Name: "io.read_dir", Arity: 1},
	}
}

// builtinPrint writes strings raw and everything else in printed form.
func builtinPrint(e *Evaluator, args ...Object) Object {
	var text string
	switch v := args[0].(type) {
	case *String:
		text = v.Value
	case *Integer, *Boolean:
		text = v.Inspect()
	default:
		text = PrintValue(v)
	}
	e.in.print(text)
	return NewInt(0)
}

func builtinReadFile(e *Evaluator, args ...Object) Object {
	path, ok := args[0].(*String)
	if !ok {
		return newError("path must be string")
	}
	content, found := e.in.opts.FS.ReadFile(path.Value)
	if !found {
		return ErrString("ENOENT")
	}
	return Ok(NewString(content))
}

// builtinWriteFile answers Ok with the content length in code units.
func builtinWriteFile(e *Evaluator, args ...Object) Object {
	path, ok := args[0].(*String)
	if !ok {
		return newError("path must be string")
	}
	content, ok := args[1].(*String)
	if !ok {
		return newError("content must be string")
	}
	if err := e.in.opts.FS.WriteFile(path.Value, content.Value); err != nil {
		return ErrString(err.Error())
	}
	return Ok(NewInt(int64(len(utf16.Encode([]rune(content.Value))))))
}

func builtinFileExists(e *Evaluator, args ...Object) Object {
	path, ok := args[0].(*String)
	if !ok {
		return newError("path must be string")
	}
	return nativeBool(e.in.opts.FS.Exists(path.Value))
}

func builtinReadDir(e *Evaluator, args ...Object) Object {
	path, ok := args[0].(*String)
	if !ok {
		return newError("path must be string")
	}
	dr, ok := e.in.opts.FS.(DirReader)
	if !ok {
		return ErrString("Not supported")
	}
	entries, err := dr.ReadDir(path.Value)
	if err != nil {
		return ErrString("Directory not found or error")
	}
	items := make([]Object, len(entries))
	for i, name := range entries {
		items[i] = NewString(name)
	}
	return Ok(&List{Elements: items})
}
