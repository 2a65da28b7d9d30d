package evaluator

// NetBuiltins returns the socket intrinsics. They are async: the
// synchronous mode rejects them before they run.
func NetBuiltins() map[string]*Builtin {
	return map[string]*Builtin{
		"net.listen":  {Fn: builtinNetListen, Name: "net.listen", Arity: 1},
		"net.accept":  {Fn: builtinNetAccept, Name: "net.accept", Arity: 1},
		"net.read":    {Fn: builtinNetRead, Name: "net.read", Arity: 1},
		"net.write":   {Fn: builtinNetWrite, Name: "net.write", Arity: 2},
		"net.close":   {Fn: builtinNetClose, Name: "net.close", Arity: 1},
		"net.connect": {Fn: builtinNetConnect, Name: "net.connect", Arity: 2},
	}
}

func handleArg(op string, arg Object) (int64, *Error) {
	n, ok := arg.(*Integer)
	if !ok || !n.Value.IsInt64() {
		return 0, newError("%s expects I64", op)
	}
	return n.Value.Int64(), nil
}

func builtinNetListen(e *Evaluator, args ...Object) Object {
	port, err := handleArg("net.listen", args[0])
	if err != nil {
		return err
	}
	h, ferr := e.in.opts.Net.Listen(e.ctx, port)
	if ferr != nil {
		e.in.opts.Logger.Debug("net.listen failed", "port", port, "error", ferr)
		return ErrString("Listen failed")
	}
	return Ok(NewInt(h))
}

func builtinNetAccept(e *Evaluator, args ...Object) Object {
	server, err := handleArg("net.accept", args[0])
	if err != nil {
		return err
	}
	h, ferr := e.in.opts.Net.Accept(e.ctx, server)
	if ferr != nil {
		return ErrString("Accept failed")
	}
	return Ok(NewInt(h))
}

func builtinNetRead(e *Evaluator, args ...Object) Object {
	conn, err := handleArg("net.read", args[0])
	if err != nil {
		return err
	}
	data, ferr := e.in.opts.Net.Read(e.ctx, conn)
	if ferr != nil {
		return ErrString("Read failed")
	}
	return Ok(NewString(data))
}

func builtinNetWrite(e *Evaluator, args ...Object) Object {
	conn, err := handleArg("net.write", args[0])
	if err != nil {
		return err
	}
	data, ok := args[1].(*String)
	if !ok {
		return newError("net.write expects Str")
	}
	if ferr := e.in.opts.Net.Write(e.ctx, conn, data.Value); ferr != nil {
		return ErrString("Write failed")
	}
	return Ok(NewInt(1))
}

func builtinNetClose(e *Evaluator, args ...Object) Object {
	conn, err := handleArg("net.close", args[0])
	if err != nil {
		return err
	}
	if ferr := e.in.opts.Net.Close(e.ctx, conn); ferr != nil {
		return ErrString("Close failed")
	}
	return Ok(TRUE)
}

func builtinNetConnect(e *Evaluator, args ...Object) Object {
	addr, ok := args[0].(*String)
	if !ok {
		return newError("net.connect expects Str host")
	}
	port, err := handleArg("net.connect", args[1])
	if err != nil {
		return err
	}
	h, ferr := e.in.opts.Net.Connect(e.ctx, addr.Value, port)
	if ferr != nil {
		return ErrString("Connect failed")
	}
	return Ok(NewInt(h))
}
