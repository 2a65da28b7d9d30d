package evaluator

import (
	"errors"
	"math/big"
	"regexp"
	"strings"

	"github.com/funvibe/iris/internal/host"
)

// HTTPBuiltins returns the HTTP/1.1 text parsers and the client calls.
func HTTPBuiltins() map[string]*Builtin {
	return map[string]*Builtin{
		"http.parse_request":  {Fn: builtinParseRequest, Name: "http.parse_request", Arity: 1},
		"http.parse_response": {Fn: builtinParseResponse, Name: "http.parse_response", Arity: 1},
		"http.get":            {Fn: builtinHTTPGet, Name: "http.get", Arity: 1},
		"http.post":           {Fn: builtinHTTPPost, Name: "http.post", Arity: 2},
	}
}

var (
	blankLine = regexp.MustCompile(`\r?\n\r?\n`)
	lineBreak = regexp.MustCompile(`\r?\n`)
)

// splitMessage separates head lines from the body at the first blank line.
func splitMessage(text string) ([]string, string) {
	parts := blankLine.Split(text, -1)
	return lineBreak.Split(parts[0], -1), strings.Join(parts[1:], "\n\n")
}

// parseHeaders turns "Key: value" lines into {key, val} records, skipping
// blank and malformed lines.
func parseHeaders(lines []string) *List {
	var items []Object
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		items = append(items, headerRecord(strings.TrimSpace(key), strings.TrimSpace(val)))
	}
	return &List{Elements: items}
}

func headerRecord(key, val string) *Record {
	return &Record{Fields: map[string]Object{"key": NewString(key), "val": NewString(val)}}
}

func builtinParseRequest(e *Evaluator, args ...Object) Object {
	raw, ok := args[0].(*String)
	if !ok {
		return newError("http.parse_request expects Str")
	}
	lines, body := splitMessage(raw.Value)
	reqLine := strings.Split(lines[0], " ")
	if len(reqLine) < 3 {
		return ErrString("Invalid request line")
	}
	return Ok(&Record{Fields: map[string]Object{
		"method":  NewString(reqLine[0]),
		"path":    NewString(reqLine[1]),
		"headers": parseHeaders(lines[1:]),
		"body":    NewString(body),
	}})
}

func builtinParseResponse(e *Evaluator, args ...Object) Object {
	raw, ok := args[0].(*String)
	if !ok {
		return newError("http.parse_response expects Str")
	}
	lines, body := splitMessage(raw.Value)
	statusLine := strings.Split(lines[0], " ")
	if len(statusLine) < 2 {
		return ErrString("Invalid status line")
	}
	status, ok := new(big.Int).SetString(leadingDigits(statusLine[1]), 10)
	if !ok {
		return ErrString("Invalid status code")
	}
	return Ok(&Record{Fields: map[string]Object{
		"version": NewString(statusLine[0]),
		"status":  &Integer{Value: status},
		"headers": parseHeaders(lines[1:]),
		"body":    NewString(body),
	}})
}

func leadingDigits(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}

func builtinHTTPGet(e *Evaluator, args ...Object) Object {
	url, ok := args[0].(*String)
	if !ok {
		return newError("http.get expects Str")
	}
	return e.fetch("GET", url.Value, "")
}

func builtinHTTPPost(e *Evaluator, args ...Object) Object {
	url, ok1 := args[0].(*String)
	body, ok2 := args[1].(*String)
	if !ok1 || !ok2 {
		return newError("http.post expects Str url and Str body")
	}
	return e.fetch("POST", url.Value, body.Value)
}

func (e *Evaluator) fetch(method, url, body string) Object {
	res, err := e.in.opts.HTTP.Do(e.ctx, method, url, body)
	if err != nil {
		e.in.opts.Logger.Debug("http request failed", "method", method, "url", url, "error", err)
		if errors.Is(err, host.ErrFetchFailed) {
			return ErrString(host.ErrFetchFailed.Error())
		}
		return ErrString(err.Error())
	}
	headers := make([]Object, len(res.Headers))
	for i, h := range res.Headers {
		headers[i] = headerRecord(h.Key, h.Val)
	}
	return Ok(&Record{Fields: map[string]Object{
		"version": NewString(res.Version),
		"status":  NewInt(res.Status),
		"headers": &List{Elements: headers},
		"body":    NewString(res.Body),
	}})
}
