package config

import (
	"strings"

	"github.com/funvibe/iris/internal/typesystem"
)

// IntrinsicInfo describes one entry of the built-in catalog.
type IntrinsicInfo struct {
	// Eff is the minimal effect a caller must permit.
	Eff typesystem.Effect
	// Async marks operations that may block and are rejected by the
	// synchronous evaluation mode.
	Async bool
}

var (
	pureOp    = IntrinsicInfo{Eff: typesystem.EffPure}
	ioOp      = IntrinsicInfo{Eff: typesystem.EffIO}
	ioAsyncOp = IntrinsicInfo{Eff: typesystem.EffIO, Async: true}
	netOp     = IntrinsicInfo{Eff: typesystem.EffNet, Async: true}
)

// Intrinsics is the fixed catalog of built-in operations.
var Intrinsics = map[string]IntrinsicInfo{
	"+": pureOp, "-": pureOp, "*": pureOp, "/": pureOp, "%": pureOp,
	"<": pureOp, "<=": pureOp, ">": pureOp, ">=": pureOp, "=": pureOp,
	"&&": pureOp, "||": pureOp, "!": pureOp,
	"i64.from_string": pureOp,
	"i64.to_string":   pureOp,
	"rand.u64":        ioOp,

	"Some": pureOp, "Ok": pureOp, "Err": pureOp,

	"str.concat":      pureOp,
	"str.concat_temp": pureOp,
	"str.temp_reset":  pureOp,
	"str.eq":          pureOp,
	"str.len":         pureOp,
	"str.get":         pureOp,
	"str.substring":   pureOp,
	"str.from_code":   pureOp,
	"str.index_of":    pureOp,
	"str.contains":    pureOp,
	"str.ends_with":   pureOp,

	"cons":        pureOp,
	"list.length": pureOp,
	"list.get":    pureOp,
	"list.concat": pureOp,
	"list.unique": pureOp,

	"map.make":     pureOp,
	"map.put":      pureOp,
	"map.get":      pureOp,
	"map.contains": pureOp,
	"map.keys":     pureOp,

	"record.get": pureOp,
	"record.set": pureOp,
	"tuple.get":  pureOp,

	"io.print":       ioOp,
	"io.read_file":   ioOp,
	"io.write_file":  ioOp,
	"io.file_exists": ioOp,
	"io.read_dir":    ioOp,

	"net.listen":  netOp,
	"net.accept":  netOp,
	"net.read":    netOp,
	"net.write":   netOp,
	"net.close":   netOp,
	"net.connect": netOp,

	"http.parse_request":  pureOp,
	"http.parse_response": pureOp,
	"http.get":            netOp,
	"http.post":           netOp,

	"sys.self":  ioOp,
	"sys.args":  ioOp,
	"sys.spawn": ioOp,
	"sys.send":  ioOp,
	"sys.recv":  ioAsyncOp,
	"sys.sleep": ioAsyncOp,
}

// intrinsicHeads are the operator heads the parser reads as intrinsics
// even though they have no namespace prefix.
var intrinsicHeads = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"<=": true, "<": true, "=": true, ">=": true, ">": true,
	"&&": true, "||": true, "!": true,
	"Some": true, "Ok": true, "Err": true, "cons": true,
}

var intrinsicPrefixes = []string{
	"io.", "net.", "http.", "str.", "sys.", "map.", "list.", "tuple.", "record.", "i64.", "rand.",
}

// IsIntrinsicHead reports whether a form head is parsed as an intrinsic.
func IsIntrinsicHead(op string) bool {
	if intrinsicHeads[op] {
		return true
	}
	for _, p := range intrinsicPrefixes {
		if strings.HasPrefix(op, p) {
			return true
		}
	}
	return false
}

// LookupIntrinsic returns the catalog entry for op.
func LookupIntrinsic(op string) (IntrinsicInfo, bool) {
	info, ok := Intrinsics[op]
	return info, ok
}
