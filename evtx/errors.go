package evtx

import "errors"

// Decode failures unwind to one of three recovery sites: the record
// boundary, the chunk boundary, or the file boundary. Only the file
// boundary is user visible.
var (
	ErrShortRead   = errors.New("evtx: short read")
	ErrBadMagic    = errors.New("evtx: bad magic")
	ErrBadVersion  = errors.New("evtx: unsupported header version")
	ErrBadTag      = errors.New("evtx: unknown binxml tag")
	ErrBadSid      = errors.New("evtx: truncated SID")
	ErrBadTemplate = errors.New("evtx: bad template instance")
	ErrOpenFailed  = errors.New("evtx: open failed")
)
