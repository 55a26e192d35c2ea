package build

import "errors"

// Sentinel errors for build failures. They are wrapped with context at the call site.
var (
	ErrDiscovery = errors.New("remotevalues: discovery error")
	ErrDocument  = errors.New("remotevalues: document error")
	ErrOutput    = errors.New("remotevalues: output error")
)
