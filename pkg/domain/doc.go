// Package domain defines the core replay types shared by the facade, the SDK
// adapters, and the CLI.
//
// This package has no dependencies outside the Go standard library. Tags and
// user data are plain values built by callers and forwarded verbatim; the only
// behaviour here is type checking of tag values, which SDK adapters use to
// reject malformed input.
package domain
