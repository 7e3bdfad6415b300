// Package openal implements device.Device on top of the system OpenAL library.
//
// The backend needs cgo and an OpenAL development package, so it is only
// compiled with the openal build tag:
//
//	go build -tags openal ./...
//
// Without the tag importing this package registers nothing and opening the
// "openal" backend fails with an unknown backend error.
package openal

// BackendName is the name the OpenAL backend registers under.
const BackendName = "openal"
