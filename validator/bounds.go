// Package validator implements every structural and cryptographic
// invariant the protocol requires before a write is accepted (§4.2).
// Every function here is a pure function of its inputs: no I/O, no
// mutation, no partial acceptance (§5).
package validator

// Protocol-level bounds (§4.2, §3). Values are implementation
// choices within the ranges the spec leaves open; where the spec
// recommends a specific number (depth 32) that number is used.
const (
	MaxContentBytes  = 64 << 20 // 64 MiB per manifest's declared bytes
	MaxTitleLen      = 256
	MaxDescriptionLen = 4096
	MaxTagCount      = 32
	MaxTagLen        = 64

	MaxEntityAliasCount    = 16
	MaxEntityLabelLen      = 256
	MaxEntityDescriptionLen = 2048

	MaxMessageSkewMs = 5 * 60 * 1000 // 5 minutes, configurable by caller
)
