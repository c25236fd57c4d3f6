package query

import "nodalync.dev/core/types"

// PreviewRequestPayload and PreviewResponsePayload are the JSON bodies
// carried by wire.MsgPreviewRequest / wire.MsgPreviewResponse.
type PreviewRequestPayload struct {
	Hash types.Hash `json:"hash"`
}

type PreviewResponsePayload struct {
	Manifest types.Manifest `json:"manifest"`
	Mentions []string       `json:"mentions,omitempty"` // L1 summary, extractor-label list
}

// RequestPayload and ResponsePayload are the JSON bodies carried by
// wire.MsgQueryRequest / wire.MsgQueryResponse (§4.6 query).
type RequestPayload struct {
	Hash    types.Hash    `json:"hash"`
	Payment types.Payment `json:"payment"`
	Version *types.Hash   `json:"version,omitempty"`
}

// Hash is the content hash actually served — equal to RequestPayload.Hash
// (or Version, if pinned) unless the server resolved the request to a
// newer version sharing the requested root (§4.6), in which case it is
// that version's hash.
type ResponsePayload struct {
	Hash    types.Hash    `json:"hash"`
	Bytes   []byte        `json:"bytes"`
	Receipt types.Receipt `json:"receipt"`
}

// ErrorPayload is carried by wire.MsgQueryError.
type ErrorPayload struct {
	Code types.ErrorCode `json:"code"`
	Msg  string          `json:"msg"`
}

// VersionInfo describes one entry in a content chain's version list.
type VersionInfo struct {
	Hash        types.Hash `json:"hash"`
	Number      uint64     `json:"number"`
	TimestampMs int64      `json:"timestamp_ms"`
}

// VersionRequestPayload and VersionResponsePayload are the JSON bodies
// carried by wire.MsgVersionRequest / wire.MsgVersionResponse: given
// any hash belonging to a version chain, list every version sharing
// its root, newest first.
type VersionRequestPayload struct {
	Hash types.Hash `json:"hash"`
}

type VersionResponsePayload struct {
	Root     types.Hash    `json:"root"`
	Versions []VersionInfo `json:"versions"`
}
