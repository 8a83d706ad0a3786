// Package codec implements the length-delimited frame format spoken between dGrid clients and cluster members.
//
// The package focuses on:
//   - Resumable encoding: an Encoder emits one frame into buffers of any size over several Fill calls
//   - Resumable decoding: a Decoder reassembles frames from arbitrarily split reads
//   - Bounded memory: decoders reject frames larger than a configured maximum before allocating them
//
// Key Components:
//   - Frame: flags, call id, partition id and an opaque payload
//   - Encoder: cursor based writer of a single frame
//   - Decoder: state machine with the states AwaitingHeader, AccumulatingBody and FrameComplete
//
// Thread Safety:
// Encoders and decoders are owned by a single goroutine. Frames are immutable once encoded or decoded
// and may be shared freely.
package codec
