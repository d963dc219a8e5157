// Package seq models an MR pulse sequence as an ordered table of blocks
// referencing deduplicated event libraries.
//
// A Sequence owns one library per event kind (RF, gradients, ADC, delays,
// triggers, labels, extensions, compressed shapes). Blocks store only
// integer references into those libraries; payloads are resolved on read.
// On top of the block table sit the timing and waveform engines: duration
// accounting, the bulk timing validator, dense gradient waveform
// reconstruction, and k-space trajectory integration.
//
// A Sequence is single-writer, single-reader shared state with no internal
// synchronization; callers needing concurrent access must serialize it
// externally.
package seq
