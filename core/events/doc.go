// Package events defines the typed session event contract.
//
// The event set is closed, versioned, and additive-only: removing or
// repurposing a kind is a breaking change, adding one is not. Every event
// carries the originating session id and a creation timestamp; the event log
// serializes the set exhaustively, so adding a kind without wiring its
// serialization fails at compile time in the log's type switch.
//
// Kinds by namespace:
//
// session events
//
//   - SessionStarted (session.start): a session became active.
//   - SessionEnded (session.end): a session closed; includes the artifact
//     manifest, possibly partial.
//
// stt events
//
//   - TranscriptPartial (stt.partial): interim recognition text; feeds the
//     live projection only, never persisted as a caption.
//   - TranscriptFinal (stt.final): finalized recognition text; produces a
//     committed caption.
//
// generation events
//
//   - GenerationStarted (generation.start): an agent turn began generating.
//   - GenerationChunk (generation.chunk): one streamed text fragment.
//   - GenerationCompleted (generation.complete): the full response text;
//     produces the agent's committed caption.
//
// synthesis events
//
//   - SynthesisStarted (synthesis.start): speech synthesis began.
//   - SynthesisChunk (synthesis.chunk): one synthesized audio chunk was
//     recorded; carries the chunk size, not the audio itself.
//   - SynthesisCompleted (synthesis.complete): synthesis finished or was
//     stopped.
//
// state events
//
//   - ActivityChanged (state.change): a participant's activity state moved;
//     every transition is attributable to one of these.
//   - ThinkingEntered (thinking.enter): an agent entered thinking mode.
//   - AutopilotToggled (autopilot.toggle): the autopilot flag flipped.
//   - Interrupted (interruption): a participant spoke over another.
//   - Error (error): an adapter or resource failure, confined to the session.
package events
