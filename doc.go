// Package loom reads and writes the tabular document a host stores inside a
// text file. Every file carries (or, for the oldest files, lacks) a release
// marker under "pluginVersion"; the Engine decodes the payload as the shape
// that release wrote and runs it through the registered steps until it is a
// LoomState.
//
//	state, err := loom.DeserializeState(text, "")
//	if err != nil {
//		var loadErr *loom.DeserializationError
//		if errors.As(err, &loadErr) {
//			// render a diagnostic for loadErr.Kind
//		}
//	}
//	out, err := loom.SerializeState(state)
//
// Loading is pure. Views of the same file are kept in step by
// pkg/viewsync.
package loom
