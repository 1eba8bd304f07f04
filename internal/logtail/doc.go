// Package logtail reads the end of the lamp's own log file.
//
// The UI's log pane shows the last few hundred lines of whatever the
// daemon has logged. Tail extracts them with a single sequential pass and
// a ring buffer of the requested size, so memory stays O(maxLines) no
// matter how large the file has grown. LineLevel classifies a line by the
// level marker of the lamp's two handler formats so the pane can color it.
// There is no watching or rotation handling here; the pane re-reads on its
// refresh tick.
package logtail
