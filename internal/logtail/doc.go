// Package logtail reads the tail of Conspect's own log file for the in-app
// log view.
//
// Read uses a ring buffer so only the last maxLines are held in memory, no
// matter how large the file has grown. Passing maxLines <= 0 returns the whole
// file. A missing file is not an error; the log view simply starts empty.
//
// Lines are expected in log/slog text-handler form (key=value pairs). Level
// pulls the level= field out of a line and FilterLevel drops lines below a
// threshold, keeping lines that carry no level at all.
//
//	lines, err := logtail.Read(cfg.LogPath(), 200)
//	if err != nil {
//		return err
//	}
//	lines = logtail.FilterLevel(lines, "warn")
package logtail
