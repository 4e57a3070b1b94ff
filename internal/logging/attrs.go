package logging

import "log/slog"

// Shared field keys so log lines stay greppable across components.
const (
	FieldComponent  = "component"
	FieldJobID      = "job"
	FieldRevision   = "revision"
	FieldChangeType = "change"
	FieldSongID     = "song"
	FieldAlbumID    = "album"
	FieldArtistID   = "artist"
	FieldURL        = "url"
	FieldPath       = "path"
	FieldRemote     = "remote"
	FieldMessageID  = "message"
	FieldError      = "error"
)

// WithComponent tags every record from the returned logger with a
// component name; the console handler folds it into the line prefix.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger.With(slog.String(FieldComponent, component))
}

// Error wraps an error value under the conventional key.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(FieldError, err.Error())
}
