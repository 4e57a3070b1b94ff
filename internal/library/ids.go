package library

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
)

// SongID, AlbumID, ArtistID and TagID are opaque handles scoped to one
// Library instance. The zero value is never assigned to an entity; tag
// parent 0 means "root".
type (
	SongID   uint32
	AlbumID  uint32
	ArtistID uint32
	TagID    uint32
)

// Token is the random 8-byte identity of a Library. Clients compare it
// against their cached copy to detect talking to the wrong server.
type Token [8]byte

// GenerateToken returns a fresh random library identity.
func GenerateToken() (Token, error) {
	var t Token
	if _, err := rand.Read(t[:]); err != nil {
		return Token{}, fmt.Errorf("generate library token: %w", err)
	}
	return t, nil
}

// ParseToken decodes the 16-hex-digit form produced by String.
func ParseToken(s string) (Token, error) {
	var t Token
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != len(t) {
		return Token{}, fmt.Errorf("invalid library token %q", s)
	}
	copy(t[:], raw)
	return t, nil
}

func (t Token) String() string {
	return hex.EncodeToString(t[:])
}

// The accessors below are pure lookups. A dangling ID yields the zero
// value, never a panic; cross-entity consistency is Commit's job.

func (id SongID) Exists(l *Library) bool { return l.songs.find(uint32(id)) != nil }

func (id SongID) Name(l *Library) string {
	if s := l.songs.find(uint32(id)); s != nil {
		return s.name
	}
	return ""
}

func (id SongID) Album(l *Library) AlbumID {
	if s := l.songs.find(uint32(id)); s != nil {
		return s.album
	}
	return 0
}

func (id SongID) Artist(l *Library) ArtistID {
	return id.Album(l).Artist(l)
}

func (id SongID) Position(l *Library) uint32 {
	if s := l.songs.find(uint32(id)); s != nil {
		return s.position
	}
	return 0
}

// Length returns the song duration in seconds.
func (id SongID) Length(l *Library) uint32 {
	if s := l.songs.find(uint32(id)); s != nil {
		return s.secs
	}
	return 0
}

func (id SongID) Tags(l *Library) []TagID {
	if s := l.songs.find(uint32(id)); s != nil {
		return s.tags
	}
	return nil
}

// FileEnding returns the interned file extension, leading dot included.
func (id SongID) FileEnding(l *Library) string {
	if s := l.songs.find(uint32(id)); s != nil {
		if e := l.fileEndings.find(s.fileEnding); e != nil {
			return *e
		}
	}
	return ""
}

// FilePath is the song's media file name: the numeric ID followed by the
// file ending, e.g. "17.mp3".
func (id SongID) FilePath(l *Library) string {
	return strconv.FormatUint(uint64(id), 10) + id.FileEnding(l)
}

func (id AlbumID) Exists(l *Library) bool { return l.albums.find(uint32(id)) != nil }

func (id AlbumID) Name(l *Library) string {
	if a := l.albums.find(uint32(id)); a != nil {
		return a.name
	}
	return ""
}

func (id AlbumID) Artist(l *Library) ArtistID {
	if a := l.albums.find(uint32(id)); a != nil {
		return a.artist
	}
	return 0
}

func (id AlbumID) Songs(l *Library) []SongID {
	if a := l.albums.find(uint32(id)); a != nil {
		return a.songs
	}
	return nil
}

func (id AlbumID) Tags(l *Library) []TagID {
	if a := l.albums.find(uint32(id)); a != nil {
		return a.tags
	}
	return nil
}

func (id ArtistID) Exists(l *Library) bool { return l.artists.find(uint32(id)) != nil }

func (id ArtistID) Name(l *Library) string {
	if a := l.artists.find(uint32(id)); a != nil {
		return a.name
	}
	return ""
}

func (id ArtistID) Albums(l *Library) []AlbumID {
	if a := l.artists.find(uint32(id)); a != nil {
		return a.albums
	}
	return nil
}

func (id ArtistID) Tags(l *Library) []TagID {
	if a := l.artists.find(uint32(id)); a != nil {
		return a.tags
	}
	return nil
}

func (id TagID) Exists(l *Library) bool { return l.tags.find(uint32(id)) != nil }

func (id TagID) Name(l *Library) string {
	if t := l.tags.find(uint32(id)); t != nil {
		return t.name
	}
	return ""
}

// Parent returns 0 for root tags.
func (id TagID) Parent(l *Library) TagID {
	if t := l.tags.find(uint32(id)); t != nil {
		return t.parent
	}
	return 0
}

func (id TagID) Children(l *Library) []TagID {
	if t := l.tags.find(uint32(id)); t != nil {
		return t.children
	}
	return nil
}

func (id TagID) Songs(l *Library) []SongID {
	if t := l.tags.find(uint32(id)); t != nil {
		return t.songs
	}
	return nil
}

func (id TagID) Albums(l *Library) []AlbumID {
	if t := l.tags.find(uint32(id)); t != nil {
		return t.albums
	}
	return nil
}

func (id TagID) Artists(l *Library) []ArtistID {
	if t := l.tags.find(uint32(id)); t != nil {
		return t.artists
	}
	return nil
}
