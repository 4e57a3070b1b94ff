package library

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type song struct {
	name       string
	album      AlbumID
	fileEnding uint32
	position   uint32
	secs       uint32
	tags       []TagID
}

type album struct {
	name   string
	artist ArtistID
	songs  []SongID
	tags   []TagID
}

type artist struct {
	name   string
	albums []AlbumID
	tags   []TagID
}

type tag struct {
	name     string
	parent   TagID
	children []TagID
	songs    []SongID
	albums   []AlbumID
	artists  []ArtistID
}

// Library is the in-memory entity store plus its committed change log.
// It is not safe for concurrent use; callers serialize access.
type Library struct {
	token    Token
	revision uint32

	// nextID is shared by songs, albums, artists and tags: every entity
	// gets a distinct ID regardless of its kind, and IDs are never
	// reused. File endings are an interning table with their own counter.
	nextID     uint32
	nextEnding uint32

	songs       collection[song]
	albums      collection[album]
	artists     collection[artist]
	tags        collection[tag]
	fileEndings collection[string]
	rootTags    []TagID

	committed []CommittedChange
}

// New returns an empty library at revision 0 with a fresh identity token.
func New() (*Library, error) {
	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}
	l := empty()
	l.token = token
	return l, nil
}

func empty() *Library {
	return &Library{
		nextID:      1,
		nextEnding:  1,
		songs:       newCollection[song](),
		albums:      newCollection[album](),
		artists:     newCollection[artist](),
		tags:        newCollection[tag](),
		fileEndings: newCollection[string](),
	}
}

// allocID hands out the next ID from the shared entity space.
func (l *Library) allocID() uint32 {
	id := l.nextID
	l.nextID++
	return id
}

// noteID keeps the shared allocator ahead of an ID adopted during
// deserialization.
func (l *Library) noteID(id uint32) {
	if id >= l.nextID {
		l.nextID = id + 1
	}
}

// Token returns the library's immutable identity.
func (l *Library) Token() Token { return l.token }

// Revision returns the revision of the last committed change.
func (l *Library) Revision() uint32 { return l.revision }

// RootTags returns the tags without a parent, in creation order.
func (l *Library) RootTags() []TagID { return l.rootTags }

func (l *Library) NumSongs() int   { return l.songs.size() }
func (l *Library) NumAlbums() int  { return l.albums.size() }
func (l *Library) NumArtists() int { return l.artists.size() }
func (l *Library) NumTags() int    { return l.tags.size() }

// Songs returns every song ID in ascending order.
func (l *Library) Songs() []SongID {
	ids := l.songs.ids()
	out := make([]SongID, len(ids))
	for i, id := range ids {
		out[i] = SongID(id)
	}
	return out
}

// Albums returns every album ID in ascending order.
func (l *Library) Albums() []AlbumID {
	ids := l.albums.ids()
	out := make([]AlbumID, len(ids))
	for i, id := range ids {
		out[i] = AlbumID(id)
	}
	return out
}

// Artists returns every artist ID in ascending order.
func (l *Library) Artists() []ArtistID {
	ids := l.artists.ids()
	out := make([]ArtistID, len(ids))
	for i, id := range ids {
		out[i] = ArtistID(id)
	}
	return out
}

// Tags returns every tag ID in ascending order.
func (l *Library) Tags() []TagID {
	ids := l.tags.ids()
	out := make([]TagID, len(ids))
	for i, id := range ids {
		out[i] = TagID(id)
	}
	return out
}

// ArtistsByName returns all artists sorted by display name using a
// locale-aware collation, ID order breaking ties.
func (l *Library) ArtistsByName() []ArtistID {
	out := l.Artists()
	coll := collate.New(language.Und, collate.Loose)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Name(l), out[j].Name(l)
		if c := coll.CompareString(a, b); c != 0 {
			return c < 0
		}
		return out[i] < out[j]
	})
	return out
}

// getOrCreateFileEnding interns a file extension string and returns its
// table index.
func (l *Library) getOrCreateFileEnding(ending string) uint32 {
	for _, id := range l.fileEndings.ids() {
		if *l.fileEndings.find(id) == ending {
			return id
		}
	}
	id := l.nextEnding
	l.nextEnding++
	*l.fileEndings.add(id) = ending
	return id
}
