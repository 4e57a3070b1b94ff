package library

import (
	"encoding/json"
	"fmt"
)

// Snapshot layout. Collections are flattened into arrays of {id, fields}
// objects; relationship back-references (tag children, album song lists,
// artist album lists, root tag list) are not stored and get rebuilt from
// the forward references on load.

type snapshotTag struct {
	ID     uint32 `json:"id"`
	Name   string `json:"name"`
	Parent uint32 `json:"parent"`
}

type snapshotEnding struct {
	ID     uint32 `json:"id"`
	Ending string `json:"ending"`
}

type snapshotArtist struct {
	ID   uint32   `json:"id"`
	Name string   `json:"name"`
	Tags []uint32 `json:"tags"`
}

type snapshotAlbum struct {
	ID     uint32   `json:"id"`
	Name   string   `json:"name"`
	Artist uint32   `json:"artist"`
	Tags   []uint32 `json:"tags"`
}

type snapshotSong struct {
	ID         uint32   `json:"id"`
	Name       string   `json:"name"`
	Album      uint32   `json:"album"`
	FileEnding uint32   `json:"fileEnding"`
	Position   uint32   `json:"position"`
	Secs       uint32   `json:"secs"`
	Tags       []uint32 `json:"tags"`
}

type snapshot struct {
	Revision    uint32           `json:"revision"`
	ID          string           `json:"id"`
	Tags        []snapshotTag    `json:"tags"`
	FileEndings []snapshotEnding `json:"fileEndings"`
	Artists     []snapshotArtist `json:"artists"`
	Albums      []snapshotAlbum  `json:"albums"`
	Songs       []snapshotSong   `json:"songs"`
}

func tagIDs[T ~uint32](ids []T) []uint32 {
	out := make([]uint32, len(ids))
	for i, id := range ids {
		out[i] = uint32(id)
	}
	return out
}

// MarshalSnapshot serializes the entity store (not the change log) into a
// deterministic JSON document: collections are emitted in ascending ID
// order, so equal libraries produce byte-equal snapshots.
func (l *Library) MarshalSnapshot() ([]byte, error) {
	snap := snapshot{
		Revision:    l.revision,
		ID:          l.token.String(),
		Tags:        []snapshotTag{},
		FileEndings: []snapshotEnding{},
		Artists:     []snapshotArtist{},
		Albums:      []snapshotAlbum{},
		Songs:       []snapshotSong{},
	}
	for _, id := range l.tags.ids() {
		t := l.tags.find(id)
		snap.Tags = append(snap.Tags, snapshotTag{ID: id, Name: t.name, Parent: uint32(t.parent)})
	}
	for _, id := range l.fileEndings.ids() {
		snap.FileEndings = append(snap.FileEndings, snapshotEnding{ID: id, Ending: *l.fileEndings.find(id)})
	}
	for _, id := range l.artists.ids() {
		a := l.artists.find(id)
		snap.Artists = append(snap.Artists, snapshotArtist{ID: id, Name: a.name, Tags: tagIDs(a.tags)})
	}
	for _, id := range l.albums.ids() {
		a := l.albums.find(id)
		snap.Albums = append(snap.Albums, snapshotAlbum{ID: id, Name: a.name, Artist: uint32(a.artist), Tags: tagIDs(a.tags)})
	}
	for _, id := range l.songs.ids() {
		s := l.songs.find(id)
		snap.Songs = append(snap.Songs, snapshotSong{
			ID:         id,
			Name:       s.name,
			Album:      uint32(s.album),
			FileEnding: s.fileEnding,
			Position:   s.position,
			Secs:       s.secs,
			Tags:       tagIDs(s.tags),
		})
	}
	return json.Marshal(snap)
}

// FromSnapshot rebuilds a library from a snapshot document and its
// committed change log. Back-references are reconstructed from the
// forward references; the log is adopted as-is.
func FromSnapshot(data []byte, log []CommittedChange) (*Library, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode library snapshot: %w", err)
	}
	token, err := ParseToken(snap.ID)
	if err != nil {
		return nil, fmt.Errorf("decode library snapshot: %w", err)
	}

	l := empty()
	l.token = token
	l.revision = snap.Revision

	for _, st := range snap.Tags {
		l.tags.put(st.ID, &tag{name: st.Name, parent: TagID(st.Parent)})
		l.noteID(st.ID)
	}
	for _, id := range l.tags.ids() {
		t := l.tags.find(id)
		if parent := l.tags.find(uint32(t.parent)); parent != nil {
			parent.children = append(parent.children, TagID(id))
		} else if t.parent == 0 {
			l.rootTags = append(l.rootTags, TagID(id))
		} else {
			return nil, fmt.Errorf("decode library snapshot: tag %d has unknown parent %d", id, t.parent)
		}
	}

	for _, se := range snap.FileEndings {
		ending := se.Ending
		l.fileEndings.put(se.ID, &ending)
		if se.ID >= l.nextEnding {
			l.nextEnding = se.ID + 1
		}
	}

	for _, sa := range snap.Artists {
		a := &artist{name: sa.Name}
		for _, tid := range sa.Tags {
			t := l.tags.find(tid)
			if t == nil {
				return nil, fmt.Errorf("decode library snapshot: artist %d has unknown tag %d", sa.ID, tid)
			}
			a.tags = append(a.tags, TagID(tid))
			t.artists = append(t.artists, ArtistID(sa.ID))
		}
		l.artists.put(sa.ID, a)
		l.noteID(sa.ID)
	}

	for _, sa := range snap.Albums {
		art := l.artists.find(sa.Artist)
		if art == nil {
			return nil, fmt.Errorf("decode library snapshot: album %d has unknown artist %d", sa.ID, sa.Artist)
		}
		a := &album{name: sa.Name, artist: ArtistID(sa.Artist)}
		for _, tid := range sa.Tags {
			t := l.tags.find(tid)
			if t == nil {
				return nil, fmt.Errorf("decode library snapshot: album %d has unknown tag %d", sa.ID, tid)
			}
			a.tags = append(a.tags, TagID(tid))
			t.albums = append(t.albums, AlbumID(sa.ID))
		}
		art.albums = append(art.albums, AlbumID(sa.ID))
		l.albums.put(sa.ID, a)
		l.noteID(sa.ID)
	}

	for _, ss := range snap.Songs {
		alb := l.albums.find(ss.Album)
		if alb == nil {
			return nil, fmt.Errorf("decode library snapshot: song %d has unknown album %d", ss.ID, ss.Album)
		}
		s := &song{
			name:       ss.Name,
			album:      AlbumID(ss.Album),
			fileEnding: ss.FileEnding,
			position:   ss.Position,
			secs:       ss.Secs,
		}
		for _, tid := range ss.Tags {
			t := l.tags.find(tid)
			if t == nil {
				return nil, fmt.Errorf("decode library snapshot: song %d has unknown tag %d", ss.ID, tid)
			}
			s.tags = append(s.tags, TagID(tid))
			t.songs = append(t.songs, SongID(ss.ID))
		}
		alb.songs = append(alb.songs, SongID(ss.ID))
		l.songs.put(ss.ID, s)
		l.noteID(ss.ID)
	}

	l.committed = make([]CommittedChange, len(log))
	copy(l.committed, log)
	return l, nil
}
