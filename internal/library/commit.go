package library

import "slices"

func drop[T comparable](s []T, v T) []T {
	if i := slices.Index(s, v); i >= 0 {
		return slices.Delete(s, i, i+1)
	}
	return s
}

// Commit validates one change request and, if it passes, applies it as a
// single atomic step: every side effect happens or none does. On success
// the library revision advances by exactly one, the committed change is
// appended to the log and returned. On failure the library is untouched.
//
// The only exception to the revision rule is ArtistAddOrGet hitting an
// existing name: the commit yields that artist's ID, nothing is mutated,
// nothing is logged, and the revision stays put.
func (l *Library) Commit(req ChangeRequest) (CommittedChange, error) {
	out := CommittedChange{Request: req}

	switch req.Type {
	case SongAdd:
		alb := l.albums.find(req.TargetID)
		if alb == nil {
			return out, reject(req.Type, "album not found")
		}
		id := l.allocID()
		s := l.songs.add(id)
		s.name = req.Name
		s.album = AlbumID(req.TargetID)
		alb.songs = append(alb.songs, SongID(id))
		out.CreatedID = id

	case SongRemove:
		s := l.songs.find(req.TargetID)
		if s == nil {
			return out, reject(req.Type, "song not found")
		}
		alb := l.albums.find(uint32(s.album))
		if alb == nil {
			return out, &InvariantError{Reason: "song album missing"}
		}
		if len(s.tags) > 0 {
			return out, reject(req.Type, "Song still has tags")
		}
		alb.songs = drop(alb.songs, SongID(req.TargetID))
		l.songs.remove(req.TargetID)

	case SongSetName:
		s := l.songs.find(req.TargetID)
		if s == nil {
			return out, reject(req.Type, "song not found")
		}
		s.name = req.Name

	case SongSetPosition:
		s := l.songs.find(req.TargetID)
		if s == nil {
			return out, reject(req.Type, "song not found")
		}
		s.position = req.Detail

	case SongSetLength:
		s := l.songs.find(req.TargetID)
		if s == nil {
			return out, reject(req.Type, "song not found")
		}
		s.secs = req.Detail

	case SongSetFileEnding:
		s := l.songs.find(req.TargetID)
		if s == nil {
			return out, reject(req.Type, "song not found")
		}
		s.fileEnding = l.getOrCreateFileEnding(req.Name)

	case SongSetAlbum:
		s := l.songs.find(req.TargetID)
		if s == nil {
			return out, reject(req.Type, "song not found")
		}
		oldAlbum := l.albums.find(uint32(s.album))
		if oldAlbum == nil {
			return out, &InvariantError{Reason: "song album missing"}
		}
		newAlbum := l.albums.find(req.Detail)
		if newAlbum == nil {
			return out, reject(req.Type, "album not found")
		}
		s.album = AlbumID(req.Detail)
		oldAlbum.songs = drop(oldAlbum.songs, SongID(req.TargetID))
		newAlbum.songs = append(newAlbum.songs, SongID(req.TargetID))

	case SongAddTag:
		s := l.songs.find(req.TargetID)
		if s == nil {
			return out, reject(req.Type, "song not found")
		}
		t := l.tags.find(req.Detail)
		if t == nil {
			return out, reject(req.Type, "tag not found")
		}
		if slices.Contains(s.tags, TagID(req.Detail)) {
			return out, reject(req.Type, "Tag already on song")
		}
		s.tags = append(s.tags, TagID(req.Detail))
		t.songs = append(t.songs, SongID(req.TargetID))

	case SongRemoveTag:
		s := l.songs.find(req.TargetID)
		if s == nil {
			return out, reject(req.Type, "song not found")
		}
		t := l.tags.find(req.Detail)
		if t == nil {
			return out, reject(req.Type, "tag not found")
		}
		if !slices.Contains(s.tags, TagID(req.Detail)) {
			return out, reject(req.Type, "Tag not on Song")
		}
		s.tags = drop(s.tags, TagID(req.Detail))
		t.songs = drop(t.songs, SongID(req.TargetID))

	case AlbumAdd:
		art := l.artists.find(req.TargetID)
		if art == nil {
			return out, reject(req.Type, "artist not found")
		}
		id := l.allocID()
		a := l.albums.add(id)
		a.name = req.Name
		a.artist = ArtistID(req.TargetID)
		art.albums = append(art.albums, AlbumID(id))
		out.CreatedID = id

	case AlbumRemove:
		a := l.albums.find(req.TargetID)
		if a == nil {
			return out, reject(req.Type, "album not found")
		}
		art := l.artists.find(uint32(a.artist))
		if art == nil {
			return out, &InvariantError{Reason: "album artist missing"}
		}
		if len(a.songs) > 0 {
			return out, reject(req.Type, "Album still contains songs")
		}
		if len(a.tags) > 0 {
			return out, reject(req.Type, "Album still has tags")
		}
		art.albums = drop(art.albums, AlbumID(req.TargetID))
		l.albums.remove(req.TargetID)

	case AlbumSetName:
		a := l.albums.find(req.TargetID)
		if a == nil {
			return out, reject(req.Type, "album not found")
		}
		a.name = req.Name

	case AlbumSetArtist:
		a := l.albums.find(req.TargetID)
		if a == nil {
			return out, reject(req.Type, "album not found")
		}
		oldArtist := l.artists.find(uint32(a.artist))
		if oldArtist == nil {
			return out, &InvariantError{Reason: "album artist missing"}
		}
		newArtist := l.artists.find(req.Detail)
		if newArtist == nil {
			return out, reject(req.Type, "artist not found")
		}
		a.artist = ArtistID(req.Detail)
		oldArtist.albums = drop(oldArtist.albums, AlbumID(req.TargetID))
		newArtist.albums = append(newArtist.albums, AlbumID(req.TargetID))

	case AlbumAddTag:
		a := l.albums.find(req.TargetID)
		if a == nil {
			return out, reject(req.Type, "album not found")
		}
		t := l.tags.find(req.Detail)
		if t == nil {
			return out, reject(req.Type, "tag not found")
		}
		if slices.Contains(a.tags, TagID(req.Detail)) {
			return out, reject(req.Type, "Tag already on album")
		}
		a.tags = append(a.tags, TagID(req.Detail))
		t.albums = append(t.albums, AlbumID(req.TargetID))

	case AlbumRemoveTag:
		a := l.albums.find(req.TargetID)
		if a == nil {
			return out, reject(req.Type, "album not found")
		}
		t := l.tags.find(req.Detail)
		if t == nil {
			return out, reject(req.Type, "tag not found")
		}
		if !slices.Contains(a.tags, TagID(req.Detail)) {
			return out, reject(req.Type, "Tag not on Album")
		}
		a.tags = drop(a.tags, TagID(req.Detail))
		t.albums = drop(t.albums, AlbumID(req.TargetID))

	case ArtistAddOrGet:
		for _, id := range l.artists.ids() {
			if l.artists.find(id).name == req.Name {
				out.CreatedID = id
				out.CommittedRevision = l.revision
				return out, nil
			}
		}
		id := l.allocID()
		l.artists.add(id).name = req.Name
		out.CreatedID = id

	case ArtistAdd:
		id := l.allocID()
		l.artists.add(id).name = req.Name
		out.CreatedID = id

	case ArtistRemove:
		a := l.artists.find(req.TargetID)
		if a == nil {
			return out, reject(req.Type, "artist not found")
		}
		if len(a.albums) > 0 {
			return out, reject(req.Type, "Artist still has albums")
		}
		if len(a.tags) > 0 {
			return out, reject(req.Type, "Artist still has tags")
		}
		l.artists.remove(req.TargetID)

	case ArtistSetName:
		a := l.artists.find(req.TargetID)
		if a == nil {
			return out, reject(req.Type, "artist not found")
		}
		a.name = req.Name

	case ArtistAddTag:
		a := l.artists.find(req.TargetID)
		if a == nil {
			return out, reject(req.Type, "artist not found")
		}
		t := l.tags.find(req.Detail)
		if t == nil {
			return out, reject(req.Type, "tag not found")
		}
		if slices.Contains(a.tags, TagID(req.Detail)) {
			return out, reject(req.Type, "Tag already on artist")
		}
		a.tags = append(a.tags, TagID(req.Detail))
		t.artists = append(t.artists, ArtistID(req.TargetID))

	case ArtistRemoveTag:
		a := l.artists.find(req.TargetID)
		if a == nil {
			return out, reject(req.Type, "artist not found")
		}
		t := l.tags.find(req.Detail)
		if t == nil {
			return out, reject(req.Type, "tag not found")
		}
		if !slices.Contains(a.tags, TagID(req.Detail)) {
			return out, reject(req.Type, "Tag not on Artist")
		}
		a.tags = drop(a.tags, TagID(req.Detail))
		t.artists = drop(t.artists, ArtistID(req.TargetID))

	case TagAdd:
		parent := l.tags.find(req.TargetID)
		if parent == nil && req.TargetID != 0 {
			return out, reject(req.Type, "Parent tag not found")
		}
		id := l.allocID()
		t := l.tags.add(id)
		t.name = req.Name
		t.parent = TagID(req.TargetID)
		if parent != nil {
			parent.children = append(parent.children, TagID(id))
		} else {
			l.rootTags = append(l.rootTags, TagID(id))
		}
		out.CreatedID = id

	case TagRemove:
		t := l.tags.find(req.TargetID)
		if t == nil {
			return out, reject(req.Type, "tag not found")
		}
		if len(t.children) > 0 {
			return out, reject(req.Type, "Tag still contains children")
		}
		if len(t.songs) > 0 {
			return out, reject(req.Type, "Tag still used for songs")
		}
		if len(t.albums) > 0 {
			return out, reject(req.Type, "Tag still used for albums")
		}
		if len(t.artists) > 0 {
			return out, reject(req.Type, "Tag still used for artists")
		}
		if parent := l.tags.find(uint32(t.parent)); parent != nil {
			parent.children = drop(parent.children, TagID(req.TargetID))
		} else {
			l.rootTags = drop(l.rootTags, TagID(req.TargetID))
		}
		l.tags.remove(req.TargetID)

	case TagSetName:
		t := l.tags.find(req.TargetID)
		if t == nil {
			return out, reject(req.Type, "tag not found")
		}
		t.name = req.Name

	case TagSetParent:
		t := l.tags.find(req.TargetID)
		if t == nil {
			return out, reject(req.Type, "tag not found")
		}
		if TagID(req.Detail) == t.parent {
			return out, reject(req.Type, "Parent is the same")
		}
		if req.TargetID == req.Detail {
			return out, reject(req.Type, "Can't be your own parent")
		}
		newParent := l.tags.find(req.Detail)
		if newParent == nil && req.Detail != 0 {
			return out, reject(req.Type, "tag not found")
		}
		// Walk the new parent's ancestor chain; finding the target
		// there would close a cycle.
		for ancestor := TagID(req.Detail); ancestor != 0; {
			if ancestor == TagID(req.TargetID) {
				return out, reject(req.Type, "Detected circular tag parenting")
			}
			a := l.tags.find(uint32(ancestor))
			if a == nil {
				break
			}
			ancestor = a.parent
		}
		if oldParent := l.tags.find(uint32(t.parent)); oldParent != nil {
			oldParent.children = drop(oldParent.children, TagID(req.TargetID))
		} else {
			l.rootTags = drop(l.rootTags, TagID(req.TargetID))
		}
		if newParent != nil {
			newParent.children = append(newParent.children, TagID(req.TargetID))
		} else {
			l.rootTags = append(l.rootTags, TagID(req.TargetID))
		}
		t.parent = TagID(req.Detail)

	default:
		return out, reject(req.Type, "no such change type")
	}

	l.revision++
	out.CommittedRevision = l.revision
	l.committed = append(l.committed, out)
	return out, nil
}

// Apply commits a batch of requests strictly in order. Each request is
// evaluated independently: a failure does not roll back earlier successes,
// though later requests depending on the failed one will fail their own
// existence checks. The applied changes and the per-request failures are
// both returned.
func (l *Library) Apply(reqs []ChangeRequest) ([]CommittedChange, []error) {
	var applied []CommittedChange
	var failed []error
	for _, req := range reqs {
		change, err := l.Commit(req)
		if err != nil {
			failed = append(failed, err)
			continue
		}
		applied = append(applied, change)
	}
	return applied, failed
}

// ChangesSince returns every committed change with revision >= rev in
// commit order. The lower bound is closed: pass lastKnownRevision + 1 to
// avoid re-receiving the change at exactly that revision.
func (l *Library) ChangesSince(rev uint32) []CommittedChange {
	i := 0
	for i < len(l.committed) && l.committed[i].CommittedRevision < rev {
		i++
	}
	out := make([]CommittedChange, len(l.committed)-i)
	copy(out, l.committed[i:])
	return out
}

// Log returns the full committed change log.
func (l *Library) Log() []CommittedChange {
	out := make([]CommittedChange, len(l.committed))
	copy(out, l.committed)
	return out
}
