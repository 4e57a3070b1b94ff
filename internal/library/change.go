package library

// ChangeType names one operation of the change vocabulary. The string
// values appear verbatim in the change log and on the wire.
type ChangeType string

const (
	SongAdd           ChangeType = "SongAdd"
	SongRemove        ChangeType = "SongRemove"
	SongSetName       ChangeType = "SongSetName"
	SongSetPosition   ChangeType = "SongSetPosition"
	SongSetLength     ChangeType = "SongSetLength"
	SongSetFileEnding ChangeType = "SongSetFileEnding"
	SongSetAlbum      ChangeType = "SongSetAlbum"
	SongAddTag        ChangeType = "SongAddTag"
	SongRemoveTag     ChangeType = "SongRemoveTag"

	AlbumAdd       ChangeType = "AlbumAdd"
	AlbumRemove    ChangeType = "AlbumRemove"
	AlbumSetName   ChangeType = "AlbumSetName"
	AlbumSetArtist ChangeType = "AlbumSetArtist"
	AlbumAddTag    ChangeType = "AlbumAddTag"
	AlbumRemoveTag ChangeType = "AlbumRemoveTag"

	ArtistAdd       ChangeType = "ArtistAdd"
	ArtistAddOrGet  ChangeType = "ArtistAddOrGet"
	ArtistRemove    ChangeType = "ArtistRemove"
	ArtistSetName   ChangeType = "ArtistSetName"
	ArtistAddTag    ChangeType = "ArtistAddTag"
	ArtistRemoveTag ChangeType = "ArtistRemoveTag"

	TagAdd       ChangeType = "TagAdd"
	TagRemove    ChangeType = "TagRemove"
	TagSetName   ChangeType = "TagSetName"
	TagSetParent ChangeType = "TagSetParent"
)

var changeTypes = map[ChangeType]struct{}{
	SongAdd: {}, SongRemove: {}, SongSetName: {}, SongSetPosition: {},
	SongSetLength: {}, SongSetFileEnding: {}, SongSetAlbum: {},
	SongAddTag: {}, SongRemoveTag: {},
	AlbumAdd: {}, AlbumRemove: {}, AlbumSetName: {}, AlbumSetArtist: {},
	AlbumAddTag: {}, AlbumRemoveTag: {},
	ArtistAdd: {}, ArtistAddOrGet: {}, ArtistRemove: {}, ArtistSetName: {},
	ArtistAddTag: {}, ArtistRemoveTag: {},
	TagAdd: {}, TagRemove: {}, TagSetName: {}, TagSetParent: {},
}

// Known reports whether t is part of the change vocabulary.
func (t ChangeType) Known() bool {
	_, ok := changeTypes[t]
	return ok
}

// ChangeRequest is one requested mutation. TargetID names the entity the
// operation acts on (for Add operations: the container; 0 for root tags
// and for artist creation). Detail carries the secondary ID or numeric
// value where the operation needs one, Name the string payload.
type ChangeRequest struct {
	Type     ChangeType `json:"type"`
	TargetID uint32     `json:"targetId"`
	Detail   uint32     `json:"detail"`
	Name     string     `json:"name"`
}

// CommittedChange is a ChangeRequest that was applied, stamped with the
// revision it was assigned and the ID it created (0 when the operation
// created nothing).
type CommittedChange struct {
	Request           ChangeRequest `json:"request"`
	CommittedRevision uint32        `json:"committedRevision"`
	CreatedID         uint32        `json:"createdId"`
}
