package library

import (
	"fmt"
	"strings"
)

// Dump renders the library as an indented tree: the tag hierarchy first,
// then artists with their albums and songs. Intended for human eyes.
func (l *Library) Dump() []string {
	var out []string

	tagInfo := func(id uint32, tags []TagID) string {
		names := make([]string, len(tags))
		for i, t := range tags {
			names[i] = t.Name(l)
		}
		return fmt.Sprintf(" (id=%d, tags=[%s])", id, strings.Join(names, ", "))
	}

	out = append(out, "Tags:")
	var dumpTag func(id TagID, indent string)
	dumpTag = func(id TagID, indent string) {
		out = append(out, fmt.Sprintf("%s%s (id=%d)", indent, id.Name(l), id))
		for _, child := range id.Children(l) {
			dumpTag(child, indent+" |-- ")
		}
	}
	for _, root := range l.rootTags {
		dumpTag(root, "    ")
	}

	out = append(out, "Artists:")
	for _, artist := range l.ArtistsByName() {
		out = append(out, "    "+artist.Name(l)+tagInfo(uint32(artist), artist.Tags(l)))
		for _, album := range artist.Albums(l) {
			out = append(out, "     |-- "+album.Name(l)+tagInfo(uint32(album), album.Tags(l)))
			for _, song := range album.Songs(l) {
				secs := song.Length(l)
				line := fmt.Sprintf("     |    |-- [%2d] %s (%s - %d:%02d)%s",
					song.Position(l), song.Name(l), song.FilePath(l),
					secs/60, secs%60, tagInfo(uint32(song), song.Tags(l)))
				out = append(out, line)
			}
		}
	}

	return out
}
