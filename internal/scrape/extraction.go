package scrape

import "strings"

// Field names reported in Record.Missing.
const (
	FieldTitle       = "title"
	FieldPoster      = "poster"
	FieldDescription = "desc"
	FieldSize        = "size"
	FieldGenre       = "genre"
	FieldDeveloper   = "developer"
	FieldPublisher   = "publisher"
	FieldReleaseDate = "releaseDate"
	FieldVersion     = "version"
	FieldScreenshots = "screenshots"
	FieldTrailer     = "trailer"
	FieldDownloads   = "downloadLinks"
	FieldSteam       = "steam"
)

// Extraction records which named fields a parser could not find. Adapters
// pass every extracted value through it and copy Missing onto the record.
type Extraction struct {
	missing []string
}

// Field returns value trimmed and notes name as missing when it is empty.
func (e *Extraction) Field(name, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		e.Miss(name)
	}
	return value
}

// List is Field for repeated values.
func (e *Extraction) List(name string, values []string) []string {
	if len(values) == 0 {
		e.Miss(name)
		return []string{}
	}
	return values
}

// Miss notes name as missing once.
func (e *Extraction) Miss(name string) {
	for _, m := range e.missing {
		if m == name {
			return
		}
	}
	e.missing = append(e.missing, name)
}

// Found removes name from the missing set, for fields filled by a fallback.
func (e *Extraction) Found(name string) {
	for i, m := range e.missing {
		if m == name {
			e.missing = append(e.missing[:i], e.missing[i+1:]...)
			return
		}
	}
}

// Missing returns the missing field names in the order they were noted.
func (e *Extraction) Missing() []string {
	if len(e.missing) == 0 {
		return nil
	}
	out := make([]string, len(e.missing))
	copy(out, e.missing)
	return out
}
