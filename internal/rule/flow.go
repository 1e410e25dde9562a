package rule

// FieldExtractor is a primary step chain augmented with ordered fallback
// chains, a literal default, and a nullability flag (§4.4 Field engine).
type FieldExtractor struct {
	Steps    []Step   `json:"steps" jsonschema:"required"`
	Fallback [][]Step `json:"fallback,omitempty"`
	Default  any      `json:"default,omitempty"`
	Nullable bool     `json:"nullable,omitempty"`
}

// BookFields names the extractors the Book flow fields union needs.
type BookFields struct {
	Title    FieldExtractor  `json:"title" jsonschema:"required"`
	Author   FieldExtractor  `json:"author" jsonschema:"required"`
	Cover    *FieldExtractor `json:"cover,omitempty"`
	Intro    *FieldExtractor `json:"intro,omitempty"`
	Chapters *ListFields     `json:"chapters,omitempty"`
}

// VideoFields names the extractors the Video flow fields union needs.
type VideoFields struct {
	Title     FieldExtractor  `json:"title" jsonschema:"required"`
	Cover     *FieldExtractor `json:"cover,omitempty"`
	Intro     *FieldExtractor `json:"intro,omitempty"`
	PlayLines *PlayLineFields `json:"playLines,omitempty"`
}

// AudioFields names the extractors the Audio flow fields union needs.
type AudioFields struct {
	Title  FieldExtractor  `json:"title" jsonschema:"required"`
	Cover  *FieldExtractor `json:"cover,omitempty"`
	Intro  *FieldExtractor `json:"intro,omitempty"`
	Tracks *ListFields     `json:"tracks,omitempty"`
}

// MangaFields names the extractors the Manga flow fields union needs. It
// reuses the play-line/episode shape exactly as the original model does.
type MangaFields struct {
	Title     FieldExtractor  `json:"title" jsonschema:"required"`
	Cover     *FieldExtractor `json:"cover,omitempty"`
	Intro     *FieldExtractor `json:"intro,omitempty"`
	PlayLines *PlayLineFields `json:"playLines,omitempty"`
}

// ListFields extracts a composite list field: List yields the Array of
// element inputs, then each of Title/URL/Index is run against one element.
type ListFields struct {
	List  FieldExtractor  `json:"list" jsonschema:"required"`
	Title FieldExtractor  `json:"title" jsonschema:"required"`
	URL   FieldExtractor  `json:"url" jsonschema:"required"`
	Index *FieldExtractor `json:"index,omitempty"`
}

// PlayLineFields extracts an array of named play lines, each itself
// containing a nested episode list (one level deeper than ListFields).
type PlayLineFields struct {
	List     FieldExtractor `json:"list" jsonschema:"required"`
	Name     FieldExtractor `json:"name" jsonschema:"required"`
	Episodes ListFields     `json:"episodes" jsonschema:"required"`
}

// SearchFields names the extractors a search-result item needs.
type SearchFields struct {
	List   FieldExtractor  `json:"list" jsonschema:"required"`
	ID     FieldExtractor  `json:"id" jsonschema:"required"`
	Title  FieldExtractor  `json:"title" jsonschema:"required"`
	Cover  *FieldExtractor `json:"cover,omitempty"`
	Author *FieldExtractor `json:"author,omitempty"`
}

// Fields is the discriminated union over per-media-kind field maps a Flow
// carries. Exactly one is populated, chosen by the owning Rule's
// Meta.MediaType (for detail flows) or always SearchFields (search and list
// flows).
type Fields struct {
	Book   *BookFields   `json:"book,omitempty"`
	Video  *VideoFields  `json:"video,omitempty"`
	Audio  *AudioFields  `json:"audio,omitempty"`
	Manga  *MangaFields  `json:"manga,omitempty"`
	Search *SearchFields `json:"search,omitempty"`
}

// Pagination describes how a list flow advances to the next page.
type Pagination struct {
	NextURL  *FieldExtractor `json:"nextUrl,omitempty"`
	MaxPages int             `json:"maxPages,omitempty"`
}

// Flow is a media-kind-parameterised bundle of extractors with a URL
// template and HTTP behaviour.
type Flow struct {
	Description string           `json:"description,omitempty"`
	URLTemplate Template         `json:"urlTemplate" jsonschema:"required"`
	Fields      Fields           `json:"fields" jsonschema:"required"`
	Pagination  *Pagination      `json:"pagination,omitempty"`
	Filters     []FieldExtractor `json:"filters,omitempty"`
}

// AllSteps collects every step reachable from this flow's field extractors,
// used by the validator to recurse uniformly without re-deriving the field
// union's shape at each call site.
func (f Flow) AllSteps() [][]Step {
	var chains [][]Step
	addExtractor := func(fe *FieldExtractor) {
		if fe == nil {
			return
		}
		chains = append(chains, fe.Steps)
		chains = append(chains, fe.Fallback...)
	}
	addList := func(l *ListFields) {
		if l == nil {
			return
		}
		addExtractor(&l.List)
		addExtractor(&l.Title)
		addExtractor(&l.URL)
		addExtractor(l.Index)
	}
	addPlayLines := func(p *PlayLineFields) {
		if p == nil {
			return
		}
		addExtractor(&p.List)
		addExtractor(&p.Name)
		addList(&p.Episodes)
	}

	if b := f.Fields.Book; b != nil {
		addExtractor(&b.Title)
		addExtractor(&b.Author)
		addExtractor(b.Cover)
		addExtractor(b.Intro)
		addList(b.Chapters)
	}
	if v := f.Fields.Video; v != nil {
		addExtractor(&v.Title)
		addExtractor(v.Cover)
		addExtractor(v.Intro)
		addPlayLines(v.PlayLines)
	}
	if a := f.Fields.Audio; a != nil {
		addExtractor(&a.Title)
		addExtractor(a.Cover)
		addExtractor(a.Intro)
		addList(a.Tracks)
	}
	if m := f.Fields.Manga; m != nil {
		addExtractor(&m.Title)
		addExtractor(m.Cover)
		addExtractor(m.Intro)
		addPlayLines(m.PlayLines)
	}
	if s := f.Fields.Search; s != nil {
		addExtractor(&s.List)
		addExtractor(&s.ID)
		addExtractor(&s.Title)
		addExtractor(s.Cover)
		addExtractor(s.Author)
	}
	for _, fe := range f.Filters {
		chains = append(chains, fe.Steps)
		chains = append(chains, fe.Fallback...)
	}
	if f.Pagination != nil {
		addExtractor(f.Pagination.NextURL)
	}
	return chains
}
