package models

// TaggableKind names the closed set of entity kinds that can carry tags
type TaggableKind string

const (
	KindProduct    TaggableKind = "product"
	KindCollection TaggableKind = "collection"
)

// Valid reports whether k is one of the taggable kinds
func (k TaggableKind) Valid() bool {
	return k == KindProduct || k == KindCollection
}

// Taggable is implemented by every entity a tag can point at
type Taggable interface {
	TagKind() TaggableKind
	TagObjectID() int64
}

func (p *Product) TagKind() TaggableKind { return KindProduct }
func (p *Product) TagObjectID() int64    { return p.ID }

func (c *Collection) TagKind() TaggableKind { return KindCollection }
func (c *Collection) TagObjectID() int64    { return c.ID }

// TagRef is a Taggable known only by kind and id
type TagRef struct {
	Kind TaggableKind
	ID   int64
}

func (r TagRef) TagKind() TaggableKind { return r.Kind }
func (r TagRef) TagObjectID() int64    { return r.ID }
