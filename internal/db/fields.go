package db

// Well-known paper hash field names, shared between the store backends and
// the repositories so both interpret records identically.
const (
	FieldID         = "id"
	FieldTitle      = "title"
	FieldAbstract   = "abstract"
	FieldAuthors    = "authors" // JSON array
	FieldCategories = "categories"
	FieldPublished  = "published" // unix seconds
	FieldUpdated    = "updated"   // unix seconds, 0 = never revised
	FieldVector     = "vector"    // little-endian float32 bytes
)

// CategorySeparator joins category values inside the categories TAG field.
const CategorySeparator = ","
