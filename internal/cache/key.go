package cache

import "fmt"

// Key identifies one cache entry. Keys are constructed through the
// typed helpers below so every caller maps to the same file name.
type Key struct {
	name string
}

// TermsKey addresses the account's enrollment term list.
func TermsKey() Key {
	return Key{name: "terms"}
}

// CoursesKey addresses the course list of one enrollment term.
func CoursesKey(termID int64) Key {
	return Key{name: fmt.Sprintf("courses_term_%d", termID)}
}

// Filename returns the file name the entry is stored under.
func (k Key) Filename() string {
	return k.name + ".json"
}

func (k Key) String() string {
	return k.name
}
