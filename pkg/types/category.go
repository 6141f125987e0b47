package types

// StorageCategory is the tier decision derived deterministically from a
// MemoryScore.
type StorageCategory string

const (
	// CategoryShortTerm routes the item to the short-term tier only.
	CategoryShortTerm StorageCategory = "short_term"

	// CategoryLongTerm routes the item to both tiers once consent is resolved.
	CategoryLongTerm StorageCategory = "long_term"

	// CategoryEmotionalAnchor is a long-term subtype reserved for profound,
	// anchor-worthy content. It persists like long_term.
	CategoryEmotionalAnchor StorageCategory = "emotional_anchor"
)

// IsValidStorageCategory reports whether the value is a recognized category.
func IsValidStorageCategory(c StorageCategory) bool {
	switch c {
	case CategoryShortTerm, CategoryLongTerm, CategoryEmotionalAnchor:
		return true
	}
	return false
}

// Persistent reports whether the category requires a long-term tier write.
func (c StorageCategory) Persistent() bool {
	return c == CategoryLongTerm || c == CategoryEmotionalAnchor
}
