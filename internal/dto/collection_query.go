package dto

// CollectionQuery describes find({}).sort({SortField: -1}).limit(Limit) on one collection.
type CollectionQuery struct {
	Collection string
	SortField  string
	Limit      int64 // 0 means no limit
}
