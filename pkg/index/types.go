package index

// MetaTypeKey is the well-known metadata key describing what kind of content
// an item holds.
const MetaTypeKey = "type"

// MetaTypeFile marks items produced by file ingestion.
const MetaTypeFile = "file"

// Item is a raw content unit with a stable identity, prior to embedding.
// Items are produced by an ingestion collaborator (e.g. ingest.Files) and are
// never persisted in this form.
type Item struct {
	// ID is the stable identity of the item, e.g. a forward-slash
	// normalized relative file path.
	ID string `json:"id"`

	// Content is the text to be embedded.
	Content string `json:"content"`

	// Meta is optional schema-less metadata. Known keys: MetaTypeKey.
	Meta map[string]string `json:"meta,omitempty"`
}

// StoreItem is an Item extended with the fingerprint and embedder identity
// recorded at embedding time.
//
// ContentHash always reflects the Content value that produced the item's
// currently stored vector; the two are updated together and must never drift.
type StoreItem struct {
	Item

	// ContentHash is the content fingerprint at last embedding time.
	ContentHash string `json:"content_hash"`

	// Embedder identifies the embedding model/version that produced the
	// stored vector, e.g. "openai/text-embedding-3-small".
	Embedder string `json:"embedder"`
}

// asStoreItems converts incoming items to store items by computing the
// content fingerprint and stamping the embedder identity.
func asStoreItems(items []Item, embedder string) []StoreItem {
	out := make([]StoreItem, len(items))
	for i, item := range items {
		out[i] = StoreItem{
			Item:        item,
			ContentHash: ContentHash(item.Content),
			Embedder:    embedder,
		}
	}
	return out
}
