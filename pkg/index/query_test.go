package index_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/semstore/semstore/pkg/index"
	testutils "github.com/semstore/semstore/pkg/utils/test"
)

var _ = Describe("Querier", func() {
	var (
		ctx      context.Context
		tmpDir   string
		store    *index.Store
		embedder *testutils.MockEmbedder
		querier  *index.Querier
	)

	storeItem := func(id, content, itemType string) index.StoreItem {
		return index.StoreItem{
			Item: index.Item{
				ID:      id,
				Content: content,
				Meta:    map[string]string{index.MetaTypeKey: itemType},
			},
			ContentHash: index.ContentHash(content),
			Embedder:    "test/mock-embedder",
		}
	}

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		tmpDir, err = os.MkdirTemp("", "query-test-*")
		Expect(err).NotTo(HaveOccurred())

		store, err = index.Load(filepath.Join(tmpDir, "store.json"))
		Expect(err).NotTo(HaveOccurred())

		embedder = testutils.NewMockEmbedder()
		embedder.Embeddings["what is stored?"] = []float32{1}
		embedder.Default = []float32{1}

		querier = index.NewQuerier(embedder, nil)

		// Dot products against the unit query vector are the stored
		// values themselves: [0.2, 0.9, 0.5].
		index.SetRawState(store,
			[]index.StoreItem{
				storeItem("item1", "first", "file"),
				storeItem("item2", "second", "file"),
				storeItem("item3", "third", "note"),
			},
			[][]float32{{0.2}, {0.9}, {0.5}},
		)
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("ranks by descending similarity", func() {
		results, err := querier.Query(ctx, "what is stored?", 3, store, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		Expect(results[0].ID).To(Equal("item2"))
		Expect(results[1].ID).To(Equal("item3"))
		Expect(results[2].ID).To(Equal("item1"))
		Expect(results[0].Score).To(BeNumerically(">", results[1].Score))
		Expect(results[1].Score).To(BeNumerically(">", results[2].Score))
	})

	It("returns the top count items", func() {
		results, err := querier.Query(ctx, "what is stored?", 2, store, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(results[0].ID).To(Equal("item2"))
		Expect(results[1].ID).To(Equal("item3"))
	})

	It("breaks ties by store order", func() {
		index.SetRawState(store,
			[]index.StoreItem{
				storeItem("first", "a", "file"),
				storeItem("second", "b", "file"),
				storeItem("third", "c", "file"),
			},
			[][]float32{{0.5}, {0.5}, {0.5}},
		)

		results, err := querier.Query(ctx, "what is stored?", 3, store, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(results[0].ID).To(Equal("first"))
		Expect(results[1].ID).To(Equal("second"))
		Expect(results[2].ID).To(Equal("third"))
	})

	It("scans the ranking with a filter, possibly returning fewer than count", func() {
		notItem2 := func(it index.StoreItem) bool { return it.ID != "item2" }

		results, err := querier.Query(ctx, "what is stored?", 1, store, notItem2)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].ID).To(Equal("item3"))

		onlyMissing := func(index.StoreItem) bool { return false }
		results, err = querier.Query(ctx, "what is stored?", 2, store, onlyMissing)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
	})

	It("filters on metadata type", func() {
		results, err := querier.Query(ctx, "what is stored?", 3, store, index.TypeFilter("note"))
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].ID).To(Equal("item3"))
	})

	It("fails with ErrEmptyStore when vectors are unset", func() {
		fresh, err := index.Load(filepath.Join(tmpDir, "fresh.json"))
		Expect(err).NotTo(HaveOccurred())

		_, err = querier.Query(ctx, "anything", 1, fresh, nil)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, index.ErrEmptyStore)).To(BeTrue())

		// No embedding call is made for an empty store.
		Expect(embedder.EmbedCalls()).To(Equal(0))
	})

	It("rejects a query vector of mismatched dimensionality", func() {
		embedder.Embeddings["what is stored?"] = []float32{1, 0}

		_, err := querier.Query(ctx, "what is stored?", 1, store, nil)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("dimensions"))
	})

	It("does not mutate the store", func() {
		before := store.Items()
		_, err := querier.Query(ctx, "what is stored?", 3, store, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Items()).To(Equal(before))
		Expect(index.RawVectors(store)).To(HaveLen(3))
	})
})
