package index_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/semstore/semstore/pkg/embeddings"
	"github.com/semstore/semstore/pkg/index"
	testutils "github.com/semstore/semstore/pkg/utils/test"
)

var _ = Describe("Updater", func() {
	var (
		ctx      context.Context
		tmpDir   string
		store    *index.Store
		embedder *testutils.MockEmbedder
		updater  *index.Updater
	)

	item := func(id, content string) index.Item {
		return index.Item{ID: id, Content: content}
	}

	ids := func(items []index.StoreItem) []string {
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = it.ID
		}
		return out
	}

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		tmpDir, err = os.MkdirTemp("", "updater-test-*")
		Expect(err).NotTo(HaveOccurred())

		store, err = index.Load(filepath.Join(tmpDir, "store.json"))
		Expect(err).NotTo(HaveOccurred())

		embedder = testutils.NewMockEmbedder()
		embedder.Embeddings["alpha"] = []float32{1, 0, 0}
		embedder.Embeddings["beta"] = []float32{0, 1, 0}
		embedder.Embeddings["gamma"] = []float32{0, 0, 1}
		embedder.Embeddings["alpha edited"] = []float32{0.9, 0.1, 0}

		updater = index.NewUpdater(embedder, nil)
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("Update", func() {
		It("populates an empty store and reports updated ids in diff order", func() {
			updated, err := updater.Update(ctx, []index.Item{item("a", "alpha"), item("b", "beta")}, store, index.Additive)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(Equal([]string{"a", "b"}))

			Expect(store.Len()).To(Equal(2))
			Expect(store.Dimensions()).To(Equal(3))
			Expect(index.RawVectors(store)).To(Equal([][]float32{{1, 0, 0}, {0, 1, 0}}))
		})

		It("stamps content hash and embedder identity", func() {
			_, err := updater.Update(ctx, []index.Item{item("a", "alpha")}, store, index.Additive)
			Expect(err).NotTo(HaveOccurred())

			stored := store.Items()[0]
			Expect(stored.ContentHash).To(Equal(index.ContentHash("alpha")))
			Expect(stored.Embedder).To(Equal("test/mock-embedder"))
		})

		It("is idempotent: a second identical update makes zero embedding calls", func() {
			_, err := updater.Update(ctx, []index.Item{item("a", "alpha"), item("b", "beta")}, store, index.Additive)
			Expect(err).NotTo(HaveOccurred())
			Expect(embedder.EmbedCalls()).To(Equal(1))

			updated, err := updater.Update(ctx, []index.Item{item("a", "alpha"), item("b", "beta")}, store, index.Additive)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(BeEmpty())
			Expect(embedder.EmbedCalls()).To(Equal(1))
		})

		It("re-embeds only changed content and overwrites the row in place", func() {
			_, err := updater.Update(ctx, []index.Item{item("a", "alpha"), item("b", "beta")}, store, index.Additive)
			Expect(err).NotTo(HaveOccurred())

			updated, err := updater.Update(ctx, []index.Item{item("a", "alpha edited"), item("b", "beta")}, store, index.Additive)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(Equal([]string{"a"}))

			// One batch call for the initial pair, one for the edit.
			Expect(embedder.EmbedCalls()).To(Equal(2))
			Expect(embedder.Calls[1]).To(Equal([]string{"alpha edited"}))

			Expect(ids(store.Items())).To(Equal([]string{"a", "b"}))
			Expect(index.RawVectors(store)).To(Equal([][]float32{{0.9, 0.1, 0}, {0, 1, 0}}))
			Expect(store.Items()[0].ContentHash).To(Equal(index.ContentHash("alpha edited")))
		})

		It("keeps absent items in additive mode", func() {
			_, err := updater.Update(ctx, []index.Item{item("a", "alpha"), item("b", "beta")}, store, index.Additive)
			Expect(err).NotTo(HaveOccurred())

			updated, err := updater.Update(ctx, []index.Item{item("a", "alpha"), item("c", "gamma")}, store, index.Additive)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(Equal([]string{"c"}))

			Expect(ids(store.Items())).To(Equal([]string{"a", "b", "c"}))
			Expect(index.RawVectors(store)).To(Equal([][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}))
		})

		It("removes absent items in full mode", func() {
			_, err := updater.Update(ctx, []index.Item{item("a", "alpha"), item("b", "beta")}, store, index.Full)
			Expect(err).NotTo(HaveOccurred())

			updated, err := updater.Update(ctx, []index.Item{item("a", "alpha"), item("c", "gamma")}, store, index.Full)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(Equal([]string{"c"}))

			Expect(ids(store.Items())).To(Equal([]string{"a", "c"}))
			Expect(index.RawVectors(store)).To(Equal([][]float32{{1, 0, 0}, {0, 0, 1}}))
		})

		It("removes item and vector row together when later rows are also updated", func() {
			// Regression: removal must compact items and vectors as one
			// unit, or the replace step after it lands on stale indices.
			_, err := updater.Update(ctx,
				[]index.Item{item("a", "alpha"), item("b", "beta"), item("c", "gamma")},
				store, index.Full)
			Expect(err).NotTo(HaveOccurred())

			updated, err := updater.Update(ctx,
				[]index.Item{item("a", "alpha"), item("c", "gamma updated")},
				store, index.Full)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(Equal([]string{"c"}))

			Expect(ids(store.Items())).To(Equal([]string{"a", "c"}))
			vectors := index.RawVectors(store)
			Expect(vectors).To(HaveLen(2))
			Expect(vectors[0]).To(Equal([]float32{1, 0, 0}))
			// c's refreshed vector must land on c's row, not b's old slot.
			Expect(vectors[1]).To(Equal(embedder.Default))
			Expect(store.Items()[1].ContentHash).To(Equal(index.ContentHash("gamma updated")))
		})

		It("removes multiple rows without index shift", func() {
			_, err := updater.Update(ctx,
				[]index.Item{item("a", "alpha"), item("b", "beta"), item("c", "gamma"), item("d", "delta")},
				store, index.Full)
			Expect(err).NotTo(HaveOccurred())

			updated, err := updater.Update(ctx,
				[]index.Item{item("b", "beta"), item("d", "delta updated")},
				store, index.Full)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(Equal([]string{"d"}))

			Expect(ids(store.Items())).To(Equal([]string{"b", "d"}))
			vectors := index.RawVectors(store)
			Expect(vectors).To(HaveLen(2))
			Expect(vectors[0]).To(Equal([]float32{0, 1, 0}))
		})

		It("makes no embedding call and no mutation when nothing is stale", func() {
			_, err := updater.Update(ctx, []index.Item{item("a", "alpha"), item("b", "beta")}, store, index.Full)
			Expect(err).NotTo(HaveOccurred())

			// Same ids, same content, but b omitted would trigger removal;
			// keep the set identical so the diff is empty.
			updated, err := updater.Update(ctx, []index.Item{item("a", "alpha"), item("b", "beta")}, store, index.Full)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(BeEmpty())
			Expect(embedder.EmbedCalls()).To(Equal(1))
			Expect(store.Len()).To(Equal(2))
		})

		It("fails the whole batch when an input exceeds the size limit", func() {
			embedder.Limit = 10

			oversize := item("big", "this content is far past ten bytes")
			_, err := updater.Update(ctx, []index.Item{item("a", "alpha"), oversize}, store, index.Additive)
			Expect(err).To(HaveOccurred())

			var tooLarge *index.InputTooLargeError
			Expect(errors.As(err, &tooLarge)).To(BeTrue())
			Expect(tooLarge.IDs).To(Equal([]string{"big"}))
			Expect(tooLarge.Limit).To(Equal(10))
			Expect(errors.Is(err, embeddings.ErrInputTooLarge)).To(BeTrue())

			// Nothing was embedded or stored.
			Expect(embedder.EmbedCalls()).To(Equal(0))
			Expect(store.Len()).To(Equal(0))
		})

		It("rejects vectors whose dimensions differ from the store", func() {
			_, err := updater.Update(ctx, []index.Item{item("a", "alpha")}, store, index.Additive)
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Dimensions()).To(Equal(3))

			// A different embedding model starts returning 1-dim vectors.
			embedder.Default = []float32{0.5}
			_, err = updater.Update(ctx, []index.Item{item("a", "alpha"), item("b", "unknown")}, store, index.Additive)
			Expect(errors.Is(err, embeddings.ErrEmbedding)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("1 dimensions"))
			Expect(err.Error()).To(ContainSubstring("store has 3"))

			// Nothing was mutated, so queries keep working.
			Expect(store.Len()).To(Equal(1))
			Expect(index.RawVectors(store)).To(Equal([][]float32{{1, 0, 0}}))

			querier := index.NewQuerier(embedder, nil)
			embedder.Embeddings["prompt"] = []float32{1, 1, 1}
			results, qerr := querier.Query(ctx, "prompt", 1, store, nil)
			Expect(qerr).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
		})

		It("rejects a first batch with inconsistent dimensions", func() {
			embedder.Embeddings["beta"] = []float32{0, 1}

			_, err := updater.Update(ctx, []index.Item{item("a", "alpha"), item("b", "beta")}, store, index.Additive)
			Expect(errors.Is(err, embeddings.ErrEmbedding)).To(BeTrue())
			Expect(store.Len()).To(Equal(0))
		})

		It("propagates embedder failures and aborts", func() {
			embedder.FailOn = "beta"

			_, err := updater.Update(ctx, []index.Item{item("a", "alpha"), item("b", "beta")}, store, index.Additive)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, embeddings.ErrEmbedding)).To(BeTrue())
			Expect(store.Len()).To(Equal(0))
		})

		It("keeps ids unique when the input repeats an id", func() {
			_, err := updater.Update(ctx,
				[]index.Item{item("a", "alpha"), item("a", "alpha edited")},
				store, index.Additive)
			Expect(err).NotTo(HaveOccurred())

			Expect(ids(store.Items())).To(Equal([]string{"a"}))
			Expect(index.RawVectors(store)).To(Equal([][]float32{{0.9, 0.1, 0}}))
		})
	})

	Describe("UpdateAndPersist", func() {
		It("persists after a non-empty update", func() {
			updated, err := updater.UpdateAndPersist(ctx, []index.Item{item("a", "alpha")}, store, index.Additive)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(Equal([]string{"a"}))

			loaded, err := index.Load(store.Path())
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Len()).To(Equal(1))
			Expect(index.RawVectors(loaded)).To(Equal([][]float32{{1, 0, 0}}))
		})

		It("skips persistence when nothing changed", func() {
			_, err := updater.UpdateAndPersist(ctx, []index.Item{item("a", "alpha")}, store, index.Additive)
			Expect(err).NotTo(HaveOccurred())

			before, err := os.Stat(store.Path())
			Expect(err).NotTo(HaveOccurred())

			updated, err := updater.UpdateAndPersist(ctx, []index.Item{item("a", "alpha")}, store, index.Additive)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated).To(BeEmpty())

			after, err := os.Stat(store.Path())
			Expect(err).NotTo(HaveOccurred())
			Expect(after.ModTime()).To(Equal(before.ModTime()))
		})

		It("does not persist when the embedder fails", func() {
			embedder.FailOn = "alpha"

			_, err := updater.UpdateAndPersist(ctx, []index.Item{item("a", "alpha")}, store, index.Additive)
			Expect(err).To(HaveOccurred())

			_, statErr := os.Stat(store.Path())
			Expect(errors.Is(statErr, os.ErrNotExist)).To(BeTrue())
		})
	})
})
