package index_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/semstore/semstore/pkg/index"
)

var _ = Describe("Store", func() {
	var tmpDir string
	var storePath string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "store-test-*")
		Expect(err).NotTo(HaveOccurred())
		storePath = filepath.Join(tmpDir, "store.json")
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("Load", func() {
		It("returns a fresh empty store when the file is absent", func() {
			s, err := index.Load(storePath)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Len()).To(Equal(0))
			Expect(s.Dimensions()).To(Equal(0))
			Expect(s.Path()).To(Equal(storePath))
		})

		It("fails with ErrCorruptStore on malformed JSON", func() {
			Expect(os.WriteFile(storePath, []byte("{not json"), 0o600)).To(Succeed())

			_, err := index.Load(storePath)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, index.ErrCorruptStore)).To(BeTrue())
		})

		It("fails with ErrCorruptStore when items and vectors disagree", func() {
			doc := `{"items":[{"id":"a","content":"x","content_hash":"h","embedder":"e"}],"vectors":[]}`
			Expect(os.WriteFile(storePath, []byte(doc), 0o600)).To(Succeed())

			_, err := index.Load(storePath)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, index.ErrCorruptStore)).To(BeTrue())
		})

		It("loads a persisted document", func() {
			doc := `{
				"items": [
					{"id":"a.txt","content":"alpha","meta":{"type":"file"},"content_hash":"0123abcd","embedder":"test/mock"},
					{"id":"b.txt","content":"beta","content_hash":"4567ef01","embedder":"test/mock"}
				],
				"vectors": [[1,0],[0,1]]
			}`
			Expect(os.WriteFile(storePath, []byte(doc), 0o600)).To(Succeed())

			s, err := index.Load(storePath)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Len()).To(Equal(2))
			Expect(s.Dimensions()).To(Equal(2))

			items := s.Items()
			Expect(items[0].ID).To(Equal("a.txt"))
			Expect(items[0].Meta["type"]).To(Equal("file"))
			Expect(items[1].Embedder).To(Equal("test/mock"))
		})
	})

	Describe("Save", func() {
		It("is a no-op when vectors are unset", func() {
			s, err := index.Load(storePath)
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Save()).To(Succeed())
			_, err = os.Stat(storePath)
			Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
		})

		It("round-trips items and vectors through disk", func() {
			s, err := index.Load(storePath)
			Expect(err).NotTo(HaveOccurred())

			items := []index.StoreItem{
				{Item: index.Item{ID: "a", Content: "alpha"}, ContentHash: index.ContentHash("alpha"), Embedder: "test/mock"},
			}
			index.SetRawState(s, items, [][]float32{{0.5, 0.25}})
			Expect(s.Save()).To(Succeed())

			loaded, err := index.Load(storePath)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Len()).To(Equal(1))
			Expect(loaded.Items()[0].ID).To(Equal("a"))
			Expect(index.RawVectors(loaded)).To(Equal([][]float32{{0.5, 0.25}}))
		})

		It("replaces on-disk content entirely", func() {
			s, err := index.Load(storePath)
			Expect(err).NotTo(HaveOccurred())
			index.SetRawState(s,
				[]index.StoreItem{
					{Item: index.Item{ID: "a", Content: "alpha"}, ContentHash: "h1", Embedder: "e"},
					{Item: index.Item{ID: "b", Content: "beta"}, ContentHash: "h2", Embedder: "e"},
				},
				[][]float32{{1}, {2}},
			)
			Expect(s.Save()).To(Succeed())

			index.SetRawState(s,
				[]index.StoreItem{
					{Item: index.Item{ID: "a", Content: "alpha"}, ContentHash: "h1", Embedder: "e"},
				},
				[][]float32{{1}},
			)
			Expect(s.Save()).To(Succeed())

			loaded, err := index.Load(storePath)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Len()).To(Equal(1))
		})

		It("leaves no temp files behind", func() {
			s, err := index.Load(storePath)
			Expect(err).NotTo(HaveOccurred())
			index.SetRawState(s,
				[]index.StoreItem{{Item: index.Item{ID: "a", Content: "x"}, ContentHash: "h", Embedder: "e"}},
				[][]float32{{1}},
			)
			Expect(s.Save()).To(Succeed())

			entries, err := os.ReadDir(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Name()).To(Equal("store.json"))
		})
	})

	Describe("Items", func() {
		It("returns a copy callers cannot use to mutate the store", func() {
			s, err := index.Load(storePath)
			Expect(err).NotTo(HaveOccurred())
			index.SetRawState(s,
				[]index.StoreItem{{Item: index.Item{ID: "a", Content: "x"}, ContentHash: "h", Embedder: "e"}},
				[][]float32{{1}},
			)

			items := s.Items()
			items[0].ID = "tampered"
			Expect(s.Items()[0].ID).To(Equal("a"))
		})
	})
})
