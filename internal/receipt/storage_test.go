package receipt

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(filepath.Join(tmpDir, "images"))
		Expect(err).NotTo(HaveOccurred())
	})

	It("should create the base directory", func() {
		Expect(filepath.Join(tmpDir, "images")).To(BeADirectory())
	})

	Describe("Save", func() {
		It("should write the file and return its name", func() {
			name, err := storage.Save("id-1_レシート.jpg", []byte("jpeg"))
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("id-1_レシート.jpg"))
			Expect(filepath.Join(tmpDir, "images", name)).To(BeAnExistingFile())
		})

		DescribeTable("refusing names outside the base directory",
			func(name string) {
				_, err := storage.Save(name, []byte("x"))
				Expect(err).To(MatchError(ContainSubstring("invalid file name")))
			},
			Entry("parent reference", "../escape.jpg"),
			Entry("nested path", "a/b.jpg"),
			Entry("windows separator", `a\b.jpg`),
			Entry("dot-dot", ".."),
			Entry("empty", ""),
		)

		It("should not write outside the base directory", func() {
			_, _ = storage.Save("../escape.jpg", []byte("x"))
			Expect(filepath.Join(tmpDir, "escape.jpg")).NotTo(BeAnExistingFile())
		})
	})

	Describe("Get", func() {
		BeforeEach(func() {
			_, err := storage.Save("a.jpg", []byte("content"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should read the file back", func() {
			data, err := storage.Get("a.jpg")
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("content")))
		})

		It("should fail for a missing file", func() {
			_, err := storage.Get("missing.jpg")
			Expect(err).To(MatchError(os.ErrNotExist))
		})

		It("should refuse a traversal", func() {
			_, err := storage.Get("../images/a.jpg")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Delete", func() {
		BeforeEach(func() {
			_, err := storage.Save("a.jpg", []byte("content"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should remove the file", func() {
			Expect(storage.Delete("a.jpg")).To(Succeed())
			Expect(filepath.Join(tmpDir, "images", "a.jpg")).NotTo(BeAnExistingFile())
		})

		It("should fail for a missing file", func() {
			Expect(storage.Delete("missing.jpg")).To(HaveOccurred())
		})
	})
})
