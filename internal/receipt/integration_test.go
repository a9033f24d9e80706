package receipt_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/kakeibo/internal/receipt"
)

// transcriptScanner returns a fixed transcript for every image
type transcriptScanner struct {
	text string
}

func (s *transcriptScanner) ScanText(ctx context.Context, imageData []byte, contentType string) (string, error) {
	return s.text, nil
}

func (s *transcriptScanner) Close() error {
	return nil
}

var _ = Describe("Scan to ledger", func() {
	var (
		db       *receipt.BoltDB
		store    *receipt.LocalStorage
		ghServer *ghttp.Server
	)

	BeforeEach(func() {
		tempDir := GinkgoT().TempDir()

		var err error
		db, err = receipt.NewBoltDB(filepath.Join(tempDir, "test.db"))
		Expect(err).NotTo(HaveOccurred())

		store, err = receipt.NewLocalStorage(filepath.Join(tempDir, "receipts"))
		Expect(err).NotTo(HaveOccurred())

		scanner := &transcriptScanner{text: "ファミリーマート\n2025年10月7日\nおにぎり ¥150\nお茶 ¥141\n合計 ¥291"}
		service := receipt.NewService(db, scanner, store)
		server := receipt.NewServer(service, receipt.BasicAuth{})

		ghServer = ghttp.NewServer()
		ghServer.AppendHandlers(
			server.ServeHTTP, // scan
			server.ServeHTTP, // register
			server.ServeHTTP, // image
			server.ServeHTTP, // summary
		)
	})

	AfterEach(func() {
		ghServer.Close()
		db.Close()
	})

	It("should register a scanned receipt with its photo", func() {
		// --- Step 1: scan ---
		photo := []byte("\xff\xd8\xff fake jpeg")
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, err := writer.CreateFormFile("file", "receipt.jpg")
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write(photo)
		Expect(err).NotTo(HaveOccurred())
		Expect(writer.Close()).To(Succeed())

		resp, err := http.Post(ghServer.URL()+"/api/scans", writer.FormDataContentType(), body)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))

		var scan receipt.Scan
		Expect(json.NewDecoder(resp.Body).Decode(&scan)).To(Succeed())
		Expect(scan.Result.Amount).To(HaveValue(Equal(291)))
		Expect(scan.Result.Date).To(HaveValue(Equal("2025-10-07")))
		Expect(scan.Result.Items).To(HaveLen(2))

		_, err = store.Get(scan.Filename)
		Expect(err).NotTo(HaveOccurred())

		// --- Step 2: register the reviewed draft ---
		input := receipt.TransactionInput{
			Type:      receipt.Expense,
			Title:     "昼ごはん",
			StoreName: *scan.Result.StoreName,
			Amount:    *scan.Result.Amount,
			Category:  "食費",
			Date:      *scan.Result.Date,
			Items:     scan.Result.Items,
			ScanID:    scan.ID,
		}
		payload, err := json.Marshal(input)
		Expect(err).NotTo(HaveOccurred())

		createResp, err := http.Post(ghServer.URL()+"/api/transactions", "application/json", bytes.NewReader(payload))
		Expect(err).NotTo(HaveOccurred())
		defer createResp.Body.Close()
		Expect(createResp.StatusCode).To(Equal(http.StatusCreated))

		var txn receipt.Transaction
		Expect(json.NewDecoder(createResp.Body).Decode(&txn)).To(Succeed())
		Expect(txn.IsParent).To(BeTrue())

		saved, err := db.GetTransaction(txn.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(saved.ImageFilename).To(Equal(scan.Filename))

		linked, err := db.GetScan(scan.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(linked.TransactionID).To(Equal(txn.ID))

		// --- Step 3: the photo is served from the transaction ---
		imgResp, err := http.Get(ghServer.URL() + "/api/transactions/" + txn.ID + "/image")
		Expect(err).NotTo(HaveOccurred())
		defer imgResp.Body.Close()
		Expect(imgResp.StatusCode).To(Equal(http.StatusOK))
		got, err := io.ReadAll(imgResp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(photo))

		// --- Step 4: the month summary counts it ---
		sumResp, err := http.Get(ghServer.URL() + "/api/summary?month=2025-10")
		Expect(err).NotTo(HaveOccurred())
		defer sumResp.Body.Close()

		var sum receipt.Summary
		Expect(json.NewDecoder(sumResp.Body).Decode(&sum)).To(Succeed())
		Expect(sum.Expense).To(Equal(291))
		Expect(sum.Categories).To(ConsistOf(receipt.CategoryTotal{Category: "食費", Type: receipt.Expense, Total: 291, Count: 1}))
	})
})
