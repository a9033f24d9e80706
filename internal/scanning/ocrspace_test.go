package scanning

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("OCRSpace", func() {
	var (
		server  *ghttp.Server
		scanner *OCRSpace
		text    string
		err     error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		var newErr error
		scanner, newErr = NewOCRSpace("test-key", server.URL()+"/parse/image", "")
		Expect(newErr).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		text, err = scanner.ScanText(context.Background(), jpegBytes(testImage(16, 16)), "image/jpeg")
	})

	When("the image is recognised", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/parse/image"),
				ghttp.VerifyContentType("application/x-www-form-urlencoded"),
				ghttp.VerifyFormKV("apikey", "test-key"),
				ghttp.VerifyFormKV("language", "jpn"),
				ghttp.VerifyFormKV("OCREngine", "2"),
				ghttp.VerifyFormKV("detectOrientation", "true"),
				ghttp.VerifyFormKV("scale", "true"),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"ParsedResults": []map[string]any{
						{"ParsedText": "イオン\r\n合計 ¥1,200\r\n"},
					},
					"IsErroredOnProcessing": false,
				}),
			))
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return the cleaned text", func() {
			Expect(text).To(Equal("イオン\n合計 ¥1,200"))
		})
	})

	When("the provider fails to process the image", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"IsErroredOnProcessing": true,
				"ErrorMessage":          []string{"Unable to recognize the file type"},
			}))
		})

		It("should report an invalid image", func() {
			Expect(err).To(MatchError(ErrInvalidImage))
			Expect(err.Error()).To(ContainSubstring("Unable to recognize the file type"))
		})
	})

	When("the provider rate limits the request", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusTooManyRequests, "slow down"))
		})

		It("should report the rate limit", func() {
			Expect(err).To(MatchError(ErrRateLimited))
		})
	})

	When("the provider is down", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusServiceUnavailable, ""))
		})

		It("should report it unavailable", func() {
			Expect(err).To(MatchError(ErrUnavailable))
		})
	})

	When("the provider finds no text", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"ParsedResults":         []map[string]any{{"ParsedText": "  \r\n"}},
				"IsErroredOnProcessing": false,
			}))
		})

		It("should report no text", func() {
			Expect(err).To(MatchError(ErrNoText))
		})
	})
})

var _ = Describe("NewOCRSpace", func() {
	It("should require an api key", func() {
		_, err := NewOCRSpace("", "", "")
		Expect(err).To(HaveOccurred())
	})
})
