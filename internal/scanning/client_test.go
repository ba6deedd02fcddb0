package scanning

import (
	"context"
	"errors"
	"time"

	"github.com/zombor/receipt-scan/internal/retry"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const validResponse = `{"entity": "GDC", "supplier": "Print Co", "catNumber": "4", "cat": "Production of Marketing Materials", "originalCurrency": "HKD", "usd": 10, "hkd": 77, "cny": 70}`

type backendReply struct {
	text string
	err  error
}

// fakeBackend replays queued replies; the last one repeats once the queue runs out
type fakeBackend struct {
	replies  []backendReply
	requests []Request
	closed   bool
}

func (f *fakeBackend) Generate(ctx context.Context, req Request) (string, error) {
	f.requests = append(f.requests, req)
	i := len(f.requests) - 1
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	return f.replies[i].text, f.replies[i].err
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

type mockIDGenerator struct {
	id string
}

func (m *mockIDGenerator) Generate() string {
	return m.id
}

var _ = Describe("Client", func() {
	var (
		backend *fakeBackend
		waits   []time.Duration
		client  *Client
		file    File
		data    *ReceiptData
		err     error
	)

	BeforeEach(func() {
		backend = &fakeBackend{}
		waits = nil
		file = File{Name: "receipt.png", ContentType: "image/png", Data: []byte("png bytes")}

		policy := DefaultRetryPolicy()
		policy.Sleep = func(ctx context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		}
		client = NewClientWithDeps(backend, policy, &mockIDGenerator{id: "rec-1"})
	})

	JustBeforeEach(func() {
		data, err = client.ScanReceipt(context.Background(), file)
	})

	When("the model answers with a valid record", func() {
		BeforeEach(func() {
			backend.replies = []backendReply{{text: validResponse}}
		})

		It("returns the record with a generated identifier", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(data.ID).To(Equal("rec-1"))
			Expect(data.Supplier).To(Equal("Print Co"))
		})

		It("calls the model once with the file attached", func() {
			Expect(backend.requests).To(HaveLen(1))
			Expect(backend.requests[0].MIMEType).To(Equal("image/png"))
			Expect(backend.requests[0].Data).To(Equal([]byte("png bytes")))
			Expect(backend.requests[0].Prompt).To(ContainSubstring(`"receipt.png"`))
		})
	})

	When("the model fails transiently before succeeding", func() {
		BeforeEach(func() {
			backend.replies = []backendReply{
				{err: &ServiceError{Code: 503, Message: "overloaded"}},
				{err: errors.New("xhr error")},
				{text: validResponse},
			}
		})

		It("retries with growing waits", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(backend.requests).To(HaveLen(3))
			Expect(waits).To(Equal([]time.Duration{2 * time.Second, 4 * time.Second}))
		})

		It("assigns one identifier to the final record", func() {
			Expect(data.ID).To(Equal("rec-1"))
		})
	})

	When("the model keeps failing transiently", func() {
		BeforeEach(func() {
			backend.replies = []backendReply{{err: &ServiceError{Code: 500, Message: "boom"}}}
		})

		It("gives up after four attempts", func() {
			Expect(backend.requests).To(HaveLen(4))
			Expect(waits).To(Equal([]time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}))
		})

		It("returns the last failure", func() {
			var exhausted *retry.ExhaustedError
			Expect(errors.As(err, &exhausted)).To(BeTrue())
			Expect(exhausted.Attempts).To(Equal(4))

			var svcErr *ServiceError
			Expect(errors.As(err, &svcErr)).To(BeTrue())
			Expect(svcErr.Code).To(Equal(500))
		})
	})

	When("the model answers with malformed JSON", func() {
		BeforeEach(func() {
			backend.replies = []backendReply{{text: "Sorry, I cannot read this receipt."}}
		})

		It("does not retry", func() {
			Expect(backend.requests).To(HaveLen(1))
			Expect(waits).To(BeEmpty())
		})

		It("returns a parse error", func() {
			var parseErr *ParseError
			Expect(errors.As(err, &parseErr)).To(BeTrue())
			Expect(data).To(BeNil())
		})
	})

	When("the model answers with nothing", func() {
		BeforeEach(func() {
			backend.replies = []backendReply{{text: ""}}
		})

		It("fails without retrying", func() {
			Expect(err).To(MatchError(ErrEmptyResponse))
			Expect(backend.requests).To(HaveLen(1))
		})
	})

	When("the model rejects the request", func() {
		BeforeEach(func() {
			backend.replies = []backendReply{{err: &ServiceError{Code: 400, Message: "unsupported file"}}}
		})

		It("fails without retrying", func() {
			Expect(err).To(HaveOccurred())
			Expect(backend.requests).To(HaveLen(1))
		})
	})

	When("the file is empty", func() {
		BeforeEach(func() {
			file.Data = nil
		})

		It("fails without calling the model", func() {
			Expect(err).To(MatchError(ErrEmptyFile))
			Expect(backend.requests).To(BeEmpty())
		})
	})

	Describe("Close", func() {
		BeforeEach(func() {
			backend.replies = []backendReply{{text: validResponse}}
		})

		It("closes the backend", func() {
			Expect(client.Close()).To(Succeed())
			Expect(backend.closed).To(BeTrue())
		})
	})
})
