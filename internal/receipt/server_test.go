package receipt

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/receipt-scan/internal/export"
	"github.com/zombor/receipt-scan/internal/scanning"
)

type upload struct {
	name string
	data string
}

// multipartBody builds a form with one "files" part per upload
func multipartBody(uploads ...upload) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, u := range uploads {
		part, err := writer.CreateFormFile("files", u.name)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write([]byte(u.data))
		Expect(err).NotTo(HaveOccurred())
	}
	Expect(writer.Close()).To(Succeed())
	return body, writer.FormDataContentType()
}

type listResponse struct {
	Entries    []FileEntry `json:"entries"`
	Processing bool        `json:"processing"`
	Table      struct {
		Columns []struct {
			Label string `json:"label"`
		} `json:"columns"`
		Rows []struct {
			ID    string        `json:"id"`
			Cells []export.Cell `json:"cells"`
		} `json:"rows"`
	} `json:"table"`
}

var _ = Describe("Server", func() {
	var (
		scanner     *mockScanner
		service     *Service
		server      *Server
		auth        BasicAuth
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		server = NewServerWithMux(service, auth, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions} {
			ghttpServer.RouteToHandler(method, regexp.MustCompile(`.*`), server.ServeHTTP)
		}
	}

	do := func(method, path string, body io.Reader, contentType string) *http.Response {
		req, err := http.NewRequest(method, ghttpServer.URL()+path, body)
		Expect(err).NotTo(HaveOccurred())
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(resp.Body.Close)
		return resp
	}

	uploadFiles := func(uploads ...upload) *http.Response {
		body, contentType := multipartBody(uploads...)
		return do(http.MethodPost, "/api/files", body, contentType)
	}

	readBody := func(resp *http.Response) string {
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return string(body)
	}

	BeforeEach(func() {
		scanner = newMockScanner()
		service = NewServiceWithDeps(scanner, &mockIDGenerator{}, &mockTimeSource{now: time.Now()})
		auth = BasicAuth{}
		ghttpServer = nil
		setupServer()
	})

	AfterEach(func() {
		service.Wait()
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	Describe("handleIndex", func() {
		When("request method is GET", func() {
			It("should return the upload page", func() {
				resp := do(http.MethodGet, "/", nil, "")
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Type")).To(Equal("text/html; charset=utf-8"))
				body := readBody(resp)
				Expect(body).To(ContainSubstring("RECEIPT<span>SCAN</span>"))
				Expect(body).To(ContainSubstring(`accept=".pdf,.png,.jpg,.jpeg,.eml,.msg"`))
			})
		})

		When("request method is not GET", func() {
			It("should return status Method Not Allowed", func() {
				resp := do(http.MethodPost, "/", nil, "")
				Expect(resp.StatusCode).To(Equal(http.StatusMethodNotAllowed))
			})
		})

		When("the path is unknown", func() {
			It("should return status Not Found", func() {
				resp := do(http.MethodGet, "/receipts/1", nil, "")
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("static assets", func() {
		It("should serve the script", func() {
			resp := do(http.MethodGet, "/static/app.js", nil, "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/javascript; charset=utf-8"))
			Expect(readBody(resp)).To(ContainSubstring("ClipboardItem"))
		})

		It("should serve the stylesheet", func() {
			resp := do(http.MethodGet, "/static/app.css", nil, "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("text/css"))
		})
	})

	Describe("CORS", func() {
		It("should answer preflight requests", func() {
			resp := do(http.MethodOptions, "/api/files", nil, "")
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
			Expect(resp.Header.Get("Access-Control-Allow-Methods")).To(ContainSubstring("DELETE"))
		})

		It("should set headers on regular responses", func() {
			resp := do(http.MethodGet, "/api/files", nil, "")
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "ning", Password: "secret"}
			setupServer()
		})

		When("no credentials are sent", func() {
			It("should return status Unauthorized", func() {
				resp := do(http.MethodGet, "/api/files", nil, "")
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
				Expect(resp.Header.Get("WWW-Authenticate")).To(Equal(`Basic realm="Receipt Scan"`))
			})
		})

		When("valid credentials are sent", func() {
			It("should return status OK", func() {
				req, err := http.NewRequest(http.MethodGet, ghttpServer.URL()+"/api/files", nil)
				Expect(err).NotTo(HaveOccurred())
				req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("ning:secret")))
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
			})
		})

		When("wrong credentials are sent", func() {
			It("should return status Unauthorized", func() {
				req, err := http.NewRequest(http.MethodGet, ghttpServer.URL()+"/api/files", nil)
				Expect(err).NotTo(HaveOccurred())
				req.SetBasicAuth("ning", "guess")
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			})
		})
	})

	Describe("handleUploadFiles", func() {
		When("files are uploaded", func() {
			var added []FileEntry

			BeforeEach(func() {
				scanner.gate("invoice.pdf")
				resp := uploadFiles(upload{"invoice.pdf", "%PDF-1.4"}, upload{"order.eml", "Subject: order"})
				Expect(resp.StatusCode).To(Equal(http.StatusAccepted))
				Expect(json.NewDecoder(resp.Body).Decode(&added)).To(Succeed())
			})

			AfterEach(func() {
				scanner.release("invoice.pdf")
			})

			It("should return the new processing entries in order", func() {
				Expect(added).To(HaveLen(2))
				Expect(added[0].Filename).To(Equal("invoice.pdf"))
				Expect(added[1].Filename).To(Equal("order.eml"))
				Expect(added[0].Status).To(Equal(StatusProcessing))
				Expect(added[0].Size).To(Equal(len("%PDF-1.4")))
			})

			It("should infer content types from the file name", func() {
				Expect(added[0].ContentType).To(Equal("application/pdf"))
				Expect(added[1].ContentType).To(Equal("message/rfc822"))
			})

			It("should add them to the batch", func() {
				Expect(service.Entries()).To(HaveLen(2))
			})
		})

		When("no files are included", func() {
			It("should return status Bad Request", func() {
				resp := uploadFiles()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				var body map[string]string
				Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
				Expect(body["error"]).To(ContainSubstring("No file was selected"))
			})
		})

		When("the body is not a form", func() {
			It("should return status Bad Request", func() {
				resp := do(http.MethodPost, "/api/files", bytes.NewBufferString("nope"), "text/plain")
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("handleListFiles", func() {
		When("the batch is empty", func() {
			It("should return an empty list", func() {
				resp := do(http.MethodGet, "/api/files", nil, "")
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				var list listResponse
				Expect(json.NewDecoder(resp.Body).Decode(&list)).To(Succeed())
				Expect(list.Entries).NotTo(BeNil())
				Expect(list.Entries).To(BeEmpty())
				Expect(list.Processing).To(BeFalse())
				Expect(list.Table.Rows).To(BeEmpty())
				Expect(list.Table.Columns).To(HaveLen(len(export.Columns)))
			})
		})

		When("some files failed", func() {
			BeforeEach(func() {
				scanner.results["broken.png"] = scanResult{err: scanning.ErrEmptyResponse}
				uploadFiles(upload{"ok.pdf", "%PDF"}, upload{"broken.png", "png"})
				service.Wait()
			})

			It("should list every entry with its status", func() {
				resp := do(http.MethodGet, "/api/files", nil, "")
				var list listResponse
				Expect(json.NewDecoder(resp.Body).Decode(&list)).To(Succeed())
				Expect(list.Entries).To(HaveLen(2))
				Expect(list.Entries[0].Status).To(Equal(StatusCompleted))
				Expect(list.Entries[1].Status).To(Equal(StatusError))
				Expect(list.Entries[1].Error).To(Equal(ErrorMessage))
			})

			It("should render only completed records in the table", func() {
				resp := do(http.MethodGet, "/api/files", nil, "")
				var list listResponse
				Expect(json.NewDecoder(resp.Body).Decode(&list)).To(Succeed())
				Expect(list.Table.Rows).To(HaveLen(1))
				Expect(list.Table.Rows[0].ID).To(Equal("rec-ok.pdf"))
				Expect(list.Table.Rows[0].Cells[3].Display).To(Equal("ok.pdf"))
				Expect(list.Table.Rows[0].Cells[8].Highlight).To(BeTrue())
			})
		})
	})

	Describe("handleReset", func() {
		It("should clear the batch", func() {
			uploadFiles(upload{"a.pdf", "%PDF"})
			service.Wait()

			resp := do(http.MethodDelete, "/api/files", nil, "")
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(service.Entries()).To(BeEmpty())
		})
	})

	Describe("handleExport", func() {
		When("nothing is completed", func() {
			It("should return no content", func() {
				resp := do(http.MethodGet, "/api/export", nil, "")
				Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			})
		})

		When("records are completed", func() {
			BeforeEach(func() {
				uploadFiles(upload{"a.pdf", "%PDF"}, upload{"b.pdf", "%PDF"})
				service.Wait()
			})

			It("should return both representations", func() {
				resp := do(http.MethodGet, "/api/export", nil, "")
				Expect(resp.StatusCode).To(Equal(http.StatusOK))

				var items map[string]string
				Expect(json.NewDecoder(resp.Body).Decode(&items)).To(Succeed())
				table := export.Derive(service.Completed())
				html, err := table.HTML()
				Expect(err).NotTo(HaveOccurred())
				Expect(items).To(HaveKeyWithValue("text/plain", table.TSV()))
				Expect(items).To(HaveKeyWithValue("text/html", html))
			})
		})
	})

	Describe("handleExportXLSX", func() {
		When("nothing is completed", func() {
			It("should return no content", func() {
				resp := do(http.MethodGet, "/api/export.xlsx", nil, "")
				Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			})
		})

		When("records are completed", func() {
			BeforeEach(func() {
				uploadFiles(upload{"a.pdf", "%PDF"})
				service.Wait()
			})

			It("should return a workbook download", func() {
				resp := do(http.MethodGet, "/api/export.xlsx", nil, "")
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Type")).To(Equal(xlsxContentType))
				Expect(resp.Header.Get("Content-Disposition")).To(ContainSubstring("receipts.xlsx"))
				Expect(readBody(resp)).To(HavePrefix("PK"))
			})
		})
	})
})
