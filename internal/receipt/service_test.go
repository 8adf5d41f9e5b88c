package receipt

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// mockDB is a mock implementation of DB
type mockDB struct {
	receipts  map[string]*Receipt
	saveErr   error
	getErr    error
	listErr   error
	deleteErr error
}

func newMockDB() *mockDB {
	return &mockDB{receipts: make(map[string]*Receipt)}
}

func (m *mockDB) SaveReceipt(receipt *Receipt) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.receipts[receipt.ID] = receipt
	return nil
}

func (m *mockDB) GetReceipt(id string) (*Receipt, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	receipt, ok := m.receipts[id]
	if !ok {
		return nil, errors.New("receipt not found")
	}
	return receipt, nil
}

func (m *mockDB) ListReceipts(userID string) ([]*Receipt, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	receipts := make([]*Receipt, 0, len(m.receipts))
	for _, r := range m.receipts {
		if r.UserID == userID {
			receipts = append(receipts, r)
		}
	}
	return receipts, nil
}

func (m *mockDB) DeleteReceipt(id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.receipts[id]; !ok {
		return errors.New("receipt not found")
	}
	delete(m.receipts, id)
	return nil
}

func (m *mockDB) Close() error {
	return nil
}

// mockStorage is a mock implementation of Storage
type mockStorage struct {
	files     map[string][]byte
	saveErr   error
	getErr    error
	deleteErr error
}

func newMockStorage() *mockStorage {
	return &mockStorage{files: make(map[string][]byte)}
}

func (m *mockStorage) Save(filename string, data []byte) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.files[filename] = data
	return filename, nil
}

func (m *mockStorage) Get(path string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.files[path]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}

func (m *mockStorage) Delete(path string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.files[path]; !ok {
		return errors.New("file not found")
	}
	delete(m.files, path)
	return nil
}

// mockScanner is a mock implementation of scanning.Scanner
type mockScanner struct {
	text    string
	scanErr error
}

func (m *mockScanner) ExtractText(imageData []byte, contentType string) (string, error) {
	if m.scanErr != nil {
		return "", m.scanErr
	}
	return m.text, nil
}

func (m *mockScanner) Close() error {
	return nil
}

// mockActivityLog is a mock implementation of ActivityLog
type mockActivityLog struct {
	scans  []string
	logErr error
}

func (m *mockActivityLog) LogScan(userID string, date time.Time, note string) error {
	if m.logErr != nil {
		return m.logErr
	}
	m.scans = append(m.scans, note)
	return nil
}

// mockIDGenerator is a mock implementation of IDGenerator
type mockIDGenerator struct {
	id string
}

func (m *mockIDGenerator) Generate() string {
	return m.id
}

// mockTimeSource is a mock implementation of TimeSource
type mockTimeSource struct {
	now time.Time
}

func (m *mockTimeSource) Now() time.Time {
	return m.now
}

var _ = Describe("Service", func() {
	var (
		db         *mockDB
		storage    *mockStorage
		scanner    *mockScanner
		activities *mockActivityLog
		idGen      *mockIDGenerator
		timeSrc    *mockTimeSource
		service    *Service
	)

	BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		scanner = &mockScanner{
			text: "Trader Joe's\nBananas 1.99\nAlmond Milk 3.49\nTOTAL: 5.48",
		}
		activities = &mockActivityLog{}
		idGen = &mockIDGenerator{id: "test-id-123"}
		timeSrc = &mockTimeSource{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)}
		service = NewServiceWithDeps(db, scanner, storage, activities, idGen, timeSrc)
	})

	Describe("ProcessReceipt", func() {
		var (
			estimated *int64
			rec       *Receipt
			err       error
		)

		BeforeEach(func() {
			estimated = nil
		})

		JustBeforeEach(func() {
			rec, err = service.ProcessReceipt("alice", "receipt.jpg", []byte("fake image data"), "image/jpeg", estimated)
		})

		When("processing succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should set the receipt ID correctly", func() {
				Expect(rec.ID).To(Equal("test-id-123"))
			})

			It("should record the owner", func() {
				Expect(rec.UserID).To(Equal("alice"))
			})

			It("should fill the receipt from the parsed text", func() {
				Expect(rec.Store).To(Equal("Trader Joe's"))
				Expect(rec.Items).To(HaveLen(2))
				Expect(rec.TotalCents).To(Equal(int64(548)))
			})

			It("should save the file to storage with an ID prefix", func() {
				Expect(storage.files).To(HaveKey("test-id-123_receipt.jpg"))
			})

			It("should persist the receipt", func() {
				saved, getErr := db.GetReceipt("test-id-123")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Store).To(Equal("Trader Joe's"))
			})

			It("should log a scan activity", func() {
				Expect(activities.scans).To(Equal([]string{"Trader Joe's"}))
			})

			It("should not populate the savings fields without an estimate", func() {
				Expect(rec.EstimatedCents).To(BeNil())
				Expect(rec.DifferenceCents).To(BeNil())
				Expect(rec.SavingsCents).To(BeNil())
			})
		})

		When("an estimated total above the actual spend is supplied", func() {
			BeforeEach(func() {
				v := int64(1000)
				estimated = &v
			})

			It("reports the shortfall as savings", func() {
				Expect(*rec.EstimatedCents).To(Equal(int64(1000)))
				Expect(*rec.DifferenceCents).To(Equal(int64(-452)))
				Expect(*rec.SavingsCents).To(Equal(int64(452)))
			})
		})

		When("an estimated total below the actual spend is supplied", func() {
			BeforeEach(func() {
				v := int64(500)
				estimated = &v
			})

			It("reports the overage with zero savings", func() {
				Expect(*rec.DifferenceCents).To(Equal(int64(48)))
				Expect(*rec.SavingsCents).To(Equal(int64(0)))
			})
		})

		When("storage save fails", func() {
			var setupErr error

			BeforeEach(func() {
				setupErr = errors.New("storage error")
				storage.saveErr = setupErr
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(setupErr))
			})
		})

		When("the OCR engine fails", func() {
			var setupErr error

			BeforeEach(func() {
				setupErr = errors.New("scan error")
				scanner.scanErr = setupErr
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(setupErr))
			})

			It("cleans up the saved file", func() {
				Expect(storage.files).NotTo(HaveKey("test-id-123_receipt.jpg"))
			})
		})

		When("the OCR engine returns empty text", func() {
			BeforeEach(func() {
				scanner.text = ""
			})

			It("degrades to a default receipt instead of failing", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(rec.Store).To(Equal("Unknown Store"))
				Expect(rec.Items).To(BeEmpty())
				Expect(rec.TotalCents).To(Equal(int64(0)))
			})
		})

		When("persisting the receipt fails", func() {
			BeforeEach(func() {
				db.saveErr = errors.New("database error")
			})

			It("still returns the parsed receipt", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(rec.Store).To(Equal("Trader Joe's"))
			})
		})

		When("logging the scan activity fails", func() {
			BeforeEach(func() {
				activities.logErr = errors.New("activity error")
			})

			It("still returns the parsed receipt", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(rec.Store).To(Equal("Trader Joe's"))
			})
		})
	})

	Describe("GetReceipt", func() {
		When("the receipt exists", func() {
			BeforeEach(func() {
				db.receipts["test-id"] = &Receipt{ID: "test-id", Store: "Test"}
			})

			It("returns it", func() {
				rec, err := service.GetReceipt("test-id")
				Expect(err).NotTo(HaveOccurred())
				Expect(rec.ID).To(Equal("test-id"))
			})
		})

		When("the receipt does not exist", func() {
			It("returns the error", func() {
				_, err := service.GetReceipt("nonexistent")
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("ListReceipts", func() {
		BeforeEach(func() {
			db.receipts["id1"] = &Receipt{ID: "id1", UserID: "alice"}
			db.receipts["id2"] = &Receipt{ID: "id2", UserID: "alice"}
			db.receipts["id3"] = &Receipt{ID: "id3", UserID: "bob"}
		})

		It("returns only the user's receipts", func() {
			receipts, err := service.ListReceipts("alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(receipts).To(HaveLen(2))
		})
	})

	Describe("DeleteReceipt", func() {
		BeforeEach(func() {
			db.receipts["test-id"] = &Receipt{ID: "test-id", Filename: "test-file.jpg"}
			storage.files["test-file.jpg"] = []byte("data")
		})

		It("removes the receipt and its file", func() {
			Expect(service.DeleteReceipt("test-id")).To(Succeed())
			Expect(db.receipts).NotTo(HaveKey("test-id"))
			Expect(storage.files).NotTo(HaveKey("test-file.jpg"))
		})

		When("the file delete fails", func() {
			BeforeEach(func() {
				storage.deleteErr = errors.New("storage delete error")
			})

			It("still removes the receipt from the database", func() {
				Expect(service.DeleteReceipt("test-id")).To(Succeed())
				Expect(db.receipts).NotTo(HaveKey("test-id"))
			})
		})
	})

	Describe("GetReceiptFile", func() {
		BeforeEach(func() {
			db.receipts["test-id"] = &Receipt{
				ID:          "test-id",
				Filename:    "test-file.jpg",
				ContentType: "image/jpeg",
			}
			storage.files["test-file.jpg"] = []byte("file data")
		})

		It("returns the file data and content type", func() {
			data, contentType, err := service.GetReceiptFile("test-id")
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("file data"))
			Expect(contentType).To(Equal("image/jpeg"))
		})
	})
})
