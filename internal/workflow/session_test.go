package workflow

import (
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.etcd.io/bbolt"

	"github.com/fairooos/scanner-web/internal/scanning"
)

var _ = Describe("BoltSessionStore", func() {
	var (
		dbPath    string
		store     *BoltSessionStore
		sessionID string
	)

	BeforeEach(func() {
		dbPath = filepath.Join(GinkgoT().TempDir(), "sessions.db")
		var err error
		store, err = NewBoltSessionStore(dbPath)
		Expect(err).NotTo(HaveOccurred())
		sessionID = "session-1"
	})

	AfterEach(func() {
		if store != nil {
			store.Close()
		}
	})

	Describe("Selection", func() {
		It("round-trips the chosen type", func() {
			Expect(store.SetSelection(sessionID, EmiratesID)).To(Succeed())

			doc, err := store.Selection(sessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc).To(Equal(EmiratesID))
		})

		It("returns ErrNoSelection for an unknown session", func() {
			_, err := store.Selection("never-seen")
			Expect(err).To(MatchError(ErrNoSelection))
		})

		It("overwrites an earlier choice", func() {
			Expect(store.SetSelection(sessionID, Passport)).To(Succeed())
			Expect(store.SetSelection(sessionID, EmiratesID)).To(Succeed())

			doc, err := store.Selection(sessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc).To(Equal(EmiratesID))
		})

		When("the stored value is corrupted", func() {
			BeforeEach(func() {
				err := store.db.Update(func(tx *bbolt.Tx) error {
					session, err := tx.Bucket([]byte(sessionsBucket)).CreateBucketIfNotExists([]byte(sessionID))
					if err != nil {
						return err
					}
					return session.Put([]byte(docTypeKey), []byte("drivers_license"))
				})
				Expect(err).NotTo(HaveOccurred())
			})

			It("behaves like a missing selection", func() {
				_, err := store.Selection(sessionID)
				Expect(err).To(MatchError(ErrNoSelection))
			})
		})
	})

	Describe("Preview", func() {
		It("round-trips the encoded image", func() {
			Expect(store.SetPreview(sessionID, "data:image/png;base64,Zm9v")).To(Succeed())

			preview, ok := store.Preview(sessionID)
			Expect(ok).To(BeTrue())
			Expect(preview).To(Equal("data:image/png;base64,Zm9v"))
		})

		It("reports absence", func() {
			_, ok := store.Preview(sessionID)
			Expect(ok).To(BeFalse())
		})

		It("clears the slot", func() {
			Expect(store.SetPreview(sessionID, "data:image/png;base64,Zm9v")).To(Succeed())
			Expect(store.ClearPreview(sessionID)).To(Succeed())

			_, ok := store.Preview(sessionID)
			Expect(ok).To(BeFalse())
		})

		It("tolerates clearing a slot that was never written", func() {
			Expect(store.ClearPreview("never-seen")).To(Succeed())
		})
	})

	Describe("per-value capacity", func() {
		BeforeEach(func() {
			var err error
			store.Close()
			store, err = NewBoltSessionStoreWithLimit(filepath.Join(GinkgoT().TempDir(), "small.db"), 64)
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects oversized values with ErrValueTooLarge", func() {
			err := store.SetPreview(sessionID, strings.Repeat("x", 65))
			Expect(err).To(MatchError(ErrValueTooLarge))
		})

		It("leaves the previous value in place on a rejected write", func() {
			Expect(store.SetPreview(sessionID, "small enough")).To(Succeed())
			Expect(store.SetPreview(sessionID, strings.Repeat("x", 65))).To(MatchError(ErrValueTooLarge))

			preview, ok := store.Preview(sessionID)
			Expect(ok).To(BeTrue())
			Expect(preview).To(Equal("small enough"))
		})

		It("accepts values at the limit", func() {
			Expect(store.SetPreview(sessionID, strings.Repeat("x", 64))).To(Succeed())
		})
	})

	Describe("Result", func() {
		It("round-trips the envelope, including null fields and metadata", func() {
			idNumber := "784-1984-1234567-1"
			original := &scanning.ScanResult{
				DocumentType: "emirates_id",
				Fields: map[string]scanning.FieldExtraction{
					"id_number": {Value: &idNumber, Confidence: 0.953, BBox: []float64{10, 20, 110, 40}},
					"sex":       {Value: nil, Confidence: 0.4},
				},
				ProcessingTimeMS: 1534.21,
				Warnings:         []string{"Glare detected"},
				Metadata:         map[string]any{"pipeline": "mrz"},
			}
			Expect(store.SetResult(sessionID, original)).To(Succeed())

			result, err := store.Result(sessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(original))
		})

		It("returns ErrNoResult for an unknown session", func() {
			_, err := store.Result("never-seen")
			Expect(err).To(MatchError(ErrNoResult))
		})

		It("replaces an earlier envelope wholesale", func() {
			Expect(store.SetResult(sessionID, &scanning.ScanResult{DocumentType: "passport"})).To(Succeed())
			Expect(store.SetResult(sessionID, &scanning.ScanResult{DocumentType: "emirates_id"})).To(Succeed())

			result, err := store.Result(sessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.DocumentType).To(Equal("emirates_id"))
		})
	})

	It("keeps sessions isolated from each other", func() {
		Expect(store.SetSelection("session-1", Passport)).To(Succeed())
		Expect(store.SetSelection("session-2", EmiratesID)).To(Succeed())
		Expect(store.SetPreview("session-1", "data:image/png;base64,Zm9v")).To(Succeed())

		doc, err := store.Selection("session-2")
		Expect(err).NotTo(HaveOccurred())
		Expect(doc).To(Equal(EmiratesID))

		_, ok := store.Preview("session-2")
		Expect(ok).To(BeFalse())
	})

	It("persists state across reopens", func() {
		Expect(store.SetSelection(sessionID, Passport)).To(Succeed())
		Expect(store.Close()).To(Succeed())

		var err error
		store, err = NewBoltSessionStore(dbPath)
		Expect(err).NotTo(HaveOccurred())

		doc, err := store.Selection(sessionID)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc).To(Equal(Passport))
	})
})
