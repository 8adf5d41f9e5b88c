package activity

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"go.etcd.io/bbolt"
)

var _ = Describe("BoltDB", func() {
	var db *BoltDB

	day := func(daysAgo int) time.Time {
		return time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -daysAgo)
	}

	newRecord := func(id, userID string, kind Kind, date time.Time) *Record {
		return &Record{
			ID:        id,
			UserID:    userID,
			Kind:      kind,
			Date:      date,
			CreatedAt: time.Now().UTC(),
		}
	}

	BeforeEach(func() {
		var err error
		db, err = NewBoltDB(filepath.Join(GinkgoT().TempDir(), "test.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	Describe("SaveRecord and ListRecords", func() {
		It("round-trips records per user", func() {
			Expect(db.SaveRecord(newRecord("a1", "alice", KindMeal, day(0)))).To(Succeed())
			Expect(db.SaveRecord(newRecord("a2", "alice", KindWorkout, day(1)))).To(Succeed())
			Expect(db.SaveRecord(newRecord("b1", "bob", KindMeal, day(0)))).To(Succeed())

			records, err := db.ListRecords("alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
		})

		It("overwrites a record for the same user, day, and kind", func() {
			Expect(db.SaveRecord(newRecord("a1", "alice", KindMeal, day(0)))).To(Succeed())
			Expect(db.SaveRecord(newRecord("a2", "alice", KindMeal, day(0)))).To(Succeed())

			records, err := db.ListRecords("alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].ID).To(Equal("a2"))
		})

		It("does not leak records across user prefixes", func() {
			Expect(db.SaveRecord(newRecord("a1", "al", KindMeal, day(0)))).To(Succeed())
			Expect(db.SaveRecord(newRecord("a2", "alice", KindMeal, day(0)))).To(Succeed())

			records, err := db.ListRecords("al")
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
			Expect(records[0].ID).To(Equal("a1"))
		})
	})

	Describe("ListDates", func() {
		BeforeEach(func() {
			Expect(db.SaveRecord(newRecord("a1", "alice", KindMeal, day(0)))).To(Succeed())
			Expect(db.SaveRecord(newRecord("a2", "alice", KindWorkout, day(0)))).To(Succeed())
			Expect(db.SaveRecord(newRecord("a3", "alice", KindMeal, day(2)))).To(Succeed())
		})

		It("returns all dates for an empty kind", func() {
			dates, err := db.ListDates("alice", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(dates).To(HaveLen(3))
		})

		It("filters dates by kind", func() {
			dates, err := db.ListDates("alice", KindMeal)
			Expect(err).NotTo(HaveOccurred())
			Expect(dates).To(ConsistOf(day(0), day(2)))
		})
	})

	Describe("NewBoltDBFrom", func() {
		It("shares an already-open handle", func() {
			path := filepath.Join(GinkgoT().TempDir(), "shared.db")
			bdb, err := bbolt.Open(path, 0600, nil)
			Expect(err).NotTo(HaveOccurred())
			defer bdb.Close()

			store, err := NewBoltDBFrom(bdb)
			Expect(err).NotTo(HaveOccurred())
			Expect(store.SaveRecord(newRecord("a1", "alice", KindMeal, day(0)))).To(Succeed())

			records, err := store.ListRecords("alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
		})
	})
})
