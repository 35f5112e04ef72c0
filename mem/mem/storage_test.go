package mem

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Storage", func() {
	It("should read and write in single unit", func() {
		storage := NewStorage(4 * KB)
		Expect(storage.Write(0, []byte{1, 2, 3, 4})).To(Succeed())

		res, err := storage.Read(0, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal([]byte{1, 2}))

		res, _ = storage.Read(1, 2)
		Expect(res).To(Equal([]byte{2, 3}))
	})

	It("should read and write across units", func() {
		storage := NewStorage(8 * KB)
		Expect(storage.Write(4094, []byte{1, 2, 3, 4})).To(Succeed())

		res, _ := storage.Read(4094, 4)
		Expect(res).To(Equal([]byte{1, 2, 3, 4}))
	})

	It("should read zeros from untouched units without allocating", func() {
		storage := NewStorage(1 * MB)

		res, err := storage.Read(64*KB, 8)

		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(make([]byte, 8)))
		Expect(storage.data).To(BeEmpty())
	})

	It("should return error if accessing over the capacity", func() {
		storage := NewStorage(4 * KB)

		err := storage.Write(4095, []byte{1, 2})
		Expect(err).To(MatchError(ErrBeyondCapacity))

		_, err = storage.Read(4097, 1)
		Expect(err).To(MatchError(ErrBeyondCapacity))
	})

	It("should read and write 64-bit words in little endian", func() {
		storage := NewStorage(4 * KB)
		Expect(storage.WriteUint64(8, 0x0102030405060708)).To(Succeed())

		b, _ := storage.Read(8, 1)
		Expect(b).To(Equal([]byte{0x08}))

		v, err := storage.ReadUint64(8)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint64(0x0102030405060708)))
	})
})
