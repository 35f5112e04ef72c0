package tracing

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SQLiteTraceWriter", func() {
	It("should write tasks and steps", func() {
		path := filepath.Join(GinkgoT().TempDir(), "trace")
		w := NewSQLiteTraceWriter(path)
		w.Init()
		defer w.Close()

		w.Write(Task{
			ID:        "1",
			Kind:      "walk",
			What:      "read",
			Where:     "Walker",
			StartTime: 1,
			EndTime:   2,
			Steps:     []TaskStep{{Time: 1.5, What: "pte_read"}},
		})
		w.Flush()

		var numTasks, numSteps int
		Expect(w.QueryRow("SELECT COUNT(*) FROM trace").Scan(&numTasks)).
			To(Succeed())
		Expect(w.QueryRow("SELECT COUNT(*) FROM trace_step").Scan(&numSteps)).
			To(Succeed())
		Expect(numTasks).To(Equal(1))
		Expect(numSteps).To(Equal(1))
	})

	It("should refuse to overwrite an existing database", func() {
		path := filepath.Join(GinkgoT().TempDir(), "trace")
		w := NewSQLiteTraceWriter(path)
		w.Init()
		defer w.Close()

		Expect(func() { NewSQLiteTraceWriter(path).Init() }).To(Panic())
	})
})
