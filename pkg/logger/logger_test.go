package logger_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/resumeqa/resumeqa/pkg/logger"
)

var _ = Describe("Logger", func() {
	Describe("NewLoggerWithWriters", func() {
		It("writes info messages to the provided writer", func() {
			var buf bytes.Buffer
			l := logger.NewLoggerWithWriters(false, &buf)
			l.Info("hello world")
			_ = l.Sync()

			Expect(buf.String()).To(ContainSubstring("hello world"))
		})

		It("filters debug messages when debug is disabled", func() {
			var buf bytes.Buffer
			l := logger.NewLoggerWithWriters(false, &buf)
			l.Debug("hidden")
			_ = l.Sync()

			Expect(buf.String()).NotTo(ContainSubstring("hidden"))
		})

		It("emits debug messages when debug is enabled", func() {
			var buf bytes.Buffer
			l := logger.NewLoggerWithWriters(true, &buf)
			l.Debug("visible")
			_ = l.Sync()

			Expect(buf.String()).To(ContainSubstring("visible"))
		})

		It("writes to all provided writers", func() {
			var buf1, buf2 bytes.Buffer
			l := logger.NewLoggerWithWriters(false, &buf1, &buf2)
			l.Info("multi")
			_ = l.Sync()

			Expect(buf1.String()).To(ContainSubstring("multi"))
			Expect(buf2.String()).To(ContainSubstring("multi"))
		})
	})

	Describe("TruncateForLog", func() {
		It("returns short strings unchanged", func() {
			Expect(logger.TruncateForLog("short", 10)).To(Equal("short"))
		})

		It("truncates long strings with an ellipsis", func() {
			long := strings.Repeat("a", 20)
			Expect(logger.TruncateForLog(long, 10)).To(Equal(strings.Repeat("a", 10) + "..."))
		})

		It("returns empty output for a non-positive limit", func() {
			Expect(logger.TruncateForLog("anything", 0)).To(BeEmpty())
		})

		It("trims surrounding whitespace", func() {
			Expect(logger.TruncateForLog("  padded  ", 20)).To(Equal("padded"))
		})
	})
})
