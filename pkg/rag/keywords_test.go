package rag_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/resumeqa/resumeqa/pkg/rag"
)

var _ = Describe("ExtractKeywords", func() {
	It("keeps technical terms and drops filler words", func() {
		keywords := rag.ExtractKeywords("What is Sahil's CGPA?")

		Expect(keywords).To(ContainElement("cgpa"))
		Expect(keywords).To(ContainElement("sahil"))
		Expect(keywords).NotTo(ContainElement("what"))
		Expect(keywords).NotTo(ContainElement("is"))
	})

	It("drops tokens of two characters or fewer", func() {
		keywords := rag.ExtractKeywords("go ML AI databases")
		Expect(keywords).To(ConsistOf("databases"))
	})

	It("keeps dotted terms intact", func() {
		keywords := rag.ExtractKeywords("Does he know node.js?")
		Expect(keywords).To(ContainElement("node.js"))
	})

	It("removes duplicates while preserving first-appearance order", func() {
		keywords := rag.ExtractKeywords("projects, more projects, and python projects")
		Expect(keywords).To(Equal([]string{"projects", "more", "python"}))
	})

	It("yields nothing for pure filler", func() {
		Expect(rag.ExtractKeywords("What is the...?")).To(BeEmpty())
	})

	It("strips trailing dots before the stopword and length checks", func() {
		Expect(rag.ExtractKeywords("tell me about... python...")).To(ConsistOf("python"))
		Expect(rag.ExtractKeywords("go... is... the...")).To(BeEmpty())
	})
})
