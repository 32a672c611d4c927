package resumeqacmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	resumeqacmder "github.com/resumeqa/resumeqa/cmd/resumeqa"
)

var _ = Describe("NewResumeQACmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := resumeqacmder.NewResumeQACmd()
		Expect(cmd.Use).To(Equal("resumeqa"))
	})

	It("has serve, ingest, ask, and version subcommands", func() {
		cmd := resumeqacmder.NewResumeQACmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("serve", "ingest", "ask", "version"))
	})

	It("exposes debug and config persistent flags", func() {
		cmd := resumeqacmder.NewResumeQACmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config")).NotTo(BeNil())
	})
})
