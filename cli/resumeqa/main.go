package main

import (
	"os"

	resumeqacmder "github.com/resumeqa/resumeqa/cmd/resumeqa"
)

func main() {
	cmd := resumeqacmder.NewResumeQACmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
