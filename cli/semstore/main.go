package main

import (
	"os"

	semstorecmder "github.com/semstore/semstore/cmd/semstore"
)

func main() {
	cmd := semstorecmder.NewSemstoreCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
